package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisReadStore keeps read models in Redis, one hash per collection with
// JSON-encoded values. Because values come back as bytes, each collection
// must register a factory so Get can decode into the right concrete type.
type RedisReadStore struct {
	client *redis.Client
	prefix string
	log    *logrus.Logger

	mu        sync.RWMutex
	factories map[string]func() any
}

func NewRedisReadStore(client *redis.Client, prefix string, log *logrus.Logger) *RedisReadStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisReadStore{
		client:    client,
		prefix:    prefix,
		log:       log,
		factories: make(map[string]func() any),
	}
}

// RegisterModel maps a collection to a constructor for its read model type.
func (rs *RedisReadStore) RegisterModel(collection string, factory func() any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.factories[collection] = factory
}

func (rs *RedisReadStore) key(collection string) string {
	return rs.prefix + ":" + collection
}

func (rs *RedisReadStore) decode(collection string, raw string) (any, bool) {
	rs.mu.RLock()
	factory, ok := rs.factories[collection]
	rs.mu.RUnlock()
	if !ok {
		rs.log.WithField("collection", collection).Warn("redis read store: no model registered")
		return nil, false
	}

	model := factory()
	if err := json.Unmarshal([]byte(raw), model); err != nil {
		rs.log.WithError(err).WithField("collection", collection).Warn("redis read store: decode failed")
		return nil, false
	}
	return model, true
}

func (rs *RedisReadStore) Set(collection, id string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		rs.log.WithError(err).WithField("collection", collection).Warn("redis read store: encode failed")
		return
	}
	if err := rs.client.HSet(context.Background(), rs.key(collection), id, raw).Err(); err != nil {
		rs.log.WithError(err).WithField("collection", collection).Warn("redis read store: set failed")
	}
}

func (rs *RedisReadStore) Get(collection, id string) (any, bool) {
	raw, err := rs.client.HGet(context.Background(), rs.key(collection), id).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		rs.log.WithError(err).WithField("collection", collection).Warn("redis read store: get failed")
		return nil, false
	}
	return rs.decode(collection, raw)
}

func (rs *RedisReadStore) GetAll(collection string) []any {
	values, err := rs.client.HGetAll(context.Background(), rs.key(collection)).Result()
	if err != nil {
		rs.log.WithError(err).WithField("collection", collection).Warn("redis read store: getall failed")
		return nil
	}

	var items []any
	for _, raw := range values {
		if model, ok := rs.decode(collection, raw); ok {
			items = append(items, model)
		}
	}
	return items
}

func (rs *RedisReadStore) Delete(collection, id string) {
	if err := rs.client.HDel(context.Background(), rs.key(collection), id).Err(); err != nil {
		rs.log.WithError(err).WithField("collection", collection).Warn("redis read store: delete failed")
	}
}

// Update applies updateFn read-modify-write. Redis hashes have no CAS on a
// single field here; concurrent projector instances must partition by key.
func (rs *RedisReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	current, ok := rs.Get(collection, id)
	if !ok {
		return false
	}
	rs.Set(collection, id, updateFn(current))
	return true
}
