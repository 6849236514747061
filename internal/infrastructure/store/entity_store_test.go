package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name string
}

func TestMemoryEntityStore_PutGet(t *testing.T) {
	s := NewMemoryEntityStore()

	s.Put("things", "a", &row{Name: "first"})

	got, ok := s.Get("things", "a")
	require.True(t, ok)
	assert.Equal(t, "first", got.(*row).Name)

	_, ok = s.Get("things", "missing")
	assert.False(t, ok)

	_, ok = s.Get("nothing", "a")
	assert.False(t, ok)
}

func TestMemoryEntityStore_Commit_AppliesAllMutations(t *testing.T) {
	s := NewMemoryEntityStore()
	s.Put("things", "old", &row{Name: "old"})

	err := s.Commit(context.Background(), nil, []Mutation{
		{Collection: "things", ID: "a", Value: &row{Name: "a"}},
		{Collection: "things", ID: "b", Value: &row{Name: "b"}},
		{Collection: "things", ID: "old", Value: nil}, // delete
	})
	require.NoError(t, err)

	_, ok := s.Get("things", "a")
	assert.True(t, ok)
	_, ok = s.Get("things", "b")
	assert.True(t, ok)
	_, ok = s.Get("things", "old")
	assert.False(t, ok)
}

func TestMemoryEntityStore_Commit_FailedCheckAppliesNothing(t *testing.T) {
	s := NewMemoryEntityStore()
	s.Put("things", "a", &row{Name: "before"})

	boom := errors.New("state changed")
	err := s.Commit(context.Background(),
		[]Check{
			{Collection: "things", ID: "a", Verify: func(current any) error { return nil }},
			{Collection: "things", ID: "a", Verify: func(current any) error { return boom }},
		},
		[]Mutation{
			{Collection: "things", ID: "a", Value: &row{Name: "after"}},
			{Collection: "things", ID: "b", Value: &row{Name: "new"}},
		},
	)
	require.ErrorIs(t, err, boom)

	got, ok := s.Get("things", "a")
	require.True(t, ok)
	assert.Equal(t, "before", got.(*row).Name, "failed commit must not mutate")
	_, ok = s.Get("things", "b")
	assert.False(t, ok)
}

func TestMemoryEntityStore_Commit_CheckSeesCurrentValue(t *testing.T) {
	s := NewMemoryEntityStore()
	s.Put("things", "a", &row{Name: "current"})

	var seen *row
	err := s.Commit(context.Background(),
		[]Check{{Collection: "things", ID: "a", Verify: func(current any) error {
			seen = current.(*row)
			return nil
		}}},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "current", seen.Name)

	// Absent row passes nil to the guard.
	var sawNil bool
	err = s.Commit(context.Background(),
		[]Check{{Collection: "things", ID: "missing", Verify: func(current any) error {
			sawNil = current == nil
			return nil
		}}},
		nil,
	)
	require.NoError(t, err)
	assert.True(t, sawNil)
}

func TestMemoryEntityStore_ReplaceAllAndReset(t *testing.T) {
	s := NewMemoryEntityStore()
	s.Put("things", "a", &row{Name: "a"})

	s.ReplaceAll(map[string]map[string]any{
		"others": {"x": &row{Name: "x"}},
	})

	_, ok := s.Get("things", "a")
	assert.False(t, ok, "import replaces the store wholesale")
	_, ok = s.Get("others", "x")
	assert.True(t, ok)
	assert.Equal(t, []string{"others"}, s.Collections())

	s.Reset()
	assert.Empty(t, s.Collections())
}
