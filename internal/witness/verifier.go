// Package witness verifies the second signature required for controlled
// substance waste. A witness authenticates with their own credentials at the
// moment of signing and must be a distinct, active member of the service.
package witness

import (
	"errors"
	"strings"

	"github.com/example/ems-custody/internal/auth"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

var (
	ErrMissingCredentials = errors.New("witness credentials are required")
	ErrInvalidCredentials = errors.New("witness credentials are invalid")
	ErrSelfWitness        = errors.New("witness must be a different user")
	ErrNotAMember         = errors.New("witness is not an active member of this service")
)

// Credentials is what the second signer types at the point of waste.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Verifier resolves witness credentials against stored users and memberships.
type Verifier struct {
	store store.EntityStore
}

func NewVerifier(entityStore store.EntityStore) *Verifier {
	return &Verifier{store: entityStore}
}

// Verify authenticates the witness and confirms they may countersign for
// actorID within serviceID. The checks run in a fixed order so the caller
// always learns the first failure: missing credentials, then bad credentials,
// then self-witnessing, then membership.
func (v *Verifier) Verify(creds Credentials, actorID, serviceID string) (*entity.User, error) {
	email := strings.TrimSpace(strings.ToLower(creds.Email))
	if email == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}

	user := v.findUserByEmail(email)
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(creds.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if user.ID == actorID {
		return nil, ErrSelfWitness
	}

	if !v.hasActiveMembership(user.ID, serviceID) {
		return nil, ErrNotAMember
	}

	return user, nil
}

func (v *Verifier) findUserByEmail(email string) *entity.User {
	for _, raw := range v.store.GetAll(store.CollUsers) {
		user, ok := raw.(*entity.User)
		if !ok {
			continue
		}
		if strings.EqualFold(user.Email, email) {
			return user
		}
	}
	return nil
}

func (v *Verifier) hasActiveMembership(userID, serviceID string) bool {
	for _, raw := range v.store.GetAll(store.CollServiceMemberships) {
		m, ok := raw.(*entity.ServiceMembership)
		if !ok {
			continue
		}
		if m.UserID == userID && m.ServiceID == serviceID && m.IsActive {
			return true
		}
	}
	return false
}
