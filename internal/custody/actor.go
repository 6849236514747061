package custody

import "github.com/example/ems-custody/internal/entity"

// Actor identifies who performs an operation and in which service. Handlers
// build it from validated token claims; workflows never look it up themselves.
type Actor struct {
	UserID    string
	ServiceID string
	Role      entity.Role
}
