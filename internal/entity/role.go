package entity

type Role string

const (
	RoleDriver       Role = "Driver"
	RoleEMT          Role = "EMT"
	RoleAdvancedEMT  Role = "AdvancedEMT"
	RoleParamedic    Role = "Paramedic"
	RoleSupervisor   Role = "Supervisor"
	RoleCompanyAdmin Role = "CompanyAdmin"
	RoleSystemAdmin  Role = "SystemAdmin"
)

// roleRanks is a total order over the closed role set. Unknown roles rank 0,
// below Driver.
var roleRanks = map[Role]int{
	RoleDriver:       1,
	RoleEMT:          2,
	RoleAdvancedEMT:  3,
	RoleParamedic:    4,
	RoleSupervisor:   5,
	RoleCompanyAdmin: 6,
	RoleSystemAdmin:  7,
}

func (r Role) Rank() int {
	return roleRanks[r]
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// AtLeast reports whether r carries at least the authority of min.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}
