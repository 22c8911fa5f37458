package identity

import "time"

// Partition names one of the disjoint account stores.
// Usernames are meant to be globally unique across all partitions; Register
// enforces that at write time, while reads keep a fixed probe order so any
// pre-existing duplicate still resolves deterministically.
type Partition string

const (
	PartitionSupplier       Partition = "supplier"
	PartitionContractor     Partition = "contractor"
	PartitionProjectManager Partition = "project_manager"
	PartitionGovernment     Partition = "government"
	PartitionSupervisor     Partition = "supervisor"
)

// ProbeOrder is the fixed partition priority used by the resolver.
// Keep this stable; it decides which account wins for legacy duplicate usernames.
var ProbeOrder = []Partition{
	PartitionSupplier,
	PartitionContractor,
	PartitionProjectManager,
	PartitionGovernment,
	PartitionSupervisor,
}

func (p Partition) Valid() bool {
	switch p {
	case PartitionSupplier, PartitionContractor, PartitionProjectManager, PartitionGovernment, PartitionSupervisor:
		return true
	default:
		return false
	}
}

// Role granted to every account of the partition.
func (p Partition) Role() string { return string(p) }

// Account is one row of a partition store.
// PasswordHash is a bcrypt hash; it never leaves the package in responses.
type Account struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Partition    Partition `json:"partition" db:"-"`
	Roles        []string  `json:"roles" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Principal is the authenticated identity bound to a connection or request.
//
// SubjectID is the addressable identity. Anything that authorizes or addresses
// a user MUST use SubjectID; Username exists only for re-lookup. The two are
// decoupled because historically issued tokens encoded only the username.
type Principal struct {
	SubjectID string   `json:"subject_id"`
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	Partition Partition `json:"partition"`
}

// NewPrincipal builds a Principal from a resolved account.
func NewPrincipal(a Account) Principal {
	roles := a.Roles
	if len(roles) == 0 {
		roles = []string{a.Partition.Role()}
	}
	return Principal{
		SubjectID: a.ID,
		Username:  a.Username,
		Roles:     roles,
		Partition: a.Partition,
	}
}
