package model

// Role is the closed set of principal roles. Role strings coming in from
// the outside world must pass through ParseRole at the boundary.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

type StoreBackend string

const (
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendMemory   StoreBackend = "memory"
)
