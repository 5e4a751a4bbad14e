package domain

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleGuest   Role = "guest"
	RoleChannel Role = "channel"
)

// Actor identifies who is performing a mutating call. It is passed
// explicitly into the core instead of being read from ambient session
// state.
type Actor struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
