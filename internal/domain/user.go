package domain

// User is the read-side view of an identity provisioned outside this service.
type User struct {
	ID       string
	FullName string
	Email    string
	Roles    RoleSet
}

// DisplayName falls back to the email when no full name is recorded.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
