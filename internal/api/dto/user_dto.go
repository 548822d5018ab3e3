package dto

// AssigneeResponse describes a user who can take tickets.
type AssigneeResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}
