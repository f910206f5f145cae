package entity

// Status is the account state reported by the API.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

// Type distinguishes regular accounts from administrators.
type Type string

const (
	TypeRegular Type = "regular"
	TypeAdmin   Type = "admin"
)

// User is the account record returned by the auth and user endpoints.
// Identity is ID; email uniqueness is enforced by the server.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status Status `json:"status"`
	Type   Type   `json:"type"`
}

// UpdateProfileRequest is the body of PATCH /user/profile.
type UpdateProfileRequest struct {
	FirstName     string  `json:"first_name" validate:"min=1"`
	LastName      string  `json:"last_name" validate:"min=1"`
	Email         string  `json:"email" validate:"email"`
	ContactNumber *string `json:"contact_number,omitempty"`
	Position      *string `json:"position,omitempty"`
}

// ChangePasswordRequest is the body of POST /auth/change-password.
// The mismatch check runs first so a wrong confirmation is always reported
// on confirm_password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"min=8"`
	NewPassword     string `json:"new_password" validate:"min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=NewPassword,min=8"`
}
