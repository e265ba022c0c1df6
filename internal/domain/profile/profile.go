package profile

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("profile not found")

type Profile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Social    string    `json:"social,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View is the profile together with the owning account's public bits,
// which is what every profile endpoint returns.
type View struct {
	Profile
	User Owner `json:"user"`
}

type Owner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RegistrationRequest needs only credentials; a missing username falls back
// to the email's local part. The owner password policy applies to bootstrap
// alone, so the password here is merely non-empty.
type RegistrationRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
	Social   string `json:"social" binding:"omitempty,url"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Social   *string `json:"social" binding:"omitempty,url"`
}
