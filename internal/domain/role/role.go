package role

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("role not found")
	ErrDuplicateName = errors.New("role name already exists")
	ErrInUse         = errors.New("role is still assigned to accounts")
)

// Seed role names created by the bootstrap. They are ordinary rows after
// that; only their value grants privilege.
const (
	NameUser  = "USER"
	NameAdmin = "ADMIN"
	NameOwner = "OWNER"
)

const (
	ValueUser  = 1
	ValueAdmin = 10
	ValueOwner = 999
)

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Value       int       `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required,uppercase"`
	Value       int    `json:"value" binding:"required,gt=0"`
	Description string `json:"description"`
}

// Pointer fields so a PUT can change any subset.
type UpdateRoleRequest struct {
	Name        *string `json:"name" binding:"omitempty,uppercase"`
	Value       *int    `json:"value" binding:"omitempty,gt=0"`
	Description *string `json:"description"`
}
