package userbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/types/role"
)

// User represents an individual account bound to exactly one tenant.
type User struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Email        mail.Address
	Role         role.Role
	PasswordHash []byte
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser contains information needed to create a new user.
type NewUser struct {
	Name     string
	Email    mail.Address
	Role     role.Role
	TenantID uuid.UUID
	Password string
}
