package tenantbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated organization that owns its users.
type Tenant struct {
	ID         uuid.UUID
	Name       string
	AdminEmail mail.Address
	Deleted    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewTenant contains information needed to create a new tenant. Secret must
// match the provisioning secret the core was built with.
type NewTenant struct {
	Name       string
	AdminEmail mail.Address
	Secret     string
}
