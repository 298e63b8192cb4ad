package tenantdb

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
)

// tenantDB represents the structure of the tenants table in the database.
type tenantDB struct {
	ID         uuid.UUID `db:"tenant_id"`
	Name       string    `db:"name"`
	AdminEmail string    `db:"admin_email"`
	Deleted    bool      `db:"deleted"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func toDBTenant(bus tenantbus.Tenant) tenantDB {
	return tenantDB{
		ID:         bus.ID,
		Name:       bus.Name,
		AdminEmail: bus.AdminEmail.Address,
		Deleted:    bus.Deleted,
		CreatedAt:  bus.CreatedAt.UTC(),
		UpdatedAt:  bus.UpdatedAt.UTC(),
	}
}

func toBusTenant(db tenantDB) tenantbus.Tenant {
	return tenantbus.Tenant{
		ID:         db.ID,
		Name:       db.Name,
		AdminEmail: mail.Address{Address: db.AdminEmail},
		Deleted:    db.Deleted,
		CreatedAt:  db.CreatedAt.In(time.Local),
		UpdatedAt:  db.UpdatedAt.In(time.Local),
	}
}
