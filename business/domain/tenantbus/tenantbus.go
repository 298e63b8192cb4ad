// Package tenantbus provides business access to the tenant domain.
package tenantbus

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/jcpaschoal/tenantauth/foundation/otel"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound      = errors.New("tenant not found")
	ErrUniqueEmail   = errors.New("admin email is not unique")
	ErrInvalidSecret = errors.New("invalid tenant secret")
)

// Storer defines the behavior required by the tenantbus to interact with the database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, t Tenant) error
	Delete(ctx context.Context, tenantID uuid.UUID) (int64, error)
	QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error)
	QueryByAdminEmail(ctx context.Context, email mail.Address) (Tenant, error)
}

// Core manages the set of APIs for tenant access.
type Core struct {
	storer Storer
	log    *logger.Logger
	secret string
}

// NewCore constructs a core for tenant api access. The secret gates tenant
// creation.
func NewCore(log *logger.Logger, storer Storer, secret string) *Core {
	return &Core{
		storer: storer,
		log:    log,
		secret: secret,
	}
}

// NewWithTx constructs a new Core value replacing the Storer
// value with a Storer value that is currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	return NewCore(c.log, storer, c.secret), nil
}

// Create adds a new tenant to the system.
func (c *Core) Create(ctx context.Context, nt NewTenant) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.create")
	defer span.End()

	if c.secret == "" || subtle.ConstantTimeCompare([]byte(nt.Secret), []byte(c.secret)) != 1 {
		return Tenant{}, fmt.Errorf("create: %w", ErrInvalidSecret)
	}

	now := time.Now()

	t := Tenant{
		ID:         uuid.New(),
		Name:       nt.Name,
		AdminEmail: nt.AdminEmail,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := c.storer.Create(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("create: %w", err)
	}

	return t, nil
}

// Delete removes the specified tenant from the system. It fails with
// ErrNotFound when nothing was removed.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.delete")
	defer span.End()

	n, err := c.storer.Delete(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("delete: tenantID[%s]: %w", tenantID, err)
	}

	if n == 0 {
		return fmt.Errorf("delete: tenantID[%s]: %w", tenantID, ErrNotFound)
	}

	return nil
}

// QueryByID finds the tenant by the specified ID.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryByID")
	defer span.End()

	tenant, err := c.storer.QueryByID(ctx, tenantID)
	if err != nil {
		return Tenant{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	return tenant, nil
}

// QueryByAdminEmail finds the tenant whose admin registered with the
// specified email.
func (c *Core) QueryByAdminEmail(ctx context.Context, email mail.Address) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryByAdminEmail")
	defer span.End()

	tenant, err := c.storer.QueryByAdminEmail(ctx, email)
	if err != nil {
		return Tenant{}, fmt.Errorf("query: adminEmail[%s]: %w", email.Address, err)
	}

	return tenant, nil
}
