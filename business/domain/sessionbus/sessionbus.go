// Package sessionbus provides business access to the refresh session ledger.
package sessionbus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/jcpaschoal/tenantauth/foundation/otel"
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, s Session) error
	Revoke(ctx context.Context, tokenHash string, now time.Time) (int64, error)
	QueryActive(ctx context.Context, userID uuid.UUID, tenantID uuid.UUID) ([]Session, error)
	DeleteStale(ctx context.Context, createdBefore time.Time) (int64, error)
}

// Core manages the set of APIs for session access.
type Core struct {
	log    *logger.Logger
	storer Storer
}

// NewCore constructs a session core API for use.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
	}
}

// NewWithTx constructs a new Core value that will use the
// specified transaction in any store related calls.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return NewCore(c.log, storer), nil
}

// Create records a new session for the refresh token.
func (c *Core) Create(ctx context.Context, ns NewSession) (Session, error) {
	ctx, span := otel.AddSpan(ctx, "business.sessionbus.create")
	defer span.End()

	now := time.Now()

	s := Session{
		ID:        uuid.New(),
		UserID:    ns.UserID,
		TenantID:  ns.TenantID,
		TokenHash: hashToken(ns.RefreshToken),
		IPAddress: ns.IPAddress,
		UserAgent: ns.UserAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storer.Create(ctx, s); err != nil {
		return Session{}, fmt.Errorf("create: %w", err)
	}

	return s, nil
}

// RevokeByToken marks every session recorded for the refresh token as
// revoked and reports how many rows changed. Matching nothing is not an
// error.
func (c *Core) RevokeByToken(ctx context.Context, refreshToken string) (int64, error) {
	ctx, span := otel.AddSpan(ctx, "business.sessionbus.revokeByToken")
	defer span.End()

	n, err := c.storer.Revoke(ctx, hashToken(refreshToken), time.Now())
	if err != nil {
		return 0, fmt.Errorf("revoke: %w", err)
	}

	return n, nil
}

// QueryActive returns the sessions of the user in the tenant that have not
// been revoked.
func (c *Core) QueryActive(ctx context.Context, userID uuid.UUID, tenantID uuid.UUID) ([]Session, error) {
	ctx, span := otel.AddSpan(ctx, "business.sessionbus.queryActive")
	defer span.End()

	sessions, err := c.storer.QueryActive(ctx, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query: userID[%s] tenantID[%s]: %w", userID, tenantID, err)
	}

	return sessions, nil
}

// Reap deletes revoked sessions and sessions created before the cutoff.
func (c *Core) Reap(ctx context.Context, createdBefore time.Time) (int64, error) {
	ctx, span := otel.AddSpan(ctx, "business.sessionbus.reap")
	defer span.End()

	n, err := c.storer.DeleteStale(ctx, createdBefore)
	if err != nil {
		return 0, fmt.Errorf("reap: %w", err)
	}

	c.log.Info(ctx, "sessionbus: reaped", "rows", n, "before", createdBefore)

	return n, nil
}
