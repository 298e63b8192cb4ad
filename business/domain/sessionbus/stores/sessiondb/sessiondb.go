// Package sessiondb contains session related CRUD functionality.
package sessiondb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for session database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (sessionbus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// Create inserts a new session into the database. The (user_id, tenant_id)
// foreign key rejects pairs that don't name an existing user.
func (s *Store) Create(ctx context.Context, ses sessionbus.Session) error {
	const q = `
	INSERT INTO sessions
		(session_id, user_id, tenant_id, token_hash, ip_address, user_agent, revoked, created_at, updated_at)
	VALUES
		(:session_id, :user_id, :tenant_id, :token_hash, :ip_address, :user_agent, :revoked, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBSession(ses)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Revoke flags the sessions recorded for the token hash. Rows already
// revoked are left untouched.
func (s *Store) Revoke(ctx context.Context, tokenHash string, now time.Time) (int64, error) {
	data := struct {
		TokenHash string    `db:"token_hash"`
		UpdatedAt time.Time `db:"updated_at"`
	}{
		TokenHash: tokenHash,
		UpdatedAt: now.UTC(),
	}

	const q = `
	UPDATE
		sessions
	SET
		revoked = TRUE,
		updated_at = :updated_at
	WHERE
		token_hash = :token_hash AND NOT revoked`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return 0, fmt.Errorf("namedexeccontext: %w", err)
	}

	return n, nil
}

// QueryActive retrieves the non revoked sessions for the identity.
func (s *Store) QueryActive(ctx context.Context, userID uuid.UUID, tenantID uuid.UUID) ([]sessionbus.Session, error) {
	data := struct {
		UserID   string `db:"user_id"`
		TenantID string `db:"tenant_id"`
	}{
		UserID:   userID.String(),
		TenantID: tenantID.String(),
	}

	const q = `
	SELECT
		session_id, user_id, tenant_id, token_hash, ip_address, user_agent, revoked, created_at, updated_at
	FROM
		sessions
	WHERE
		user_id = :user_id AND tenant_id = :tenant_id AND NOT revoked
	ORDER BY
		created_at DESC`

	var dbSess []sessionDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbSess); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusSessions(dbSess), nil
}

// DeleteStale removes revoked sessions and sessions older than the cutoff.
func (s *Store) DeleteStale(ctx context.Context, createdBefore time.Time) (int64, error) {
	data := struct {
		CreatedBefore time.Time `db:"created_before"`
	}{
		CreatedBefore: createdBefore.UTC(),
	}

	const q = `
	DELETE FROM
		sessions
	WHERE
		revoked OR created_at < :created_before`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return 0, fmt.Errorf("namedexeccontext: %w", err)
	}

	return n, nil
}
