// Package unitest provides in-memory storers and a journaling transaction
// so business packages can be tested without a database.
package unitest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
)

// Operations that can be told to fail with DB.Fail.
const (
	OpTenantCreate  = "tenants.create"
	OpUserCreate    = "users.create"
	OpSessionCreate = "sessions.create"
	OpSessionRevoke = "sessions.revoke"
)

// DB is an in-memory database shared by the storers in this package. It
// enforces the same unique and foreign key rules as the real schema.
type DB struct {
	mu       sync.Mutex
	tenants  map[uuid.UUID]tenantbus.Tenant
	users    map[uuid.UUID]userbus.User
	sessions map[uuid.UUID]sessionbus.Session
	failures map[string]error
	commits  int
	rollback int
}

// NewDB constructs an empty in-memory database.
func NewDB() *DB {
	return &DB{
		tenants:  make(map[uuid.UUID]tenantbus.Tenant),
		users:    make(map[uuid.UUID]userbus.User),
		sessions: make(map[uuid.UUID]sessionbus.Session),
		failures: make(map[string]error),
	}
}

// Fail makes every call of the named operation return err. A nil err clears
// the failure.
func (db *DB) Fail(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err == nil {
		delete(db.failures, op)
		return
	}

	db.failures[op] = err
}

// Begin implements sqldb.Beginner.
func (db *DB) Begin() (sqldb.CommitRollbacker, error) {
	return &Tx{db: db}, nil
}

// Tenants returns a copy of every stored tenant.
func (db *DB) Tenants() []tenantbus.Tenant {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]tenantbus.Tenant, 0, len(db.tenants))
	for _, t := range db.tenants {
		out = append(out, t)
	}

	return out
}

// Users returns a copy of every stored user.
func (db *DB) Users() []userbus.User {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]userbus.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, u)
	}

	return out
}

// Sessions returns a copy of every stored session, revoked ones included.
func (db *DB) Sessions() []sessionbus.Session {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]sessionbus.Session, 0, len(db.sessions))
	for _, s := range db.sessions {
		out = append(out, s)
	}

	return out
}

// Commits reports how many transactions were committed.
func (db *DB) Commits() int {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.commits
}

// Rollbacks reports how many transactions were rolled back.
func (db *DB) Rollbacks() int {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.rollback
}

func (db *DB) failure(op string) error {
	if err, ok := db.failures[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// =============================================================================

// Tx is a transaction over DB. Writes apply immediately and record an undo
// step; Rollback replays the undo steps in reverse.
type Tx struct {
	db   *DB
	mu   sync.Mutex
	undo []func()
	done bool
}

// Commit implements sqldb.CommitRollbacker.
func (tx *Tx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return sql.ErrTxDone
	}

	tx.done = true
	tx.undo = nil

	tx.db.mu.Lock()
	tx.db.commits++
	tx.db.mu.Unlock()

	return nil
}

// Rollback implements sqldb.CommitRollbacker.
func (tx *Tx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return sql.ErrTxDone
	}

	tx.done = true

	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()

	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	tx.db.rollback++

	return nil
}

// record must be called with db.mu held.
func (tx *Tx) record(fn func()) {
	if tx == nil {
		return
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	tx.undo = append(tx.undo, fn)
}

func asTx(tx sqldb.CommitRollbacker) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("Transactor(%T) not of a type *unitest.Tx", tx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil, sql.ErrTxDone
	}

	return t, nil
}

// =============================================================================

// TenantStore implements tenantbus.Storer.
type TenantStore struct {
	db *DB
	tx *Tx
}

// NewTenantStore constructs a tenant storer over db.
func NewTenantStore(db *DB) *TenantStore {
	return &TenantStore{db: db}
}

// NewWithTx implements tenantbus.Storer.
func (s *TenantStore) NewWithTx(tx sqldb.CommitRollbacker) (tenantbus.Storer, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	return &TenantStore{db: s.db, tx: t}, nil
}

// Create implements tenantbus.Storer.
func (s *TenantStore) Create(_ context.Context, t tenantbus.Tenant) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.failure(OpTenantCreate); err != nil {
		return err
	}

	for _, existing := range s.db.tenants {
		if existing.AdminEmail.Address == t.AdminEmail.Address {
			return fmt.Errorf("create: %w", tenantbus.ErrUniqueEmail)
		}
	}

	s.db.tenants[t.ID] = t
	s.tx.record(func() { delete(s.db.tenants, t.ID) })

	return nil
}

// Delete implements tenantbus.Storer. Users and sessions of the tenant are
// removed with it.
func (s *TenantStore) Delete(_ context.Context, tenantID uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, ok := s.db.tenants[tenantID]
	if !ok {
		return 0, nil
	}

	delete(s.db.tenants, tenantID)
	s.tx.record(func() { s.db.tenants[t.ID] = t })

	for id, u := range s.db.users {
		if u.TenantID == tenantID {
			delete(s.db.users, id)
			s.tx.record(func() { s.db.users[u.ID] = u })
		}
	}

	for id, ses := range s.db.sessions {
		if ses.TenantID == tenantID {
			delete(s.db.sessions, id)
			s.tx.record(func() { s.db.sessions[ses.ID] = ses })
		}
	}

	return 1, nil
}

// QueryByID implements tenantbus.Storer.
func (s *TenantStore) QueryByID(_ context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, ok := s.db.tenants[tenantID]
	if !ok || t.Deleted {
		return tenantbus.Tenant{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
	}

	return t, nil
}

// QueryByAdminEmail implements tenantbus.Storer.
func (s *TenantStore) QueryByAdminEmail(_ context.Context, email mail.Address) (tenantbus.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, t := range s.db.tenants {
		if t.AdminEmail.Address == email.Address && !t.Deleted {
			return t, nil
		}
	}

	return tenantbus.Tenant{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
}

// =============================================================================

// UserStore implements userbus.Storer.
type UserStore struct {
	db *DB
	tx *Tx
}

// NewUserStore constructs a user storer over db.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// NewWithTx implements userbus.Storer.
func (s *UserStore) NewWithTx(tx sqldb.CommitRollbacker) (userbus.Storer, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	return &UserStore{db: s.db, tx: t}, nil
}

// Create implements userbus.Storer.
func (s *UserStore) Create(_ context.Context, usr userbus.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.failure(OpUserCreate); err != nil {
		return err
	}

	if _, ok := s.db.tenants[usr.TenantID]; !ok {
		return fmt.Errorf("create: %w", sqldb.ErrForeignKeyMissing)
	}

	for _, existing := range s.db.users {
		if existing.Email.Address == usr.Email.Address {
			return fmt.Errorf("create: %w", userbus.ErrUniqueEmail)
		}
	}

	s.db.users[usr.ID] = usr
	s.tx.record(func() { delete(s.db.users, usr.ID) })

	return nil
}

// QueryByID implements userbus.Storer.
func (s *UserStore) QueryByID(_ context.Context, userID uuid.UUID) (userbus.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	usr, ok := s.db.users[userID]
	if !ok || usr.Deleted {
		return userbus.User{}, fmt.Errorf("db: %w", userbus.ErrNotFound)
	}

	return usr, nil
}

// QueryByEmail implements userbus.Storer.
func (s *UserStore) QueryByEmail(_ context.Context, email mail.Address) (userbus.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, usr := range s.db.users {
		if usr.Email.Address == email.Address && !usr.Deleted {
			return usr, nil
		}
	}

	return userbus.User{}, fmt.Errorf("db: %w", userbus.ErrNotFound)
}

// QueryByTenant implements userbus.Storer.
func (s *UserStore) QueryByTenant(_ context.Context, tenantID uuid.UUID) ([]userbus.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []userbus.User
	for _, usr := range s.db.users {
		if usr.TenantID == tenantID && !usr.Deleted {
			out = append(out, usr)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

// =============================================================================

// SessionStore implements sessionbus.Storer.
type SessionStore struct {
	db *DB
	tx *Tx
}

// NewSessionStore constructs a session storer over db.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// NewWithTx implements sessionbus.Storer.
func (s *SessionStore) NewWithTx(tx sqldb.CommitRollbacker) (sessionbus.Storer, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	return &SessionStore{db: s.db, tx: t}, nil
}

// Create implements sessionbus.Storer.
func (s *SessionStore) Create(_ context.Context, ses sessionbus.Session) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.failure(OpSessionCreate); err != nil {
		return err
	}

	usr, ok := s.db.users[ses.UserID]
	if !ok || usr.TenantID != ses.TenantID {
		return fmt.Errorf("create: %w", sqldb.ErrForeignKeyMissing)
	}

	s.db.sessions[ses.ID] = ses
	s.tx.record(func() { delete(s.db.sessions, ses.ID) })

	return nil
}

// Revoke implements sessionbus.Storer.
func (s *SessionStore) Revoke(_ context.Context, tokenHash string, now time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.failure(OpSessionRevoke); err != nil {
		return 0, err
	}

	var n int64
	for id, ses := range s.db.sessions {
		if ses.TokenHash != tokenHash || ses.Revoked {
			continue
		}

		prev := ses
		ses.Revoked = true
		ses.UpdatedAt = now
		s.db.sessions[id] = ses
		s.tx.record(func() { s.db.sessions[prev.ID] = prev })
		n++
	}

	return n, nil
}

// QueryActive implements sessionbus.Storer.
func (s *SessionStore) QueryActive(_ context.Context, userID uuid.UUID, tenantID uuid.UUID) ([]sessionbus.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []sessionbus.Session
	for _, ses := range s.db.sessions {
		if ses.UserID == userID && ses.TenantID == tenantID && !ses.Revoked {
			out = append(out, ses)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

// DeleteStale implements sessionbus.Storer.
func (s *SessionStore) DeleteStale(_ context.Context, createdBefore time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var n int64
	for id, ses := range s.db.sessions {
		if ses.Revoked || ses.CreatedAt.Before(createdBefore) {
			delete(s.db.sessions, id)
			s.tx.record(func() { s.db.sessions[ses.ID] = ses })
			n++
		}
	}

	return n, nil
}

// =============================================================================

// ErrForced is a convenience error for DB.Fail.
var ErrForced = errors.New("forced failure")
