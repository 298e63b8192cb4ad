package authbus_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/domain/authbus"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus/stores/usercache"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/business/sdk/unitest"
	"github.com/jcpaschoal/tenantauth/business/types/role"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const provisioningSecret = "let-me-in"

// stubIssuer produces readable tokens of the form kind:user:tenant:n.
type stubIssuer struct {
	n atomic.Int64
}

func (s *stubIssuer) IssueAccess(userID uuid.UUID, tenantID uuid.UUID) (string, error) {
	return fmt.Sprintf("access:%s:%s:%d", userID, tenantID, s.n.Add(1)), nil
}

func (s *stubIssuer) IssueRefresh(userID uuid.UUID, tenantID uuid.UUID) (string, error) {
	return fmt.Sprintf("refresh:%s:%s:%d", userID, tenantID, s.n.Add(1)), nil
}

func (s *stubIssuer) VerifyRefresh(token string) (uuid.UUID, uuid.UUID, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 4 || parts[0] != "refresh" {
		return uuid.Nil, uuid.Nil, errors.New("malformed token")
	}

	userID, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	tenantID, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return userID, tenantID, nil
}

type testEnv struct {
	core   *authbus.Core
	db     *unitest.DB
	issuer *stubIssuer
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", func(context.Context) string { return "" })

	db := unitest.NewDB()
	issuer := &stubIssuer{}

	tenantBus := tenantbus.NewCore(log, unitest.NewTenantStore(db), provisioningSecret)
	userBus := userbus.NewCore(unitest.NewUserStore(db))
	sessionBus := sessionbus.NewCore(log, unitest.NewSessionStore(db))

	return testEnv{
		core:   authbus.NewCore(log, db, tenantBus, userBus, sessionBus, issuer),
		db:     db,
		issuer: issuer,
	}
}

func addr(email string) mail.Address {
	return mail.Address{Address: email}
}

func registerAdmin(t *testing.T, env testEnv, email string) userbus.User {
	t.Helper()

	usr, err := env.core.RegisterAdmin(context.Background(), authbus.RegisterAdmin{
		Name:     "Admin",
		Email:    addr(email),
		Password: "gophers",
		Secret:   provisioningSecret,
	})
	require.NoError(t, err)

	return usr
}

var device = authbus.Device{IPAddress: "10.0.0.1", UserAgent: "go-test"}

// =============================================================================

func Test_RegisterAdmin(t *testing.T) {
	env := newTestEnv(t)

	usr := registerAdmin(t, env, "a@x.com")

	tenants := env.db.Tenants()
	require.Len(t, tenants, 1)

	users := env.db.Users()
	require.Len(t, users, 1)

	assert.Equal(t, role.Admin, users[0].Role)
	assert.Equal(t, tenants[0].ID, users[0].TenantID)
	assert.Equal(t, usr.ID, users[0].ID)
	assert.Equal(t, "a@x.com", tenants[0].AdminEmail.Address)
	assert.Equal(t, 1, env.db.Commits())
}

func Test_RegisterAdminRollsBackTenant(t *testing.T) {
	env := newTestEnv(t)
	env.db.Fail(unitest.OpUserCreate, unitest.ErrForced)

	_, err := env.core.RegisterAdmin(context.Background(), authbus.RegisterAdmin{
		Name:     "Admin",
		Email:    addr("a@x.com"),
		Password: "gophers",
		Secret:   provisioningSecret,
	})
	require.ErrorIs(t, err, unitest.ErrForced)

	assert.Empty(t, env.db.Tenants())
	assert.Empty(t, env.db.Users())
	assert.Equal(t, 1, env.db.Rollbacks())
}

func Test_RegisterAdminDuplicate(t *testing.T) {
	env := newTestEnv(t)

	registerAdmin(t, env, "a@x.com")

	_, err := env.core.RegisterAdmin(context.Background(), authbus.RegisterAdmin{
		Name:     "Again",
		Email:    addr("a@x.com"),
		Password: "gophers",
		Secret:   provisioningSecret,
	})
	require.ErrorIs(t, err, userbus.ErrUniqueEmail)

	assert.Len(t, env.db.Tenants(), 1)
	assert.Len(t, env.db.Users(), 1)
}

func Test_RegisterAdminInvalidSecret(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.core.RegisterAdmin(context.Background(), authbus.RegisterAdmin{
		Name:     "Admin",
		Email:    addr("a@x.com"),
		Password: "gophers",
		Secret:   "guess",
	})
	require.ErrorIs(t, err, tenantbus.ErrInvalidSecret)

	assert.Empty(t, env.db.Tenants())
	assert.Empty(t, env.db.Users())
}

func Test_RegisterUser(t *testing.T) {
	env := newTestEnv(t)
	admin := registerAdmin(t, env, "admin@x.com")

	ses, err := env.core.RegisterUser(context.Background(), authbus.RegisterUser{
		Name:       "Viewer",
		Email:      addr("viewer@x.com"),
		Password:   "gophers",
		AdminEmail: addr("admin@x.com"),
	}, device)
	require.NoError(t, err)

	assert.Equal(t, role.Viewer, ses.User.Role)
	assert.Equal(t, admin.TenantID, ses.User.TenantID)
	assert.NotEmpty(t, ses.AccessToken)
	assert.NotEmpty(t, ses.RefreshToken)

	sessions := env.db.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, ses.User.ID, sessions[0].UserID)
	assert.Equal(t, "10.0.0.1", sessions[0].IPAddress)
	assert.Equal(t, "go-test", sessions[0].UserAgent)
	assert.False(t, sessions[0].Revoked)
	assert.True(t, sessions[0].Matches(ses.RefreshToken))
}

func Test_RegisterUserUnknownTenant(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.core.RegisterUser(context.Background(), authbus.RegisterUser{
		Name:       "Viewer",
		Email:      addr("viewer@x.com"),
		Password:   "gophers",
		AdminEmail: addr("nobody@x.com"),
	}, device)
	require.ErrorIs(t, err, tenantbus.ErrNotFound)

	assert.Empty(t, env.db.Users())
}

func Test_RegisterUserRollsBackOnSessionFailure(t *testing.T) {
	env := newTestEnv(t)
	registerAdmin(t, env, "admin@x.com")

	env.db.Fail(unitest.OpSessionCreate, unitest.ErrForced)

	_, err := env.core.RegisterUser(context.Background(), authbus.RegisterUser{
		Name:       "Viewer",
		Email:      addr("viewer@x.com"),
		Password:   "gophers",
		AdminEmail: addr("admin@x.com"),
	}, device)
	require.ErrorIs(t, err, unitest.ErrForced)

	assert.Len(t, env.db.Users(), 1)
	assert.Empty(t, env.db.Sessions())
}

func Test_SignIn(t *testing.T) {
	env := newTestEnv(t)
	admin := registerAdmin(t, env, "a@x.com")

	ses, err := env.core.SignIn(context.Background(), authbus.Credentials{
		Email:    addr("a@x.com"),
		Password: "gophers",
	}, device)
	require.NoError(t, err)

	assert.Equal(t, admin.ID, ses.User.ID)

	sessions := env.db.Sessions()
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Revoked)
	assert.Equal(t, admin.TenantID, sessions[0].TenantID)
}

func Test_SignInStaleCachedUser(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", func(context.Context) string { return "" })
	ctx := context.Background()

	db := unitest.NewDB()

	tenantBus := tenantbus.NewCore(log, unitest.NewTenantStore(db), provisioningSecret)
	userBus := userbus.NewCore(usercache.NewStore(log, unitest.NewUserStore(db), time.Hour))
	sessionBus := sessionbus.NewCore(log, unitest.NewSessionStore(db))

	core := authbus.NewCore(log, db, tenantBus, userBus, sessionBus, &stubIssuer{})

	admin, err := core.RegisterAdmin(ctx, authbus.RegisterAdmin{
		Name:     "Admin",
		Email:    addr("a@x.com"),
		Password: "gophers",
		Secret:   provisioningSecret,
	})
	require.NoError(t, err)

	cred := authbus.Credentials{Email: addr("a@x.com"), Password: "gophers"}

	_, err = core.SignIn(ctx, cred, device)
	require.NoError(t, err, "warms the cache")

	// The tenant is removed behind the cache's back.
	_, err = unitest.NewTenantStore(db).Delete(ctx, admin.TenantID)
	require.NoError(t, err)
	require.Empty(t, db.Users())

	_, err = core.SignIn(ctx, cred, device)
	require.ErrorIs(t, err, userbus.ErrNotFound)
	assert.NotErrorIs(t, err, sqldb.ErrForeignKeyMissing)
	assert.Empty(t, db.Sessions())
}

func Test_SignInFailures(t *testing.T) {
	env := newTestEnv(t)
	registerAdmin(t, env, "a@x.com")

	tests := []struct {
		name string
		cred authbus.Credentials
		err  error
	}{
		{
			name: "wrong password",
			cred: authbus.Credentials{Email: addr("a@x.com"), Password: "nope"},
			err:  authbus.ErrInvalidCredentials,
		},
		{
			name: "unknown email",
			cred: authbus.Credentials{Email: addr("b@x.com"), Password: "gophers"},
			err:  userbus.ErrNotFound,
		},
		{
			name: "missing password",
			cred: authbus.Credentials{Email: addr("a@x.com")},
			err:  authbus.ErrMissingCredentials,
		},
		{
			name: "missing email",
			cred: authbus.Credentials{Password: "gophers"},
			err:  authbus.ErrMissingCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.core.SignIn(context.Background(), tt.cred, device)
			require.ErrorIs(t, err, tt.err)
		})
	}

	assert.Empty(t, env.db.Sessions())
}

func Test_SignInWrongPasswordHidesUser(t *testing.T) {
	env := newTestEnv(t)
	registerAdmin(t, env, "a@x.com")

	_, err := env.core.SignIn(context.Background(), authbus.Credentials{
		Email:    addr("a@x.com"),
		Password: "nope",
	}, device)
	require.Error(t, err)

	assert.False(t, errors.Is(err, userbus.ErrNotFound))
	assert.NotContains(t, err.Error(), "a@x.com")
}

func Test_Refresh(t *testing.T) {
	env := newTestEnv(t)
	registerAdmin(t, env, "a@x.com")

	ses, err := env.core.SignIn(context.Background(), authbus.Credentials{
		Email:    addr("a@x.com"),
		Password: "gophers",
	}, device)
	require.NoError(t, err)

	refreshed, err := env.core.Refresh(context.Background(), ses.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, ses.RefreshToken, refreshed.RefreshToken)
	assert.NotEqual(t, ses.AccessToken, refreshed.AccessToken)
	assert.True(t, strings.HasPrefix(refreshed.AccessToken, "access:"))
}

func Test_RefreshFailures(t *testing.T) {
	env := newTestEnv(t)
	admin := registerAdmin(t, env, "a@x.com")

	ses, err := env.core.SignIn(context.Background(), authbus.Credentials{
		Email:    addr("a@x.com"),
		Password: "gophers",
	}, device)
	require.NoError(t, err)

	// Valid signature, but no session was ever recorded for it.
	unrecorded, err := env.issuer.IssueRefresh(admin.ID, admin.TenantID)
	require.NoError(t, err)

	_, err = env.core.Refresh(context.Background(), "")
	require.ErrorIs(t, err, authbus.ErrMissingRefreshToken)

	_, err = env.core.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, authbus.ErrInvalidRefreshToken)

	_, err = env.core.Refresh(context.Background(), unrecorded)
	require.ErrorIs(t, err, authbus.ErrSessionExpired)

	require.NoError(t, env.core.SignOut(context.Background(), ses.RefreshToken))

	_, err = env.core.Refresh(context.Background(), ses.RefreshToken)
	require.ErrorIs(t, err, authbus.ErrSessionExpired)
}

func Test_SignOutIdempotent(t *testing.T) {
	env := newTestEnv(t)
	registerAdmin(t, env, "a@x.com")

	ses, err := env.core.SignIn(context.Background(), authbus.Credentials{
		Email:    addr("a@x.com"),
		Password: "gophers",
	}, device)
	require.NoError(t, err)

	require.NoError(t, env.core.SignOut(context.Background(), ses.RefreshToken))
	require.NoError(t, env.core.SignOut(context.Background(), ses.RefreshToken))

	sessions := env.db.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Revoked)

	require.NoError(t, env.core.SignOut(context.Background(), "never-issued"))

	err = env.core.SignOut(context.Background(), "")
	require.ErrorIs(t, err, authbus.ErrMissingRefreshToken)
}
