package sessionbus_test

import (
	"context"
	"io"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/unitest"
	"github.com/jcpaschoal/tenantauth/business/types/role"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*sessionbus.Core, *unitest.DB, userbus.User) {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", func(context.Context) string { return "" })
	db := unitest.NewDB()

	now := time.Now()
	tnt := tenantbus.Tenant{ID: uuid.New(), Name: "Acme", AdminEmail: mail.Address{Address: "admin@acme.com"}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, unitest.NewTenantStore(db).Create(context.Background(), tnt))

	usr := userbus.User{ID: uuid.New(), TenantID: tnt.ID, Name: "Admin", Email: tnt.AdminEmail, Role: role.Admin, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, unitest.NewUserStore(db).Create(context.Background(), usr))

	return sessionbus.NewCore(log, unitest.NewSessionStore(db)), db, usr
}

func Test_CreateStoresDigest(t *testing.T) {
	core, db, usr := setup(t)

	ses, err := core.Create(context.Background(), sessionbus.NewSession{
		UserID:       usr.ID,
		TenantID:     usr.TenantID,
		RefreshToken: "refresh-token",
		IPAddress:    "127.0.0.1",
		UserAgent:    "curl",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "refresh-token", ses.TokenHash)
	assert.Len(t, ses.TokenHash, 64)
	assert.True(t, ses.Matches("refresh-token"))
	assert.False(t, ses.Matches("other-token"))
	assert.False(t, ses.Revoked)
	assert.Len(t, db.Sessions(), 1)
}

func Test_CreateRequiresUserInTenant(t *testing.T) {
	core, _, usr := setup(t)

	_, err := core.Create(context.Background(), sessionbus.NewSession{
		UserID:       usr.ID,
		TenantID:     uuid.New(),
		RefreshToken: "refresh-token",
	})
	require.Error(t, err)
}

func Test_RevokeByToken(t *testing.T) {
	core, db, usr := setup(t)

	for _, token := range []string{"one", "two"} {
		_, err := core.Create(context.Background(), sessionbus.NewSession{UserID: usr.ID, TenantID: usr.TenantID, RefreshToken: token})
		require.NoError(t, err)
	}

	n, err := core.RevokeByToken(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = core.RevokeByToken(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = core.RevokeByToken(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	active, err := core.QueryActive(context.Background(), usr.ID, usr.TenantID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].Matches("two"))

	var revoked int
	for _, s := range db.Sessions() {
		if s.Revoked {
			revoked++
		}
	}
	assert.Equal(t, 1, revoked)
}

func Test_Reap(t *testing.T) {
	core, db, usr := setup(t)

	for _, token := range []string{"keep", "drop"} {
		_, err := core.Create(context.Background(), sessionbus.NewSession{UserID: usr.ID, TenantID: usr.TenantID, RefreshToken: token})
		require.NoError(t, err)
	}

	_, err := core.RevokeByToken(context.Background(), "drop")
	require.NoError(t, err)

	n, err := core.Reap(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sessions := db.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Matches("keep"))

	n, err = core.Reap(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, db.Sessions())
}
