package userdb_test

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus/stores/tenantdb"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/tenantauth/business/sdk/dbtest"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/business/types/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTenant(t *testing.T, db *dbtest.Database, email string) tenantbus.Tenant {
	t.Helper()

	bus := tenantbus.NewCore(db.Log, tenantdb.NewStore(db.Log, db.DB), "s3cret")

	tnt, err := bus.Create(context.Background(), tenantbus.NewTenant{
		Name:       "Tenant " + email,
		AdminEmail: mail.Address{Address: email},
		Secret:     "s3cret",
	})
	require.NoError(t, err)

	return tnt
}

func Test_UserDB(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	tnt := seedTenant(t, db, "admin@acme.com")
	bus := userbus.NewCore(userdb.NewStore(db.Log, db.DB))

	admin, err := bus.Create(ctx, userbus.NewUser{
		Name:     "Admin",
		Email:    mail.Address{Address: "admin@acme.com"},
		Role:     role.Admin,
		TenantID: tnt.ID,
		Password: "admin-pass",
	})
	require.NoError(t, err)

	viewer, err := bus.Create(ctx, userbus.NewUser{
		Name:     "Bob",
		Email:    mail.Address{Address: "bob@acme.com"},
		TenantID: tnt.ID,
		Password: "bob-pass",
	})
	require.NoError(t, err)

	t.Run("query by id", func(t *testing.T) {
		got, err := bus.QueryByID(ctx, admin.ID)
		require.NoError(t, err)

		assert.Equal(t, admin.ID, got.ID)
		assert.Equal(t, tnt.ID, got.TenantID)
		assert.Equal(t, "admin@acme.com", got.Email.Address)
		assert.Equal(t, role.Admin, got.Role)
		assert.Equal(t, admin.PasswordHash, got.PasswordHash)
		assert.WithinDuration(t, admin.CreatedAt, got.CreatedAt, time.Millisecond)

		_, err = bus.QueryByID(ctx, uuid.New())
		require.ErrorIs(t, err, userbus.ErrNotFound)
	})

	t.Run("query by email", func(t *testing.T) {
		got, err := bus.QueryByEmail(ctx, mail.Address{Address: "bob@acme.com"})
		require.NoError(t, err)
		assert.Equal(t, viewer.ID, got.ID)
		assert.Equal(t, role.Viewer, got.Role)

		_, err = bus.QueryByEmail(ctx, mail.Address{Address: "ghost@acme.com"})
		require.ErrorIs(t, err, userbus.ErrNotFound)
	})

	t.Run("authenticate", func(t *testing.T) {
		got, err := bus.Authenticate(ctx, mail.Address{Address: "bob@acme.com"}, "bob-pass")
		require.NoError(t, err)
		assert.Equal(t, viewer.ID, got.ID)

		_, err = bus.Authenticate(ctx, mail.Address{Address: "bob@acme.com"}, "wrong")
		require.ErrorIs(t, err, userbus.ErrAuthenticationFailure)
	})

	t.Run("query by tenant", func(t *testing.T) {
		users, err := bus.QueryByTenant(ctx, tnt.ID)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, admin.ID, users[0].ID)
		assert.Equal(t, viewer.ID, users[1].ID)

		users, err = bus.QueryByTenant(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("unique email", func(t *testing.T) {
		other := seedTenant(t, db, "owner@other.com")

		_, err := bus.Create(ctx, userbus.NewUser{
			Name:     "Bob Elsewhere",
			Email:    mail.Address{Address: "bob@acme.com"},
			TenantID: other.ID,
			Password: "p",
		})
		require.ErrorIs(t, err, userbus.ErrUniqueEmail)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := bus.Create(ctx, userbus.NewUser{
			Name:     "Orphan",
			Email:    mail.Address{Address: "orphan@acme.com"},
			TenantID: uuid.New(),
			Password: "p",
		})
		require.ErrorIs(t, err, sqldb.ErrForeignKeyMissing)
	})

	t.Run("tenant delete cascades", func(t *testing.T) {
		tenantBus := tenantbus.NewCore(db.Log, tenantdb.NewStore(db.Log, db.DB), "s3cret")
		require.NoError(t, tenantBus.Delete(ctx, tnt.ID))

		_, err := bus.QueryByID(ctx, admin.ID)
		require.ErrorIs(t, err, userbus.ErrNotFound)

		_, err = bus.QueryByEmail(ctx, mail.Address{Address: "bob@acme.com"})
		require.ErrorIs(t, err, userbus.ErrNotFound)
	})
}
