package userbus_test

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/business/sdk/unitest"
	"github.com/jcpaschoal/tenantauth/business/types/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTenant(t *testing.T, db *unitest.DB) uuid.UUID {
	t.Helper()

	now := time.Now()
	tnt := tenantbus.Tenant{
		ID:         uuid.New(),
		Name:       "Acme",
		AdminEmail: mail.Address{Address: "admin@acme.com"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	require.NoError(t, unitest.NewTenantStore(db).Create(context.Background(), tnt))

	return tnt.ID
}

func Test_CreateAndAuthenticate(t *testing.T) {
	db := unitest.NewDB()
	tenantID := seedTenant(t, db)
	core := userbus.NewCore(unitest.NewUserStore(db))

	usr, err := core.Create(context.Background(), userbus.NewUser{
		Name:     "Bill",
		Email:    mail.Address{Address: "bill@acme.com"},
		TenantID: tenantID,
		Password: "gophers",
	})
	require.NoError(t, err)

	assert.Equal(t, role.Viewer, usr.Role, "zero role defaults to viewer")
	assert.NotEqual(t, []byte("gophers"), usr.PasswordHash)

	got, err := core.Authenticate(context.Background(), mail.Address{Address: "bill@acme.com"}, "gophers")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = core.Authenticate(context.Background(), mail.Address{Address: "bill@acme.com"}, "wrong")
	require.ErrorIs(t, err, userbus.ErrAuthenticationFailure)

	_, err = core.Authenticate(context.Background(), mail.Address{Address: "nobody@acme.com"}, "gophers")
	require.ErrorIs(t, err, userbus.ErrNotFound)
}

func Test_CreateDuplicateEmail(t *testing.T) {
	db := unitest.NewDB()
	tenantID := seedTenant(t, db)
	core := userbus.NewCore(unitest.NewUserStore(db))

	nu := userbus.NewUser{
		Name:     "Bill",
		Email:    mail.Address{Address: "bill@acme.com"},
		Role:     role.Admin,
		TenantID: tenantID,
		Password: "gophers",
	}

	_, err := core.Create(context.Background(), nu)
	require.NoError(t, err)

	_, err = core.Create(context.Background(), nu)
	require.ErrorIs(t, err, userbus.ErrUniqueEmail)
}

func Test_CreateUnknownTenant(t *testing.T) {
	core := userbus.NewCore(unitest.NewUserStore(unitest.NewDB()))

	_, err := core.Create(context.Background(), userbus.NewUser{
		Name:     "Bill",
		Email:    mail.Address{Address: "bill@acme.com"},
		TenantID: uuid.New(),
		Password: "gophers",
	})
	require.ErrorIs(t, err, sqldb.ErrForeignKeyMissing)
}

func Test_QueryByTenant(t *testing.T) {
	db := unitest.NewDB()
	tenantID := seedTenant(t, db)
	core := userbus.NewCore(unitest.NewUserStore(db))

	for _, email := range []string{"a@acme.com", "b@acme.com"} {
		_, err := core.Create(context.Background(), userbus.NewUser{
			Name:     email,
			Email:    mail.Address{Address: email},
			TenantID: tenantID,
			Password: "gophers",
		})
		require.NoError(t, err)
	}

	users, err := core.QueryByTenant(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = core.QueryByTenant(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = core.QueryByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, userbus.ErrNotFound)
}
