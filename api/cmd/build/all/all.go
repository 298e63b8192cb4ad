// Package all binds all the routes into the specified app.
package all

import (
	"github.com/jcpaschoal/tenantauth/app/domain/authapp"
	"github.com/jcpaschoal/tenantauth/app/domain/checkapp"
	"github.com/jcpaschoal/tenantauth/app/domain/userapp"
	"github.com/jcpaschoal/tenantauth/app/sdk/mux"
	"github.com/jcpaschoal/tenantauth/business/domain/authbus"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus/stores/sessiondb"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus/stores/tenantdb"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus/stores/usercache"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/business/sdk/web"
)

// Routes constructs the add value which provides the implementation of
// of RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

// Add implements the RouterAdder interface.
func (add) Add(app *web.App, cfg mux.Config) {

	// -------------------------------------------------------------------------
	// Construct the business domain packages we need here so we are using the
	// sames instances for the different set of domain apis.

	tenantBus := tenantbus.NewCore(cfg.Log, tenantdb.NewStore(cfg.Log, cfg.DB), cfg.BusConfig.TenantSecret)
	userBus := userbus.NewCore(usercache.NewStore(cfg.Log, userdb.NewStore(cfg.Log, cfg.DB), cfg.BusConfig.UserCacheTTL))
	sessionBus := sessionbus.NewCore(cfg.Log, sessiondb.NewStore(cfg.Log, cfg.DB))

	authBus := authbus.NewCore(cfg.Log, sqldb.NewBeginner(cfg.DB), tenantBus, userBus, sessionBus, cfg.AuthConfig.Auth)

	checkapp.Routes(app, checkapp.Config{
		Build: cfg.Build,
		Log:   cfg.Log,
		DB:    cfg.DB,
	})

	authapp.Routes(app, authapp.Config{
		Log:          cfg.Log,
		Auth:         cfg.AuthConfig.Auth,
		AuthBus:      authBus,
		BodyTokens:   cfg.AuthConfig.BodyTokens,
		CookieSecure: cfg.AuthConfig.CookieSecure,
	})

	userapp.Routes(app, userapp.Config{
		Auth:       cfg.AuthConfig.Auth,
		UserBus:    userBus,
		SessionBus: sessionBus,
	})
}
