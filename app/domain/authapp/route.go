package authapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantauth/app/sdk/auth"
	"github.com/jcpaschoal/tenantauth/business/domain/authbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/web"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log          *logger.Logger
	Auth         *auth.Auth
	AuthBus      *authbus.Core
	BodyTokens   bool
	CookieSecure bool
}

// Routes adds specific routes for this group. Every route here is public.
func Routes(app *web.App, cfg Config) {
	const group = "auth"

	api := newApp(cfg)

	app.HandlerFunc(http.MethodPost, group, "/register-admin", api.registerAdmin)
	app.HandlerFunc(http.MethodPost, group, "/register-user", api.registerUser)
	app.HandlerFunc(http.MethodPost, group, "/sign-in", api.signIn)
	app.HandlerFunc(http.MethodPost, group, "/refresh", api.refresh)
	app.HandlerFunc(http.MethodPost, group, "/sign-out", api.signOut)
}
