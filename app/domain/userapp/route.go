package userapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantauth/app/sdk/auth"
	"github.com/jcpaschoal/tenantauth/app/sdk/mid"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/web"
	"github.com/jcpaschoal/tenantauth/business/types/actions"
	"github.com/jcpaschoal/tenantauth/business/types/resource"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth       *auth.Auth
	UserBus    *userbus.Core
	SessionBus *sessionbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const group = "users"

	authen := mid.Authenticate(cfg.Auth)

	api := newApp(cfg.UserBus, cfg.SessionBus)

	app.HandlerFunc(http.MethodGet, group, "/me", api.me, authen,
		mid.Authorize(cfg.Auth, cfg.UserBus, resource.Users, actions.Get))

	app.HandlerFunc(http.MethodGet, group, "", api.query, authen,
		mid.Authorize(cfg.Auth, cfg.UserBus, resource.Users, actions.List))

	app.HandlerFunc(http.MethodGet, group, "/me/sessions", api.sessions, authen,
		mid.Authorize(cfg.Auth, cfg.UserBus, resource.Sessions, actions.List))
}
