package checkapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantauth/business/sdk/web"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build string
	Log   *logger.Logger
	DB    *sqlx.DB
}

// Routes adds specific routes for this group. The probes bypass the
// application middleware so they stay out of logs, traces and metrics.
func Routes(app *web.App, cfg Config) {
	const group = ""

	api := newApp(cfg.Build, cfg.Log, dbCheck(cfg.DB))

	app.HandlerFuncNoMid(http.MethodGet, group, "/liveness", api.liveness)
	app.HandlerFuncNoMid(http.MethodGet, group, "/readiness", api.readiness)
}
