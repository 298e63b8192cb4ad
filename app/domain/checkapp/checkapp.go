// Package checkapp maintains the app layer api for the health probes.
package checkapp

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/jcpaschoal/tenantauth/app/sdk/errs"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/business/sdk/web"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/jmoiron/sqlx"
)

type checker func(ctx context.Context) error

type app struct {
	build string
	log   *logger.Logger
	check checker
}

func newApp(build string, log *logger.Logger, check checker) *app {
	return &app{
		build: build,
		log:   log,
		check: check,
	}
}

func dbCheck(db *sqlx.DB) checker {
	return func(ctx context.Context) error {
		return sqldb.StatusCheck(ctx, db)
	}
}

// readiness checks if the database is ready and if not will return a 503
// status.
func (a *app) readiness(ctx context.Context, _ *http.Request) web.Encoder {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := a.check(ctx); err != nil {
		a.log.Info(ctx, "readiness failure", "ERROR", err)
		return errs.Errorf(errs.Unavailable, "database not ready")
	}

	return Info{Status: "ok"}
}

// liveness returns simple status info if the service is alive. A failure
// here means the process should be restarted.
func (a *app) liveness(_ context.Context, _ *http.Request) web.Encoder {
	host, err := os.Hostname()
	if err != nil {
		host = "unavailable"
	}

	info := Info{
		Status:     "up",
		Build:      a.build,
		Host:       host,
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}

	return info
}
