package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/jcpaschoal/tenantauth/app/sdk/metrics"
	"github.com/jcpaschoal/tenantauth/business/sdk/web"
)

// Metrics updates program counters for every request, labelled by the route
// pattern that matched.
func Metrics() web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			now := time.Now()

			resp := next(ctx, r)

			metrics.AddRequests(ctx, r.Pattern, web.StatusCode(resp), time.Since(now))

			return resp
		}

		return h
	}

	return m
}
