package mid

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jcpaschoal/tenantauth/app/sdk/auth"
	"github.com/jcpaschoal/tenantauth/app/sdk/errs"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/web"
	"github.com/jcpaschoal/tenantauth/business/types/actions"
	"github.com/jcpaschoal/tenantauth/business/types/resource"
)

// Authorize loads the authenticated user, checks it still belongs to the
// tenant named in the token and that its role may perform the action on the
// resource. It must run after Authenticate.
func Authorize(a *auth.Auth, userBus *userbus.Core, res resource.Resource, act actions.Action) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			userID, err := GetUserID(ctx)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			tenantID, err := GetTenantID(ctx)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			usr, err := userBus.QueryByID(qctx, userID)
			if err != nil {
				switch {
				case errors.Is(err, userbus.ErrNotFound):
					return errs.Errorf(errs.Unauthenticated, "invalid or expired token")
				default:
					return errs.Errorf(errs.Internal, "querybyid: userID[%s]: %s", userID, err)
				}
			}

			if usr.TenantID != tenantID {
				return errs.Errorf(errs.Unauthenticated, "invalid or expired token")
			}

			if err := a.Authorize(ctx, usr.Role, res, act); err != nil {
				return errs.New(errs.PermissionDenied, err)
			}

			ctx = setUser(ctx, usr)

			return next(ctx, r)
		}

		return h
	}

	return m
}
