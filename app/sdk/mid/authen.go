package mid

import (
	"context"
	"net/http"
	"strings"

	"github.com/jcpaschoal/tenantauth/app/sdk/auth"
	"github.com/jcpaschoal/tenantauth/app/sdk/errs"
	"github.com/jcpaschoal/tenantauth/business/sdk/web"
)

// Authenticate validates the access token carried by the request, taken from
// the Authorization header or else the access token cookie, and stores the
// identity it was issued to in the context.
func Authenticate(a *auth.Auth) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			token, err := bearerToken(r)
			if err != nil {
				return err
			}

			claims, aerr := a.Authenticate(ctx, token)
			if aerr != nil {
				return errs.Errorf(errs.Unauthenticated, "invalid or expired token")
			}

			userID, tenantID, aerr := claims.Identity()
			if aerr != nil {
				return errs.Errorf(errs.Unauthenticated, "invalid or expired token")
			}

			ctx = setClaims(ctx, claims)
			ctx = setUserID(ctx, userID)
			ctx = setTenantID(ctx, tenantID)

			return next(ctx, r)
		}

		return h
	}

	return m
}

func bearerToken(r *http.Request) (string, *errs.Error) {
	if authStr := r.Header.Get("authorization"); authStr != "" {
		parts := strings.Split(authStr, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", errs.Errorf(errs.Unauthenticated, "expected authorization header format: Bearer <token>")
		}

		return parts[1], nil
	}

	if c, err := r.Cookie(auth.AccessCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}

	return "", errs.Errorf(errs.Unauthenticated, "missing token")
}
