// Package authapp maintains the app layer api for registration and the
// session lifecycle.
package authapp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jcpaschoal/tenantauth/app/domain/userapp"
	"github.com/jcpaschoal/tenantauth/app/sdk/auth"
	"github.com/jcpaschoal/tenantauth/app/sdk/errs"
	"github.com/jcpaschoal/tenantauth/app/sdk/message"
	"github.com/jcpaschoal/tenantauth/app/sdk/metrics"
	"github.com/jcpaschoal/tenantauth/business/domain/authbus"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/web"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
)

type app struct {
	log          *logger.Logger
	auth         *auth.Auth
	authBus      *authbus.Core
	bodyTokens   bool
	cookieSecure bool
}

func newApp(cfg Config) *app {
	return &app{
		log:          cfg.Log,
		auth:         cfg.Auth,
		authBus:      cfg.AuthBus,
		bodyTokens:   cfg.BodyTokens,
		cookieSecure: cfg.CookieSecure,
	}
}

func (a *app) registerAdmin(ctx context.Context, r *http.Request) web.Encoder {
	var app RegisterAdmin
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ra, err := toBusRegisterAdmin(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	usr, err := a.authBus.RegisterAdmin(ctx, ra)
	metrics.AddAuthEvent(ctx, metrics.EventRegisterAdmin, err == nil)
	if err != nil {
		return toAppError(err)
	}

	return message.Created("Tenant and admin user created successfully.", CreatedAdmin{User: userapp.ToAppUser(usr)})
}

func (a *app) registerUser(ctx context.Context, r *http.Request) web.Encoder {
	var app RegisterUser
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ru, err := toBusRegisterUser(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ses, err := a.authBus.RegisterUser(ctx, ru, device(r))
	metrics.AddAuthEvent(ctx, metrics.EventRegisterUser, err == nil)
	if err != nil {
		return toAppError(err)
	}

	resp := message.Created("User register successfully", a.sessionData(ses))

	return resp.WithCookies(a.sessionCookies(ses)...)
}

func (a *app) signIn(ctx context.Context, r *http.Request) web.Encoder {
	var app SignIn
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	cred, err := toBusCredentials(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ses, err := a.authBus.SignIn(ctx, cred, device(r))
	metrics.AddAuthEvent(ctx, metrics.EventSignIn, err == nil)
	if err != nil {
		return toAppError(err)
	}

	resp := message.New("Login successful.", a.sessionData(ses))

	return resp.WithCookies(a.sessionCookies(ses)...)
}

func (a *app) refresh(ctx context.Context, r *http.Request) web.Encoder {
	ses, err := a.authBus.Refresh(ctx, a.refreshToken(r))
	metrics.AddAuthEvent(ctx, metrics.EventRefresh, err == nil)
	if err != nil {
		return toAppError(err)
	}

	var data any
	if a.bodyTokens {
		data = SessionTokens{AccessToken: ses.AccessToken, RefreshToken: ses.RefreshToken}
	}

	resp := message.New("Tokens refreshed successfully.", data)

	return resp.WithCookies(a.sessionCookies(ses)...)
}

func (a *app) signOut(ctx context.Context, r *http.Request) web.Encoder {
	token := a.refreshToken(r)
	if token == "" {
		metrics.AddAuthEvent(ctx, metrics.EventSignOut, false)
		return errs.Errorf(errs.NotFound, "Refresh token not found.")
	}

	err := a.authBus.SignOut(ctx, token)
	metrics.AddAuthEvent(ctx, metrics.EventSignOut, err == nil)
	if err != nil {
		return toAppError(err)
	}

	resp := message.New("Logout successful.", nil)

	return resp.WithCookies(a.clearCookie(auth.AccessCookie), a.clearCookie(auth.RefreshCookie))
}

// =============================================================================

// refreshToken reads the refresh cookie, falling back to the body when body
// tokens are enabled.
func (a *app) refreshToken(r *http.Request) string {
	if c, err := r.Cookie(auth.RefreshCookie); err == nil && c.Value != "" {
		return c.Value
	}

	if !a.bodyTokens {
		return ""
	}

	var body RefreshToken
	if err := web.Decode(r, &body); err != nil {
		return ""
	}

	return body.RefreshToken
}

func (a *app) sessionData(ses authbus.Session) any {
	usr := userapp.ToAppUser(ses.User)

	if !a.bodyTokens {
		return usr
	}

	return SessionTokens{
		AccessToken:  ses.AccessToken,
		RefreshToken: ses.RefreshToken,
		User:         &usr,
	}
}

func (a *app) sessionCookies(ses authbus.Session) []*http.Cookie {
	return []*http.Cookie{
		a.cookie(auth.AccessCookie, ses.AccessToken, a.auth.AccessTTL()),
		a.cookie(auth.RefreshCookie, ses.RefreshToken, a.auth.RefreshTTL()),
	}
}

func (a *app) cookie(name string, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (a *app) clearCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

// device captures the client address and agent of the request.
func device(r *http.Request) authbus.Device {
	return authbus.Device{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}

// toAppError maps business errors onto the errors clients see.
func toAppError(err error) *errs.Error {
	switch {
	case errors.Is(err, authbus.ErrMissingCredentials):
		return errs.Errorf(errs.InvalidArgument, "Email and password are required.")

	case errors.Is(err, userbus.ErrUniqueEmail), errors.Is(err, tenantbus.ErrUniqueEmail):
		return errs.Errorf(errs.AlreadyExists, "User already registered.")

	case errors.Is(err, tenantbus.ErrNotFound):
		return errs.Errorf(errs.NotFound, "Tenant not found.")

	case errors.Is(err, userbus.ErrNotFound):
		return errs.Errorf(errs.NotFound, "User not found.")

	case errors.Is(err, tenantbus.ErrInvalidSecret):
		return errs.Errorf(errs.Unauthenticated, "Invalid secret.")

	case errors.Is(err, authbus.ErrInvalidCredentials):
		return errs.Errorf(errs.Unauthenticated, "Invalid credentials.")

	case errors.Is(err, authbus.ErrMissingRefreshToken):
		return errs.Errorf(errs.Unauthenticated, "Refresh token is missing.")

	case errors.Is(err, authbus.ErrInvalidRefreshToken):
		return errs.Errorf(errs.InvalidArgument, "Invalid refresh token.")

	case errors.Is(err, authbus.ErrSessionExpired):
		return errs.Errorf(errs.Unauthenticated, "Token is expired. Login again.")

	default:
		return errs.New(errs.Internal, err)
	}
}
