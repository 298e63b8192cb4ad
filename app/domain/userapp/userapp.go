// Package userapp maintains the app layer api for the user domain.
package userapp

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/tenantauth/app/sdk/errs"
	"github.com/jcpaschoal/tenantauth/app/sdk/message"
	"github.com/jcpaschoal/tenantauth/app/sdk/mid"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/web"
)

type app struct {
	userBus    *userbus.Core
	sessionBus *sessionbus.Core
}

func newApp(userBus *userbus.Core, sessionBus *sessionbus.Core) *app {
	return &app{
		userBus:    userBus,
		sessionBus: sessionBus,
	}
}

// me returns the authenticated user.
func (a *app) me(ctx context.Context, _ *http.Request) web.Encoder {
	usr, err := mid.GetUser(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "user missing in context: %s", err)
	}

	return message.New("User Info", ToAppUser(usr))
}

// query returns the users of the caller's tenant.
func (a *app) query(ctx context.Context, _ *http.Request) web.Encoder {
	usr, err := mid.GetUser(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "user missing in context: %s", err)
	}

	users, err := a.userBus.QueryByTenant(ctx, usr.TenantID)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: tenantID[%s]: %s", usr.TenantID, err)
	}

	return message.New("Users", toAppUsers(users))
}

// sessions returns the caller's active sessions.
func (a *app) sessions(ctx context.Context, _ *http.Request) web.Encoder {
	usr, err := mid.GetUser(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "user missing in context: %s", err)
	}

	sessions, err := a.sessionBus.QueryActive(ctx, usr.ID, usr.TenantID)
	if err != nil {
		return errs.Errorf(errs.Internal, "query sessions: userID[%s]: %s", usr.ID, err)
	}

	return message.New("Active sessions", toAppSessions(sessions))
}
