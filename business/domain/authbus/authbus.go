// Package authbus coordinates tenants, users, tokens and sessions to register
// accounts and run the session lifecycle.
package authbus

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/business/types/role"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/jcpaschoal/tenantauth/foundation/otel"
)

// Set of error variables for the session lifecycle.
var (
	ErrMissingCredentials  = errors.New("email and password are required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingRefreshToken = errors.New("refresh token is missing")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionExpired      = errors.New("token is expired, login again")
)

// TokenIssuer signs and verifies the bearer tokens handed to clients.
type TokenIssuer interface {
	IssueAccess(userID uuid.UUID, tenantID uuid.UUID) (string, error)
	IssueRefresh(userID uuid.UUID, tenantID uuid.UUID) (string, error)
	VerifyRefresh(token string) (userID uuid.UUID, tenantID uuid.UUID, err error)
}

// Core manages the set of APIs for registration and sessions.
type Core struct {
	log        *logger.Logger
	beginner   sqldb.Beginner
	tenantBus  *tenantbus.Core
	userBus    *userbus.Core
	sessionBus *sessionbus.Core
	issuer     TokenIssuer
}

// NewCore constructs an auth core API for use.
func NewCore(log *logger.Logger, beginner sqldb.Beginner, tenantBus *tenantbus.Core, userBus *userbus.Core, sessionBus *sessionbus.Core, issuer TokenIssuer) *Core {
	return &Core{
		log:        log,
		beginner:   beginner,
		tenantBus:  tenantBus,
		userBus:    userBus,
		sessionBus: sessionBus,
		issuer:     issuer,
	}
}

// RegisterAdmin creates a tenant and its first user, an admin. Both rows are
// written in one transaction.
func (c *Core) RegisterAdmin(ctx context.Context, ra RegisterAdmin) (userbus.User, error) {
	ctx, span := otel.AddSpan(ctx, "business.authbus.registerAdmin")
	defer span.End()

	if err := c.ensureEmailFree(ctx, ra.Email); err != nil {
		return userbus.User{}, fmt.Errorf("registerAdmin: %w", err)
	}

	var usr userbus.User

	err := sqldb.WithinTran(ctx, c.log, c.beginner, func(tx sqldb.CommitRollbacker) error {
		tenantBus, err := c.tenantBus.NewWithTx(tx)
		if err != nil {
			return err
		}

		userBus, err := c.userBus.NewWithTx(tx)
		if err != nil {
			return err
		}

		nt := tenantbus.NewTenant{
			Name:       ra.Name,
			AdminEmail: ra.Email,
			Secret:     ra.Secret,
		}

		tnt, err := tenantBus.Create(ctx, nt)
		if err != nil {
			return err
		}

		nu := userbus.NewUser{
			Name:     ra.Name,
			Email:    ra.Email,
			Role:     role.Admin,
			TenantID: tnt.ID,
			Password: ra.Password,
		}

		usr, err = userBus.Create(ctx, nu)
		if err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		return userbus.User{}, fmt.Errorf("registerAdmin: %w", err)
	}

	c.log.Info(ctx, "authbus: tenant registered", "tenantID", usr.TenantID, "userID", usr.ID)

	return usr, nil
}

// RegisterUser adds a viewer to the tenant owned by AdminEmail and opens a
// session for it.
func (c *Core) RegisterUser(ctx context.Context, ru RegisterUser, dev Device) (Session, error) {
	ctx, span := otel.AddSpan(ctx, "business.authbus.registerUser")
	defer span.End()

	if err := c.ensureEmailFree(ctx, ru.Email); err != nil {
		return Session{}, fmt.Errorf("registerUser: %w", err)
	}

	tnt, err := c.tenantBus.QueryByAdminEmail(ctx, ru.AdminEmail)
	if err != nil {
		return Session{}, fmt.Errorf("registerUser: %w", err)
	}

	var ses Session

	err = sqldb.WithinTran(ctx, c.log, c.beginner, func(tx sqldb.CommitRollbacker) error {
		userBus, err := c.userBus.NewWithTx(tx)
		if err != nil {
			return err
		}

		sessionBus, err := c.sessionBus.NewWithTx(tx)
		if err != nil {
			return err
		}

		nu := userbus.NewUser{
			Name:     ru.Name,
			Email:    ru.Email,
			Role:     role.Viewer,
			TenantID: tnt.ID,
			Password: ru.Password,
		}

		usr, err := userBus.Create(ctx, nu)
		if err != nil {
			return err
		}

		ses, err = c.openSession(ctx, sessionBus, usr, dev)
		return err
	})

	if err != nil {
		return Session{}, fmt.Errorf("registerUser: %w", err)
	}

	return ses, nil
}

// SignIn verifies the credentials and opens a new session.
func (c *Core) SignIn(ctx context.Context, cred Credentials, dev Device) (Session, error) {
	ctx, span := otel.AddSpan(ctx, "business.authbus.signIn")
	defer span.End()

	if cred.Email.Address == "" || cred.Password == "" {
		return Session{}, fmt.Errorf("signIn: %w", ErrMissingCredentials)
	}

	usr, err := c.userBus.Authenticate(ctx, cred.Email, cred.Password)
	if err != nil {
		if errors.Is(err, userbus.ErrAuthenticationFailure) {
			return Session{}, fmt.Errorf("signIn: %w", ErrInvalidCredentials)
		}
		return Session{}, fmt.Errorf("signIn: %w", err)
	}

	ses, err := c.openSession(ctx, c.sessionBus, usr, dev)
	if err != nil {
		return Session{}, fmt.Errorf("signIn: %w", err)
	}

	return ses, nil
}

// Refresh issues a new access token for a refresh token that is still backed
// by an active session. The refresh token itself is returned unchanged.
func (c *Core) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	ctx, span := otel.AddSpan(ctx, "business.authbus.refresh")
	defer span.End()

	if refreshToken == "" {
		return Session{}, fmt.Errorf("refresh: %w", ErrMissingRefreshToken)
	}

	userID, tenantID, err := c.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return Session{}, fmt.Errorf("refresh: %w: %w", ErrInvalidRefreshToken, err)
	}

	active, err := c.sessionBus.QueryActive(ctx, userID, tenantID)
	if err != nil {
		return Session{}, fmt.Errorf("refresh: %w", err)
	}

	if !matchesAny(active, refreshToken) {
		return Session{}, fmt.Errorf("refresh: userID[%s]: %w", userID, ErrSessionExpired)
	}

	access, err := c.issuer.IssueAccess(userID, tenantID)
	if err != nil {
		return Session{}, fmt.Errorf("refresh: issueAccess: %w", err)
	}

	ses := Session{
		AccessToken:  access,
		RefreshToken: refreshToken,
	}

	return ses, nil
}

// SignOut revokes the session recorded for the refresh token. Revoking an
// unknown or already revoked token succeeds.
func (c *Core) SignOut(ctx context.Context, refreshToken string) error {
	ctx, span := otel.AddSpan(ctx, "business.authbus.signOut")
	defer span.End()

	if refreshToken == "" {
		return fmt.Errorf("signOut: %w", ErrMissingRefreshToken)
	}

	n, err := c.sessionBus.RevokeByToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("signOut: %w", err)
	}

	c.log.Info(ctx, "authbus: signed out", "revoked", n)

	return nil
}

// =============================================================================

func (c *Core) ensureEmailFree(ctx context.Context, email mail.Address) error {
	_, err := c.userBus.QueryByEmail(ctx, email)
	switch {
	case err == nil:
		return userbus.ErrUniqueEmail

	case errors.Is(err, userbus.ErrNotFound):
		return nil

	default:
		return err
	}
}

func (c *Core) openSession(ctx context.Context, sessionBus *sessionbus.Core, usr userbus.User, dev Device) (Session, error) {
	access, err := c.issuer.IssueAccess(usr.ID, usr.TenantID)
	if err != nil {
		return Session{}, fmt.Errorf("issueAccess: %w", err)
	}

	refresh, err := c.issuer.IssueRefresh(usr.ID, usr.TenantID)
	if err != nil {
		return Session{}, fmt.Errorf("issueRefresh: %w", err)
	}

	ns := sessionbus.NewSession{
		UserID:       usr.ID,
		TenantID:     usr.TenantID,
		RefreshToken: refresh,
		IPAddress:    dev.IPAddress,
		UserAgent:    dev.UserAgent,
	}

	if _, err := sessionBus.Create(ctx, ns); err != nil {
		if errors.Is(err, sqldb.ErrForeignKeyMissing) {
			return Session{}, fmt.Errorf("openSession: userID[%s]: %w", usr.ID, userbus.ErrNotFound)
		}
		return Session{}, err
	}

	ses := Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         usr,
	}

	return ses, nil
}

func matchesAny(sessions []sessionbus.Session, refreshToken string) bool {
	for _, s := range sessions {
		if s.Matches(refreshToken) {
			return true
		}
	}

	return false
}
