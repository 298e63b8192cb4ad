// Package auth provides the token issuer and the role policy used to
// authenticate and authorize requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
)

// Set of errors returned by the auth package.
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrForbidden    = errors.New("attempted action is not allowed")
)

// The kinds of token the issuer signs. A token of one kind is never accepted
// where the other is expected.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Names of the cookies that carry the tokens.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
	Kind     string `json:"kind"`
}

// Identity returns the user and tenant the token was issued to.
func (c Claims) Identity() (userID uuid.UUID, tenantID uuid.UUID, err error) {
	userID, err = uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("parsing subject: %w", err)
	}

	tenantID, err = uuid.Parse(c.TenantID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("parsing tenant id: %w", err)
	}

	return userID, tenantID, nil
}

// Config represents information required to initialize auth.
type Config struct {
	Log        *logger.Logger
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now overrides the clock, tests only.
	Now func() time.Time
}

// Auth is used to issue tokens and authenticate clients.
type Auth struct {
	log        *logger.Logger
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	method     jwt.SigningMethod
	parser     *jwt.Parser
	enforcer   *casbin.Enforcer
}

// New creates an Auth to support authentication/authorization.
func New(cfg Config) (*Auth, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}

	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("auth: token lifetimes must be positive: access[%s] refresh[%s]", cfg.AccessTTL, cfg.RefreshTTL)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	enforcer, err := newEnforcer()
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	a := Auth{
		log:        cfg.Log,
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        now,
		method:     jwt.SigningMethodHS256,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(now),
		),
		enforcer: enforcer,
	}

	return &a, nil
}

// Issuer provides the configured issuer used to authenticate tokens.
func (a *Auth) Issuer() string {
	return a.issuer
}

// AccessTTL is how long an access token stays valid.
func (a *Auth) AccessTTL() time.Duration {
	return a.accessTTL
}

// RefreshTTL is how long a refresh token stays valid.
func (a *Auth) RefreshTTL() time.Duration {
	return a.refreshTTL
}

// IssueAccess signs a short lived access token for the user.
func (a *Auth) IssueAccess(userID uuid.UUID, tenantID uuid.UUID) (string, error) {
	return a.issue(KindAccess, userID, tenantID, a.accessTTL)
}

// IssueRefresh signs a long lived refresh token for the user.
func (a *Auth) IssueRefresh(userID uuid.UUID, tenantID uuid.UUID) (string, error) {
	return a.issue(KindRefresh, userID, tenantID, a.refreshTTL)
}

// VerifyAccess validates an access token and returns its claims.
func (a *Auth) VerifyAccess(token string) (Claims, error) {
	return a.verify(token, KindAccess)
}

// VerifyRefresh validates a refresh token and returns the identity it was
// issued to.
func (a *Auth) VerifyRefresh(token string) (uuid.UUID, uuid.UUID, error) {
	claims, err := a.verify(token, KindRefresh)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return claims.Identity()
}

// Authenticate processes the access token presented by a client.
func (a *Auth) Authenticate(ctx context.Context, token string) (Claims, error) {
	claims, err := a.verify(token, KindAccess)
	if err != nil {
		a.log.Info(ctx, "**Authenticate-FAILED**", "ERROR", err)
		return Claims{}, err
	}

	if _, _, err := claims.Identity(); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims, nil
}

// =============================================================================

func (a *Auth) issue(kind string, userID uuid.UUID, tenantID uuid.UUID, ttl time.Duration) (string, error) {
	now := a.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID: tenantID.String(),
		Kind:     kind,
	}

	token := jwt.NewWithClaims(a.method, claims)

	str, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return str, nil
}

func (a *Auth) verify(tokenStr string, kind string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	var claims Claims
	token, err := a.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})

	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return Claims{}, fmt.Errorf("%w: token is invalid", ErrInvalidToken)
	}

	if claims.Kind != kind {
		return Claims{}, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Kind)
	}

	return claims, nil
}
