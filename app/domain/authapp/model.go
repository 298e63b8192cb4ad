package authapp

import (
	"encoding/json"
	"fmt"
	"net/mail"

	"github.com/jcpaschoal/tenantauth/app/domain/userapp"
	"github.com/jcpaschoal/tenantauth/app/sdk/errs"
	"github.com/jcpaschoal/tenantauth/business/domain/authbus"
)

// RegisterAdmin is the payload that creates a tenant and its admin.
type RegisterAdmin struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
	Secret   string `json:"secret" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *RegisterAdmin) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app RegisterAdmin) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusRegisterAdmin(app RegisterAdmin) (authbus.RegisterAdmin, error) {
	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		return authbus.RegisterAdmin{}, fmt.Errorf("parse email: %w", err)
	}

	bus := authbus.RegisterAdmin{
		Name:     app.Name,
		Email:    *addr,
		Password: app.Password,
		Secret:   app.Secret,
	}

	return bus, nil
}

// =============================================================================

// RegisterUser is the payload that adds a user to an existing tenant.
type RegisterUser struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Password   string `json:"password" validate:"required"`
	AdminEmail string `json:"adminEmail" validate:"required,email"`
}

// Decode implements the web.Decoder interface.
func (app *RegisterUser) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app RegisterUser) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusRegisterUser(app RegisterUser) (authbus.RegisterUser, error) {
	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		return authbus.RegisterUser{}, fmt.Errorf("parse email: %w", err)
	}

	admin, err := mail.ParseAddress(app.AdminEmail)
	if err != nil {
		return authbus.RegisterUser{}, fmt.Errorf("parse adminEmail: %w", err)
	}

	bus := authbus.RegisterUser{
		Name:       app.Name,
		Email:      *addr,
		Password:   app.Password,
		AdminEmail: *admin,
	}

	return bus, nil
}

// =============================================================================

// SignIn is the payload presented to open a session.
type SignIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *SignIn) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app SignIn) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusCredentials(app SignIn) (authbus.Credentials, error) {
	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		return authbus.Credentials{}, fmt.Errorf("parse email: %w", err)
	}

	bus := authbus.Credentials{
		Email:    *addr,
		Password: app.Password,
	}

	return bus, nil
}

// =============================================================================

// RefreshToken carries the refresh token in the body when body tokens are
// enabled and no cookie was sent.
type RefreshToken struct {
	RefreshToken string `json:"refreshToken"`
}

// Decode implements the web.Decoder interface.
func (app *RefreshToken) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// =============================================================================

// CreatedAdmin is the data returned by register-admin.
type CreatedAdmin struct {
	User userapp.User `json:"user"`
}

// SessionTokens is the data returned when body tokens are enabled.
type SessionTokens struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	User         *userapp.User `json:"user,omitempty"`
}
