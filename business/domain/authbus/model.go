package authbus

import (
	"net/mail"

	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
)

// RegisterAdmin contains what is needed to create a tenant and its admin.
type RegisterAdmin struct {
	Name     string
	Email    mail.Address
	Password string
	Secret   string
}

// RegisterUser contains what is needed to add a user to an existing tenant,
// found by the email of its admin.
type RegisterUser struct {
	Name       string
	Email      mail.Address
	Password   string
	AdminEmail mail.Address
}

// Credentials is an email and password pair presented at sign in.
type Credentials struct {
	Email    mail.Address
	Password string
}

// Device describes the client a session was opened from.
type Device struct {
	IPAddress string
	UserAgent string
}

// Session is the token pair handed to a client. User is empty after a
// refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         userbus.User
}
