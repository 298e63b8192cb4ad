package userapp

import (
	"encoding/json"
	"time"

	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
)

// User represents information about an individual user. The password hash
// never leaves the business layer.
type User struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Encode implements the web.Encoder interface.
func (app User) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

// ToAppUser converts a business user into the public projection.
func ToAppUser(bus userbus.User) User {
	return User{
		ID:        bus.ID.String(),
		TenantID:  bus.TenantID.String(),
		Name:      bus.Name,
		Email:     bus.Email.Address,
		Role:      bus.Role.String(),
		CreatedAt: bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt: bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppUsers(users []userbus.User) []User {
	app := make([]User, len(users))
	for i, usr := range users {
		app[i] = ToAppUser(usr)
	}

	return app
}

// =============================================================================

// Session describes an active session without any token material.
type Session struct {
	ID        string `json:"id"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`
	CreatedAt string `json:"createdAt"`
}

func toAppSessions(sessions []sessionbus.Session) []Session {
	app := make([]Session, len(sessions))
	for i, s := range sessions {
		app[i] = Session{
			ID:        s.ID.String(),
			IPAddress: s.IPAddress,
			UserAgent: s.UserAgent,
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
		}
	}

	return app
}
