package sessiondb

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
)

type sessionDB struct {
	ID        uuid.UUID `db:"session_id"`
	UserID    uuid.UUID `db:"user_id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	TokenHash string    `db:"token_hash"`
	IPAddress string    `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
	Revoked   bool      `db:"revoked"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toDBSession(bus sessionbus.Session) sessionDB {
	return sessionDB{
		ID:        bus.ID,
		UserID:    bus.UserID,
		TenantID:  bus.TenantID,
		TokenHash: bus.TokenHash,
		IPAddress: bus.IPAddress,
		UserAgent: bus.UserAgent,
		Revoked:   bus.Revoked,
		CreatedAt: bus.CreatedAt.UTC(),
		UpdatedAt: bus.UpdatedAt.UTC(),
	}
}

func toBusSessions(dbs []sessionDB) []sessionbus.Session {
	bus := make([]sessionbus.Session, len(dbs))

	for i, db := range dbs {
		bus[i] = sessionbus.Session{
			ID:        db.ID,
			UserID:    db.UserID,
			TenantID:  db.TenantID,
			TokenHash: db.TokenHash,
			IPAddress: db.IPAddress,
			UserAgent: db.UserAgent,
			Revoked:   db.Revoked,
			CreatedAt: db.CreatedAt.In(time.Local),
			UpdatedAt: db.UpdatedAt.In(time.Local),
		}
	}

	return bus
}
