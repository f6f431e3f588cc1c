package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventos/reservas-api/internal/core/domain"
)

const auditCollection = "reservation_events"

// AuditLog records every confirmed reservation in the reservation_events
// collection. It implements ports.Notifier so the dispatcher delivers to it
// like any other channel.
type AuditLog struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewAuditLog creates an AuditLog writing to db.
func NewAuditLog(db *mongo.Database) *AuditLog {
	return &AuditLog{coll: db.Collection(auditCollection), now: time.Now}
}

func (a *AuditLog) Name() string { return "audit" }

// Notify inserts one audit document for r.
func (a *AuditLog) Notify(ctx context.Context, r domain.Reservation) error {
	_, err := a.coll.InsertOne(ctx, auditDocument(r, a.now()))
	return err
}

func auditDocument(r domain.Reservation, at time.Time) bson.M {
	return bson.M{
		"type":           "reservation.confirmed",
		"reservation_id": r.ID,
		"nombre_cliente": r.ClientName,
		"evento":         r.EventType,
		"proveedor":      r.Provider,
		"fecha":          r.Date,
		"correo":         r.Email,
		"recorded_at":    at.UTC(),
	}
}
