package ports

import (
	"context"

	"github.com/eventos/reservas-api/internal/core/domain"
)

// Notifier delivers a booking confirmation over one channel (mail, broker, audit log).
type Notifier interface {
	Name() string
	Notify(ctx context.Context, r domain.Reservation) error
}

// NotificationQueue accepts confirmations for asynchronous delivery. Enqueue
// never blocks; it reports false when the reservation was dropped.
type NotificationQueue interface {
	Enqueue(r domain.Reservation) bool
}
