package ports

import (
	"context"

	"github.com/eventos/reservas-api/internal/core/domain"
)

// ReservationInput carries the five client-supplied reservation fields.
type ReservationInput struct {
	ClientName string
	EventType  string
	Provider   string
	Date       string
	Email      string
}

// ReservationService defines use-case operations for reservations.
type ReservationService interface {
	// Create validates and stores a reservation, then queues its confirmation.
	// A non-empty idempotencyKey that was already used returns the reservation
	// created by the first request instead of inserting a new one.
	Create(ctx context.Context, in ReservationInput, idempotencyKey string) (*domain.Reservation, error)
	List(ctx context.Context) ([]domain.Reservation, error)
	Update(ctx context.Context, id int64, in ReservationInput) (*domain.Reservation, error)
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context) ([]domain.EventTypeCount, error)
}
