package ports

import (
	"context"

	"github.com/eventos/reservas-api/internal/core/domain"
)

// ReservationRepository persists reservations. Update and Delete return
// domain.ErrNotFound when no row has the given id.
type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	FindByID(ctx context.Context, id int64) (*domain.Reservation, error)
	// List returns every reservation ordered by ascending id.
	List(ctx context.Context) ([]domain.Reservation, error)
	Update(ctx context.Context, r *domain.Reservation) error
	Delete(ctx context.Context, id int64) error
	CountByEventType(ctx context.Context) ([]domain.EventTypeCount, error)
}
