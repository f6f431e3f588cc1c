package ports

import (
	"context"

	"github.com/eventos/reservas-api/internal/core/domain"
)

// UserRepository persists registered accounts.
type UserRepository interface {
	// Create inserts the user and sets its ID. Returns domain.ErrConflict when
	// the email is already taken.
	Create(ctx context.Context, user *domain.User) error
	// FindByEmail expects an already normalised email. Returns
	// domain.ErrNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
