package ports

import (
	"context"
	"time"

	"github.com/eventos/reservas-api/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to AuthService.Register.
type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	Role      string
	AdminCode string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Claims are the identity facts carried by a verified session token.
type Claims struct {
	UserID int64
	Email  string
	Role   string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// ParseToken verifies a session token. Any failure wraps domain.ErrAuthentication.
	ParseToken(token string) (*Claims, error)
}
