package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eventos/reservas-api/internal/core/domain"
)

// UserRepository implements ports.UserRepository on the usuarios table.
type UserRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewUserRepository(db *sql.DB, log zerolog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO usuarios (nombre, correo, password, rol) VALUES (?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, user.Role,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	user.ID = id
	return nil
}

// FindByEmail reads the role through domain.ParseRole so rows written with
// the legacy "usuario" value come back as domain.RoleUser. Any other unknown
// stored role is downgraded to domain.RoleUser with a warning.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, nombre, correo, password, rol FROM usuarios WHERE correo = ?`, email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}

	if user.Role, err = domain.ParseRole(role); err != nil {
		r.log.Warn().Int64("user_id", user.ID).Str("stored_role", role).
			Msg("unknown stored role, treating as user")
		user.Role = domain.RoleUser
	}
	return user, nil
}
