package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventos/reservas-api/internal/core/domain"
)

const reservationColumns = `id, nombre_cliente, evento, proveedor, fecha, correo`

// ReservationRepository implements ports.ReservationRepository on the reservas table.
type ReservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO reservas (nombre_cliente, evento, proveedor, fecha, correo) VALUES (?, ?, ?, ?, ?)`,
		res.ClientName, res.EventType, res.Provider, res.Date, res.Email,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	res.ID = id
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservas WHERE id = ?`, id,
	).Scan(&res.ID, &res.ClientName, &res.EventType, &res.Provider, &res.Date, &res.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query reservation by id: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) List(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservas ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	items := []domain.Reservation{}
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.ClientName, &res.EventType, &res.Provider, &res.Date, &res.Email); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		items = append(items, res)
	}
	return items, rows.Err()
}

func (r *ReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservas SET nombre_cliente = ?, evento = ?, proveedor = ?, fecha = ?, correo = ? WHERE id = ?`,
		res.ClientName, res.EventType, res.Provider, res.Date, res.Email, res.ID,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	return requireAffected(result)
}

func (r *ReservationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return requireAffected(result)
}

func (r *ReservationRepository) CountByEventType(ctx context.Context) ([]domain.EventTypeCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT evento, COUNT(*) FROM reservas GROUP BY evento ORDER BY evento ASC`)
	if err != nil {
		return nil, fmt.Errorf("count reservations by event: %w", err)
	}
	defer rows.Close()

	counts := []domain.EventTypeCount{}
	for rows.Next() {
		var c domain.EventTypeCount
		if err := rows.Scan(&c.EventType, &c.Total); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// requireAffected maps a zero-row UPDATE or DELETE to domain.ErrNotFound.
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
