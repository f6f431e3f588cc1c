package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eventos/reservas-api/internal/core/domain"
	"github.com/eventos/reservas-api/internal/core/metrics"
	"github.com/eventos/reservas-api/internal/core/ports"
)

var errKeyInFlight = fmt.Errorf("%w: a request with this idempotency key is still in progress", domain.ErrConflict)

type reservationService struct {
	repo  ports.ReservationRepository
	queue ports.NotificationQueue
	idem  ports.IdempotencyStore
	log   zerolog.Logger
}

// NewReservationService returns a ReservationService implementation. idem may
// be nil, in which case Idempotency-Key headers are ignored.
func NewReservationService(
	repo ports.ReservationRepository,
	queue ports.NotificationQueue,
	idem ports.IdempotencyStore,
	log zerolog.Logger,
) ports.ReservationService {
	return &reservationService{
		repo:  repo,
		queue: queue,
		idem:  idem,
		log:   log,
	}
}

// Create validates, stores and queues the confirmation for a new reservation.
func (s *reservationService) Create(ctx context.Context, in ports.ReservationInput, idempotencyKey string) (*domain.Reservation, error) {
	r, err := buildReservation(in)
	if err != nil {
		return nil, err
	}

	// 1. Replay a previous create for the same key, if any.
	claimed := false
	fingerprint := ""
	if idempotencyKey != "" && s.idem != nil {
		fingerprint = reservationFingerprint(r)
		replay, ok, err := s.claimKey(ctx, idempotencyKey, fingerprint)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}
		claimed = ok
	}

	// 2. Persist.
	if err := s.repo.Create(ctx, r); err != nil {
		if claimed {
			s.releaseKey(ctx, idempotencyKey)
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	if claimed {
		if err := s.idem.Complete(ctx, idempotencyKey, fingerprint, r.ID); err != nil {
			s.log.Warn().Err(err).Int64("reservation_id", r.ID).Msg("failed to record idempotency key")
			s.releaseKey(ctx, idempotencyKey)
		}
	}

	metrics.ReservationsCreatedTotal.WithLabelValues(r.EventType).Inc()

	// 3. Hand the confirmation off; a full queue never fails the booking.
	if !s.queue.Enqueue(*r) {
		s.log.Warn().Int64("reservation_id", r.ID).Msg("confirmation dropped: notification queue full")
	}

	return r, nil
}

// List returns every reservation ordered by id.
func (s *reservationService) List(ctx context.Context) ([]domain.Reservation, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return items, nil
}

// Update overwrites all five fields of an existing reservation.
func (s *reservationService) Update(ctx context.Context, id int64, in ports.ReservationInput) (*domain.Reservation, error) {
	r, err := buildReservation(in)
	if err != nil {
		return nil, err
	}
	r.ID = id

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update reservation %d: %w", id, err)
	}

	metrics.ReservationsChangedTotal.WithLabelValues("update").Inc()
	return r, nil
}

// Delete removes a reservation permanently.
func (s *reservationService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}

	metrics.ReservationsChangedTotal.WithLabelValues("delete").Inc()
	return nil
}

// Summary counts reservations per event type.
func (s *reservationService) Summary(ctx context.Context) ([]domain.EventTypeCount, error) {
	counts, err := s.repo.CountByEventType(ctx)
	if err != nil {
		return nil, fmt.Errorf("reservation summary: %w", err)
	}
	return counts, nil
}

// claimKey takes idempotencyKey for this request. It returns the reservation
// to replay when the key already produced one for the same body, or claimed
// true when the caller now owns the key. A key whose reservation was deleted
// is released and claimed again.
func (s *reservationService) claimKey(ctx context.Context, key, fingerprint string) (*domain.Reservation, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		rec, ok, err := s.idem.Claim(ctx, key, fingerprint)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("idempotency claim failed, creating anyway")
			return nil, false, nil
		case ok:
			return nil, true, nil
		case rec.Fingerprint != fingerprint:
			return nil, false, fmt.Errorf("%w: idempotency key was already used for a different reservation", domain.ErrConflict)
		case rec.ReservationID == 0:
			return nil, false, errKeyInFlight
		}

		existing, err := s.repo.FindByID(ctx, rec.ReservationID)
		if err == nil {
			metrics.IdempotencyReplaysTotal.Inc()
			return existing, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, fmt.Errorf("idempotency replay: %w", err)
		}
		s.log.Info().Int64("reservation_id", rec.ReservationID).Msg("idempotency key points at a deleted reservation, releasing")
		s.releaseKey(ctx, key)
	}
	return nil, false, errKeyInFlight
}

func (s *reservationService) releaseKey(ctx context.Context, key string) {
	if err := s.idem.Release(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to release idempotency key")
	}
}

// reservationFingerprint hashes the normalised fields so a reused key can be
// matched against the body it was first sent with.
func reservationFingerprint(r *domain.Reservation) string {
	h := sha256.New()
	for _, f := range []string{r.ClientName, r.EventType, r.Provider, r.Date, r.Email} {
		h.Write([]byte(f))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func buildReservation(in ports.ReservationInput) (*domain.Reservation, error) {
	r := &domain.Reservation{
		ClientName: in.ClientName,
		EventType:  in.EventType,
		Provider:   in.Provider,
		Date:       in.Date,
		Email:      in.Email,
	}
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
