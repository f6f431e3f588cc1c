package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eventos/reservas-api/internal/core/domain"
	"github.com/eventos/reservas-api/internal/core/metrics"
	"github.com/eventos/reservas-api/internal/core/ports"
)

// Fanout delivers to every channel in turn. One failing channel does not
// stop the others; their errors are joined.
type Fanout struct {
	channels []ports.Notifier
}

func NewFanout(channels ...ports.Notifier) *Fanout {
	return &Fanout{channels: channels}
}

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) Notify(ctx context.Context, r domain.Reservation) error {
	var errs []error
	for _, ch := range f.channels {
		if err := ch.Notify(ctx, r); err != nil {
			metrics.NotificationsTotal.WithLabelValues(ch.Name(), "failed").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(ch.Name(), "sent").Inc()
	}
	return errors.Join(errs...)
}

// LogNotifier writes the confirmation to the application log. It is the
// fallback channel when no mail, broker or audit sink is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Notify(_ context.Context, r domain.Reservation) error {
	l.log.Info().
		Int64("reservation_id", r.ID).
		Str("evento", r.EventType).
		Str("proveedor", r.Provider).
		Str("fecha", r.Date).
		Msg("reservation confirmed")
	return nil
}
