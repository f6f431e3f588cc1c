// Package metrics defines and registers all custom Prometheus metrics for the
// reservations API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reservas"

// ── Reservation metrics ───────────────────────────────────────────────────────

// ReservationsCreatedTotal counts newly stored reservations.
// Label:
//   - evento: the booked event type (e.g. "Cumpleaños")
var ReservationsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_created_total",
		Help:      "Total number of reservations created, by event type.",
	},
	[]string{"evento"},
)

// ReservationsChangedTotal counts admin edits.
// Label:
//   - operation: "update" or "delete"
var ReservationsChangedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_changed_total",
		Help:      "Total number of reservations updated or deleted.",
	},
	[]string{"operation"},
)

// IdempotencyReplaysTotal counts create requests answered from a previously
// used Idempotency-Key instead of inserting again.
var IdempotencyReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_replays_total",
		Help:      "Total number of reservation creates served from an earlier idempotency key.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "unknown_email" or "bad_password"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts accounts created.
// Label:
//   - rol: "user" or "admin"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registered accounts, by role.",
	},
	[]string{"rol"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts confirmation deliveries per channel.
// Labels:
//   - channel: notifier name (e.g. "mail", "amqp", "audit", "log")
//   - result: "sent" or "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of confirmation deliveries, by channel and result.",
	},
	[]string{"channel", "result"},
)

// NotificationsDroppedTotal counts confirmations discarded because the
// dispatcher queue was full.
var NotificationsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Total number of confirmations dropped on a full dispatcher queue.",
	},
)

// NotificationQueueDepth tracks the number of confirmations waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of confirmations pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDuration measures how long one confirmation takes to deliver on all channels.
var NotificationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of confirmation delivery from dequeue to completion.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// RateLimitedTotal counts requests rejected by the rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected with 429.",
	},
)
