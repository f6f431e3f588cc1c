package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventos/reservas-api/internal/core/domain"
	"github.com/eventos/reservas-api/internal/core/metrics"
	"github.com/eventos/reservas-api/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
	defaultTimeout = 15 * time.Second
)

// Options tunes the dispatcher. Zero values fall back to defaults.
type Options struct {
	Workers int
	Buffer  int
	Timeout time.Duration
}

// Dispatcher delivers booking confirmations off the request path. Jobs are
// sharded on the recipient email so one recipient's confirmations arrive in
// booking order.
type Dispatcher struct {
	workers  []chan domain.Reservation
	notifier ports.Notifier
	timeout  time.Duration
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher delivering through notifier.
func NewDispatcher(opts Options, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Buffer <= 0 {
		opts.Buffer = channelBuffer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	d := &Dispatcher{
		workers:  make([]chan domain.Reservation, opts.Workers),
		notifier: notifier,
		timeout:  opts.Timeout,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Reservation, opts.Buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// use Wait to block until they have exited.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands r to its worker without blocking. It returns false, and
// counts the drop, when that worker's buffer is full.
func (d *Dispatcher) Enqueue(r domain.Reservation) bool {
	idx := d.shardIndex(r.Email)
	select {
	case d.workers[idx] <- r:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.NotificationsDroppedTotal.Inc()
		return false
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Reservation) {
	defer d.wg.Done()
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case r := <-ch:
			depth.Set(float64(len(ch)))
			d.deliver(ctx, id, r)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, worker int, r domain.Reservation) {
	start := time.Now()
	deliverCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.notifier.Notify(deliverCtx, r); err != nil {
		d.log.Error().Err(err).
			Int64("reservation_id", r.ID).
			Int("worker_id", worker).
			Msg("confirmation delivery failed")
	}
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())
}
