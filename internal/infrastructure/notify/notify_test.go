package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"gopkg.in/mail.v2"

	"github.com/eventos/reservas-api/internal/core/domain"
)

func sampleReservation() domain.Reservation {
	return domain.Reservation{
		ID:         3,
		ClientName: "ana",
		EventType:  "Cumpleaños",
		Provider:   "Proveedor A",
		Date:       "2025-12-01",
		Email:      "ana@x.com",
	}
}

type stubSender struct {
	sent []*mail.Message
	err  error
}

func (s *stubSender) DialAndSend(m ...*mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m...)
	return nil
}

func TestMailer_Notify(t *testing.T) {
	stub := &stubSender{}
	m := &Mailer{sender: stub, from: "reservas@eventos.test"}

	if err := m.Notify(context.Background(), sampleReservation()); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(stub.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(stub.sent))
	}

	msg := stub.sent[0]
	if to := msg.GetHeader("To"); len(to) != 1 || to[0] != "ana@x.com" {
		t.Fatalf("unexpected To header: %v", to)
	}
	if from := msg.GetHeader("From"); len(from) != 1 || from[0] != "reservas@eventos.test" {
		t.Fatalf("unexpected From header: %v", from)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Proveedor A", "2025-12-01"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %q in message body", want)
		}
	}
}

func TestMailer_EscapesFields(t *testing.T) {
	r := sampleReservation()
	r.ClientName = "<script>"
	m := &Mailer{sender: &stubSender{}, from: "x@y.z"}

	msg, err := m.message(r)
	if err != nil {
		t.Fatalf("message returned error: %v", err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Fatalf("client name must be HTML-escaped")
	}
}

func TestMailer_SendFailure(t *testing.T) {
	m := &Mailer{sender: &stubSender{err: errors.New("535 auth failed")}, from: "x@y.z"}
	if err := m.Notify(context.Background(), sampleReservation()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMailer_CancelledContext(t *testing.T) {
	stub := &stubSender{}
	m := &Mailer{sender: stub, from: "x@y.z"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Notify(ctx, sampleReservation()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(stub.sent) != 0 {
		t.Fatalf("nothing must be sent after cancellation")
	}
}

func TestNewMailer_FromDefaultsToUsername(t *testing.T) {
	m := NewMailer(MailerConfig{Host: "smtp.test", Port: 587, Username: "bot@eventos.test"})
	if m.from != "bot@eventos.test" {
		t.Fatalf("unexpected from %q", m.from)
	}
}

type stubChannel struct {
	key string
	msg amqp.Publishing
	err error
}

func (s *stubChannel) PublishWithContext(_ context.Context, _ string, key string, _, _ bool, msg amqp.Publishing) error {
	s.key, s.msg = key, msg
	return s.err
}

func TestPublisher_Notify(t *testing.T) {
	ch := &stubChannel{}
	fixed := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	p := &Publisher{ch: ch, queue: DefaultQueue, now: func() time.Time { return fixed }}

	if err := p.Notify(context.Background(), sampleReservation()); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if ch.key != DefaultQueue {
		t.Fatalf("unexpected routing key %q", ch.key)
	}
	if ch.msg.DeliveryMode != amqp.Persistent || ch.msg.ContentType != "application/json" {
		t.Fatalf("unexpected publishing %+v", ch.msg)
	}

	var ev ReservationConfirmedEvent
	if err := json.Unmarshal(ch.msg.Body, &ev); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if ev.Reservation != sampleReservation() || !ev.OccurredAt.Equal(fixed) {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestPublisher_NotifyError(t *testing.T) {
	p := &Publisher{ch: &stubChannel{err: amqp.ErrClosed}, queue: DefaultQueue, now: time.Now}
	if err := p.Notify(context.Background(), sampleReservation()); !errors.Is(err, amqp.ErrClosed) {
		t.Fatalf("expected amqp.ErrClosed, got %v", err)
	}
}

type recordingNotifier struct {
	name  string
	err   error
	calls int
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(context.Context, domain.Reservation) error {
	r.calls++
	return r.err
}

func TestFanout_DeliversToAllChannels(t *testing.T) {
	failing := &recordingNotifier{name: "mail", err: errors.New("smtp down")}
	ok := &recordingNotifier{name: "amqp"}
	f := NewFanout(failing, ok, NewLogNotifier(zerolog.Nop()))

	err := f.Notify(context.Background(), sampleReservation())
	if err == nil || !strings.Contains(err.Error(), "mail: smtp down") {
		t.Fatalf("expected joined mail error, got %v", err)
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Fatalf("every channel must be called once: %d %d", failing.calls, ok.calls)
	}
}
