package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/mail.v2"

	"github.com/eventos/reservas-api/internal/core/domain"
)

const confirmationSubject = "🎉 Confirmación de tu reserva"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h2>¡Hola {{.ClientName}}!</h2>
<p>Tu reserva ha sido confirmada con los siguientes datos:</p>
<ul>
  <li><strong>Evento:</strong> {{.EventType}}</li>
  <li><strong>Proveedor:</strong> {{.Provider}}</li>
  <li><strong>Fecha:</strong> {{.Date}}</li>
</ul>
<p>Gracias por confiar en nosotros.</p>
`))

// MailerConfig holds SMTP settings.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// sender is satisfied by *mail.Dialer.
type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// Mailer sends the HTML booking confirmation to the reservation's email.
type Mailer struct {
	sender sender
	from   string
}

// NewMailer builds a Mailer on an SMTP dialer. From defaults to Username.
func NewMailer(cfg MailerConfig) *Mailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{sender: d, from: from}
}

func (m *Mailer) Name() string { return "mail" }

// Notify renders and sends the confirmation. The SMTP client has no context
// support, so ctx is only checked before dialing.
func (m *Mailer) Notify(ctx context.Context, r domain.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.message(r)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", r.Email, err)
	}
	return nil
}

func (m *Mailer) message(r domain.Reservation) (*mail.Message, error) {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, r); err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", r.Email)
	msg.SetHeader("Subject", confirmationSubject)
	msg.SetBody("text/html", body.String())
	return msg, nil
}
