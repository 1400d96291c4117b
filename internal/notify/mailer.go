// Package notify sends the transactional emails of the reservation flow over
// an SMTP relay.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/sebitservices/pedidos-reservas/internal/apperr"
	"github.com/sebitservices/pedidos-reservas/internal/config"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

const senderName = "Venados Bakery"

// smtpClient is the part of *mail.Client the mailer uses. Tests substitute a
// fake to capture outgoing messages.
type smtpClient interface {
	DialWithContext(ctx context.Context) error
	Close() error
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Mailer struct {
	client smtpClient
	from   string // relay account, also the operator inbox

	// The relay connection is verified lazily on first use. The mutex
	// serializes concurrent first-time verification; a failed verification
	// is not cached, so the next send retries it.
	mu       sync.Mutex
	verified bool
}

func NewMailer(cfg config.EmailConfig) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Pass),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Secure {
		opts = append(opts, mail.WithSSL())
	}
	if cfg.InsecureSkipVerify {
		// Some shared-hosting relays present certificates that do not match
		// their SMTP hostname. Opt-in only.
		opts = append(opts, mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	return &Mailer{client: client, from: cfg.User}, nil
}

// NewMailerWith injects the SMTP client directly. Used by tests.
func NewMailerWith(client smtpClient, from string) *Mailer {
	return &Mailer{client: client, from: from}
}

func (m *Mailer) ensureVerified(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verified {
		return nil
	}
	if err := m.client.DialWithContext(ctx); err != nil {
		return &apperr.ConnectionError{Err: err}
	}
	_ = m.client.Close()
	m.verified = true
	return nil
}

func (m *Mailer) send(ctx context.Context, msg *mail.Msg) (string, error) {
	if err := m.ensureVerified(ctx); err != nil {
		return "", err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", &apperr.NotificationError{Msg: "error al enviar el correo", Err: err}
	}
	return msg.GetMessageID(), nil
}

func (m *Mailer) newMsg(to string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(senderName, m.from); err != nil {
		return nil, &apperr.NotificationError{Msg: "invalid sender address", Err: err}
	}
	if err := msg.To(to); err != nil {
		return nil, &apperr.NotificationError{Msg: "invalid recipient address", Err: err}
	}
	msg.SetMessageID()
	return msg, nil
}

// SendReservationConfirmation emails the customer their paid-reservation
// receipt. Returns the message id.
func (m *Mailer) SendReservationConfirmation(ctx context.Context, data models.ReservationEmail) (string, error) {
	msg, err := m.newMsg(data.Customer.Email)
	if err != nil {
		return "", err
	}
	msg.Subject(fmt.Sprintf("✅ Reserva Confirmada #%s - Venados Bakery", data.ReservationNumber))
	if err := msg.SetBodyHTMLTemplate(confirmationTmpl, data); err != nil {
		return "", &apperr.NotificationError{Msg: "error al renderizar el correo", Err: err}
	}
	if err := msg.AddAlternativeTextTemplate(confirmationTextTmpl, data); err != nil {
		return "", &apperr.NotificationError{Msg: "error al renderizar el correo", Err: err}
	}
	return m.send(ctx, msg)
}

// SendPaymentPendingNotice tells the customer their payment is still in
// process.
func (m *Mailer) SendPaymentPendingNotice(ctx context.Context, data models.ReservationEmail) (string, error) {
	msg, err := m.newMsg(data.Customer.Email)
	if err != nil {
		return "", err
	}
	msg.Subject(fmt.Sprintf("⏳ Pago Pendiente - Reserva #%s", data.ReservationNumber))
	if err := msg.SetBodyHTMLTemplate(pendingTmpl, data); err != nil {
		return "", &apperr.NotificationError{Msg: "error al renderizar el correo", Err: err}
	}
	return m.send(ctx, msg)
}

// SendContactMessage forwards a contact-form submission to the operator
// inbox, with Reply-To set to the submitter.
func (m *Mailer) SendContactMessage(ctx context.Context, contact models.ContactMessage) (string, error) {
	msg, err := m.newMsg(m.from)
	if err != nil {
		return "", err
	}
	if err := msg.ReplyTo(contact.Email); err != nil {
		return "", &apperr.NotificationError{Msg: "invalid reply-to address", Err: err}
	}
	msg.Subject(fmt.Sprintf("💌 Nuevo mensaje de contacto de %s", contact.Name))
	if err := msg.SetBodyHTMLTemplate(contactTmpl, contact); err != nil {
		return "", &apperr.NotificationError{Msg: "error al renderizar el correo", Err: err}
	}
	return m.send(ctx, msg)
}

// SendQuoteRequest forwards a quote request to the operator inbox. The event
// date is assumed validated (strictly in the future) by the caller.
func (m *Mailer) SendQuoteRequest(ctx context.Context, quote models.QuoteRequest) (string, error) {
	msg, err := m.newMsg(m.from)
	if err != nil {
		return "", err
	}
	if err := msg.ReplyTo(quote.Email); err != nil {
		return "", &apperr.NotificationError{Msg: "invalid reply-to address", Err: err}
	}
	msg.Subject(fmt.Sprintf("🎂 Nueva cotización: %s para %d personas - %s", quote.ProductType, quote.Headcount, quote.Name))

	data := struct {
		Quote          models.QuoteRequest
		DaysUntilEvent int
	}{
		Quote:          quote,
		DaysUntilEvent: DaysUntilEvent(quote.EventDate, time.Now()),
	}
	if err := msg.SetBodyHTMLTemplate(quoteTmpl, data); err != nil {
		return "", &apperr.NotificationError{Msg: "error al renderizar el correo", Err: err}
	}
	return m.send(ctx, msg)
}

// DaysUntilEvent counts the days left until the event, rounding partial days
// up so "tomorrow morning" reads as 1 day, not 0.
func DaysUntilEvent(event, now time.Time) int {
	return int(math.Ceil(event.Sub(now).Hours() / 24))
}
