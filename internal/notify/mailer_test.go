package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/sebitservices/pedidos-reservas/internal/apperr"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

type fakeSMTP struct {
	dialErr   error
	sendErr   error
	dialCalls int
	sent      []*mail.Msg
}

func (f *fakeSMTP) DialWithContext(_ context.Context) error {
	f.dialCalls++
	return f.dialErr
}

func (f *fakeSMTP) Close() error { return nil }

func (f *fakeSMTP) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func sampleOrder() models.ReservationEmail {
	return models.ReservationEmail{
		ReservationNumber: "R-42",
		Customer: models.EmailCustomer{
			Name:       "Ana",
			Email:      "ana@x.cl",
			PickupDate: "2026-09-15",
			PickupTime: "10:30",
			Message:    "Sin nueces por favor",
		},
		Products: []models.EmailProduct{
			{Quantity: 2, Name: "Torta de chocolate", UnitPrice: 25000},
		},
		Total:   50000,
		Deposit: 25000,
		Balance: 25000,
	}
}

func TestSendReservationConfirmation(t *testing.T) {
	smtp := &fakeSMTP{}
	m := NewMailerWith(smtp, "venados@pedidosvenados.cl")

	msgID, err := m.SendReservationConfirmation(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.NotEmpty(t, msgID)

	require.Len(t, smtp.sent, 1)
	subjects := smtp.sent[0].GetGenHeader(mail.HeaderSubject)
	require.Len(t, subjects, 1)
	assert.Contains(t, subjects[0], "R-42")
}

func TestSendContactMessage_ReplyToSubmitter(t *testing.T) {
	smtp := &fakeSMTP{}
	m := NewMailerWith(smtp, "venados@pedidosvenados.cl")

	_, err := m.SendContactMessage(context.Background(), models.ContactMessage{
		Name:    "Ana",
		Email:   "ana@x.cl",
		Phone:   "No proporcionado",
		Message: "Hola",
		SentAt:  time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, smtp.sent, 1)
	msg := smtp.sent[0]

	replyTo := msg.GetGenHeader(mail.HeaderReplyTo)
	require.Len(t, replyTo, 1)
	assert.Contains(t, replyTo[0], "ana@x.cl")

	// Routed to the operator inbox, not back to the submitter.
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	require.Len(t, rcpts, 1)
	assert.Equal(t, "venados@pedidosvenados.cl", rcpts[0])
}

func TestSendQuoteRequest(t *testing.T) {
	smtp := &fakeSMTP{}
	m := NewMailerWith(smtp, "venados@pedidosvenados.cl")

	_, err := m.SendQuoteRequest(context.Background(), models.QuoteRequest{
		Name:        "Pedro",
		Email:       "pedro@x.cl",
		Phone:       "912345678",
		EventDate:   time.Now().AddDate(0, 0, 14),
		ProductType: "torta",
		Headcount:   30,
		Message:     "Cumpleaños",
		SentAt:      time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, smtp.sent, 1)
	subjects := smtp.sent[0].GetGenHeader(mail.HeaderSubject)
	require.Len(t, subjects, 1)
	assert.Contains(t, subjects[0], "torta")
	assert.Contains(t, subjects[0], "30 personas")
}

func TestLazyVerification(t *testing.T) {
	smtp := &fakeSMTP{dialErr: errors.New("connection refused")}
	m := NewMailerWith(smtp, "venados@pedidosvenados.cl")

	// First send fails verification; the failure must not be cached.
	_, err := m.SendPaymentPendingNotice(context.Background(), sampleOrder())
	var connErr *apperr.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 1, smtp.dialCalls)
	assert.Empty(t, smtp.sent)

	// Relay comes back: next call retries verification and succeeds.
	smtp.dialErr = nil
	_, err = m.SendPaymentPendingNotice(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, 2, smtp.dialCalls)
	assert.Len(t, smtp.sent, 1)

	// Verification is cached once it succeeds.
	_, err = m.SendPaymentPendingNotice(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, 2, smtp.dialCalls)
}

func TestSendFailureWrapsNotificationError(t *testing.T) {
	smtp := &fakeSMTP{sendErr: errors.New("550 mailbox unavailable")}
	m := NewMailerWith(smtp, "venados@pedidosvenados.cl")

	_, err := m.SendPaymentPendingNotice(context.Background(), sampleOrder())
	var notifErr *apperr.NotificationError
	require.ErrorAs(t, err, &notifErr)
	assert.Contains(t, err.Error(), "550")
}

func TestDaysUntilEvent(t *testing.T) {
	now := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		event time.Time
		want  int
	}{
		{"two weeks out", now.AddDate(0, 0, 14), 14},
		{"tomorrow morning rounds up", time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC), 1},
		{"same instant", now, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilEvent(tt.event, now))
		})
	}
}

func TestFormatCLP(t *testing.T) {
	assert.Equal(t, "$1.000", formatCLP(1000))
	assert.Equal(t, "$25.500", formatCLP(25500))
	assert.Equal(t, "$999", formatCLP(999))
	assert.Equal(t, "$1.234.567", formatCLP(1234567))
	assert.Equal(t, "-$1.000", formatCLP(-1000))
}

func TestConfirmationTemplateRenders(t *testing.T) {
	var b strings.Builder
	require.NoError(t, confirmationTmpl.Execute(&b, sampleOrder()))
	html := b.String()
	assert.Contains(t, html, "#R-42")
	assert.Contains(t, html, "Torta de chocolate")
	assert.Contains(t, html, "$50.000")
	assert.Contains(t, html, "Sin nueces por favor")
}
