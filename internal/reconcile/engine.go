// Package reconcile maps gateway payment statuses onto reservation state and
// decides on follow-up actions. Webhook delivery is at-least-once, so every
// path here must be safe to run twice for the same payment: same end state,
// at most one confirmation email.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sebitservices/pedidos-reservas/internal/apperr"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

// MapStatus translates a gateway payment status into a reservation status.
// Unrecognized codes map to unknown.
func MapStatus(gatewayStatus string) models.ReservationStatus {
	switch gatewayStatus {
	case "approved":
		return models.StatusSuccess
	case "pending", "in_process":
		return models.StatusPending
	case "rejected", "cancelled":
		return models.StatusFailure
	case "refunded":
		return models.StatusRefunded
	case "charged_back":
		return models.StatusChargedBack
	default:
		return models.StatusUnknown
	}
}

type ReservationStore interface {
	EnsureReservation(ctx context.Context, reference string) error
	GetReservation(ctx context.Context, reference string) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, reference string, status models.ReservationStatus) error
	ClaimConfirmation(ctx context.Context, reference string) (bool, error)
}

type ConfirmationSender interface {
	SendReservationConfirmation(ctx context.Context, data models.ReservationEmail) (string, error)
}

type PaymentFetcher interface {
	FetchPayment(ctx context.Context, paymentID int) (*models.Payment, error)
}

type Engine struct {
	store    ReservationStore
	notifier ConfirmationSender
	payments PaymentFetcher
	logger   *slog.Logger
}

func NewEngine(store ReservationStore, notifier ConfirmationSender, payments PaymentFetcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, notifier: notifier, payments: payments, logger: logger}
}

// Reconcile applies a payment's status to its reservation. Internal failures
// are recorded as structured failure events and never propagate: the webhook
// response to the gateway is an acknowledgment either way, because a gateway
// retry cannot fix a broken store and must not trigger duplicate side effects.
func (e *Engine) Reconcile(ctx context.Context, p *models.Payment) models.ReservationStatus {
	status := MapStatus(p.Status)

	e.logger.Info("Reconciling payment",
		"payment_id", p.ID,
		"gateway_status", p.Status,
		"status", status,
		"external_reference", p.ExternalReference,
	)

	if p.ExternalReference == "" {
		e.failure(p, "payment has no external_reference", nil)
		return status
	}

	if err := e.store.EnsureReservation(ctx, p.ExternalReference); err != nil {
		e.failure(p, "ensure reservation", err)
		return status
	}
	if err := e.store.UpdateStatus(ctx, p.ExternalReference, status); err != nil {
		e.failure(p, "update status", err)
		return status
	}

	if status == models.StatusSuccess {
		e.confirmOnce(ctx, p)
	}

	return status
}

// confirmOnce sends the confirmation email for an approved payment, at most
// once per reservation. The claim happens before the send: a failed send
// after a won claim means zero emails, never two.
func (e *Engine) confirmOnce(ctx context.Context, p *models.Payment) {
	claimed, err := e.store.ClaimConfirmation(ctx, p.ExternalReference)
	if err != nil {
		e.failure(p, "claim confirmation", err)
		return
	}
	if !claimed {
		e.logger.Info("Confirmation already sent, skipping", "external_reference", p.ExternalReference)
		return
	}

	r, err := e.store.GetReservation(ctx, p.ExternalReference)
	if err != nil {
		e.failure(p, "load reservation for confirmation", err)
		return
	}
	if r.CustomerEmail == "" {
		e.logger.Warn("Reservation has no customer email, confirmation not sent", "external_reference", p.ExternalReference)
		return
	}

	products := make([]models.EmailProduct, 0, len(r.Items))
	for _, it := range r.Items {
		products = append(products, models.EmailProduct{
			Quantity:  it.Quantity,
			Name:      it.Title,
			UnitPrice: it.UnitPrice,
		})
	}

	msgID, err := e.notifier.SendReservationConfirmation(ctx, models.ReservationEmail{
		ReservationNumber: r.ExternalReference,
		Customer: models.EmailCustomer{
			Name:       r.CustomerName,
			Email:      r.CustomerEmail,
			Phone:      r.CustomerPhone,
			PickupDate: r.PickupDate,
			PickupTime: r.PickupTime,
			Message:    r.Message,
		},
		Products: products,
		Total:    r.Total,
		Deposit:  r.Deposit,
		Balance:  r.Balance,
	})
	if err != nil {
		e.failure(p, "send confirmation email", err)
		return
	}
	e.logger.Info("Confirmation email sent", "external_reference", p.ExternalReference, "message_id", msgID)
}

// VerifyAndReconcile fetches a payment, asserts it belongs to the given
// reservation and reconciles it. Used for manual re-sync.
func (e *Engine) VerifyAndReconcile(ctx context.Context, paymentID int, reservationID string) (*models.Payment, models.ReservationStatus, error) {
	p, err := e.payments.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, models.StatusUnknown, err
	}
	if p.ExternalReference != reservationID {
		return nil, models.StatusUnknown, &apperr.MismatchError{PaymentID: paymentID, ReservationID: reservationID}
	}
	return p, e.Reconcile(ctx, p), nil
}

// failure emits a structured failure event for operator visibility. The event
// id lets a log search follow one webhook delivery end to end.
func (e *Engine) failure(p *models.Payment, op string, err error) {
	e.logger.Error("Reconciliation failure",
		"event_id", uuid.NewString(),
		"op", op,
		"payment_id", p.ID,
		"external_reference", p.ExternalReference,
		"error", err,
	)
}
