package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebitservices/pedidos-reservas/internal/apperr"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

type fakeStore struct {
	reservations map[string]*models.Reservation
	ensureErr    error
	updateErr    error
	claimErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{reservations: make(map[string]*models.Reservation)}
}

func (f *fakeStore) EnsureReservation(_ context.Context, reference string) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	if _, ok := f.reservations[reference]; !ok {
		f.reservations[reference] = &models.Reservation{
			ExternalReference: reference,
			Status:            models.StatusPending,
		}
	}
	return nil
}

func (f *fakeStore) GetReservation(_ context.Context, reference string) (*models.Reservation, error) {
	r, ok := f.reservations[reference]
	if !ok {
		return nil, &apperr.NotFoundError{Msg: "reservation not found"}
	}
	return r, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, reference string, status models.ReservationStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	r, ok := f.reservations[reference]
	if !ok {
		return nil
	}
	if r.Status.Terminal() && !status.Terminal() {
		return nil
	}
	r.Status = status
	return nil
}

func (f *fakeStore) ClaimConfirmation(_ context.Context, reference string) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	r, ok := f.reservations[reference]
	if !ok || r.ConfirmationSent {
		return false, nil
	}
	r.ConfirmationSent = true
	return true, nil
}

type fakeNotifier struct {
	sent []models.ReservationEmail
	err  error
}

func (f *fakeNotifier) SendReservationConfirmation(_ context.Context, data models.ReservationEmail) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, data)
	return "msg-1", nil
}

type fakeFetcher struct {
	payments map[int]*models.Payment
}

func (f *fakeFetcher) FetchPayment(_ context.Context, id int) (*models.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, &apperr.GatewayError{Msg: "Error al verificar estado del pago", Details: "404", NotFound: true}
	}
	return p, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		gateway string
		want    models.ReservationStatus
	}{
		{"approved", models.StatusSuccess},
		{"pending", models.StatusPending},
		{"in_process", models.StatusPending},
		{"rejected", models.StatusFailure},
		{"cancelled", models.StatusFailure},
		{"refunded", models.StatusRefunded},
		{"charged_back", models.StatusChargedBack},
		{"authorized", models.StatusUnknown},
		{"", models.StatusUnknown},
		{"APPROVED", models.StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.gateway, func(t *testing.T) {
			assert.Equal(t, tt.want, MapStatus(tt.gateway))
		})
	}
}

func TestReconcile_ApprovedSendsOneConfirmation(t *testing.T) {
	st := newFakeStore()
	st.reservations["R-1"] = &models.Reservation{
		ExternalReference: "R-1",
		CustomerName:      "Ana",
		CustomerEmail:     "ana@x.cl",
		Items:             []models.LineItem{{Title: "Torta", Quantity: 1, UnitPrice: 20000}},
		Total:             20000,
		Deposit:           10000,
		Balance:           10000,
		Status:            models.StatusPending,
	}
	nt := &fakeNotifier{}
	engine := NewEngine(st, nt, &fakeFetcher{}, quietLogger())

	p := &models.Payment{ID: 123, Status: "approved", ExternalReference: "R-1"}

	got := engine.Reconcile(context.Background(), p)
	assert.Equal(t, models.StatusSuccess, got)
	assert.Equal(t, models.StatusSuccess, st.reservations["R-1"].Status)
	require.Len(t, nt.sent, 1)
	assert.Equal(t, "R-1", nt.sent[0].ReservationNumber)
	assert.Equal(t, "ana@x.cl", nt.sent[0].Customer.Email)

	// Replayed webhook: same end state, still exactly one email.
	got = engine.Reconcile(context.Background(), p)
	assert.Equal(t, models.StatusSuccess, got)
	assert.Equal(t, models.StatusSuccess, st.reservations["R-1"].Status)
	assert.Len(t, nt.sent, 1)
}

func TestReconcile_NonSuccessStatusesDoNotNotify(t *testing.T) {
	tests := []struct {
		gateway string
		want    models.ReservationStatus
	}{
		{"pending", models.StatusPending},
		{"in_process", models.StatusPending},
		{"rejected", models.StatusFailure},
		{"cancelled", models.StatusFailure},
		{"refunded", models.StatusRefunded},
		{"charged_back", models.StatusChargedBack},
		{"something_new", models.StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.gateway, func(t *testing.T) {
			st := newFakeStore()
			nt := &fakeNotifier{}
			engine := NewEngine(st, nt, &fakeFetcher{}, quietLogger())

			got := engine.Reconcile(context.Background(), &models.Payment{
				ID: 1, Status: tt.gateway, ExternalReference: "R-2",
			})
			assert.Equal(t, tt.want, got)
			assert.Empty(t, nt.sent)
		})
	}
}

func TestReconcile_CreatesMissingReservation(t *testing.T) {
	st := newFakeStore()
	engine := NewEngine(st, &fakeNotifier{}, &fakeFetcher{}, quietLogger())

	engine.Reconcile(context.Background(), &models.Payment{ID: 5, Status: "pending", ExternalReference: "R-9"})

	r, err := st.GetReservation(context.Background(), "R-9")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, r.Status)
}

func TestReconcile_StoreErrorsAreSwallowed(t *testing.T) {
	st := newFakeStore()
	st.ensureErr = errors.New("db locked")
	engine := NewEngine(st, &fakeNotifier{}, &fakeFetcher{}, quietLogger())

	got := engine.Reconcile(context.Background(), &models.Payment{ID: 7, Status: "approved", ExternalReference: "R-3"})
	assert.Equal(t, models.StatusSuccess, got)
}

func TestReconcile_FailedSendDoesNotDouble(t *testing.T) {
	st := newFakeStore()
	st.reservations["R-4"] = &models.Reservation{
		ExternalReference: "R-4",
		CustomerEmail:     "c@x.cl",
		Status:            models.StatusPending,
	}
	nt := &fakeNotifier{err: errors.New("relay down")}
	engine := NewEngine(st, nt, &fakeFetcher{}, quietLogger())

	p := &models.Payment{ID: 8, Status: "approved", ExternalReference: "R-4"}
	engine.Reconcile(context.Background(), p)
	assert.Empty(t, nt.sent)

	// The claim is spent: a retry must not produce a second send attempt
	// outcome different from the at-most-once contract.
	nt.err = nil
	engine.Reconcile(context.Background(), p)
	assert.Empty(t, nt.sent)
}

func TestVerifyAndReconcile(t *testing.T) {
	st := newFakeStore()
	st.reservations["R-1"] = &models.Reservation{
		ExternalReference: "R-1",
		CustomerEmail:     "ana@x.cl",
		Status:            models.StatusPending,
	}
	fetcher := &fakeFetcher{payments: map[int]*models.Payment{
		123: {ID: 123, Status: "approved", ExternalReference: "R-1"},
		456: {ID: 456, Status: "rejected", ExternalReference: "R-other"},
	}}
	engine := NewEngine(st, &fakeNotifier{}, fetcher, quietLogger())

	t.Run("matching reference reconciles", func(t *testing.T) {
		p, status, err := engine.VerifyAndReconcile(context.Background(), 123, "R-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuccess, status)
		assert.Equal(t, "R-1", p.ExternalReference)
	})

	t.Run("mismatch fails regardless of status", func(t *testing.T) {
		_, _, err := engine.VerifyAndReconcile(context.Background(), 456, "R-1")
		var mismatch *apperr.MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 456, mismatch.PaymentID)
	})

	t.Run("unknown payment surfaces gateway error", func(t *testing.T) {
		_, _, err := engine.VerifyAndReconcile(context.Background(), 999, "R-1")
		var gwErr *apperr.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.True(t, gwErr.NotFound)
	})
}
