package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebitservices/pedidos-reservas/internal/apperr"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

type fakePreferenceAPI struct {
	got  preference.Request
	resp *preference.Response
	err  error
}

func (f *fakePreferenceAPI) Create(_ context.Context, request preference.Request) (*preference.Response, error) {
	f.got = request
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakePaymentAPI struct {
	resp *payment.Response
	err  error
}

func (f *fakePaymentAPI) Get(_ context.Context, _ int) (*payment.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

var testURLs = URLs{
	Success:      "https://shop.example/success",
	Pending:      "https://shop.example/pending",
	Failure:      "https://shop.example/failure",
	Notification: "https://api.example/api/webhooks/mercadopago",
}

func TestCreateCheckoutSession(t *testing.T) {
	prefs := &fakePreferenceAPI{resp: &preference.Response{
		ID:               "pref-1",
		InitPoint:        "https://mp.example/init",
		SandboxInitPoint: "https://mp.example/sandbox",
	}}
	c := NewClientWith(prefs, &fakePaymentAPI{}, testURLs)

	session, err := c.CreateCheckoutSession(context.Background(), CheckoutRequest{
		Items: []models.LineItem{
			{ID: "torta-1", Title: "Torta", Quantity: 2, UnitPrice: 1000},
			{ID: "cafe-1", Title: "Café", Quantity: 1, UnitPrice: 2500, CategoryID: "drink"},
		},
		Payer:             Payer{Name: "Ana", Email: "ana@x.cl", Phone: "+56 912345678"},
		ExternalReference: "R-1",
		Metadata:          map[string]any{"origen": "web"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pref-1", session.ID)
	assert.Equal(t, "https://mp.example/init", session.InitPoint)
	assert.Equal(t, "https://mp.example/sandbox", session.SandboxInitPoint)

	req := prefs.got
	require.Len(t, req.Items, 2)
	assert.Equal(t, 1000.0, req.Items[0].UnitPrice)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.Equal(t, "food", req.Items[0].CategoryID, "category defaults to food")
	assert.Equal(t, "drink", req.Items[1].CategoryID, "explicit category kept")

	require.NotNil(t, req.Payer)
	require.NotNil(t, req.Payer.Phone)
	assert.Equal(t, "56", req.Payer.Phone.Number, "leading digits of the phone")

	require.NotNil(t, req.BackURLs)
	assert.Equal(t, testURLs.Success, req.BackURLs.Success)
	assert.Equal(t, testURLs.Pending, req.BackURLs.Pending)
	assert.Equal(t, testURLs.Failure, req.BackURLs.Failure)
	assert.Equal(t, testURLs.Notification, req.NotificationURL)
	assert.Equal(t, "approved", req.AutoReturn)
	assert.Equal(t, "R-1", req.ExternalReference)
	assert.Equal(t, map[string]any{"origen": "web"}, req.Metadata)
}

func TestCreateCheckoutSession_UpstreamRejection(t *testing.T) {
	prefs := &fakePreferenceAPI{err: errors.New("invalid items")}
	c := NewClientWith(prefs, &fakePaymentAPI{}, testURLs)

	_, err := c.CreateCheckoutSession(context.Background(), CheckoutRequest{ExternalReference: "R-1"})
	var gwErr *apperr.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "Error al crear preferencia de pago", gwErr.Msg)
	assert.Equal(t, "invalid items", gwErr.Details)
}

func TestFetchPayment(t *testing.T) {
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	payments := &fakePaymentAPI{resp: &payment.Response{
		ID:                123,
		Status:            "approved",
		StatusDetail:      "accredited",
		ExternalReference: "R-1",
		TransactionAmount: 15500,
		DateCreated:       created,
	}}
	c := NewClientWith(&fakePreferenceAPI{}, payments, testURLs)

	p, err := c.FetchPayment(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, &models.Payment{
		ID:                123,
		Status:            "approved",
		StatusDetail:      "accredited",
		ExternalReference: "R-1",
		TransactionAmount: 15500,
		DateCreated:       created,
	}, p)
}

func TestFetchPayment_NotFound(t *testing.T) {
	payments := &fakePaymentAPI{err: errors.New("API error: 404 payment not found")}
	c := NewClientWith(&fakePreferenceAPI{}, payments, testURLs)

	_, err := c.FetchPayment(context.Background(), 999)
	var gwErr *apperr.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.True(t, gwErr.NotFound)
}

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"912345678", 912345678},
		{"+56 912345678", 56},
		{"912 345 678", 912},
		{"  56912345678  ", 56912345678},
		{"no-phone", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLeadingInt(tt.in))
		})
	}
}
