// Package gateway wraps the Mercado Pago SDK behind the two calls this
// backend needs: creating a checkout preference and looking up a payment.
package gateway

import (
	"context"
	"strconv"
	"strings"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/sebitservices/pedidos-reservas/internal/apperr"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

// Narrow views of the SDK clients, satisfied by the real ones and easy to
// fake in tests.
type preferenceAPI interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentAPI interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

type Payer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CheckoutRequest carries everything needed to build a gateway preference.
type CheckoutRequest struct {
	Items             []models.LineItem
	Payer             Payer
	ExternalReference string
	Metadata          map[string]any
}

type URLs struct {
	Success      string
	Pending      string
	Failure      string
	Notification string
}

type Client struct {
	preferences preferenceAPI
	payments    paymentAPI
	urls        URLs
}

func NewClient(accessToken string, urls URLs) (*Client, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, err
	}
	return &Client{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
		urls:        urls,
	}, nil
}

// NewClientWith injects the SDK clients directly. Used by tests.
func NewClientWith(preferences preferenceAPI, payments paymentAPI, urls URLs) *Client {
	return &Client{preferences: preferences, payments: payments, urls: urls}
}

// CreateCheckoutSession builds a preference from the order and creates it at
// the gateway. Upstream rejections are surfaced verbatim, not retried.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error) {
	items := make([]preference.ItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		category := it.CategoryID
		if category == "" {
			category = "food"
		}
		items = append(items, preference.ItemRequest{
			ID:         it.ID,
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			PictureURL: it.PictureURL,
			CategoryID: category,
		})
	}

	pref := preference.Request{
		Items: items,
		Payer: &preference.PayerRequest{
			Name:  req.Payer.Name,
			Email: req.Payer.Email,
			Phone: &preference.PhoneRequest{
				Number: strconv.Itoa(parseLeadingInt(req.Payer.Phone)),
			},
		},
		BackURLs: &preference.BackURLsRequest{
			Success: c.urls.Success,
			Pending: c.urls.Pending,
			Failure: c.urls.Failure,
		},
		AutoReturn: "approved",
		PaymentMethods: &preference.PaymentMethodsRequest{
			Installments: 12,
		},
		NotificationURL:   c.urls.Notification,
		ExternalReference: req.ExternalReference,
		Metadata:          req.Metadata,
	}

	resp, err := c.preferences.Create(ctx, pref)
	if err != nil {
		return nil, &apperr.GatewayError{Msg: "Error al crear preferencia de pago", Details: err.Error()}
	}

	return &models.CheckoutSession{
		ID:               resp.ID,
		InitPoint:        resp.InitPoint,
		SandboxInitPoint: resp.SandboxInitPoint,
	}, nil
}

// FetchPayment looks up a payment by its gateway id.
func (c *Client) FetchPayment(ctx context.Context, paymentID int) (*models.Payment, error) {
	resp, err := c.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, &apperr.GatewayError{
			Msg:      "Error al verificar estado del pago",
			Details:  err.Error(),
			NotFound: strings.Contains(err.Error(), "404"),
		}
	}
	return &models.Payment{
		ID:                resp.ID,
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		TransactionAmount: resp.TransactionAmount,
		DateCreated:       resp.DateCreated,
	}, nil
}

// parseLeadingInt mirrors the lenient phone parsing the frontend relies on:
// take the leading digits (ignoring spaces and a leading +) and fall back to
// 0 when nothing parses.
func parseLeadingInt(s string) int {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "+"))
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
