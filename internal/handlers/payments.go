package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/sebitservices/pedidos-reservas/internal/apperr"
	"github.com/sebitservices/pedidos-reservas/internal/gateway"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

// flexFloat accepts both 1000 and "1000" in request bodies. The frontend is
// not consistent about numeric types, and the gateway requires a real float.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", str)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexString accepts both "123" and 123.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*f = flexString(str)
		return nil
	}
	if s == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// phonePayload accepts "912345678", 912345678 and {"number": "912345678"}.
type phonePayload string

func (p *phonePayload) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, "{") {
		var obj struct {
			Number flexString `json:"number"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*p = phonePayload(obj.Number)
		return nil
	}
	var v flexString
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	*p = phonePayload(v)
	return nil
}

type itemPayload struct {
	ID         flexString `json:"id"`
	Title      string     `json:"title"`
	Quantity   int        `json:"quantity"`
	UnitPrice  flexFloat  `json:"unit_price"`
	PictureURL string     `json:"picture_url"`
	CategoryID string     `json:"category_id"`
}

type createPreferenceRequest struct {
	Items []itemPayload `json:"items"`
	Payer struct {
		Name  string       `json:"name"`
		Email string       `json:"email"`
		Phone phonePayload `json:"phone"`
	} `json:"payer"`
	ExternalReference string         `json:"external_reference"`
	Metadata          map[string]any `json:"metadata"`
}

func (h *Handler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	var req createPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "Cuerpo de la solicitud inválido")
		return
	}
	if len(req.Items) == 0 || req.Payer.Name == "" || req.Payer.Email == "" || req.ExternalReference == "" {
		badRequest(w, r, "Se requieren items, payer (name, email) y external_reference")
		return
	}

	items := make([]models.LineItem, 0, len(req.Items))
	var total float64
	for _, it := range req.Items {
		items = append(items, models.LineItem{
			ID:         string(it.ID),
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  float64(it.UnitPrice),
			PictureURL: it.PictureURL,
			CategoryID: it.CategoryID,
		})
		total += float64(it.UnitPrice) * float64(it.Quantity)
	}
	deposit := total / 2

	// Persist the reservation before handing off to the gateway, so the
	// webhook has something to reconcile against whenever it fires.
	reservation := &models.Reservation{
		ExternalReference: req.ExternalReference,
		CustomerName:      req.Payer.Name,
		CustomerEmail:     req.Payer.Email,
		CustomerPhone:     string(req.Payer.Phone),
		Items:             items,
		Total:             total,
		Deposit:           deposit,
		Balance:           total - deposit,
		Status:            models.StatusPending,
	}
	if md := req.Metadata; md != nil {
		if v, ok := md["fechaRetiro"].(string); ok {
			reservation.PickupDate = v
		}
		if v, ok := md["horaRetiro"].(string); ok {
			reservation.PickupTime = v
		}
		if v, ok := md["mensaje"].(string); ok {
			reservation.Message = v
		}
	}
	if err := h.Store.UpsertReservation(r.Context(), reservation); err != nil {
		slog.Error("Failed to persist reservation", "external_reference", req.ExternalReference, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]any{
			"error":   "Error interno del servidor",
			"details": err.Error(),
		})
		return
	}

	session, err := h.Gateway.CreateCheckoutSession(r.Context(), gateway.CheckoutRequest{
		Items: items,
		Payer: gateway.Payer{
			Name:  req.Payer.Name,
			Email: req.Payer.Email,
			Phone: string(req.Payer.Phone),
		},
		ExternalReference: req.ExternalReference,
		Metadata:          req.Metadata,
	})
	if err != nil {
		gatewayError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"id":                 session.ID,
		"init_point":         session.InitPoint,
		"sandbox_init_point": session.SandboxInitPoint,
	})
}

type webhookRequest struct {
	Type string `json:"type"`
	Data struct {
		ID flexString `json:"id"`
	} `json:"data"`
}

// Webhook receives Mercado Pago's payment notifications. Delivery is
// at-least-once; the engine makes replays harmless, so the response is an
// acknowledgment even when the internal work fails.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error", http.StatusInternalServerError)
		return
	}

	if req.Type == "payment" {
		// Bound the outbound fetch and reconcile so a slow gateway cannot
		// hold the webhook response past the provider's delivery timeout.
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		paymentID, err := strconv.Atoi(string(req.Data.ID))
		if err != nil {
			slog.Warn("Webhook with non-numeric payment id", "id", string(req.Data.ID))
		} else if p, err := h.Gateway.FetchPayment(ctx, paymentID); err != nil {
			slog.Error("Failed to fetch payment for webhook", "payment_id", paymentID, "error", err)
		} else {
			h.Engine.Reconcile(ctx, p)
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := strconv.Atoi(chi.URLParam(r, "paymentID"))
	if err != nil {
		badRequest(w, r, "paymentId inválido")
		return
	}
	p, err := h.Gateway.FetchPayment(r.Context(), paymentID)
	if err != nil {
		gatewayError(w, r, err)
		return
	}
	render.JSON(w, r, p)
}

type verifyPaymentRequest struct {
	PaymentID     flexString `json:"paymentId"`
	ReservationID string     `json:"reservationId"`
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "Cuerpo de la solicitud inválido")
		return
	}
	if req.PaymentID == "" || req.ReservationID == "" {
		badRequest(w, r, "Se requieren paymentId y reservationId")
		return
	}
	paymentID, err := strconv.Atoi(string(req.PaymentID))
	if err != nil {
		badRequest(w, r, "paymentId inválido")
		return
	}

	p, _, err := h.Engine.VerifyAndReconcile(r.Context(), paymentID, req.ReservationID)
	if err != nil {
		var mismatch *apperr.MismatchError
		if errors.As(err, &mismatch) {
			badRequest(w, r, "El pago no corresponde a la reserva especificada")
			return
		}
		gatewayError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"success": true,
		"payment": map[string]any{
			"id":                 p.ID,
			"status":             p.Status,
			"amount":             p.TransactionAmount,
			"external_reference": p.ExternalReference,
		},
	})
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	reservation, err := h.Store.GetReservation(r.Context(), reference)
	if err != nil {
		var notFound *apperr.NotFoundError
		if errors.As(err, &notFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]any{"error": "Reserva no encontrada"})
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]any{"error": "Error interno del servidor", "details": err.Error()})
		return
	}
	render.JSON(w, r, reservation)
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]any{"error": msg})
}

func gatewayError(w http.ResponseWriter, r *http.Request, err error) {
	var gwErr *apperr.GatewayError
	if errors.As(err, &gwErr) {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]any{"error": gwErr.Msg, "details": gwErr.Details})
		return
	}
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]any{"error": "Error interno del servidor", "details": err.Error()})
}
