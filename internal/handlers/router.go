package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/sebitservices/pedidos-reservas/internal/gateway"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

const apiVersion = "1.0.3"

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req gateway.CheckoutRequest) (*models.CheckoutSession, error)
	FetchPayment(ctx context.Context, paymentID int) (*models.Payment, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, p *models.Payment) models.ReservationStatus
	VerifyAndReconcile(ctx context.Context, paymentID int, reservationID string) (*models.Payment, models.ReservationStatus, error)
}

type Notifier interface {
	SendReservationConfirmation(ctx context.Context, data models.ReservationEmail) (string, error)
	SendPaymentPendingNotice(ctx context.Context, data models.ReservationEmail) (string, error)
	SendContactMessage(ctx context.Context, contact models.ContactMessage) (string, error)
	SendQuoteRequest(ctx context.Context, quote models.QuoteRequest) (string, error)
}

type ReservationStore interface {
	UpsertReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, reference string) (*models.Reservation, error)
}

type Handler struct {
	Store   ReservationStore
	Gateway PaymentGateway
	Engine  Reconciler
	Mailer  Notifier
}

// NewRouter wires every route of the API. contactWindow throttles the contact
// endpoints per client IP; zero disables throttling.
func NewRouter(h *Handler, allowedOrigins []string, contactWindow time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/mercadopago", func(r chi.Router) {
			r.Post("/create-preference", h.CreatePreference)
			r.Get("/payment/{paymentID}", h.GetPayment)
			r.Post("/verify-payment", h.VerifyPayment)
		})
		r.Post("/webhooks/mercadopago", h.Webhook)

		r.Get("/reservations/{reference}", h.GetReservation)

		r.Route("/email", func(r chi.Router) {
			r.Post("/send-confirmation", h.SendConfirmation)
			r.Post("/send-pending", h.SendPending)
		})

		r.Route("/contact", func(r chi.Router) {
			if contactWindow > 0 {
				r.Use(NewRateLimiter(contactWindow).Middleware)
			}
			r.Post("/message", h.ContactMessage)
			r.Post("/quote", h.ContactQuote)
			r.Post("/submit", h.ContactSubmit)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		render.Status(req, http.StatusNotFound)
		render.JSON(w, req, map[string]any{
			"error": "Ruta no encontrada",
			"path":  req.URL.Path,
		})
	})

	return r
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":    "OK",
		"message":   "Backend Venados Bakery API",
		"version":   apiVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":    "OK",
		"message":   "Backend Venados funcionando correctamente",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
