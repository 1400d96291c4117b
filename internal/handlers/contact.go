package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/render"

	"github.com/sebitservices/pedidos-reservas/internal/apperr"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

const phonePlaceholder = "No proporcionado"

// Basic email validation regex
var emailRegex = regexp.MustCompile(`(?i)^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

type contactPayload struct {
	Name    string `json:"nombre"`
	Email   string `json:"email"`
	Phone   string `json:"telefono"`
	Message string `json:"mensaje"`
}

type quotePayload struct {
	Name        string `json:"nombre"`
	Email       string `json:"email"`
	Phone       string `json:"telefono"`
	EventDate   string `json:"fechaEvento"`
	ProductType string `json:"tipoProducto"`
	Headcount   int    `json:"numeroPersonas"`
	Flavor      string `json:"sabor"`
	Budget      string `json:"presupuesto"`
	Message     string `json:"mensaje"`
}

func (h *Handler) ContactMessage(w http.ResponseWriter, r *http.Request) {
	var req contactPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "Cuerpo de la solicitud inválido")
		return
	}
	h.handleContactMessage(w, r, req)
}

func (h *Handler) handleContactMessage(w http.ResponseWriter, r *http.Request, req contactPayload) {
	if verr := validateContact(req); verr != nil {
		badRequest(w, r, verr.Msg)
		return
	}
	if req.Phone == "" {
		req.Phone = phonePlaceholder
	}

	msgID, err := h.Mailer.SendContactMessage(r.Context(), models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
		SentAt:  time.Now(),
	})
	if err != nil {
		notificationError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"success":   true,
		"message":   "Mensaje enviado correctamente",
		"messageId": msgID,
	})
}

func (h *Handler) ContactQuote(w http.ResponseWriter, r *http.Request) {
	var req quotePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "Cuerpo de la solicitud inválido")
		return
	}
	h.handleContactQuote(w, r, req)
}

func (h *Handler) handleContactQuote(w http.ResponseWriter, r *http.Request, req quotePayload) {
	eventDate, verr := validateQuote(req)
	if verr != nil {
		badRequest(w, r, verr.Msg)
		return
	}
	if req.Phone == "" {
		req.Phone = phonePlaceholder
	}

	msgID, err := h.Mailer.SendQuoteRequest(r.Context(), models.QuoteRequest{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		EventDate:   eventDate,
		ProductType: req.ProductType,
		Headcount:   req.Headcount,
		Flavor:      req.Flavor,
		Budget:      req.Budget,
		Message:     req.Message,
		SentAt:      time.Now(),
	})
	if err != nil {
		notificationError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"success":   true,
		"message":   "Solicitud de cotización enviada correctamente",
		"messageId": msgID,
	})
}

func validateContact(req contactPayload) *apperr.ValidationError {
	if req.Name == "" || req.Email == "" || req.Message == "" {
		return &apperr.ValidationError{Msg: "Se requieren nombre, email y mensaje"}
	}
	if !isValidEmail(req.Email) {
		return &apperr.ValidationError{Msg: "El email no tiene un formato válido"}
	}
	return nil
}

func validateQuote(req quotePayload) (time.Time, *apperr.ValidationError) {
	if req.Name == "" || req.Email == "" || req.EventDate == "" || req.ProductType == "" || req.Headcount == 0 || req.Message == "" {
		return time.Time{}, &apperr.ValidationError{Msg: "Se requieren nombre, email, fechaEvento, tipoProducto, numeroPersonas y mensaje"}
	}
	if !isValidEmail(req.Email) {
		return time.Time{}, &apperr.ValidationError{Msg: "El email no tiene un formato válido"}
	}
	eventDate, err := parseEventDate(req.EventDate)
	if err != nil {
		return time.Time{}, &apperr.ValidationError{Msg: "fechaEvento no tiene un formato válido"}
	}
	if !eventDate.After(time.Now()) {
		return time.Time{}, &apperr.ValidationError{Msg: "La fecha del evento debe ser futura"}
	}
	if req.Headcount < 1 || req.Headcount > 1000 {
		return time.Time{}, &apperr.ValidationError{Msg: "numeroPersonas debe estar entre 1 y 1000"}
	}
	return eventDate, nil
}

// ContactSubmit dispatches on the tipo discriminator so the frontend can post
// both form variants to a single endpoint.
func (h *Handler) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		badRequest(w, r, "Cuerpo de la solicitud inválido")
		return
	}
	var head struct {
		Tipo string `json:"tipo"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		badRequest(w, r, "Cuerpo de la solicitud inválido")
		return
	}

	switch head.Tipo {
	case "contacto":
		var req contactPayload
		if err := json.Unmarshal(body, &req); err != nil {
			badRequest(w, r, "Cuerpo de la solicitud inválido")
			return
		}
		h.handleContactMessage(w, r, req)
	case "cotizacion":
		var req quotePayload
		if err := json.Unmarshal(body, &req); err != nil {
			badRequest(w, r, "Cuerpo de la solicitud inválido")
			return
		}
		h.handleContactQuote(w, r, req)
	default:
		badRequest(w, r, "tipo debe ser 'contacto' o 'cotizacion'")
	}
}

// parseEventDate accepts the two formats the frontend sends: a bare date and
// a full RFC 3339 timestamp.
func parseEventDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}
