package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	"github.com/sebitservices/pedidos-reservas/internal/models"
)

// SendConfirmation forwards the frontend's post-checkout payload to the
// notifier as a reservation confirmation email.
func (h *Handler) SendConfirmation(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeReservationEmail(w, r)
	if !ok {
		return
	}
	msgID, err := h.Mailer.SendReservationConfirmation(r.Context(), data)
	if err != nil {
		notificationError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "messageId": msgID})
}

// SendPending sends the payment-in-process notice.
func (h *Handler) SendPending(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeReservationEmail(w, r)
	if !ok {
		return
	}
	msgID, err := h.Mailer.SendPaymentPendingNotice(r.Context(), data)
	if err != nil {
		notificationError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "messageId": msgID})
}

func decodeReservationEmail(w http.ResponseWriter, r *http.Request) (models.ReservationEmail, bool) {
	var data models.ReservationEmail
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		badRequest(w, r, "Cuerpo de la solicitud inválido")
		return data, false
	}
	if data.Customer.Email == "" || data.ReservationNumber == "" {
		badRequest(w, r, "Se requieren numeroReserva y cliente.email")
		return data, false
	}
	return data, true
}

func notificationError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]any{
		"error":   "Error al enviar el correo",
		"details": err.Error(),
	})
}
