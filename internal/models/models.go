package models

import (
	"time"
)

// ReservationStatus is the internal status of a reservation, derived from the
// payment gateway's status codes.
type ReservationStatus string

const (
	StatusPending     ReservationStatus = "pending"
	StatusSuccess     ReservationStatus = "success"
	StatusFailure     ReservationStatus = "failure"
	StatusRefunded    ReservationStatus = "refunded"
	StatusChargedBack ReservationStatus = "charged_back"
	StatusUnknown     ReservationStatus = "unknown"
)

// Terminal reports whether a status must never be rolled back to pending/unknown.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusRefunded, StatusChargedBack:
		return true
	}
	return false
}

type LineItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	PictureURL string  `json:"picture_url,omitempty"`
	CategoryID string  `json:"category_id,omitempty"`
}

type Reservation struct {
	ID                int               `json:"id"`
	ExternalReference string            `json:"external_reference"` // Public reservation id, chosen by the caller
	CustomerName      string            `json:"customer_name"`
	CustomerEmail     string            `json:"customer_email"`
	CustomerPhone     string            `json:"customer_phone"`
	Items             []LineItem        `json:"items"`
	PickupDate        string            `json:"pickup_date,omitempty"`
	PickupTime        string            `json:"pickup_time,omitempty"`
	Message           string            `json:"message,omitempty"`
	Total             float64           `json:"total"`
	Deposit           float64           `json:"deposit"`
	Balance           float64           `json:"balance"`
	Status            ReservationStatus `json:"status"`
	ConfirmationSent  bool              `json:"confirmation_sent"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Payment is a read-only view of a gateway payment. Never mutated locally.
type Payment struct {
	ID                int       `json:"id"`
	Status            string    `json:"status"`
	StatusDetail      string    `json:"status_detail"`
	ExternalReference string    `json:"external_reference"`
	TransactionAmount float64   `json:"transaction_amount"`
	DateCreated       time.Time `json:"date_created"`
}

// CheckoutSession is the ephemeral gateway checkout reference returned when a
// preference is created. Owned by the gateway, never persisted here.
type CheckoutSession struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// ReservationEmail is the payload the frontend posts to the email endpoints
// after checkout. Field names follow the public API contract.
type ReservationEmail struct {
	ReservationNumber string         `json:"numeroReserva"`
	Customer          EmailCustomer  `json:"cliente"`
	Products          []EmailProduct `json:"productos"`
	Total             float64        `json:"total"`
	Deposit           float64        `json:"abono"`
	Balance           float64        `json:"pendiente"`
}

type EmailCustomer struct {
	Name       string `json:"nombre"`
	Email      string `json:"email"`
	Phone      string `json:"telefono,omitempty"`
	PickupDate string `json:"fechaRetiro"`
	PickupTime string `json:"horaRetiro"`
	Message    string `json:"mensaje,omitempty"`
}

type EmailProduct struct {
	Quantity  int     `json:"cantidad"`
	Name      string  `json:"nombre"`
	UnitPrice float64 `json:"precio"`
}

type ContactMessage struct {
	Name    string    `json:"nombre"`
	Email   string    `json:"email"`
	Phone   string    `json:"telefono"`
	Message string    `json:"mensaje"`
	SentAt  time.Time `json:"fechaEnvio"`
}

type QuoteRequest struct {
	Name        string    `json:"nombre"`
	Email       string    `json:"email"`
	Phone       string    `json:"telefono"`
	EventDate   time.Time `json:"-"`
	ProductType string    `json:"tipoProducto"`
	Headcount   int       `json:"numeroPersonas"`
	Flavor      string    `json:"sabor"`
	Budget      string    `json:"presupuesto"`
	Message     string    `json:"mensaje"`
	SentAt      time.Time `json:"fechaEnvio"`
}
