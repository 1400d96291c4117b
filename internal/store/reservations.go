package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/sebitservices/pedidos-reservas/internal/apperr"
	"github.com/sebitservices/pedidos-reservas/internal/models"
)

// UpsertReservation inserts a reservation keyed by external_reference, or
// refreshes the customer and item fields if one already exists. Status and the
// confirmation flag are never touched by an upsert; those belong to the
// reconciliation path.
func (s *Store) UpsertReservation(ctx context.Context, r *models.Reservation) error {
	items, err := json.Marshal(r.Items)
	if err != nil {
		return err
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	query := `
		INSERT INTO reservations (external_reference, customer_name, customer_email, customer_phone, items, pickup_date, pickup_time, message, total, deposit, balance, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_reference) DO UPDATE SET
			customer_name = excluded.customer_name,
			customer_email = excluded.customer_email,
			customer_phone = excluded.customer_phone,
			items = excluded.items,
			pickup_date = excluded.pickup_date,
			pickup_time = excluded.pickup_time,
			message = excluded.message,
			total = excluded.total,
			deposit = excluded.deposit,
			balance = excluded.balance,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err = s.DB.ExecContext(ctx, query,
		r.ExternalReference, r.CustomerName, r.CustomerEmail, r.CustomerPhone,
		string(items), r.PickupDate, r.PickupTime, r.Message,
		r.Total, r.Deposit, r.Balance, r.Status)
	return err
}

// EnsureReservation creates a minimal pending row for the reference if none
// exists yet. Used by the webhook path, which may run before the client-side
// creation path has persisted anything.
func (s *Store) EnsureReservation(ctx context.Context, reference string) error {
	query := `INSERT OR IGNORE INTO reservations (external_reference, status) VALUES (?, 'pending')`
	_, err := s.DB.ExecContext(ctx, query, reference)
	return err
}

func (s *Store) GetReservation(ctx context.Context, reference string) (*models.Reservation, error) {
	query := `
		SELECT id, external_reference, COALESCE(customer_name, ''), COALESCE(customer_email, ''), COALESCE(customer_phone, ''),
			COALESCE(items, '[]'), COALESCE(pickup_date, ''), COALESCE(pickup_time, ''), COALESCE(message, ''),
			total, deposit, balance, status, confirmation_sent, created_at, updated_at
		FROM reservations WHERE external_reference = ?
	`
	row := s.DB.QueryRowContext(ctx, query, reference)

	var r models.Reservation
	var items string
	err := row.Scan(&r.ID, &r.ExternalReference, &r.CustomerName, &r.CustomerEmail, &r.CustomerPhone,
		&items, &r.PickupDate, &r.PickupTime, &r.Message,
		&r.Total, &r.Deposit, &r.Balance, &r.Status, &r.ConfirmationSent, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Msg: "reservation not found: " + reference}
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &r.Items); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateStatus transitions a reservation's status. A terminal status (success,
// refunded, charged_back) is never overwritten by pending or unknown, so a
// late or replayed webhook cannot roll a reservation backward.
func (s *Store) UpdateStatus(ctx context.Context, reference string, status models.ReservationStatus) error {
	query := `
		UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE external_reference = ?
		AND NOT (status IN ('success', 'refunded', 'charged_back') AND ? IN ('pending', 'unknown', 'failure'))
	`
	_, err := s.DB.ExecContext(ctx, query, status, reference, status)
	return err
}

// ClaimConfirmation atomically flips the confirmation flag for a reservation.
// It returns true for exactly one caller per reservation; every replayed
// webhook after that gets false and must not send another email.
func (s *Store) ClaimConfirmation(ctx context.Context, reference string) (bool, error) {
	query := `
		UPDATE reservations SET confirmation_sent = 1, updated_at = CURRENT_TIMESTAMP
		WHERE external_reference = ? AND confirmation_sent = 0
	`
	res, err := s.DB.ExecContext(ctx, query, reference)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) GetAllReservations(ctx context.Context, limit, offset int) ([]models.Reservation, error) {
	query := `
		SELECT id, external_reference, COALESCE(customer_name, ''), COALESCE(customer_email, ''), COALESCE(customer_phone, ''),
			COALESCE(items, '[]'), COALESCE(pickup_date, ''), COALESCE(pickup_time, ''), COALESCE(message, ''),
			total, deposit, balance, status, confirmation_sent, created_at, updated_at
		FROM reservations
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var r models.Reservation
		var items string
		if err := rows.Scan(&r.ID, &r.ExternalReference, &r.CustomerName, &r.CustomerEmail, &r.CustomerPhone,
			&items, &r.PickupDate, &r.PickupTime, &r.Message,
			&r.Total, &r.Deposit, &r.Balance, &r.Status, &r.ConfirmationSent, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(items), &r.Items); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}
