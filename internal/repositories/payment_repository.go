package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/skillacademy/backend/internal/models"
)

// paymentRepository implements PaymentRepository
type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB) *paymentRepository {
	return &paymentRepository{
		db: db,
	}
}

// Create inserts a payment. A second insert for the same reference returns ErrDuplicate.
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}

	query := `
		INSERT INTO payments (id, reference, amount, currency, status, provider, user_id, course_id, metadata, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		payment.ID,
		payment.Reference,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.Provider,
		payment.UserID,
		payment.CourseID,
		nullableJSON(payment.Metadata),
		payment.PaidAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: payment reference %s", ErrDuplicate, payment.Reference)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByReference retrieves a payment by its provider reference
func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	query := `
		SELECT id, reference, amount, currency, status, provider, user_id, course_id, metadata, paid_at, created_at
		FROM payments
		WHERE reference = ?
		LIMIT 1
	`

	payment := &models.Payment{}
	var metadata []byte
	var paidAt sql.NullTime
	err := executor(ctx, r.db).QueryRowContext(ctx, query, reference).Scan(
		&payment.ID,
		&payment.Reference,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.Provider,
		&payment.UserID,
		&payment.CourseID,
		&metadata,
		&paidAt,
		&payment.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by reference: %w", err)
	}

	if len(metadata) > 0 {
		payment.Metadata = json.RawMessage(metadata)
	}
	if paidAt.Valid {
		payment.PaidAt = &paidAt.Time
	}

	return payment, nil
}

// nullableJSON maps an empty document to SQL NULL
func nullableJSON(doc json.RawMessage) any {
	if len(doc) == 0 {
		return nil
	}
	return []byte(doc)
}
