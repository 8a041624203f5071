package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skillacademy/backend/internal/models"
)

// webhookEventRepository implements WebhookEventRepository
type webhookEventRepository struct {
	db *sql.DB
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *sql.DB) *webhookEventRepository {
	return &webhookEventRepository{
		db: db,
	}
}

// Create appends an audit record. The audit log is never updated in place.
func (r *webhookEventRepository) Create(ctx context.Context, event *models.WebhookEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	query := `
		INSERT INTO webhook_events (id, provider, event_type, source, reference, outcome, reason, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		event.ID,
		event.Provider,
		event.EventType,
		event.Source,
		event.Reference,
		event.Outcome,
		event.Reason,
		nullableJSON(event.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook event: %w", err)
	}

	return nil
}

// ListUnappliedReferences returns references whose delivery failed on a store outage
// since the given time and that still have no recorded payment.
func (r *webhookEventRepository) ListUnappliedReferences(ctx context.Context, since time.Time, limit int) ([]string, error) {
	query := `
		SELECT w.reference
		FROM webhook_events w
		LEFT JOIN payments p ON p.reference = w.reference
		WHERE w.reason = ?
			AND w.reference <> ''
			AND w.created_at >= ?
			AND p.id IS NULL
		GROUP BY w.reference
		ORDER BY MIN(w.created_at)
		LIMIT ?
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, models.ReasonStoreUnavailable, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unapplied references: %w", err)
	}
	defer rows.Close()

	references := []string{}
	for rows.Next() {
		var reference string
		if err := rows.Scan(&reference); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		references = append(references, reference)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unapplied references: %w", err)
	}

	return references, nil
}
