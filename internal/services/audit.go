package services

import (
	"context"
	"time"

	"github.com/skillacademy/backend/internal/models"
	"go.uber.org/zap"
)

// WebhookEventRepository defines methods for the inbound event audit log
type WebhookEventRepository interface {
	// Create appends an audit record
	//
	// "ctx" is the context for the request.
	// "event" is the audit record; its ID is assigned when empty.
	//
	// Returns an error if any.
	Create(ctx context.Context, event *models.WebhookEvent) error
	// ListUnappliedReferences lists references whose delivery failed on a store outage and
	// that still have no payment
	//
	// "ctx" is the context for the request.
	// "since" bounds how far back audit records are considered.
	// "limit" is the maximum number of references returned.
	//
	// Returns the references and an error if any.
	ListUnappliedReferences(ctx context.Context, since time.Time, limit int) ([]string, error)
}

const defaultAuditTimeout = 5 * time.Second

// auditLog writes audit records outside of any business transaction.
// Failures are logged and never returned.
type auditLog struct {
	repo     WebhookEventRepository
	provider string
	timeout  time.Duration
	logger   *zap.Logger
}

func newAuditLog(repo WebhookEventRepository, provider string, logger *zap.Logger) *auditLog {
	return &auditLog{
		repo:     repo,
		provider: provider,
		timeout:  defaultAuditTimeout,
		logger:   logger,
	}
}

// record stores the event with its own deadline so a cancelled request still leaves a trace
func (a *auditLog) record(ctx context.Context, event *models.WebhookEvent) {
	if event.Provider == "" {
		event.Provider = a.provider
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	if err := a.repo.Create(auditCtx, event); err != nil {
		a.logger.Error("failed to write audit record",
			zap.String("reference", event.Reference),
			zap.String("outcome", string(event.Outcome)),
			zap.String("reason", string(event.Reason)),
			zap.Error(err),
		)
	}
}
