package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skillacademy/backend/internal/gateway"
	"github.com/skillacademy/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockReplayer is a mock implementation of ChargeReplayer
type mockReplayer struct {
	results map[string]models.ReconcileResult
	errs    map[string]error
	calls   []string
}

func (m *mockReplayer) ReplayCharge(ctx context.Context, reference string) (models.ReconcileResult, error) {
	m.calls = append(m.calls, reference)
	if err, ok := m.errs[reference]; ok {
		return models.ReconcileResult{Reference: reference}, err
	}
	return m.results[reference], nil
}

func seedStoreOutages(store *fakeStore, references ...string) {
	for _, reference := range references {
		_ = fakeEventRepo{store}.Create(context.Background(), &models.WebhookEvent{
			Provider:  "paystack",
			Source:    models.SourceWebhook,
			Reference: reference,
			Outcome:   models.OutcomeRejected,
			Reason:    models.ReasonStoreUnavailable,
		})
	}
}

func TestMaintenanceService_RecountStudents(t *testing.T) {
	store := newSeededStore()
	store.courses["c1"] = func() models.Course { c := store.courses["c1"]; c.StudentsCount = 7; return c }()
	store.enrollments[enrollmentKey("u1", "free")] = models.Enrollment{ID: "e1", UserID: "u1", CourseID: "free"}
	svc := NewMaintenanceService(fakeCourseRepo{store}, fakeEventRepo{store}, &mockReplayer{}, zap.NewNop())

	corrected, err := svc.RecountStudents(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, corrected)
	assert.Equal(t, 0, store.studentsCount("c1"))
	assert.Equal(t, 1, store.studentsCount("free"))
}

func TestMaintenanceService_RecountStudents_StoreError(t *testing.T) {
	store := newSeededStore()
	store.failOn("courses.RecountStudents", errors.New("lock wait timeout"))
	svc := NewMaintenanceService(fakeCourseRepo{store}, fakeEventRepo{store}, &mockReplayer{}, zap.NewNop())

	_, err := svc.RecountStudents(context.Background())

	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestMaintenanceService_ReplayFailedDeliveries(t *testing.T) {
	store := newSeededStore()
	seedStoreOutages(store, "SS-1", "SS-2", "SS-1", "SS-3", "SS-4")
	replayer := &mockReplayer{
		results: map[string]models.ReconcileResult{
			"SS-1": {Outcome: models.OutcomeApplied},
			"SS-2": {Outcome: models.OutcomeDuplicate},
			"SS-3": {Outcome: models.OutcomeRejected},
		},
		errs: map[string]error{"SS-4": gateway.ErrChargeNotFound},
	}
	svc := NewMaintenanceService(fakeCourseRepo{store}, fakeEventRepo{store}, replayer, zap.NewNop())

	summary, err := svc.ReplayFailedDeliveries(context.Background(), time.Now().Add(-time.Hour), 100)

	require.NoError(t, err)
	assert.Equal(t, []string{"SS-1", "SS-2", "SS-3", "SS-4"}, replayer.calls)
	assert.Equal(t, &ReplaySummary{Candidates: 4, Applied: 1, Duplicates: 1, Rejected: 1, Failed: 1}, summary)
}

func TestMaintenanceService_ReplayFailedDeliveries_SkipsPaidReferences(t *testing.T) {
	store := newSeededStore()
	seedStoreOutages(store, "SS-1", "SS-2")
	store.payments["SS-1"] = models.Payment{ID: "p1", Reference: "SS-1"}
	replayer := &mockReplayer{results: map[string]models.ReconcileResult{"SS-2": {Outcome: models.OutcomeApplied}}}
	svc := NewMaintenanceService(fakeCourseRepo{store}, fakeEventRepo{store}, replayer, zap.NewNop())

	summary, err := svc.ReplayFailedDeliveries(context.Background(), time.Now().Add(-time.Hour), 100)

	require.NoError(t, err)
	assert.Equal(t, []string{"SS-2"}, replayer.calls)
	assert.Equal(t, 1, summary.Applied)
}

func TestMaintenanceService_ReplayFailedDeliveries_StopsWhileStoreIsDown(t *testing.T) {
	store := newSeededStore()
	seedStoreOutages(store, "SS-1", "SS-2", "SS-3")
	replayer := &mockReplayer{errs: map[string]error{"SS-1": ErrStoreUnavailable}}
	svc := NewMaintenanceService(fakeCourseRepo{store}, fakeEventRepo{store}, replayer, zap.NewNop())

	summary, err := svc.ReplayFailedDeliveries(context.Background(), time.Now().Add(-time.Hour), 100)

	require.NoError(t, err)
	assert.Equal(t, []string{"SS-1"}, replayer.calls)
	assert.Equal(t, 3, summary.Candidates)
	assert.Equal(t, 1, summary.Failed)
}

func TestMaintenanceService_ReplayFailedDeliveries_ListError(t *testing.T) {
	store := newSeededStore()
	store.failOn("events.ListUnappliedReferences", errors.New("database error"))
	svc := NewMaintenanceService(fakeCourseRepo{store}, fakeEventRepo{store}, &mockReplayer{}, zap.NewNop())

	summary, err := svc.ReplayFailedDeliveries(context.Background(), time.Now().Add(-time.Hour), 100)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Nil(t, summary)
}

func TestMaintenanceService_ReplayEndToEnd(t *testing.T) {
	charge := successfulCharge("SS-1", "u1", "c1")
	store := newSeededStore()
	seedStoreOutages(store, "SS-1")
	payments := newTestPaymentService(store, &mockGateway{charges: map[string]*models.VerifiedCharge{"SS-1": &charge}})
	svc := NewMaintenanceService(fakeCourseRepo{store}, fakeEventRepo{store}, payments, zap.NewNop())

	summary, err := svc.ReplayFailedDeliveries(context.Background(), time.Now().Add(-time.Hour), 10)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, 1, store.enrollmentCount())

	summary, err = svc.ReplayFailedDeliveries(context.Background(), time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Candidates)
}
