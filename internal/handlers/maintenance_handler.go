package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skillacademy/backend/internal/models"
	"github.com/skillacademy/backend/internal/services"
	"github.com/skillacademy/backend/internal/tasks"
	"go.uber.org/zap"
)

// MaintenanceService is the interface that wraps ledger repair operations
type MaintenanceService interface {
	// RecountStudents rewrites drifted course student counters
	//
	// Returns the number of corrected courses and an error if any.
	RecountStudents(ctx context.Context) (int, error)
	// ReplayFailedDeliveries re-verifies charges whose delivery failed on a store outage
	//
	// "since" bounds how far back failed deliveries are considered.
	// "limit" is the maximum number of references processed.
	ReplayFailedDeliveries(ctx context.Context, since time.Time, limit int) (*services.ReplaySummary, error)
}

// MaintenanceHandler handles on-demand maintenance requests from operators
type MaintenanceHandler struct {
	BaseHandler
	service MaintenanceService
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(svc MaintenanceService, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all maintenance routes behind the API key middleware
func (h *MaintenanceHandler) RegisterRoutes(r chi.Router, apiKeyMiddleware func(http.Handler) http.Handler) {
	r.Route("/admin/maintenance", func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Post("/recount", h.Recount)
		r.Post("/replay", h.Replay)
	})
}

// Recount handles POST /admin/maintenance/recount
// @Summary Recount course students
// @Tags maintenance
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.RecountResponse "Corrected courses"
// @Failure 401 {object} map[string]string "Invalid API key"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/maintenance/recount [post]
func (h *MaintenanceHandler) Recount(w http.ResponseWriter, r *http.Request) {
	corrected, err := h.service.RecountStudents(r.Context())
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.RecountResponse{CorrectedCourses: corrected})
}

// Replay handles POST /admin/maintenance/replay
// @Summary Replay failed deliveries
// @Description Re-verifies charges whose webhook delivery failed on a store outage and were never applied
// @Tags maintenance
// @Produce json
// @Security ApiKeyAuth
// @Param hours query int false "How many hours back to look (default: 72)"
// @Param limit query int false "Maximum references to replay (default: 100)"
// @Success 200 {object} services.ReplaySummary "Replay summary"
// @Failure 401 {object} map[string]string "Invalid API key"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/maintenance/replay [post]
func (h *MaintenanceHandler) Replay(w http.ResponseWriter, r *http.Request) {
	window := tasks.DefaultReplayWindow
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		hours, err := strconv.Atoi(hoursStr)
		if err != nil || hours <= 0 {
			h.RespondError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		window = time.Duration(hours) * time.Hour
	}

	limit := tasks.DefaultReplayLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			h.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = l
	}

	summary, err := h.service.ReplayFailedDeliveries(r.Context(), time.Now().Add(-window), limit)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, summary)
}
