package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skillacademy/backend/internal/models"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps methods for learning progress
type ProgressService interface {
	// GetProgress returns the course progress of the user
	//
	// Returns services.ErrNotEnrolled when the user is not enrolled.
	GetProgress(ctx context.Context, userID, courseID string) (*models.Progress, error)
	// UpdateModuleProgress records the percentage of one lesson and recomputes the course progress
	//
	// "ctx" is the context for the request.
	// "userID", "courseID", "moduleID" and "lessonID" locate the lesson.
	// "percentage" is the lesson percentage between 0 and 100.
	//
	// Returns the updated progress and an error if any.
	UpdateModuleProgress(ctx context.Context, userID, courseID, moduleID, lessonID string, percentage float64) (*models.Progress, error)
	// RecordLessonCompletion marks a lesson complete and recomputes the course progress
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "lessonID" is the ID of the finished lesson.
	//
	// Returns the course level result and an error if any.
	RecordLessonCompletion(ctx context.Context, userID, lessonID string) (*models.CompletionResult, error)
}

// ProgressHandler handles HTTP requests for learning progress
type ProgressHandler struct {
	BaseHandler
	service ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/courses/{courseId}/progress", h.GetProgress)
		r.Put("/courses/{courseId}/modules/{moduleId}/lessons/{lessonId}/progress", h.UpdateLessonProgress)
		r.Post("/lessons/{lessonId}/complete", h.CompleteLesson)
	})
}

// GetProgress handles GET /courses/{courseId}/progress
// @Summary Get course progress
// @Tags progress
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} models.Progress "Course progress"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not enrolled"
// @Router /courses/{courseId}/progress [get]
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	progress, err := h.service.GetProgress(r.Context(), identity.UserID, chi.URLParam(r, "courseId"))
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// UpdateLessonProgress handles PUT /courses/{courseId}/modules/{moduleId}/lessons/{lessonId}/progress
// @Summary Update lesson progress
// @Description Stores the percentage of one lesson and recomputes the course percentage over all current lessons
// @Tags progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param moduleId path string true "Module ID"
// @Param lessonId path string true "Lesson ID"
// @Param request body models.UpdateLessonProgressRequest true "Lesson percentage"
// @Success 200 {object} models.Progress "Updated progress"
// @Failure 400 {object} map[string]string "Invalid percentage"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not enrolled"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /courses/{courseId}/modules/{moduleId}/lessons/{lessonId}/progress [put]
func (h *ProgressHandler) UpdateLessonProgress(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req models.UpdateLessonProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Percentage == nil {
		h.RespondError(w, http.StatusBadRequest, "percentage is required")
		return
	}

	progress, err := h.service.UpdateModuleProgress(r.Context(),
		identity.UserID,
		chi.URLParam(r, "courseId"),
		chi.URLParam(r, "moduleId"),
		chi.URLParam(r, "lessonId"),
		*req.Percentage,
	)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// CompleteLesson handles POST /lessons/{lessonId}/complete
// @Summary Mark a lesson complete
// @Description Records the completion and returns the course level progress for immediate feedback
// @Tags progress
// @Produce json
// @Security BearerAuth
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} models.CompletionResult "Course progress after completion"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not enrolled"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /lessons/{lessonId}/complete [post]
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	result, err := h.service.RecordLessonCompletion(r.Context(), identity.UserID, chi.URLParam(r, "lessonId"))
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}
