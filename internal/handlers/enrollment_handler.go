package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skillacademy/backend/internal/models"
	"go.uber.org/zap"
)

// EnrollmentService is the interface that wraps the free enrollment operation
type EnrollmentService interface {
	// EnrollFree enrolls a user in a free course
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns the enrollment, whether it was created by this call, and an error if any.
	EnrollFree(ctx context.Context, userID, courseID string) (*models.Enrollment, bool, error)
}

// EnrollmentHandler handles HTTP requests for enrollment operations
type EnrollmentHandler struct {
	BaseHandler
	service EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(svc EnrollmentService, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all enrollment handler routes
func (h *EnrollmentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Post("/courses/{courseId}/enroll", h.Enroll)
}

// Enroll handles POST /courses/{courseId}/enroll
// @Summary Enroll in a free course
// @Description Enrolls the caller in a free published course. Repeating the call returns the existing enrollment.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 201 {object} models.EnrollmentResponse "Enrollment created"
// @Success 200 {object} models.EnrollmentResponse "Already enrolled"
// @Failure 400 {object} map[string]string "Course requires payment"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{courseId}/enroll [post]
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	enrollment, created, err := h.service.EnrollFree(r.Context(), identity.UserID, chi.URLParam(r, "courseId"))
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.RespondJSON(w, status, models.EnrollmentResponse{Enrollment: enrollment, Created: created})
}
