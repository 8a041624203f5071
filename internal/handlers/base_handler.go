package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skillacademy/backend/internal/auth"
	"github.com/skillacademy/backend/internal/gateway"
	"github.com/skillacademy/backend/internal/middleware"
	"github.com/skillacademy/backend/internal/services"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps a service error onto an HTTP status.
// Unknown errors are logged and hidden behind a generic message.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidPercentage),
		errors.Is(err, services.ErrCourseIsFree),
		errors.Is(err, services.ErrPaymentRequired):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotEnrolled):
		h.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrLessonNotFound),
		errors.Is(err, services.ErrUserNotFound):
		h.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyEnrolled):
		h.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, gateway.ErrProviderUnavailable),
		errors.Is(err, gateway.ErrProviderRejected):
		h.Logger.Warn("payment provider error", zap.Error(err))
		h.RespondError(w, http.StatusBadGateway, "payment provider error")
	default:
		h.Logger.Error("request failed", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// identity returns the authenticated caller or writes 401
func (h *BaseHandler) identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.Logger.Error("identity not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return nil, false
	}
	return identity, true
}
