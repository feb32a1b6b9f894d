package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/coffee-shop/auth"
	"github.com/upb/coffee-shop/middleware"
	"github.com/upb/coffee-shop/services"
	"github.com/upb/coffee-shop/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses.
// Internal causes are logged and never written to the client.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	requestID := middleware.GetRequestIDFromContext(r.Context())
	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	var writeErr error
	switch {
	case isAuthError(err):
		authErr, _ := auth.AsAuthError(err)
		writeErr = utils.WriteAuthError(w, authErr)

	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w)

	case services.IsValidationError(err):
		if details == nil {
			var domainErr *services.DomainError
			if errors.As(err, &domainErr) {
				details = map[string]interface{}{"message": domainErr.Message}
			}
		}
		writeErr = utils.WriteBadRequest(w, details)

	case services.IsUnprocessableError(err):
		logger.Debug("undecodable request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeErr = utils.WriteUnprocessable(w)

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, details)

	case services.IsInternalError(err):
		logger.Error("internal server error",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeErr = utils.WriteInternalServerError(w)

	default:
		logger.Error("unhandled error type",
			zap.String("request_id", requestID),
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w)
	}

	if writeErr != nil {
		logger.Error("failed to write error response",
			zap.String("request_id", requestID),
			zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	details := make(map[string]interface{})
	if utils.IsValidationError(err) {
		for k, v := range utils.GetValidationFields(err) {
			details[k] = v
		}
	} else {
		details["message"] = err.Error()
	}

	if err := utils.WriteBadRequest(w, details); err != nil {
		logger.Error("failed to write validation error response",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
	}
}

func isAuthError(err error) bool {
	_, ok := auth.AsAuthError(err)
	return ok
}
