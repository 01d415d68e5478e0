package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/blog-api/internal/auth"
	"github.com/upb/blog-api/internal/policy"
	"github.com/upb/blog-api/middleware"
	"github.com/upb/blog-api/services"
	"github.com/upb/blog-api/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps service, auth and policy errors to HTTP responses.
// Internal failures are logged with the request id and answered with an
// opaque message.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if _, ok := auth.KindOf(err); ok {
		middleware.WriteAuthError(w, r, err, logger)
		return
	}

	var denied *policy.DeniedError
	if errors.As(err, &denied) {
		logger.Info("access denied",
			zap.String("request_id", requestID),
			zap.String("reason", string(denied.Decision.Code)))
		writeLogged(logger, utils.WriteForbidden(w, denied.Decision.Reason,
			map[string]interface{}{"reason": string(denied.Decision.Code)}))
		return
	}

	message := services.GetErrorMessage(err)
	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	switch {
	case services.IsNotFoundError(err):
		writeLogged(logger, utils.WriteNotFound(w, message))

	case services.IsValidationError(err):
		writeLogged(logger, utils.WriteBadRequest(w, message, details))

	case services.IsUnauthorizedError(err):
		writeLogged(logger, utils.WriteUnauthorized(w, message))

	case services.IsForbiddenError(err):
		writeLogged(logger, utils.WriteForbidden(w, message, details))

	case services.IsConflictError(err):
		writeLogged(logger, utils.WriteConflict(w, message, details))

	case services.IsInternalError(err):
		logger.Error("internal server error",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeLogged(logger, utils.WriteInternalServerError(w, "An internal error occurred"))

	default:
		logger.Error("unhandled error type",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeLogged(logger, utils.WriteInternalServerError(w, "An unexpected error occurred"))
	}
}

// HandleRequestError answers malformed or invalid request input with 400
func HandleRequestError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		writeLogged(logger, utils.WriteValidationError(w, "Validation failed", utils.GetValidationFields(err)))
		return
	}

	var queryErr *utils.QueryError
	if errors.As(err, &queryErr) {
		writeLogged(logger, utils.WriteBadRequest(w, queryErr.Message,
			map[string]interface{}{"field": queryErr.Field}))
		return
	}

	writeLogged(logger, utils.WriteBadRequest(w, err.Error(), nil))
}

func writeLogged(logger *zap.Logger, err error) {
	if err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
