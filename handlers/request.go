package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/blog-api/internal/auth"
	"github.com/upb/blog-api/middleware"
	"github.com/upb/blog-api/models"
	"github.com/upb/blog-api/utils"
	"go.uber.org/zap"
)

var errInvalidID = errors.New("invalid id: must be a UUID")

// decodeRequest decodes and validates a JSON body, answering 400 on failure
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		HandleRequestError(w, err, logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleRequestError(w, err, logger)
		return false
	}
	return true
}

// requirePrincipal returns the authenticated user. Routes behind RequireAuth
// always have one; the fallback keeps a misrouted handler from serving anonymously.
func requirePrincipal(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*models.User, bool) {
	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		logger.Error("handler reached without authenticated principal",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path))
		writeLogged(logger, utils.WriteAuthChallenge(w, auth.ErrMissingToken.Message))
		return nil, false
	}
	return user, true
}

// pathID parses the {id} URL parameter
func pathID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeLogged(logger, utils.WriteBadRequest(w, errInvalidID.Error(), map[string]interface{}{"field": "id"}))
		return uuid.Nil, false
	}
	return id, true
}

// pagination parses page parameters, answering 400 when out of range
func pagination(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (models.Page, bool) {
	page, err := utils.ParsePagination(r)
	if err != nil {
		HandleRequestError(w, err, logger)
		return page, false
	}
	return page, true
}
