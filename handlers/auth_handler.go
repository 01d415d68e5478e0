package handlers

import (
	"mime"
	"net/http"

	"github.com/upb/blog-api/services"
	"github.com/upb/blog-api/utils"
	"go.uber.org/zap"
)

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"omitempty,max=100"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=72"`
}

// AuthHandler serves registration, login and the current principal
type AuthHandler struct {
	auth   *services.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	user, err := h.auth.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	writeLogged(h.logger, utils.WriteCreated(w, "User registered successfully", user))
}

// HandleLogin handles POST /auth/login. Accepts a JSON body or an OAuth2
// password form (username, password).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			HandleRequestError(w, err, h.logger)
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		if err := utils.ValidateStruct(&req); err != nil {
			HandleRequestError(w, err, h.logger)
			return
		}
	} else if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	writeLogged(h.logger, utils.WriteOK(w, token))
}

// HandleMe handles GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	writeLogged(h.logger, utils.WriteOK(w, user))
}

func isFormRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}
