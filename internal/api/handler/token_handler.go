package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	apimw "github.com/upcheckhq/upcheck/internal/api/middleware"
	"github.com/upcheckhq/upcheck/internal/auth"
)

// TokenHandler exchanges the admin API key for a bearer token.
type TokenHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

func NewTokenHandler(svc *auth.Service, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{svc: svc, logger: logger}
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken handles POST /auth/token
//
// @Summary  Exchange the admin API key for a bearer token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body      tokenRequest  true  "Credentials"
// @Success  200   {object}  tokenResponse
// @Failure  401   {object}  map[string]string
// @Router   /auth/token [post]
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.Authenticate(req.APIKey); err != nil {
		h.logger.Warn("token request rejected",
			zap.String("request_id", apimw.GetRequestID(r.Context())),
			zap.String("remote_addr", r.RemoteAddr),
		)
		respondError(w, http.StatusUnauthorized, "bad credentials")
		return
	}

	token, expiresAt, err := h.svc.IssueToken()
	if err != nil {
		h.logger.Error("token signing failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}
