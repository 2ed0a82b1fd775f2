package handler

import (
	"encoding/json"
	"net/http"

	"github.com/studygroup-api/internal/application/auth"
	"github.com/studygroup-api/internal/domain"
)

// TokenHandler verifies Firebase ID tokens.
type TokenHandler struct {
	svc auth.Service
}

func NewTokenHandler(svc auth.Service) *TokenHandler {
	return &TokenHandler{svc: svc}
}

// Verify answers 401 "Invalid token" for any failure, a malformed body included.
func (h *TokenHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}
	uid, err := h.svc.VerifyToken(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{UID: uid})
}
