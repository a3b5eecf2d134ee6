package handler

import (
	"net/http"

	"github.com/geooptima/backend/internal/application/auth"
	"github.com/geooptima/backend/internal/transport/http/middleware"
)

// AccountHandler serves the authenticated account profile.
type AccountHandler struct {
	svc auth.Service
}

func NewAccountHandler(svc auth.Service) *AccountHandler { return &AccountHandler{svc: svc} }

// Me returns the account bound to the bearer token. The OTP hash never
// leaves the store layer (json:"-" on the domain struct).
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	acct, err := h.svc.Account(r.Context(), claims.PhoneNumber)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}
