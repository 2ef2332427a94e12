package handler

import (
	"net/http"

	"github.com/yndnr/fp4-go/internal/core/domain"
	"github.com/yndnr/fp4-go/internal/core/service"
)

// Login handles POST /auth/login.
//
// The answer is the same for every email so callers cannot probe accounts.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.auth.Initiate(r.Context(), &service.InitiateRequest{
		Email:      req.Email,
		RemoteAddr: clientIP(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, MessageResponse{Message: resp.Message})
}

// Verify handles POST /auth/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Token == "" {
		h.writeError(w, r, domain.ErrMissingArgument.WithDetails("token"))
		return
	}

	res, err := h.auth.Redeem(r.Context(), &service.RedeemRequest{
		Token:      req.Token,
		RemoteAddr: clientIP(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, h.auth.SessionCookie(res.Token, res.ExpiresAt))
	h.writeJSON(w, r, http.StatusOK, VerifyResponse{Token: res.Token, ExpiresAt: res.ExpiresAt})
}

// Logout handles POST /auth/logout. It always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, service.ClearSessionCookie())
	h.writeJSON(w, r, http.StatusOK, MessageResponse{Message: "Logged out."})
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := service.RequireIdentity(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, id)
}
