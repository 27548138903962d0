package handler

import (
	"net/http"

	"github.com/jabenka/bank-cards/internal/models"
)

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Refresh issues a new access token from a refresh token
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.URL.Query().Get("refreshToken")
	if refreshToken == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "refreshToken parameter is required"})
		return
	}

	resp, err := h.auth.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}
