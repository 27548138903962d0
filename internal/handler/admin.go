package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jabenka/bank-cards/internal/models"
)

// CreateCard provisions a new card for a user
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req models.CardCreationRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	card, err := h.cards.CreateCard(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// UpdateCard applies a lifecycle action to a card
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	lastFour := r.URL.Query().Get("last_four_card_digits")
	action := r.URL.Query().Get("activate")

	card, err := h.cards.UpdateStatus(r.Context(), lastFour, action)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// DeleteCard removes a card
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	lastFour := r.URL.Query().Get("last_four_card_digits")

	if err := h.cards.DeleteCard(r.Context(), lastFour); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAllCards lists every card
func (h *Handler) GetAllCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.GetAllCards(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// GetAllBlockRequests lists block requests page by page
func (h *Handler) GetAllBlockRequests(w http.ResponseWriter, r *http.Request) {
	page, size := parsePaging(r)

	result, err := h.blocking.GetAllRequests(r.Context(), page, size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ResolveBlockRequest approves a block request and blocks its card
func (h *Handler) ResolveBlockRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(r.URL.Query().Get("request_id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request_id must be a valid UUID"})
		return
	}
	actor, _ := ActorFrom(r.Context())

	resolved, err := h.blocking.ResolveRequest(r.Context(), requestID, actor.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resolved)
}

// GetAllUsers lists every user
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAllUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// Register creates a new user
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be a valid UUID"})
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
