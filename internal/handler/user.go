package handler

import (
	"net/http"

	"github.com/jabenka/bank-cards/internal/models"
)

// GetCards lists the caller's cards page by page, optionally filtered by
// a last-four substring.
func (h *Handler) GetCards(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	page, size := parsePaging(r)
	search := r.URL.Query().Get("search_query")

	result, err := h.users.GetCards(r.Context(), actor.ID, search, page, size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// BlockCard opens a block request for one of the caller's cards
func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	lastFour := r.URL.Query().Get("last_four_card_digits")
	actor, _ := ActorFrom(r.Context())

	req, err := h.blocking.CreateBlockRequest(r.Context(), lastFour, actor.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, req)
}

// GetBalance returns the balances of the requested cards
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	var req models.BalanceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	balances, err := h.users.GetBalances(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, balances)
}

// Transfer moves funds between two of the caller's cards
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.transfers.Transfer(r.Context(), req.Source, req.Target, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}
