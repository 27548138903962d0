package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/service"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Handler exposes the services over HTTP
type Handler struct {
	auth      *service.AuthService
	cards     *service.CardService
	transfers *service.TransferService
	blocking  *service.BlockingService
	users     *service.UserService
	log       *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(
	auth *service.AuthService,
	cards *service.CardService,
	transfers *service.TransferService,
	blocking *service.BlockingService,
	users *service.UserService,
	log *logrus.Logger,
) *Handler {
	return &Handler{
		auth:      auth,
		cards:     cards,
		transfers: transfers,
		blocking:  blocking,
		users:     users,
		log:       log,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.log.WithError(err).Error("Failed to encode response")
		}
	}
}

// writeError maps the domain error categories onto HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	default:
		h.log.WithError(err).Error("Internal error")
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ErrInvalidArgument
	}
	return nil
}

// parsePaging reads page and size query parameters, applying defaults
func parsePaging(r *http.Request) (page, size int) {
	page = 0
	size = defaultPageSize
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPageSize {
			size = n
		}
	}
	return page, size
}
