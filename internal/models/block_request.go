package models

import (
	"time"

	"github.com/google/uuid"
)

// BlockRequestStatus is the state of a card blocking request
type BlockRequestStatus string

const (
	BlockRequestStatusPending  BlockRequestStatus = "PENDING"
	BlockRequestStatusApproved BlockRequestStatus = "APPROVED"
)

// BlockRequest is a user's request to block one of their cards.
// At most one PENDING request may exist per card; an admin resolves it
// exactly once, which also blocks the card.
type BlockRequest struct {
	ID        uuid.UUID          `json:"id"`
	CardID    uuid.UUID          `json:"card_id"`
	UserID    uuid.UUID          `json:"user_id"`
	AdminID   *uuid.UUID         `json:"admin_id,omitempty"` // set on resolution
	Status    BlockRequestStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`

	// CardLastFour is joined in from the card row for presentation.
	CardLastFour string `json:"-"`
}

// BlockRequestView is the external representation of a block request
type BlockRequestView struct {
	ID        uuid.UUID          `json:"id"`
	LastFour  string             `json:"last_four_card_digits"`
	UserID    uuid.UUID          `json:"user_id"`
	AdminID   *uuid.UUID         `json:"admin_id,omitempty"`
	Status    BlockRequestStatus `json:"status"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
}

// Page is a paged slice of results
type Page struct {
	Content       any   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
}
