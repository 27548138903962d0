package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle state of a card
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusExpired CardStatus = "EXPIRED"
)

// Valid reports whether s is one of the known card statuses
func (s CardStatus) Valid() bool {
	switch s {
	case CardStatusActive, CardStatusBlocked, CardStatusExpired:
		return true
	}
	return false
}

// Card represents a bank card account
type Card struct {
	ID         uuid.UUID       `json:"id"`
	CardNumber string          `json:"-"` // full PAN, never serialized
	LastFour   string          `json:"last_four_card_digits"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	ExpiryDate time.Time       `json:"expiry_date"`
	Status     CardStatus      `json:"status"`
	Balance    decimal.Decimal `json:"balance"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Expired reports whether the card's expiry date falls on or before the
// current day. A card expiring today is already expired.
func (c *Card) Expired(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !c.ExpiryDate.After(today)
}

// CardView is the external representation of a card; the number is masked
type CardView struct {
	ID         uuid.UUID       `json:"id"`
	CardNumber string          `json:"card_number"`
	LastFour   string          `json:"last_four_card_digits"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	ExpiresIn  string          `json:"expires_in"`
	Status     CardStatus      `json:"status"`
	Balance    decimal.Decimal `json:"balance"`
}

// CardCreationRequest is the admin payload for provisioning a card.
// A blank card number makes the service issue one.
type CardCreationRequest struct {
	CardNumber   string           `json:"card_number"`
	OwnerID      uuid.UUID        `json:"owner_id"`
	ExpiresIn    string           `json:"expires_in"` // YYYY-MM-DD
	Status       CardStatus       `json:"status"`
	StartBalance *decimal.Decimal `json:"start_balance"`
}

// TransferRequest moves funds between two cards addressed by last four digits
type TransferRequest struct {
	Source string          `json:"source"`
	Target string          `json:"target"`
	Amount decimal.Decimal `json:"amount"`
}

// TransferResponse echoes the masked card numbers and the amount moved
type TransferResponse struct {
	Source string          `json:"source"`
	Target string          `json:"target"`
	Amount decimal.Decimal `json:"amount"`
}

// BalanceRequest asks for the balances of a set of the caller's cards
type BalanceRequest struct {
	LastFourCardDigits []string `json:"last_four_card_digits"`
}

// BalanceResponse is the balance of a single card
type BalanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	LastFour string          `json:"last_four_card_digits"`
}
