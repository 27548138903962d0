package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/models"
)

func activeCard(lastFour string, balance string) *models.Card {
	return &models.Card{
		ID:         uuid.New(),
		CardNumber: "400000000000" + lastFour,
		LastFour:   lastFour,
		OwnerID:    uuid.New(),
		ExpiryDate: time.Now().AddDate(3, 0, 0),
		Status:     models.CardStatusActive,
		Balance:    decimal.RequireFromString(balance),
	}
}

func TestTransferMovesFunds(t *testing.T) {
	store := newFakeCardStore(activeCard("1234", "1000.00"), activeCard("5678", "500.00"))
	svc := NewTransferService(store, testLogger())

	resp, err := svc.Transfer(context.Background(), "1234", "5678", decimal.RequireFromString("100.00"))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if resp.Source != "************1234" || resp.Target != "************5678" {
		t.Fatalf("unexpected masked numbers: %s -> %s", resp.Source, resp.Target)
	}
	if !resp.Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected amount 100.00, got %s", resp.Amount)
	}
	if !store.cards["1234"].Balance.Equal(decimal.RequireFromString("900.00")) {
		t.Fatalf("expected source balance 900.00, got %s", store.cards["1234"].Balance)
	}
	if !store.cards["5678"].Balance.Equal(decimal.RequireFromString("600.00")) {
		t.Fatalf("expected target balance 600.00, got %s", store.cards["5678"].Balance)
	}
}

func TestTransferConservesTotal(t *testing.T) {
	store := newFakeCardStore(activeCard("1234", "321.55"), activeCard("5678", "78.45"))
	svc := NewTransferService(store, testLogger())
	before := store.cards["1234"].Balance.Add(store.cards["5678"].Balance)

	if _, err := svc.Transfer(context.Background(), "1234", "5678", decimal.RequireFromString("13.07")); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	after := store.cards["1234"].Balance.Add(store.cards["5678"].Balance)
	if !after.Equal(before) {
		t.Fatalf("total changed: before %s, after %s", before, after)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	store := newFakeCardStore(activeCard("1234", "50.00"), activeCard("5678", "500.00"))
	svc := NewTransferService(store, testLogger())

	_, err := svc.Transfer(context.Background(), "1234", "5678", decimal.RequireFromString("100.00"))
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if !strings.Contains(err.Error(), "************1234") {
		t.Fatalf("expected error to name the masked source card, got %q", err)
	}
	if !store.cards["1234"].Balance.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("source balance changed: %s", store.cards["1234"].Balance)
	}
	if !store.cards["5678"].Balance.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("target balance changed: %s", store.cards["5678"].Balance)
	}
}

func TestTransferSameCard(t *testing.T) {
	store := newFakeCardStore(activeCard("1234", "1000.00"))
	svc := NewTransferService(store, testLogger())

	_, err := svc.Transfer(context.Background(), "1234", "1234", decimal.RequireFromString("10.00"))
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !store.cards["1234"].Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("balance changed: %s", store.cards["1234"].Balance)
	}
}

func TestTransferAmountValidation(t *testing.T) {
	store := newFakeCardStore(activeCard("1234", "1000.00"), activeCard("5678", "0.00"))
	svc := NewTransferService(store, testLogger())

	for _, amount := range []string{"0", "-5.00", "1.001"} {
		_, err := svc.Transfer(context.Background(), "1234", "5678", decimal.RequireFromString(amount))
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("amount %s: expected ErrInvalidArgument, got %v", amount, err)
		}
	}
	if !store.cards["1234"].Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("balance changed: %s", store.cards["1234"].Balance)
	}
}

func TestTransferTargetNotFound(t *testing.T) {
	store := newFakeCardStore(activeCard("1234", "1000.00"))
	svc := NewTransferService(store, testLogger())

	// The target check runs first even when the source key is also wrong.
	_, err := svc.Transfer(context.Background(), "0000", "9999", decimal.RequireFromString("10.00"))
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "target card not found") {
		t.Fatalf("expected target-specific error, got %q", err)
	}
}

func TestTransferSourceNotFound(t *testing.T) {
	store := newFakeCardStore(activeCard("5678", "500.00"))
	svc := NewTransferService(store, testLogger())

	_, err := svc.Transfer(context.Background(), "0000", "5678", decimal.RequireFromString("10.00"))
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "source card not found") {
		t.Fatalf("expected source-specific error, got %q", err)
	}
}

func TestTransferSourceBlockedConcurrently(t *testing.T) {
	// The service's status check reads a snapshot; a card blocked right
	// after it must still be rejected by the store's re-check.
	store := newFakeCardStore(activeCard("1234", "1000.00"), activeCard("5678", "500.00"))
	store.beforeTransfer = func() {
		store.cards["1234"].Status = models.CardStatusBlocked
	}
	svc := NewTransferService(store, testLogger())

	_, err := svc.Transfer(context.Background(), "1234", "5678", decimal.RequireFromString("100.00"))
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if !store.cards["1234"].Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("blocked source was debited: %s", store.cards["1234"].Balance)
	}
	if !store.cards["5678"].Balance.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("target was credited: %s", store.cards["5678"].Balance)
	}
}

func TestTransferRequiresActiveCards(t *testing.T) {
	blocked := activeCard("1234", "1000.00")
	blocked.Status = models.CardStatusBlocked
	store := newFakeCardStore(blocked, activeCard("5678", "500.00"))
	svc := NewTransferService(store, testLogger())

	_, err := svc.Transfer(context.Background(), "1234", "5678", decimal.RequireFromString("10.00"))
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for blocked source, got %v", err)
	}

	expired := activeCard("9999", "100.00")
	expired.Status = models.CardStatusExpired
	store = newFakeCardStore(activeCard("1111", "1000.00"), expired)
	svc = NewTransferService(store, testLogger())

	_, err = svc.Transfer(context.Background(), "1111", "9999", decimal.RequireFromString("10.00"))
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for expired target, got %v", err)
	}
	if !store.cards["1111"].Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("balance changed: %s", store.cards["1111"].Balance)
	}
}
