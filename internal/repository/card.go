package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/models"
)

const cardColumns = "id, card_number, last_four, owner_id, expiry_date, status, balance, created_at, updated_at"

// CardRepository provides database operations on cards
type CardRepository struct {
	db *sql.DB
}

// NewCardRepository initializes a new card repository
func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

func scanCard(row interface{ Scan(...any) error }) (*models.Card, error) {
	card := &models.Card{}
	err := row.Scan(&card.ID, &card.CardNumber, &card.LastFour, &card.OwnerID,
		&card.ExpiryDate, &card.Status, &card.Balance, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Create inserts a new card
func (r *CardRepository) Create(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO bank.cards (id, card_number, last_four, owner_id, expiry_date, status, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		card.ID, card.CardNumber, card.LastFour, card.OwnerID,
		card.ExpiryDate, card.Status, card.Balance).
		Scan(&card.CreatedAt, &card.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("card with last four digits %s: %w", card.LastFour, apperrors.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// FindByLastFour retrieves a card by its last four digits
func (r *CardRepository) FindByLastFour(ctx context.Context, lastFour string) (*models.Card, error) {
	query := fmt.Sprintf("SELECT %s FROM bank.cards WHERE last_four = $1", cardColumns)
	card, err := scanCard(r.db.QueryRowContext(ctx, query, lastFour))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("card with last four digits %s not found: %w", lastFour, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// FindByLastFourIn retrieves all cards whose last four digits are in the
// given set, in a single query.
func (r *CardRepository) FindByLastFourIn(ctx context.Context, lastFours []string) ([]models.Card, error) {
	query := fmt.Sprintf("SELECT %s FROM bank.cards WHERE last_four = ANY($1)", cardColumns)
	rows, err := r.db.QueryContext(ctx, query, pq.Array(lastFours))
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// ExistsByLastFour reports whether a card with the given last four digits exists
func (r *CardRepository) ExistsByLastFour(ctx context.Context, lastFour string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM bank.cards WHERE last_four = $1)"
	if err := r.db.QueryRowContext(ctx, query, lastFour).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check card existence: %w", err)
	}
	return exists, nil
}

// FindByOwner returns one page of the owner's cards, newest id first,
// optionally filtered by a last-four substring.
func (r *CardRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, search string, page, size int) ([]models.Card, int64, error) {
	var total int64
	countQuery := "SELECT COUNT(*) FROM bank.cards WHERE owner_id = $1 AND last_four LIKE '%' || $2 || '%'"
	if err := r.db.QueryRowContext(ctx, countQuery, ownerID, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM bank.cards
		WHERE owner_id = $1 AND last_four LIKE '%%' || $2 || '%%'
		ORDER BY id DESC
		LIMIT $3 OFFSET $4`, cardColumns)
	rows, err := r.db.QueryContext(ctx, query, ownerID, search, size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, total, rows.Err()
}

// FindAll retrieves every card
func (r *CardRepository) FindAll(ctx context.Context) ([]models.Card, error) {
	query := fmt.Sprintf("SELECT %s FROM bank.cards ORDER BY id DESC", cardColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// UpdateStatus persists a card's status
func (r *CardRepository) UpdateStatus(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE bank.cards
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, card.Status, card.ID).Scan(&card.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("card %s not found: %w", card.ID, apperrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	return nil
}

// Delete removes a card by its last four digits
func (r *CardRepository) Delete(ctx context.Context, lastFour string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bank.cards WHERE last_four = $1", lastFour)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("card with last four digits %s not found: %w", lastFour, apperrors.ErrNotFound)
	}
	return nil
}

// TransferFunds debits the source card and credits the target card inside
// a single transaction. Both rows are locked in deterministic key order and
// the source balance is re-verified under the lock, so two concurrent
// transfers from the same card cannot both spend the same funds.
func (r *CardRepository) TransferFunds(ctx context.Context, sourceLastFour, targetLastFour string, amount decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback()

	// Lock order follows the key order, not the transfer direction, to
	// avoid deadlock between opposing transfers over the same pair.
	first, second := sourceLastFour, targetLastFour
	if second < first {
		first, second = second, first
	}
	lock := "SELECT last_four, status, balance FROM bank.cards WHERE last_four = $1 FOR UPDATE"

	balances := make(map[string]decimal.Decimal, 2)
	statuses := make(map[string]models.CardStatus, 2)
	for _, key := range []string{first, second} {
		var lastFour string
		var status models.CardStatus
		var balance decimal.Decimal
		err := tx.QueryRowContext(ctx, lock, key).Scan(&lastFour, &status, &balance)
		if err == sql.ErrNoRows {
			return fmt.Errorf("card with last four digits %s not found: %w", key, apperrors.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock card %s: %w", key, err)
		}
		balances[lastFour] = balance
		statuses[lastFour] = status
	}

	// Status is re-verified under the lock; a card blocked after the
	// caller's snapshot must not move funds.
	for _, key := range []string{sourceLastFour, targetLastFour} {
		if statuses[key] != models.CardStatusActive {
			return fmt.Errorf("card %s is not active: %w", key, apperrors.ErrInvalidState)
		}
	}

	if balances[sourceLastFour].LessThan(amount) {
		return fmt.Errorf("insufficient funds on card %s: %w", sourceLastFour, apperrors.ErrInvalidState)
	}

	update := "UPDATE bank.cards SET balance = $1, updated_at = CURRENT_TIMESTAMP WHERE last_four = $2"
	if _, err := tx.ExecContext(ctx, update, balances[sourceLastFour].Sub(amount), sourceLastFour); err != nil {
		return fmt.Errorf("failed to debit source card: %w", err)
	}
	if _, err := tx.ExecContext(ctx, update, balances[targetLastFour].Add(amount), targetLastFour); err != nil {
		return fmt.Errorf("failed to credit target card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}
	return nil
}

// ExpireOverdue marks every card whose expiry date is today or earlier as
// EXPIRED and returns the number of cards affected.
func (r *CardRepository) ExpireOverdue(ctx context.Context) (int64, error) {
	query := `
		UPDATE bank.cards
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE expiry_date <= CURRENT_DATE AND status <> $1`
	res, err := r.db.ExecContext(ctx, query, models.CardStatusExpired)
	if err != nil {
		return 0, fmt.Errorf("failed to expire cards: %w", err)
	}
	return res.RowsAffected()
}
