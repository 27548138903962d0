package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/models"
)

// BlockRequestRepository provides database operations on card block requests
type BlockRequestRepository struct {
	db *sql.DB
}

// NewBlockRequestRepository initializes a new block request repository
func NewBlockRequestRepository(db *sql.DB) *BlockRequestRepository {
	return &BlockRequestRepository{db: db}
}

// Create inserts a new PENDING block request. A partial unique index on
// (card_id) WHERE status = 'PENDING' makes the at-most-one-pending rule
// atomic; a violation surfaces as the already-exists condition.
func (r *BlockRequestRepository) Create(ctx context.Context, req *models.BlockRequest) error {
	query := `
		INSERT INTO bank.card_block_requests (id, card_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, req.ID, req.CardID, req.UserID, req.Status).
		Scan(&req.CreatedAt, &req.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("pending block request for card %s: %w", req.CardID, apperrors.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create block request: %w", err)
	}
	return nil
}

// ExistsPendingByCard reports whether the card already has a PENDING request
func (r *BlockRequestRepository) ExistsPendingByCard(ctx context.Context, cardID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bank.card_block_requests
			WHERE card_id = $1 AND status = $2
		)`
	err := r.db.QueryRowContext(ctx, query, cardID, models.BlockRequestStatusPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check block request existence: %w", err)
	}
	return exists, nil
}

// FindByID retrieves a block request by identifier
func (r *BlockRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.BlockRequest, error) {
	query := `
		SELECT r.id, r.card_id, r.user_id, r.admin_id, r.status, r.created_at, r.updated_at, c.last_four
		FROM bank.card_block_requests r
		JOIN bank.cards c ON c.id = r.card_id
		WHERE r.id = $1`
	req := &models.BlockRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.CardID, &req.UserID, &req.AdminID, &req.Status,
		&req.CreatedAt, &req.UpdatedAt, &req.CardLastFour)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("card blocking request with id %s not found: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find block request: %w", err)
	}
	return req, nil
}

// FindAll returns one page of block requests across all cards and
// requesters, newest id first.
func (r *BlockRequestRepository) FindAll(ctx context.Context, page, size int) ([]models.BlockRequest, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bank.card_block_requests").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count block requests: %w", err)
	}

	query := `
		SELECT r.id, r.card_id, r.user_id, r.admin_id, r.status, r.created_at, r.updated_at, c.last_four
		FROM bank.card_block_requests r
		JOIN bank.cards c ON c.id = r.card_id
		ORDER BY r.id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query block requests: %w", err)
	}
	defer rows.Close()

	var requests []models.BlockRequest
	for rows.Next() {
		var req models.BlockRequest
		if err := rows.Scan(&req.ID, &req.CardID, &req.UserID, &req.AdminID,
			&req.Status, &req.CreatedAt, &req.UpdatedAt, &req.CardLastFour); err != nil {
			return nil, 0, fmt.Errorf("failed to scan block request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

// Resolve persists the approved request and the blocked card in a single
// transaction, so no reader can see one without the other.
func (r *BlockRequestRepository) Resolve(ctx context.Context, req *models.BlockRequest, card *models.Card) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin resolve: %w", err)
	}
	defer tx.Rollback()

	// Only a PENDING request resolves; a concurrent second resolve finds
	// zero rows here instead of overwriting the first admin's resolution.
	reqQuery := `
		UPDATE bank.card_block_requests
		SET admin_id = $1, status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = $4
		RETURNING updated_at`
	err = tx.QueryRowContext(ctx, reqQuery, req.AdminID, req.Status, req.ID, models.BlockRequestStatusPending).
		Scan(&req.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("card blocking request %s is already resolved: %w", req.ID, apperrors.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to update block request: %w", err)
	}

	cardQuery := `
		UPDATE bank.cards
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING updated_at`
	if err := tx.QueryRowContext(ctx, cardQuery, card.Status, card.ID).Scan(&card.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolve: %w", err)
	}
	return nil
}
