// Package service holds the business logic: card provisioning and
// lifecycle, fund transfers, the block-request workflow, authentication
// and user administration. Services depend on narrow store interfaces
// backed by the repository package.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jabenka/bank-cards/internal/models"
)

// CardStore is the keyed card lookup/bulk-lookup/save interface
type CardStore interface {
	Create(ctx context.Context, card *models.Card) error
	FindByLastFour(ctx context.Context, lastFour string) (*models.Card, error)
	FindByLastFourIn(ctx context.Context, lastFours []string) ([]models.Card, error)
	ExistsByLastFour(ctx context.Context, lastFour string) (bool, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID, search string, page, size int) ([]models.Card, int64, error)
	FindAll(ctx context.Context) ([]models.Card, error)
	UpdateStatus(ctx context.Context, card *models.Card) error
	Delete(ctx context.Context, lastFour string) error

	// TransferFunds applies the debit and the credit as one atomic unit,
	// serializing concurrent writes per card.
	TransferFunds(ctx context.Context, sourceLastFour, targetLastFour string, amount decimal.Decimal) error

	ExpireOverdue(ctx context.Context) (int64, error)
}

// UserStore is the keyed user lookup interface
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlockRequestStore persists card block requests
type BlockRequestStore interface {
	Create(ctx context.Context, req *models.BlockRequest) error
	ExistsPendingByCard(ctx context.Context, cardID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BlockRequest, error)
	FindAll(ctx context.Context, page, size int) ([]models.BlockRequest, int64, error)

	// Resolve persists the request and the card mutation atomically.
	Resolve(ctx context.Context, req *models.BlockRequest, card *models.Card) error
}
