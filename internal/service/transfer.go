package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/models"
	"github.com/jabenka/bank-cards/internal/utils"
)

// TransferService moves funds between two card accounts
type TransferService struct {
	cards CardStore
	log   *logrus.Logger
}

// NewTransferService initializes a new transfer service
func NewTransferService(cards CardStore, log *logrus.Logger) *TransferService {
	return &TransferService{cards: cards, log: log}
}

// Transfer moves amount from the source card to the target card, both
// addressed by their last four digits. The debit and the credit are
// applied as one atomic unit and the source balance can never go
// negative. Both cards must be ACTIVE.
func (s *TransferService) Transfer(ctx context.Context, sourceLastFour, targetLastFour string, amount decimal.Decimal) (*models.TransferResponse, error) {
	if sourceLastFour == targetLastFour {
		return nil, fmt.Errorf("cannot transfer to the same card: %w", apperrors.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("transfer amount must be positive: %w", apperrors.ErrInvalidArgument)
	}
	// The currency's minimal unit is one cent; finer amounts are rejected
	// rather than truncated.
	if amount.Exponent() < -2 {
		return nil, fmt.Errorf("transfer amount must not have more than two decimal places: %w", apperrors.ErrInvalidArgument)
	}

	// The target is checked independently of the source so that the most
	// specific not-found error is reported when both keys are wrong.
	exists, err := s.cards.ExistsByLastFour(ctx, targetLastFour)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("target card not found: %w", apperrors.ErrNotFound)
	}

	// Both accounts resolve in a single bulk lookup to avoid read skew
	// between two separate single-row reads.
	cards, err := s.cards.FindByLastFourIn(ctx, []string{sourceLastFour, targetLastFour})
	if err != nil {
		return nil, err
	}
	var sourceCard, targetCard *models.Card
	for i := range cards {
		switch cards[i].LastFour {
		case sourceLastFour:
			sourceCard = &cards[i]
		case targetLastFour:
			targetCard = &cards[i]
		}
	}
	if sourceCard == nil {
		return nil, fmt.Errorf("source card not found: %w", apperrors.ErrNotFound)
	}
	if targetCard == nil {
		return nil, fmt.Errorf("target card not found: %w", apperrors.ErrNotFound)
	}

	if sourceCard.Status != models.CardStatusActive {
		return nil, fmt.Errorf("card %s is not active: %w", utils.MaskCardNumber(sourceCard.LastFour), apperrors.ErrInvalidState)
	}
	if targetCard.Status != models.CardStatusActive {
		return nil, fmt.Errorf("card %s is not active: %w", utils.MaskCardNumber(targetCard.LastFour), apperrors.ErrInvalidState)
	}

	if sourceCard.Balance.LessThan(amount) {
		return nil, fmt.Errorf("insufficient funds on card %s: %w", utils.MaskCardNumber(sourceCard.LastFour), apperrors.ErrInvalidState)
	}

	// The store re-verifies status and balance under its own lock; the
	// checks above only produce the friendlier error messages.
	if err := s.cards.TransferFunds(ctx, sourceLastFour, targetLastFour, amount); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"source": utils.MaskCardNumber(sourceLastFour),
		"target": utils.MaskCardNumber(targetLastFour),
		"amount": amount.String(),
	}).Info("Transfer completed")

	return &models.TransferResponse{
		Source: utils.MaskCardNumber(sourceLastFour),
		Target: utils.MaskCardNumber(targetLastFour),
		Amount: amount,
	}, nil
}
