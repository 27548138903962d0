package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/models"
	"github.com/jabenka/bank-cards/internal/utils"
)

// Lifecycle actions accepted by UpdateStatus
const (
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionExpired    = "expired"
)

const expiryDateLayout = "2006-01-02"

// issuedCardPrefix is the BIN for card numbers issued by the service when
// the creation request leaves the number blank.
const issuedCardPrefix = "400000"

// CardService handles card provisioning and the card lifecycle
type CardService struct {
	cards CardStore
	users UserStore
	log   *logrus.Logger
}

// NewCardService initializes a new card service
func NewCardService(cards CardStore, users UserStore, log *logrus.Logger) *CardService {
	return &CardService{cards: cards, users: users, log: log}
}

// CreateCard provisions a card for a user. The last four digits of the
// card number become its externally addressable key and must be unique.
func (s *CardService) CreateCard(ctx context.Context, req *models.CardCreationRequest) (*models.CardView, error) {
	cardNumber := req.CardNumber
	if cardNumber == "" {
		issued, err := s.issueCardNumber(ctx)
		if err != nil {
			return nil, err
		}
		cardNumber = issued
	}
	if !utils.ValidCardNumber(cardNumber) {
		return nil, fmt.Errorf("card number must be 16 digits: %w", apperrors.ErrInvalidArgument)
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("unknown card status %q: %w", req.Status, apperrors.ErrInvalidArgument)
	}

	expiryDate, err := time.Parse(expiryDateLayout, req.ExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("expiry date must be YYYY-MM-DD: %w", apperrors.ErrInvalidArgument)
	}

	balance := decimal.Zero
	if req.StartBalance != nil {
		if req.StartBalance.IsNegative() {
			return nil, fmt.Errorf("start balance must not be negative: %w", apperrors.ErrInvalidArgument)
		}
		balance = *req.StartBalance
	}

	lastFour := utils.LastFourDigits(cardNumber)
	exists, err := s.cards.ExistsByLastFour(ctx, lastFour)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("card with last four digits %s already exists: %w", lastFour, apperrors.ErrAlreadyExists)
	}

	owner, err := s.users.FindByID(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	card := &models.Card{
		ID:         uuid.New(),
		CardNumber: cardNumber,
		LastFour:   lastFour,
		OwnerID:    owner.ID,
		ExpiryDate: expiryDate,
		Status:     req.Status,
		Balance:    balance,
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"card":  card.LastFour,
		"owner": owner.ID,
	}).Info("Card created")
	return ToCardView(card), nil
}

// issueCardNumber generates a Luhn-valid card number whose last four
// digits are not taken yet. The last-four key space is small, so a few
// collisions are tolerated.
func (s *CardService) issueCardNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		number, err := utils.GenerateCardNumber(issuedCardPrefix, 16)
		if err != nil {
			return "", err
		}
		exists, err := s.cards.ExistsByLastFour(ctx, utils.LastFourDigits(number))
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("failed to issue an unused card number")
}

// UpdateStatus applies a lifecycle transition to the card addressed by its
// last four digits. Actions: activate, deactivate (block), expired.
func (s *CardService) UpdateStatus(ctx context.Context, lastFour, action string) (*models.CardView, error) {
	card, err := s.cards.FindByLastFour(ctx, lastFour)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionActivate:
		err = s.transition(ctx, card, models.CardStatusActive)
	case ActionDeactivate:
		err = s.transition(ctx, card, models.CardStatusBlocked)
	case ActionExpired:
		if !card.Expired(time.Now()) {
			return nil, fmt.Errorf("card %s is available, block it first: %w", lastFour, apperrors.ErrInvalidState)
		}
		err = s.transition(ctx, card, models.CardStatusExpired)
	default:
		return nil, fmt.Errorf("action can only be activate, deactivate or expired: %w", apperrors.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}
	return ToCardView(card), nil
}

// transition sets the target status and persists; a no-op when the card
// already carries it.
func (s *CardService) transition(ctx context.Context, card *models.Card, status models.CardStatus) error {
	if card.Status == status {
		return nil
	}
	card.Status = status
	if err := s.cards.UpdateStatus(ctx, card); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"card":   card.LastFour,
		"status": status,
	}).Info("Card status updated")
	return nil
}

// DeleteCard removes a card by its last four digits
func (s *CardService) DeleteCard(ctx context.Context, lastFour string) error {
	if err := s.cards.Delete(ctx, lastFour); err != nil {
		return err
	}
	s.log.WithField("card", lastFour).Info("Card deleted")
	return nil
}

// GetAllCards returns every card in the system
func (s *CardService) GetAllCards(ctx context.Context) ([]models.CardView, error) {
	cards, err := s.cards.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.CardView, 0, len(cards))
	for i := range cards {
		views = append(views, *ToCardView(&cards[i]))
	}
	return views, nil
}

// ExpireOverdueCards marks every past-expiry card EXPIRED. Invoked by the
// scheduler, not by request handlers.
func (s *CardService) ExpireOverdueCards(ctx context.Context) error {
	n, err := s.cards.ExpireOverdue(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.WithField("count", n).Info("Expired overdue cards")
	}
	return nil
}

// ToCardView builds the external card representation with a masked number
func ToCardView(card *models.Card) *models.CardView {
	return &models.CardView{
		ID:         card.ID,
		CardNumber: utils.MaskCardNumber(card.LastFour),
		LastFour:   card.LastFour,
		OwnerID:    card.OwnerID,
		ExpiresIn:  card.ExpiryDate.Format(expiryDateLayout),
		Status:     card.Status,
		Balance:    card.Balance,
	}
}
