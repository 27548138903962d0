package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/models"
)

// UserService handles user administration and the user-facing card views
type UserService struct {
	users UserStore
	cards CardStore
	log   *logrus.Logger
}

// NewUserService initializes a new user service
func NewUserService(users UserStore, cards CardStore, log *logrus.Logger) *UserService {
	return &UserService{users: users, cards: cards, log: log}
}

// GetAllUsers returns every user
func (s *UserService) GetAllUsers(ctx context.Context) ([]models.UserView, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, models.UserView{ID: u.ID, Username: u.Username, Role: u.Role})
	}
	return views, nil
}

// DeleteUser removes a user by identifier
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("user", id).Info("User deleted")
	return nil
}

// GetCards returns one page of the actor's own cards, optionally filtered
// by a last-four substring.
func (s *UserService) GetCards(ctx context.Context, actorID uuid.UUID, search string, page, size int) (*models.Page, error) {
	if actorID == uuid.Nil {
		return nil, fmt.Errorf("user not authenticated: %w", apperrors.ErrUnauthorized)
	}
	cards, total, err := s.cards.FindByOwner(ctx, actorID, search, page, size)
	if err != nil {
		return nil, err
	}
	views := make([]models.CardView, 0, len(cards))
	for i := range cards {
		views = append(views, *ToCardView(&cards[i]))
	}
	return &models.Page{Content: views, Page: page, Size: size, TotalElements: total}, nil
}

// GetBalances returns the balance of each card in the request
func (s *UserService) GetBalances(ctx context.Context, req *models.BalanceRequest) ([]models.BalanceResponse, error) {
	if len(req.LastFourCardDigits) == 0 {
		return nil, fmt.Errorf("last four card digits must be provided: %w", apperrors.ErrInvalidArgument)
	}

	responses := make([]models.BalanceResponse, 0, len(req.LastFourCardDigits))
	for _, lastFour := range req.LastFourCardDigits {
		card, err := s.cards.FindByLastFour(ctx, lastFour)
		if err != nil {
			return nil, err
		}
		responses = append(responses, models.BalanceResponse{
			Balance:  card.Balance,
			LastFour: card.LastFour,
		})
	}
	return responses, nil
}
