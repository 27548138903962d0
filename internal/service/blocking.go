package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/models"
	"github.com/jabenka/bank-cards/internal/utils"
)

// BlockNotifier tells a card owner that their card has been blocked
type BlockNotifier interface {
	SendCardBlocked(to, username, maskedNumber string) error
}

// BlockingService manages the card block-request workflow: a user asks
// for a block, an admin approves it, approval also blocks the card.
type BlockingService struct {
	cards    CardStore
	users    UserStore
	requests BlockRequestStore
	notifier BlockNotifier
	log      *logrus.Logger
}

// NewBlockingService initializes a new blocking service. notifier may be
// nil, in which case no notifications are sent.
func NewBlockingService(cards CardStore, users UserStore, requests BlockRequestStore, notifier BlockNotifier, log *logrus.Logger) *BlockingService {
	return &BlockingService{cards: cards, users: users, requests: requests, notifier: notifier, log: log}
}

// CreateBlockRequest opens a PENDING block request for the card addressed
// by its last four digits. At most one PENDING request may exist per card.
func (s *BlockingService) CreateBlockRequest(ctx context.Context, lastFour string, actorID uuid.UUID) (*models.BlockRequestView, error) {
	if actorID == uuid.Nil {
		return nil, fmt.Errorf("user not authenticated: %w", apperrors.ErrUnauthorized)
	}

	card, err := s.cards.FindByLastFour(ctx, lastFour)
	if err != nil {
		return nil, err
	}

	exists, err := s.requests.ExistsPendingByCard(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("request with card %s already exists: %w", lastFour, apperrors.ErrAlreadyExists)
	}

	req := &models.BlockRequest{
		ID:           uuid.New(),
		CardID:       card.ID,
		UserID:       card.OwnerID,
		Status:       models.BlockRequestStatusPending,
		CardLastFour: card.LastFour,
	}
	// The store enforces the one-pending-per-card rule atomically; the
	// existence check above cannot catch two concurrent creations.
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"card":    card.LastFour,
		"request": req.ID,
	}).Info("Block request created")
	return toBlockRequestView(req), nil
}

// GetAllRequests returns one page of block requests, newest id first
func (s *BlockingService) GetAllRequests(ctx context.Context, page, size int) (*models.Page, error) {
	requests, total, err := s.requests.FindAll(ctx, page, size)
	if err != nil {
		return nil, err
	}
	views := make([]models.BlockRequestView, 0, len(requests))
	for i := range requests {
		views = append(views, *toBlockRequestView(&requests[i]))
	}
	return &models.Page{Content: views, Page: page, Size: size, TotalElements: total}, nil
}

// ResolveRequest approves the block request and blocks its card. The
// request mutation and the card mutation persist as one atomic unit.
func (s *BlockingService) ResolveRequest(ctx context.Context, requestID, actorID uuid.UUID) (*models.BlockRequestView, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.BlockRequestStatusPending {
		return nil, fmt.Errorf("card blocking request %s is already resolved: %w", requestID, apperrors.ErrAlreadyExists)
	}

	if actorID == uuid.Nil {
		return nil, fmt.Errorf("user not authenticated: %w", apperrors.ErrUnauthorized)
	}
	admin, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	card, err := s.cards.FindByLastFour(ctx, req.CardLastFour)
	if err != nil {
		return nil, err
	}

	req.AdminID = &admin.ID
	req.Status = models.BlockRequestStatusApproved
	card.Status = models.CardStatusBlocked
	if err := s.requests.Resolve(ctx, req, card); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request": req.ID,
		"card":    card.LastFour,
		"admin":   admin.ID,
	}).Info("Block request resolved")

	if s.notifier != nil {
		s.notifyOwner(card)
	}
	return toBlockRequestView(req), nil
}

// notifyOwner emails the card owner in the background; a failure is
// logged, never propagated.
func (s *BlockingService) notifyOwner(card *models.Card) {
	owner, err := s.users.FindByID(context.Background(), card.OwnerID)
	if err != nil || owner.Email == "" {
		return
	}
	masked := utils.MaskCardNumber(card.LastFour)
	go func() {
		if err := s.notifier.SendCardBlocked(owner.Email, owner.Username, masked); err != nil {
			s.log.WithError(err).Warn("Failed to send block notification")
		}
	}()
}

func toBlockRequestView(req *models.BlockRequest) *models.BlockRequestView {
	return &models.BlockRequestView{
		ID:        req.ID,
		LastFour:  req.CardLastFour,
		UserID:    req.UserID,
		AdminID:   req.AdminID,
		Status:    req.Status,
		CreatedAt: req.CreatedAt.Format(expiryDateLayout),
		UpdatedAt: req.UpdatedAt.Format(expiryDateLayout),
	}
}
