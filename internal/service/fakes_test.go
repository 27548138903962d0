package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jabenka/bank-cards/internal/apperrors"
	"github.com/jabenka/bank-cards/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// fakeCardStore keeps cards in memory, keyed by last four digits
type fakeCardStore struct {
	cards       map[string]*models.Card
	statusSaves int

	// beforeTransfer runs at the start of TransferFunds, standing in for
	// a concurrent writer that slips between the caller's snapshot and
	// the transfer itself.
	beforeTransfer func()
}

func newFakeCardStore(cards ...*models.Card) *fakeCardStore {
	s := &fakeCardStore{cards: make(map[string]*models.Card)}
	for _, c := range cards {
		s.cards[c.LastFour] = c
	}
	return s
}

func (s *fakeCardStore) Create(_ context.Context, card *models.Card) error {
	if _, ok := s.cards[card.LastFour]; ok {
		return fmt.Errorf("card with last four digits %s: %w", card.LastFour, apperrors.ErrAlreadyExists)
	}
	s.cards[card.LastFour] = card
	return nil
}

func (s *fakeCardStore) FindByLastFour(_ context.Context, lastFour string) (*models.Card, error) {
	card, ok := s.cards[lastFour]
	if !ok {
		return nil, fmt.Errorf("card with last four digits %s not found: %w", lastFour, apperrors.ErrNotFound)
	}
	copied := *card
	return &copied, nil
}

func (s *fakeCardStore) FindByLastFourIn(_ context.Context, lastFours []string) ([]models.Card, error) {
	var cards []models.Card
	for _, lf := range lastFours {
		if card, ok := s.cards[lf]; ok {
			cards = append(cards, *card)
		}
	}
	return cards, nil
}

func (s *fakeCardStore) ExistsByLastFour(_ context.Context, lastFour string) (bool, error) {
	_, ok := s.cards[lastFour]
	return ok, nil
}

func (s *fakeCardStore) FindByOwner(_ context.Context, ownerID uuid.UUID, search string, page, size int) ([]models.Card, int64, error) {
	var owned []models.Card
	for _, card := range s.cards {
		if card.OwnerID == ownerID {
			owned = append(owned, *card)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].LastFour < owned[j].LastFour })
	return owned, int64(len(owned)), nil
}

func (s *fakeCardStore) FindAll(_ context.Context) ([]models.Card, error) {
	var cards []models.Card
	for _, card := range s.cards {
		cards = append(cards, *card)
	}
	return cards, nil
}

func (s *fakeCardStore) UpdateStatus(_ context.Context, card *models.Card) error {
	stored, ok := s.cards[card.LastFour]
	if !ok {
		return fmt.Errorf("card %s not found: %w", card.ID, apperrors.ErrNotFound)
	}
	stored.Status = card.Status
	s.statusSaves++
	return nil
}

func (s *fakeCardStore) Delete(_ context.Context, lastFour string) error {
	if _, ok := s.cards[lastFour]; !ok {
		return fmt.Errorf("card with last four digits %s not found: %w", lastFour, apperrors.ErrNotFound)
	}
	delete(s.cards, lastFour)
	return nil
}

func (s *fakeCardStore) TransferFunds(_ context.Context, sourceLastFour, targetLastFour string, amount decimal.Decimal) error {
	if s.beforeTransfer != nil {
		s.beforeTransfer()
	}
	source, ok := s.cards[sourceLastFour]
	if !ok {
		return fmt.Errorf("card with last four digits %s not found: %w", sourceLastFour, apperrors.ErrNotFound)
	}
	target, ok := s.cards[targetLastFour]
	if !ok {
		return fmt.Errorf("card with last four digits %s not found: %w", targetLastFour, apperrors.ErrNotFound)
	}
	// Like the real store, status is re-verified at transfer time.
	if source.Status != models.CardStatusActive {
		return fmt.Errorf("card %s is not active: %w", sourceLastFour, apperrors.ErrInvalidState)
	}
	if target.Status != models.CardStatusActive {
		return fmt.Errorf("card %s is not active: %w", targetLastFour, apperrors.ErrInvalidState)
	}
	if source.Balance.LessThan(amount) {
		return fmt.Errorf("insufficient funds on card %s: %w", sourceLastFour, apperrors.ErrInvalidState)
	}
	source.Balance = source.Balance.Sub(amount)
	target.Balance = target.Balance.Add(amount)
	return nil
}

func (s *fakeCardStore) ExpireOverdue(_ context.Context) (int64, error) {
	var n int64
	for _, card := range s.cards {
		if card.Expired(time.Now()) && card.Status != models.CardStatusExpired {
			card.Status = models.CardStatusExpired
			n++
		}
	}
	return n, nil
}

// fakeUserStore keeps users in memory
type fakeUserStore struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("user %s: %w", user.Username, apperrors.ErrAlreadyExists)
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user %s not found: %w", username, apperrors.ErrNotFound)
}

func (s *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s not found: %w", id, apperrors.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) FindAll(_ context.Context) ([]models.User, error) {
	var users []models.User
	for _, u := range s.users {
		users = append(users, *u)
	}
	return users, nil
}

func (s *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user with id %s not found: %w", id, apperrors.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

// fakeBlockRequestStore keeps block requests in memory and, like the real
// store's partial unique index, refuses a second PENDING row per card.
// Resolve writes the card mutation through to the card store, matching the
// real store's single-transaction behavior.
type fakeBlockRequestStore struct {
	requests map[uuid.UUID]*models.BlockRequest
	pending  map[uuid.UUID]bool // by card id
	cards    *fakeCardStore
	resolves int

	// hidePending makes ExistsPendingByCard lie, reproducing the window
	// between a passed existence check and a conflicting insert.
	hidePending bool
}

func newFakeBlockRequestStore(cards *fakeCardStore) *fakeBlockRequestStore {
	return &fakeBlockRequestStore{
		requests: make(map[uuid.UUID]*models.BlockRequest),
		pending:  make(map[uuid.UUID]bool),
		cards:    cards,
	}
}

func (s *fakeBlockRequestStore) Create(_ context.Context, req *models.BlockRequest) error {
	if s.pending[req.CardID] {
		return fmt.Errorf("pending block request for card %s: %w", req.CardID, apperrors.ErrAlreadyExists)
	}
	stored := *req
	s.requests[req.ID] = &stored
	s.pending[req.CardID] = true
	return nil
}

func (s *fakeBlockRequestStore) ExistsPendingByCard(_ context.Context, cardID uuid.UUID) (bool, error) {
	if s.hidePending {
		return false, nil
	}
	return s.pending[cardID], nil
}

func (s *fakeBlockRequestStore) FindByID(_ context.Context, id uuid.UUID) (*models.BlockRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("card blocking request with id %s not found: %w", id, apperrors.ErrNotFound)
	}
	copied := *req
	return &copied, nil
}

func (s *fakeBlockRequestStore) FindAll(_ context.Context, page, size int) ([]models.BlockRequest, int64, error) {
	var requests []models.BlockRequest
	for _, req := range s.requests {
		requests = append(requests, *req)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID.String() > requests[j].ID.String() })
	return requests, int64(len(requests)), nil
}

func (s *fakeBlockRequestStore) Resolve(_ context.Context, req *models.BlockRequest, card *models.Card) error {
	stored, ok := s.requests[req.ID]
	if !ok {
		return fmt.Errorf("card blocking request with id %s not found: %w", req.ID, apperrors.ErrNotFound)
	}
	// Like the real store, only a PENDING request resolves.
	if stored.Status != models.BlockRequestStatusPending {
		return fmt.Errorf("card blocking request %s is already resolved: %w", req.ID, apperrors.ErrAlreadyExists)
	}
	stored.AdminID = req.AdminID
	stored.Status = req.Status
	if stored.Status != models.BlockRequestStatusPending {
		delete(s.pending, stored.CardID)
	}
	if s.cards != nil {
		if c, ok := s.cards.cards[card.LastFour]; ok {
			c.Status = card.Status
		}
	}
	s.resolves++
	return nil
}

// fakeNotifier records block notifications
type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) SendCardBlocked(to, username, maskedNumber string) error {
	n.sent = append(n.sent, maskedNumber)
	return nil
}
