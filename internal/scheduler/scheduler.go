// Package scheduler runs the periodic card expiry sweep. The sweep lives
// outside the request path; request handlers never trigger it.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jabenka/bank-cards/internal/service"
)

// Scheduler owns the cron runner
type Scheduler struct {
	cron  *cron.Cron
	cards *service.CardService
	log   *logrus.Logger
}

// New initializes a scheduler around the card service
func New(cards *service.CardService, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		cards: cards,
		log:   log,
	}
}

// Start registers the expiry sweep under the given cron spec and starts
// the runner.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.cards.ExpireOverdueCards(context.Background()); err != nil {
			s.log.WithError(err).Error("Expiry sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}
	s.cron.Start()
	s.log.WithField("spec", spec).Info("Expiry sweep scheduled")
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
