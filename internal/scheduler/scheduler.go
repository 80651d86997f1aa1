package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/guttosm/stockpulse/internal/api"
	"github.com/guttosm/stockpulse/internal/logger"
)

// runTimeout bounds a single scheduled ingestion run.
const runTimeout = 5 * time.Minute

// Scheduler fires periodic ingestion runs on a cron expression.
//
// Expressions use the six-field (seconds-first) format of robfig/cron,
// e.g. "0 30 18 * * 1-5" for 18:30 on weekdays.
type Scheduler struct {
	cron    *cron.Cron
	engine  api.IngestionTrigger
	symbols []string
	weeks   int
	log     zerolog.Logger
}

// New creates a Scheduler around the given ingestion engine.
func New(engine api.IngestionTrigger, symbols []string, weeks int) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		engine:  engine,
		symbols: symbols,
		weeks:   weeks,
		log:     logger.With("scheduler"),
	}
}

// Register adds the ingestion job under the given cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return fmt.Errorf("register ingestion job: %w", err)
	}
	return nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Strs("symbols", s.symbols).Int("weeks", s.weeks).Msg("scheduler started")
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes one ingestion run immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	started := time.Now()
	status, err := s.engine.Run(ctx, s.symbols, s.weeks, false)
	if err != nil {
		s.log.Error().Err(err).Str("status", status).Msg("scheduled ingestion failed")
		return
	}
	s.log.Info().
		Str("status", status).
		Dur("elapsed", time.Since(started)).
		Msg("scheduled ingestion completed")
}
