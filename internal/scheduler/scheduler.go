// Package scheduler decides, once per minute, whether an auto-publish cycle
// should start. Cycles run inline in the tick loop, so they can never
// overlap: serialization is structural, not lock-based.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/LouisCorbet/BlogSeed/internal/domain"
	"github.com/LouisCorbet/BlogSeed/internal/settings"
)

// maxDedupEntries bounds the minute-bucket set. Past it the set is cleared
// wholesale: a soft memory bound, not a correctness guarantee. A restart at
// exactly a scheduled minute may double-fire; known limitation.
const maxDedupEntries = 2000

// ErrCycleInFlight is returned by TriggerNow while a cycle is running or
// already queued.
var ErrCycleInFlight = errors.New("a publish cycle is already in flight")

type Publisher interface {
	Publish(ctx context.Context) (*domain.PublishStats, error)
}

type SettingsReader interface {
	Read() settings.SiteSettings
}

type Scheduler struct {
	publisher Publisher
	settings  SettingsReader
	loc       *time.Location
	logger    *slog.Logger

	ran     map[string]struct{} // touched only by the Start loop
	manual  chan struct{}
	running atomic.Bool
}

func New(publisher Publisher, settingsReader SettingsReader, loc *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		publisher: publisher,
		settings:  settingsReader,
		loc:       loc,
		logger:    logger.With("component", "scheduler"),
		ran:       make(map[string]struct{}),
		manual:    make(chan struct{}, 1),
	}
}

// Start aligns to the next minute boundary, then ticks every minute until
// the context is canceled. Manual triggers are consumed by the same loop.
// Ticks missed while a cycle was running are skipped, never replayed.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "timezone", s.loc.String())

	untilNextMinute := time.Until(time.Now().Truncate(time.Minute).Add(time.Minute))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(untilNextMinute):
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, time.Now())
		case <-s.manual:
			s.runCycle(ctx, "manual")
		}
	}
}

// TriggerNow queues one immediate cycle, subject to the same non-overlap
// guarantee as scheduled runs.
func (s *Scheduler) TriggerNow() error {
	if s.running.Load() {
		return ErrCycleInFlight
	}
	select {
	case s.manual <- struct{}{}:
		return nil
	default:
		return ErrCycleInFlight
	}
}

// Running reports whether a cycle is currently in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	st := s.settings.Read()
	if !st.AutoPublish.Enabled {
		return
	}

	local := now.In(s.loc)
	key := local.Format("2006-01-02 15:04")
	if _, already := s.ran[key]; already {
		return
	}
	if len(s.ran) > maxDedupEntries {
		s.ran = make(map[string]struct{})
	}

	hhmm := local.Format("15:04")
	slots := st.AutoPublish.Schedule.Times(local.Weekday())
	if !containsSlot(slots, hhmm) {
		return
	}

	s.ran[key] = struct{}{}
	s.runCycle(ctx, key)
}

func (s *Scheduler) runCycle(ctx context.Context, trigger string) {
	s.running.Store(true)
	defer s.running.Store(false)

	s.logger.Info("starting publish cycle", "trigger", trigger)
	if _, err := s.publisher.Publish(ctx); err != nil {
		// One failed cycle never halts future scheduling.
		s.logger.Error("publish cycle failed", "trigger", trigger, "error", err)
	}
}

func containsSlot(slots []string, hhmm string) bool {
	for _, s := range slots {
		if s == hhmm {
			return true
		}
	}
	return false
}
