// Package scheduler implements the drift scheduler poll loop: a
// single-tenant, multi-replica-safe loop that claims due drift profiles
// under SKIP LOCKED, dispatches to the appropriate drifter, inserts
// alerts, and advances cron state.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"github.com/codeready-toolchain/tarsy/internal/xerrors"
	"github.com/codeready-toolchain/tarsy/pkg/alert"
	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
)

// ErrNoProfilesDue is returned by pollAndProcess when ClaimDue found
// nothing to claim; the loop treats it as a signal to sleep, not an error.
var ErrNoProfilesDue = errors.New("scheduler: no profiles due")

// Config tunes the scheduler's poll cadence.
type Config struct {
	PollInterval time.Duration
	PollJitter   time.Duration
}

// DefaultConfig sleeps 10 seconds between idle polls.
func DefaultConfig() Config {
	return Config{PollInterval: 10 * time.Second, PollJitter: 2 * time.Second}
}

// Scheduler runs the drift profile poll loop.
type Scheduler struct {
	pool     *pgxpool.Pool
	store    *driftprofile.Store
	drifters DrifterFactory
	dispatch *alert.Factory
	cfg      Config

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Scheduler over pool using store for claims/alerts,
// drifters to dispatch by DriftType, and dispatch to post each
// persisted alert to its profile's configured sink. dispatch may be
// nil, in which case alerts are persisted but never posted anywhere.
func New(pool *pgxpool.Pool, store *driftprofile.Store, drifters DrifterFactory, dispatch *alert.Factory, cfg Config) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		pool:     pool,
		store:    store,
		drifters: drifters,
		dispatch: dispatch,
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the poll loop in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop signals cooperative shutdown and waits for the in-flight cycle
// to finish: a drift computation already underway runs to completion
// or error before the process exits.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	log := slog.With("component", "scheduler")
	log.Info("drift scheduler started")

	for {
		select {
		case <-s.stopCh:
			log.Info("drift scheduler shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, drift scheduler shutting down")
			return
		default:
			if err := s.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoProfilesDue) {
					s.sleep(s.pollInterval())
					continue
				}
				log.Error("error processing drift profile", "error", err)
				s.sleep(time.Second)
			}
		}
	}
}

func (s *Scheduler) sleep(d time.Duration) {
	select {
	case <-s.stopCh:
	case <-time.After(d):
	}
}

// pollInterval applies jitter around the configured poll interval.
func (s *Scheduler) pollInterval() time.Duration {
	base, jitter := s.cfg.PollInterval, s.cfg.PollJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

// pollAndProcess runs one claim-compute-alert-advance cycle inside a single transaction, so the claim, alert
// inserts, and next_run advance are linearized (invariant: "duplicate
// alerts are not possible because inserts and next_run update share the
// transaction").
func (s *Scheduler) pollAndProcess(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return xerrors.SQL("scheduler.pollAndProcess begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	profile, err := s.store.ClaimDue(ctx, tx, now)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrNoProfilesDue
	}

	log := slog.With("component", "scheduler", "entity_id", profile.EntityID, "drift_type", profile.Config.DriftType)
	log.Info("drift profile claimed")

	previousRun := profile.NextRun
	drifter, err := s.drifters.For(profile)
	if err != nil {
		return xerrors.Task("scheduler.pollAndProcess dispatch", err)
	}

	alerts, err := drifter.CheckForAlerts(ctx, previousRun)
	if err != nil {
		return xerrors.Task("scheduler.pollAndProcess compute", err)
	}

	for _, alert := range alerts {
		if _, ok := alert["entity_name"]; !ok {
			return xerrors.Task("scheduler.pollAndProcess alert", fmt.Errorf("alert map missing required key entity_name"))
		}
		if err := driftprofile.InsertAlert(ctx, tx, profile.EntityID, alert); err != nil {
			return err
		}
	}

	next, err := nextRun(profile.Config.Schedule, now)
	if err != nil {
		return xerrors.Config("scheduler.pollAndProcess schedule", err)
	}
	if err := s.store.AdvanceNextRun(ctx, tx, profile.EntityID, next); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return xerrors.SQL("scheduler.pollAndProcess commit", err)
	}

	log.Info("drift cycle complete", "alerts", len(alerts), "next_run", next)

	if s.dispatch != nil {
		sink := s.dispatch.For(profile.Config.Dispatch)
		for _, a := range alerts {
			if err := sink.Dispatch(buildDispatchAlert(a)); err != nil {
				log.Error("alert dispatch failed", "error", err)
			}
		}
	}

	return nil
}

// buildDispatchAlert converts one persisted AlertMap into an
// alert.Alert, unpacking an SPC drifter's zone breakdown (if present)
// into the structured ZoneBreakdown field and dropping its raw JSON
// encoding from the dispatched body.
func buildDispatchAlert(a AlertMap) alert.Alert {
	out := alert.Alert{EntityName: a["entity_name"], Body: a}
	encoded, ok := a[zoneBreakdownKey]
	if !ok {
		return out
	}
	body := make(map[string]string, len(a)-1)
	for k, v := range a {
		if k != zoneBreakdownKey {
			body[k] = v
		}
	}
	out.Body = body
	var breakdown map[string][]alert.ZoneHit
	if err := json.Unmarshal([]byte(encoded), &breakdown); err == nil {
		out.ZoneBreakdown = breakdown
	}
	return out
}

// nextRun parses a cron schedule, either standard 5-field or 6-field
// (second-precision), and returns the next tick strictly after now.
func nextRun(schedule string, now time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		sched, err = parser.Parse(schedule)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
		}
	}
	return sched.Next(now).UTC(), nil
}
