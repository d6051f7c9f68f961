// Package scheduler runs periodic jobs: the low-stock scan and the cleanup
// of expired token revocations.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/notify"
	"github.com/erazemk/sredstva/internal/store"
)

// purgeSchedule runs the revocation cleanup.
const purgeSchedule = "@hourly"

// Scheduler runs the low-stock scan on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	db       *sql.DB
	notifier notify.Sink
	schedule string
}

// New returns a scheduler that scans for low stock on the given standard
// five-field cron schedule and notifies managers.
func New(db *sql.DB, notifier notify.Sink, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		db:       db,
		notifier: notifier,
		schedule: schedule,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runLowStock)
	if err != nil {
		return fmt.Errorf("scheduling low-stock scan: %w", err)
	}
	if _, err := s.cron.AddFunc(purgeSchedule, s.runPurge); err != nil {
		return fmt.Errorf("scheduling token cleanup: %w", err)
	}
	s.cron.Start()
	slog.Info("scheduler started", "low_stock", s.schedule)
	return nil
}

// Stop stops the runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) runLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.CheckLowStock(ctx); err != nil {
		slog.Error("low-stock scan failed", "error", err)
	}
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := store.PurgeRevokedTokens(ctx, s.db, time.Now())
	if err != nil {
		slog.Error("token cleanup failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("expired token revocations purged", "count", n)
	}
}

// CheckLowStock notifies every manager about stock records at or below
// their reorder point and returns the number of such records.
func (s *Scheduler) CheckLowStock(ctx context.Context) (int, error) {
	low, err := store.ListLowStock(ctx, s.db)
	if err != nil {
		return 0, fmt.Errorf("listing low stock: %w", err)
	}
	if len(low) == 0 {
		return 0, nil
	}

	lines := make([]string, 0, len(low))
	for _, st := range low {
		lines = append(lines, fmt.Sprintf("%s at %s: %d left (reorder point %d)",
			st.AssetTypeName, st.Location, st.Quantity, st.ReorderPoint))
	}
	slog.Info("low stock detected", "records", len(low))

	managers, err := store.ListUsers(ctx, s.db, model.RoleManager)
	if err != nil {
		return len(low), fmt.Errorf("listing managers: %w", err)
	}
	for _, m := range managers {
		err := s.notifier.Notify(ctx, notify.Notification{
			RecipientID: m.ID,
			Title:       "Low stock",
			Message:     strings.Join(lines, "\n"),
			ActionRef:   "stock/low",
		})
		if err != nil {
			slog.Warn("low-stock notification failed", "recipient", m.ID, "error", err)
		}
	}
	return len(low), nil
}
