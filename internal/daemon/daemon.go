// Package daemon runs scheduled background syncs for links that opted
// in via the auto-sync flag.
package daemon

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"schedsync/internal/sched"
)

// Runner periodically syncs availabilities for every owner with at
// least one auto-sync link. One owner's failure never stops the others.
type Runner struct {
	service        *sched.Service
	database       sched.Database
	logger         sched.Logger
	schedule       string
	allowFinalized bool
}

// New creates a Runner with the given cron schedule expression.
func New(service *sched.Service, database sched.Database, logger sched.Logger, schedule string, allowFinalized bool) *Runner {
	return &Runner{
		service:        service,
		database:       database,
		logger:         logger,
		schedule:       schedule,
		allowFinalized: allowFinalized,
	}
}

// Run blocks until ctx is cancelled, firing a sync pass on every tick
// of the schedule. A tick already in flight finishes before Run
// returns; there is no mid-flight cancel for a dispatched apply.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.tick); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", r.schedule, err)
	}

	r.logger.Info("auto-sync daemon started", "schedule", r.schedule)
	c.Start()

	<-ctx.Done()

	// Stop scheduling new ticks, then wait for a running one to finish.
	<-c.Stop().Done()
	r.logger.Info("auto-sync daemon stopped")
	return nil
}

// tick runs one sync pass across all auto-sync owners.
func (r *Runner) tick() {
	owners, err := r.database.ListAutoSyncOwners()
	if err != nil {
		r.logger.Error("listing auto-sync owners failed", "error", err)
		return
	}

	for _, owner := range owners {
		report, err := r.service.SyncAll(owner, sched.SyncOptions{
			AllowFinalized: r.allowFinalized,
			AutoOnly:       true,
		})
		if err != nil {
			r.logger.Error("auto-sync failed", "owner", owner, "error", err)
			continue
		}
		for _, f := range report.Failures {
			r.logger.Warn("auto-sync event failed", "owner", owner, "event", f.EventID, "message", f.Message)
		}
		if report.Synced > 0 {
			r.logger.Info("auto-sync pass complete", "owner", owner, "events", report.Synced, "applied", report.Applied)
		}
	}
}
