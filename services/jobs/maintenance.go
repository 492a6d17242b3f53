// Package jobs runs the periodic housekeeping of the guard desk server.
package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"visitor_access_go/services"

	"github.com/robfig/cron/v3"
)

// SweepSchedule runs the session sweep at the top of every hour
const SweepSchedule = "0 * * * *"

// expirer is implemented by stores that keep expired sessions around until
// swept. Redis expires its keys on its own.
type expirer interface {
	Cleanup() int
}

// StartScheduler schedules the hourly sweep in loc and starts the cron
// runner. monitor may be nil. The caller stops the runner on shutdown.
func StartScheduler(loc *time.Location, store services.SessionStore, tables *services.TableRegistry, monitor *services.LoginMonitor) *cron.Cron {
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(SweepSchedule, func() {
		sessions, pruned := SweepSessions(context.Background(), store, tables)
		if sessions > 0 || pruned > 0 {
			log.Printf("[CRON] Removed %d expired sessions and %d idle visit tables", sessions, pruned)
		}
		if monitor != nil {
			monitor.Sweep()
		}
	})
	if err != nil {
		log.Fatalf("[CRON] Error scheduling session sweep: %v", err)
	}

	c.Start()
	log.Println("[CRON] Scheduler started")
	return c
}

// SweepSessions drops expired sessions from stores that need it, then the
// cached visit tables of sessions that no longer exist.
func SweepSessions(ctx context.Context, store services.SessionStore, tables *services.TableRegistry) (sessions, pruned int) {
	if e, ok := store.(expirer); ok {
		sessions = e.Cleanup()
	}
	if tables == nil {
		return sessions, 0
	}
	pruned = tables.Prune(func(key string) bool {
		_, err := store.Get(ctx, key)
		if err != nil && !errors.Is(err, services.ErrSessionNotFound) {
			log.Printf("[WARNING] Checking session %s during sweep: %v", key, err)
			return true
		}
		return err == nil
	})
	return sessions, pruned
}
