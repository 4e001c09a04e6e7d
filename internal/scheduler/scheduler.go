package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/burgerhub/api/internal/service"
	"github.com/go-co-op/gocron/v2"
)

// DashboardRecalculator is satisfied by *view.Admin.
type DashboardRecalculator interface {
	Recalculate() service.Dashboard
}

// SessionSweeper is satisfied by *view.Kiosk.
type SessionSweeper interface {
	SweepIdle(idle time.Duration) int
	Sessions() int
}

// Jobs holds the periodic work run by the server.
type Jobs struct {
	Dashboard   DashboardRecalculator
	Kiosk       SessionSweeper
	SessionIdle time.Duration
	SweepEvery  time.Duration
}

// Start registers the jobs on a scheduler running in loc and starts it.
// The dashboard rolls over to the new day at local midnight; idle kiosk
// carts are swept every SweepEvery.
func Start(loc *time.Location, jobs Jobs) (gocron.Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	if jobs.Dashboard != nil {
		_, err = s.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
			gocron.NewTask(rollDashboard, jobs.Dashboard),
			gocron.WithName("dashboard-rollover"),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("schedule dashboard rollover: %w", err)
		}
	}

	if jobs.Kiosk != nil && jobs.SessionIdle > 0 {
		every := jobs.SweepEvery
		if every <= 0 {
			every = time.Minute
		}
		_, err = s.NewJob(
			gocron.DurationJob(every),
			gocron.NewTask(sweepSessions, jobs.Kiosk, jobs.SessionIdle),
			gocron.WithName("kiosk-session-sweep"),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	s.Start()
	return s, nil
}

func rollDashboard(d DashboardRecalculator) {
	sum := d.Recalculate()
	log.Printf("INFO: dashboard rolled over to %s", sum.Date)
}

func sweepSessions(k SessionSweeper, idle time.Duration) {
	if n := k.SweepIdle(idle); n > 0 {
		log.Printf("INFO: swept %d idle kiosk sessions, %d still open", n, k.Sessions())
	}
}
