// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartBountyScheduler wires the fixed-interval sweeps: bounty activation,
// bounty closure, due-result posting, suspension expiry, and the monthly
// seasonal-pass grant. All sweeps are bulk and idempotent; they only
// advance records whose time condition already holds, so re-running or
// skipping a tick is safe.
func StartBountyScheduler(bounties *BountyService, results *ResultService, fouls *FoulService, passes *PassService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: yts → active
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if err := bounties.ActivateDueBounties(); err != nil {
				log.Printf("[Scheduler] Activation sweep error: %v", err)
			}
		}),
	)

	// Every minute: active → closed (honoring personal extensions)
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if err := bounties.CloseExpiredBounties(); err != nil {
				log.Printf("[Scheduler] Closure sweep error: %v", err)
			}
		}),
	)

	// Every 5 minutes: post due results
	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			if err := results.PostDueResults(); err != nil {
				log.Printf("[Scheduler] Result sweep error: %v", err)
			}
		}),
	)

	// Every hour: lift expired suspensions
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			if err := fouls.LiftExpiredSuspensions(); err != nil {
				log.Printf("[Scheduler] Suspension sweep error: %v", err)
			}
		}),
	)

	// 1st of every month at 00:05 UTC: seasonal pass grant
	_, _ = sched.NewJob(
		gocron.MonthlyJob(1,
			gocron.NewDaysOfTheMonth(1),
			gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0)),
		),
		gocron.NewTask(func() {
			if err := passes.GrantMonthlySeasonalPasses(); err != nil {
				log.Printf("[Scheduler] Monthly pass grant error: %v", err)
			}
		}),
	)

	log.Println("✅ Bounty scheduler started (activation/closure/result/suspension sweeps + monthly grant)")
}
