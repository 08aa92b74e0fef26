// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type ScheduleConfig struct {
	RevealInterval time.Duration
	ResendInterval time.Duration
}

// StartScheduler runs the reveal cycle and the resend drain. The scheduler
// runs at most one job at a time; a job that comes due while another is
// running is rescheduled rather than stacked.
func (s *GameService) StartScheduler(ctx context.Context, cfg ScheduleConfig) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLimitConcurrentJobs(1, gocron.LimitModeReschedule))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	// Reveal a new prize every RevealInterval
	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.RevealInterval),
		gocron.NewTask(func() { s.runRevealCycle(ctx) }),
		gocron.WithName("reveal-prize"),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule reveal job: %w", err)
	}

	// Drain resend requests every ResendInterval
	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.ResendInterval),
		gocron.NewTask(func() { s.runResendDrain(ctx) }),
		gocron.WithName("drain-resends"),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule resend job: %w", err)
	}

	sched.Start()
	return sched, nil
}

func (s *GameService) runRevealCycle(ctx context.Context) {
	result, err := s.RevealNext(ctx)
	if err != nil {
		log.Printf("[Scheduler] reveal failed: %v", err)
		return
	}
	switch result.Outcome {
	case RevealPublished:
		log.Printf("✅ Revealed prize %d (%s) to %d user(s)", result.PrizeID, result.ImageRef, result.Recipients)
	case RevealNoUnusedPrize:
		log.Printf("[Scheduler] no unused prizes left to reveal")
	case RevealSkipped:
		log.Printf("[Scheduler] previous cycle still running, skipping reveal")
	}
}

func (s *GameService) runResendDrain(ctx context.Context) {
	delivered, err := s.DeliverResends(ctx)
	if err != nil {
		log.Printf("[Scheduler] resend drain failed: %v", err)
		return
	}
	if delivered > 0 {
		log.Printf("✅ Delivered %d resend(s)", delivered)
	}
}
