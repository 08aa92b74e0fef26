package services

import (
	"context"
	"testing"
	"time"
)

func TestStartSchedulerRevealsAndDrains(t *testing.T) {
	f := newGameFixture(t, "a.png")
	f.register(t, "u1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched, err := f.svc.StartScheduler(ctx, ScheduleConfig{
		RevealInterval: 20 * time.Millisecond,
		ResendInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("start scheduler: %v", err)
	}
	defer sched.Shutdown()

	waitFor(t, "first reveal", func() bool {
		snap, err := f.svc.State.Snapshot(ctx)
		return err == nil && snap.HasLastActive
	})

	snap, _ := f.svc.State.Snapshot(ctx)
	if err := f.svc.Resends.Enqueue(ctx, "u1", snap.LastActivePrizeID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	waitFor(t, "resend drain", func() bool {
		n, err := f.svc.Resends.Len(ctx)
		return err == nil && n == 0
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
