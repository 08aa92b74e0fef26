package workers

import (
	"context"
	"log"
	"time"
)

// creditBatchSize bounds how many deferred credits one tick applies.
const creditBatchSize = 100

// PendingCreditApplier is satisfied by services.PointsLedger.
type PendingCreditApplier interface {
	RetryPending(ctx context.Context, limit int) (int, error)
}

// PollPendingCredits applies deferred reward credits every pollInterval until
// ctx is cancelled. Credits that fail again stay pending for the next tick.
func PollPendingCredits(ctx context.Context, ledger PendingCreditApplier, pollInterval time.Duration) {
	log.Println("Starting pending credit polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Pending credit polling stopped.")
			return
		case <-ticker.C:
			applied, err := ledger.RetryPending(ctx, creditBatchSize)
			if err != nil {
				log.Printf("❌ Error retrying pending credits: %v", err)
				continue
			}
			if applied > 0 {
				log.Printf("✅ Applied %d pending credit(s).", applied)
			}
		}
	}
}
