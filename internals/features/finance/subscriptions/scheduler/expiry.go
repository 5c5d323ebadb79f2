package scheduler

import (
	"context"
	"log"
	"time"
)

const expiryInterval = time.Hour

// Expirer: subscription service.
type Expirer interface {
	ExpireDue(ctx context.Context) (int64, error)
}

// StartExpiryScheduler menandai subscription yang periodenya habis, tiap jam sampai ctx dibatalkan.
func StartExpiryScheduler(ctx context.Context, svc Expirer) {
	go func() {
		ticker := time.NewTicker(expiryInterval)
		defer ticker.Stop()
		for {
			RunExpiry(ctx, svc)
			select {
			case <-ctx.Done():
				log.Println("[SUBSCRIPTION] expiry scheduler berhenti")
				return
			case <-ticker.C:
			}
		}
	}()
}

// RunExpiry: satu putaran.
func RunExpiry(ctx context.Context, svc Expirer) int64 {
	n, err := svc.ExpireDue(ctx)
	switch {
	case err != nil:
		log.Printf("[SUBSCRIPTION ERROR] gagal expire subscription: %v", err)
	case n > 0:
		log.Printf("[SUBSCRIPTION] %d subscription expired", n)
	}
	return n
}
