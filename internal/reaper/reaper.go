// Package reaper runs the expiry sweep on an in-process ticker.  The
// sweep itself lives in the booking service and is idempotent, so this
// loop can coexist with the external cron endpoint hitting the same
// method; whoever runs first reclaims the capacity and the other finds
// nothing to do.
package reaper

import (
	"context"
	"log"
	"time"

	"github.com/ferhatka/studio-booking/internal/service"
)

// Run sweeps expired bookings every interval until ctx is cancelled.
// It blocks; callers start it in its own goroutine.
func Run(ctx context.Context, bookings *service.BookingService, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("reaper: sweeping every %s", interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("reaper: stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			result, err := bookings.HandleExpiredBookings(ctx)
			if err != nil {
				log.Printf("reaper: sweep failed: %v", err)
				continue
			}
			if result.Expired > 0 || result.Failed > 0 {
				log.Printf("reaper: expired=%d failed=%d", result.Expired, result.Failed)
			}
		}
	}
}
