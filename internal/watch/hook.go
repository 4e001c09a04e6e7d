package watch

import (
	"context"
	"time"
)

// DefaultPollInterval is the re-read cadence used when none is configured.
const DefaultPollInterval = 2 * time.Second

// Watch re-invokes fn whenever key changes on the bus and, when interval is
// positive, on a fixed cadence regardless of changes. An empty key follows
// every collection. Watch blocks until ctx is done.
//
// fn runs on the calling goroutine, so invocations never overlap.
func Watch(ctx context.Context, bus *Bus, key string, interval time.Duration, fn func()) {
	sub := bus.Subscribe(key)
	defer sub.Close()

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			fn()
		case _, ok := <-sub.C():
			if !ok {
				return
			}
			drain(sub)
			fn()
		}
	}
}

// drain discards signals queued behind the one just received; a single
// re-read covers all of them.
func drain(sub *Subscription) {
	for {
		select {
		case _, ok := <-sub.C():
			if !ok {
				return
			}
		default:
			return
		}
	}
}
