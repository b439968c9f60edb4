package session

import (
	"context"
	"time"
)

// periodic is a running elapsed ticker or progress poller.
type periodic struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startPeriodic posts fn to the owner goroutine after delay and then every
// period until stopped.
func (c *Controller) startPeriodic(delay, period time.Duration, fn func()) *periodic {
	ctx, cancel := context.WithCancel(context.Background())
	p := &periodic{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if !c.post(ctx, fn) {
			return
		}

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !c.post(ctx, fn) {
					return
				}
			}
		}
	}()

	return p
}

// stop cancels p and waits for its goroutine to exit. Once it returns no
// further update from p reaches the owner goroutine. Safe on nil.
func (p *periodic) stop() {
	if p == nil {
		return
	}
	p.cancel()
	<-p.done
}
