package game

import (
	"context"
	"time"
)

// CancelFunc stops a scheduled callback. Safe to call more than once.
type CancelFunc func()

// Scheduler drives a session's round countdown and the grace delay between
// rounds. It holds only callbacks and cancellation tokens, never session
// state: a callback already dispatched when its token is cancelled may still
// run, so callers guard on their own state instead of trusting cancellation
// to be instantaneous.
type Scheduler interface {
	// Every invokes fn repeatedly at the given interval until cancelled.
	Every(interval time.Duration, fn func()) CancelFunc
	// Once invokes fn a single time after the delay unless cancelled first.
	Once(delay time.Duration, fn func()) CancelFunc
}

// TickerScheduler is the production Scheduler, backed by time.Ticker and
// time.AfterFunc.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-ctx.Done():
				return
			}
		}
	}()
	return CancelFunc(cancel)
}

func (TickerScheduler) Once(delay time.Duration, fn func()) CancelFunc {
	timer := time.AfterFunc(delay, fn)
	return func() { timer.Stop() }
}
