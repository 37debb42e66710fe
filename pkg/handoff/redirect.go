// Package handoff coordinates the post-completion transition: the
// receipt share prompt and the redirect countdown. The two must not
// race each other; the gate suppresses the countdown while a share
// offer is open or pending.
package handoff

import (
	"sync"
	"time"
)

const (
	// DefaultCountdown is the pre-completion display value. It is not
	// counted down until sharing is resolved.
	DefaultCountdown = 15
	// PostShareCountdown is the restart value once the share prompt
	// closes.
	PostShareCountdown = 10
	// DefaultTickPeriod is how often the countdown decrements.
	DefaultTickPeriod = time.Second
)

// RedirectCoordinator runs a cancellable once-per-second countdown
// that navigates away exactly once on expiry.
type RedirectCoordinator struct {
	navigate func()
	period   time.Duration

	mu        sync.Mutex
	remaining int
	running   bool
	skipped   bool
	navigated bool
	stopped   bool
	stopChan  chan struct{}
}

// NewRedirectCoordinator creates a paused coordinator showing the
// default countdown value. navigate is invoked at most once, from the
// coordinator's own goroutine (or the caller's, via Skip).
func NewRedirectCoordinator(navigate func(), period time.Duration) *RedirectCoordinator {
	if period <= 0 {
		period = DefaultTickPeriod
	}

	rc := &RedirectCoordinator{
		navigate:  navigate,
		period:    period,
		remaining: DefaultCountdown,
		stopChan:  make(chan struct{}),
	}
	go rc.run()

	return rc
}

func (rc *RedirectCoordinator) run() {
	ticker := time.NewTicker(rc.period)
	defer ticker.Stop()

	for {
		select {
		case <-rc.stopChan:
			return
		case <-ticker.C:
			rc.step()
		}
	}
}

// step decrements the countdown by one when it is allowed to run.
func (rc *RedirectCoordinator) step() {
	rc.mu.Lock()
	if !rc.running || rc.skipped || rc.navigated || rc.stopped {
		rc.mu.Unlock()
		return
	}

	rc.remaining--
	if rc.remaining > 0 {
		rc.mu.Unlock()
		return
	}

	rc.remaining = 0
	rc.navigated = true
	rc.running = false
	rc.mu.Unlock()

	if rc.navigate != nil {
		rc.navigate()
	}
}

// Restart resets the countdown to seconds and starts decrementing.
// No-op after a skip or a completed navigation.
func (rc *RedirectCoordinator) Restart(seconds int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.skipped || rc.navigated || rc.stopped {
		return
	}
	rc.remaining = seconds
	rc.running = true
}

// Pause halts the countdown without losing intent to redirect; a later
// Restart resets it to a fresh base.
func (rc *RedirectCoordinator) Pause() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.running = false
}

// Skip navigates immediately and disables the countdown for the rest
// of the session. Later ticks are no-ops.
func (rc *RedirectCoordinator) Skip() {
	rc.mu.Lock()
	if rc.skipped || rc.navigated || rc.stopped {
		rc.mu.Unlock()
		return
	}
	rc.skipped = true
	rc.navigated = true
	rc.running = false
	rc.mu.Unlock()

	if rc.navigate != nil {
		rc.navigate()
	}
}

// Stop tears the coordinator down without navigating.
func (rc *RedirectCoordinator) Stop() {
	rc.mu.Lock()
	if rc.stopped {
		rc.mu.Unlock()
		return
	}
	rc.stopped = true
	rc.running = false
	close(rc.stopChan)
	rc.mu.Unlock()
}

// Remaining returns the seconds left on the countdown.
func (rc *RedirectCoordinator) Remaining() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.remaining
}

// Running reports whether the countdown is actively decrementing.
func (rc *RedirectCoordinator) Running() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.running
}

// Navigated reports whether navigation has fired (by expiry or skip).
func (rc *RedirectCoordinator) Navigated() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.navigated
}
