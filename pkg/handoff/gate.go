package handoff

import (
	"sync"
	"time"

	"ramp-watch/pkg/types"
)

// DefaultShareDelay is how long after completion the share prompt
// opens.
const DefaultShareDelay = 2 * time.Second

// ShareResult is how a share offer was resolved.
type ShareResult string

const (
	ResultShared    ShareResult = "shared"
	ResultCopied    ShareResult = "copied"
	ResultSkipped   ShareResult = "skipped"
	ResultDismissed ShareResult = "dismissed"
)

// ShareFunc performs the actual share (platform share sheet, clipboard
// copy, ...). Implementations return how it went instead of swallowing
// failures.
type ShareFunc func(order *types.Order) (ShareResult, error)

// Countdown is the coordinator surface the gate drives.
type Countdown interface {
	Pause()
	Restart(seconds int)
}

// ShareGate opens a shareable-receipt offer the first time an order
// completes, and suppresses the redirect countdown while the offer is
// open or pending.
type ShareGate struct {
	delay     time.Duration
	restart   int
	countdown Countdown
	share     ShareFunc
	onOpen    func()

	mu           sync.Mutex
	everComplete bool
	open         bool
	resolved     bool
	timer        *time.Timer
}

// GateConfig wires a ShareGate.
type GateConfig struct {
	// Delay before the prompt opens after completion; defaults to
	// DefaultShareDelay.
	Delay time.Duration
	// RestartSeconds is the countdown base restored when the prompt
	// closes; defaults to PostShareCountdown.
	RestartSeconds int
	Countdown      Countdown
	// Share performs the share action; nil means no capability is
	// available and Share() resolves as skipped.
	Share ShareFunc
	// OnOpen fires when the prompt opens, from the gate's timer
	// goroutine.
	OnOpen func()
}

// NewShareGate creates a closed gate.
func NewShareGate(cfg GateConfig) *ShareGate {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultShareDelay
	}
	if cfg.RestartSeconds <= 0 {
		cfg.RestartSeconds = PostShareCountdown
	}

	return &ShareGate{
		delay:     cfg.Delay,
		restart:   cfg.RestartSeconds,
		countdown: cfg.Countdown,
		share:     cfg.Share,
		onOpen:    cfg.OnOpen,
	}
}

// Observe feeds the gate each reconciled order status. The first
// transition into completed pauses the countdown and arms the delayed
// prompt; later completed observations are ignored.
func (g *ShareGate) Observe(st types.Status) {
	if st != types.StatusCompleted {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.everComplete {
		return
	}
	g.everComplete = true

	// Suppress the redirect while the offer is pending, not just once
	// it opens.
	if g.countdown != nil {
		g.countdown.Pause()
	}
	g.timer = time.AfterFunc(g.delay, g.openPrompt)
}

func (g *ShareGate) openPrompt() {
	g.mu.Lock()
	if g.open || g.resolved {
		g.mu.Unlock()
		return
	}
	g.open = true
	onOpen := g.onOpen
	g.mu.Unlock()

	if onOpen != nil {
		onOpen()
	}
}

// Open reports whether the share prompt is currently open.
func (g *ShareGate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Share runs the configured share capability and resolves the gate
// with its result. With no capability wired, it resolves as skipped.
func (g *ShareGate) Share(order *types.Order) (ShareResult, error) {
	if g.share == nil {
		g.Resolve(ResultSkipped)
		return ResultSkipped, nil
	}

	result, err := g.share(order)
	if err != nil {
		// Leave the prompt open so the user can still skip or retry.
		return result, err
	}

	g.Resolve(result)
	return result, nil
}

// Resolve closes the prompt and releases the countdown, restarting it
// at the post-share base. Idempotent.
func (g *ShareGate) Resolve(ShareResult) {
	g.mu.Lock()
	if g.resolved {
		g.mu.Unlock()
		return
	}
	g.resolved = true
	g.open = false
	if g.timer != nil {
		g.timer.Stop()
	}
	countdown := g.countdown
	restart := g.restart
	g.mu.Unlock()

	if countdown != nil {
		countdown.Restart(restart)
	}
}

// Stop cancels a pending prompt without releasing the countdown. Used
// on teardown.
func (g *ShareGate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil {
		g.timer.Stop()
	}
	g.open = false
}
