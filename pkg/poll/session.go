// Package poll owns the repeating reconciliation lifecycle: an
// immediate first check, a fixed-interval repeat, and a guaranteed
// stop once the order reaches a terminal status.
package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ramp-watch/pkg/client"
	"ramp-watch/pkg/logger"
	"ramp-watch/pkg/status"
	"ramp-watch/pkg/types"
)

// DefaultInterval is the reference polling period.
const DefaultInterval = 10 * time.Second

// Checker performs the two reconciliation calls. Satisfied by
// *client.RampClient.
type Checker interface {
	CheckByPaymentReference(ctx context.Context, reference, token string) (*types.Order, *types.ProviderStatus, error)
	FetchByOrderID(ctx context.Context, orderID, token string) (*types.Order, error)
}

// State of a session.
type State int

const (
	StateIdle State = iota
	StateActive
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Snapshot is the reconciled view after one successful tick. The three
// derived pieces are always replaced together.
type Snapshot struct {
	Order     *types.Order
	Provider  *types.ProviderStatus
	Hint      status.Hint
	CheckedAt time.Time
}

// Config wires a session.
type Config struct {
	// PaymentReference is the preferred identifier; OrderID is the
	// fallback used only when no reference exists. At least one is
	// required.
	PaymentReference string
	OrderID          string
	Token            string
	Interval         time.Duration
	Checker          Checker
	// OnUpdate receives each new snapshot. OnError receives permanent
	// check failures; transient ones are retried silently. Both are
	// invoked from the session's own goroutine.
	OnUpdate func(Snapshot)
	OnError  func(error)
	Log      logger.Logger
}

// Session is the polling state machine: idle -> active -> terminal.
type Session struct {
	cfg Config

	mu       sync.RWMutex
	state    State
	token    string
	inFlight bool
	stopped  bool
	snapshot *Snapshot
	stopChan chan struct{}
	done     chan struct{}
}

// New validates the config and returns an idle session.
func New(cfg Config) (*Session, error) {
	if cfg.PaymentReference == "" && cfg.OrderID == "" {
		return nil, fmt.Errorf("a payment reference or an order id is required")
	}
	if cfg.Checker == nil {
		return nil, fmt.Errorf("a checker is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Log == nil {
		cfg.Log = logger.NewNop()
	}

	return &Session{
		cfg:      cfg,
		token:    cfg.Token,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start performs one immediate reconciliation and then schedules the
// fixed-interval repeat. It returns after the first tick; the repeat
// runs on the session's own goroutine until terminal status, Stop, or
// context cancellation.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("session already started (state: %s)", s.State())
	}
	s.state = StateActive
	s.mu.Unlock()

	s.cfg.Log.Info("polling started", map[string]interface{}{
		"reference": s.cfg.PaymentReference,
		"orderId":   s.cfg.OrderID,
		"interval":  s.cfg.Interval.String(),
	})

	s.tick(ctx)
	go s.loop(ctx)

	return nil
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one reconciliation call and applies the result as one
// atomic snapshot replacement. A tick that fires while a previous call
// is still outstanding is skipped so two checks never race on the
// same session.
func (s *Session) tick(ctx context.Context) {
	s.mu.Lock()
	if s.stopped || s.state != StateActive || s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	token := s.token
	s.mu.Unlock()

	var (
		order    *types.Order
		provider *types.ProviderStatus
		err      error
	)
	if s.cfg.PaymentReference != "" {
		order, provider, err = s.cfg.Checker.CheckByPaymentReference(ctx, s.cfg.PaymentReference, token)
	} else {
		order, err = s.cfg.Checker.FetchByOrderID(ctx, s.cfg.OrderID, token)
	}

	s.apply(order, provider, err)
}

// apply is the single reducer-like step every response funnels
// through. The stopped flag is re-checked here so an in-flight call
// can never mutate state after Stop.
func (s *Session) apply(order *types.Order, provider *types.ProviderStatus, err error) {
	s.mu.Lock()
	s.inFlight = false

	if s.stopped {
		s.mu.Unlock()
		return
	}

	if err != nil {
		s.mu.Unlock()
		if client.IsTransient(err) {
			s.cfg.Log.Debug("transient check failure, will retry", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		s.cfg.Log.Warn("status check failed", map[string]interface{}{
			"error": err.Error(),
		})
		if s.cfg.OnError != nil {
			s.cfg.OnError(err)
		}
		return
	}

	raw := ""
	if provider != nil {
		raw = provider.RawStatus
	}
	snap := Snapshot{
		Order:     order,
		Provider:  provider,
		Hint:      status.DeriveHint(order.Status, raw),
		CheckedAt: time.Now(),
	}
	s.snapshot = &snap

	terminal := order.Status.Terminal()
	if terminal {
		s.state = StateTerminal
		s.stopped = true
		close(s.stopChan)
	}
	onUpdate := s.cfg.OnUpdate
	s.mu.Unlock()

	if terminal {
		s.cfg.Log.Info("terminal status reached, polling stopped", map[string]interface{}{
			"orderStatus": string(order.Status),
		})
	}
	if onUpdate != nil {
		onUpdate(snap)
	}
}

// Refresh performs an explicit out-of-schedule check. Idempotent and
// safe in every state; once terminal it is a no-op since no new data
// is expected.
func (s *Session) Refresh(ctx context.Context) {
	s.tick(ctx)
}

// SetToken swaps the bearer token used by subsequent ticks, e.g. after
// a re-authentication.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Stop tears the session down. Idempotent; guaranteed to run on every
// exit path, and no tick applies a response after it returns.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.state == StateActive {
		s.state = StateTerminal
	}
	close(s.stopChan)
	s.mu.Unlock()
}

// Done is closed once the polling goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns a copy of the latest reconciled view, and whether
// one exists yet.
func (s *Session) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return Snapshot{}, false
	}
	return *s.snapshot, true
}
