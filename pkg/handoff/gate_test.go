package handoff

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramp-watch/pkg/types"
)

// fakeCountdown records the calls the gate makes on the coordinator.
type fakeCountdown struct {
	mu       sync.Mutex
	pauses   int
	restarts []int
}

func (f *fakeCountdown) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeCountdown) Restart(seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarts = append(f.restarts, seconds)
}

func (f *fakeCountdown) pauseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses
}

func (f *fakeCountdown) restartValues() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.restarts...)
}

func newTestGate(cd Countdown, opened chan struct{}) *ShareGate {
	return NewShareGate(GateConfig{
		Delay:     20 * time.Millisecond,
		Countdown: cd,
		OnOpen: func() {
			if opened != nil {
				close(opened)
			}
		},
	})
}

func TestGateOpensAfterDelayOnFirstCompletion(t *testing.T) {
	cd := &fakeCountdown{}
	opened := make(chan struct{})
	gate := newTestGate(cd, opened)
	defer gate.Stop()

	gate.Observe(types.StatusCompleted)
	assert.False(t, gate.Open(), "prompt must not open before the delay")

	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatal("share prompt never opened")
	}
	assert.True(t, gate.Open())

	// Suppression starts at completion, before the prompt opens.
	assert.Equal(t, 1, cd.pauseCount())
}

func TestGateIgnoresNonCompletedStatuses(t *testing.T) {
	cd := &fakeCountdown{}
	gate := newTestGate(cd, nil)
	defer gate.Stop()

	gate.Observe(types.StatusPending)
	gate.Observe(types.StatusProcessing)
	gate.Observe(types.StatusFailed)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, gate.Open())
	assert.Zero(t, cd.pauseCount())
}

func TestGateOpensOnlyOnce(t *testing.T) {
	cd := &fakeCountdown{}
	opened := make(chan struct{})
	gate := newTestGate(cd, opened)
	defer gate.Stop()

	gate.Observe(types.StatusCompleted)
	// Repeated completed observations (every poll tick re-reports the
	// terminal status) must not re-arm the prompt.
	gate.Observe(types.StatusCompleted)
	gate.Observe(types.StatusCompleted)

	<-opened
	assert.Equal(t, 1, cd.pauseCount())
}

func TestResolveRestartsCountdownAtPostShareBase(t *testing.T) {
	cd := &fakeCountdown{}
	opened := make(chan struct{})
	gate := newTestGate(cd, opened)
	defer gate.Stop()

	gate.Observe(types.StatusCompleted)
	<-opened

	gate.Resolve(ResultSkipped)
	assert.False(t, gate.Open())
	require.Len(t, cd.restartValues(), 1)
	assert.Equal(t, PostShareCountdown, cd.restartValues()[0])
}

func TestResolveIsIdempotent(t *testing.T) {
	cd := &fakeCountdown{}
	opened := make(chan struct{})
	gate := newTestGate(cd, opened)
	defer gate.Stop()

	gate.Observe(types.StatusCompleted)
	<-opened

	gate.Resolve(ResultShared)
	gate.Resolve(ResultDismissed)
	assert.Len(t, cd.restartValues(), 1)
}

func TestResolveBeforeOpenCancelsPrompt(t *testing.T) {
	cd := &fakeCountdown{}
	gate := newTestGate(cd, nil)
	defer gate.Stop()

	gate.Observe(types.StatusCompleted)
	gate.Resolve(ResultSkipped)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, gate.Open(), "a resolved gate must not open later")
	assert.Equal(t, []int{PostShareCountdown}, cd.restartValues())
}

func TestShareRunsCapabilityAndResolves(t *testing.T) {
	cd := &fakeCountdown{}
	opened := make(chan struct{})

	var sharedOrder *types.Order
	gate := NewShareGate(GateConfig{
		Delay:     10 * time.Millisecond,
		Countdown: cd,
		Share: func(order *types.Order) (ShareResult, error) {
			sharedOrder = order
			return ResultShared, nil
		},
		OnOpen: func() { close(opened) },
	})
	defer gate.Stop()

	gate.Observe(types.StatusCompleted)
	<-opened

	order := &types.Order{ID: "ord_1", Status: types.StatusCompleted}
	result, err := gate.Share(order)
	require.NoError(t, err)
	assert.Equal(t, ResultShared, result)
	assert.Equal(t, "ord_1", sharedOrder.ID)
	assert.False(t, gate.Open())
	assert.Equal(t, []int{PostShareCountdown}, cd.restartValues())
}

func TestShareFailureLeavesPromptOpen(t *testing.T) {
	cd := &fakeCountdown{}
	opened := make(chan struct{})
	gate := NewShareGate(GateConfig{
		Delay:     10 * time.Millisecond,
		Countdown: cd,
		Share: func(*types.Order) (ShareResult, error) {
			return ResultDismissed, errors.New("share sheet unavailable")
		},
		OnOpen: func() { close(opened) },
	})
	defer gate.Stop()

	gate.Observe(types.StatusCompleted)
	<-opened

	_, err := gate.Share(&types.Order{})
	require.Error(t, err)
	assert.True(t, gate.Open(), "failed share keeps the prompt open for a retry or skip")
	assert.Empty(t, cd.restartValues())
}

func TestShareWithoutCapabilityResolvesSkipped(t *testing.T) {
	cd := &fakeCountdown{}
	opened := make(chan struct{})
	gate := newTestGate(cd, opened)
	defer gate.Stop()

	gate.Observe(types.StatusCompleted)
	<-opened

	result, err := gate.Share(&types.Order{})
	require.NoError(t, err)
	assert.Equal(t, ResultSkipped, result)
	assert.Equal(t, []int{PostShareCountdown}, cd.restartValues())
}

// End-to-end: completion opens the prompt after the delay, the real
// countdown stays suppressed until the prompt closes, then restarts at
// the post-share base and decrements to navigation.
func TestCompletionHandoffAgainstRealCoordinator(t *testing.T) {
	nav := &navCounter{}
	rc := NewRedirectCoordinator(nav.navigate, 5*time.Millisecond)
	defer rc.Stop()

	opened := make(chan struct{})
	gate := NewShareGate(GateConfig{
		Delay:          20 * time.Millisecond,
		RestartSeconds: PostShareCountdown,
		Countdown:      rc,
		OnOpen:         func() { close(opened) },
	})
	defer gate.Stop()

	gate.Observe(types.StatusCompleted)

	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatal("share prompt never opened")
	}
	assert.False(t, rc.Running(), "countdown suppressed while the offer is open")
	assert.Zero(t, nav.total())

	gate.Resolve(ResultShared)
	assert.True(t, rc.Running())
	// A tick may have fired between the restart and this read.
	assert.InDelta(t, PostShareCountdown, rc.Remaining(), 1)

	assert.Eventually(t, func() bool { return nav.total() == 1 }, time.Second, 5*time.Millisecond)
}
