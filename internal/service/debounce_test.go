package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firingRecorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *firingRecorder) record(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, key)
}

func (r *firingRecorder) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.fired))
	copy(out, r.fired)
	return out
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	rec := &firingRecorder{}
	d := NewDebouncer(10*time.Millisecond, rec.record)
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger("routine-a")
	}

	require.Eventually(t, func() bool {
		return len(rec.keys()) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Len(t, rec.keys(), 1, "a burst fires exactly once")
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	rec := &firingRecorder{}
	d := NewDebouncer(10*time.Millisecond, rec.record)
	defer d.Stop()

	d.Trigger("routine-a")
	d.Trigger("routine-b")

	require.Eventually(t, func() bool {
		return len(rec.keys()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"routine-a", "routine-b"}, rec.keys())
}

func TestDebouncer_TriggerResetsTimer(t *testing.T) {
	rec := &firingRecorder{}
	d := NewDebouncer(40*time.Millisecond, rec.record)
	defer d.Stop()

	d.Trigger("routine-a")
	time.Sleep(25 * time.Millisecond)
	d.Trigger("routine-a")
	time.Sleep(25 * time.Millisecond)

	// 50ms after the first trigger, but only 25ms after the second: the
	// window was pushed back, so nothing has fired yet.
	assert.Empty(t, rec.keys())

	require.Eventually(t, func() bool {
		return len(rec.keys()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	rec := &firingRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.record)

	d.Trigger("routine-a")
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.keys(), "stopped debouncer must not fire")
}
