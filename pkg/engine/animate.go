package engine

import (
	"sync"
	"time"

	"github.com/flowboardhq/flowboard/pkg/geometry"
)

// Completion signals that one animated move has finished (or was
// cancelled). The channel is closed on completion and never left hanging.
type Completion <-chan struct{}

// Driver animates computed element positions. The geometry itself is
// always synchronous; only the visual glide toward a target is
// time-deferred. Callers that need the settled state await the returned
// Completion instead of polling transient values.
type Driver interface {
	// Animate moves the element toward the target position and returns a
	// channel closed when the move finishes.
	Animate(id string, target geometry.Point, duration time.Duration, easing string) Completion

	// CancelAll halts every in-flight animation, releasing all waiters.
	CancelAll()
}

// InstantDriver completes every animation immediately. Used in tests and
// headless runs where no render surface is attached.
type InstantDriver struct{}

// Animate returns an already-closed completion channel.
func (InstantDriver) Animate(string, geometry.Point, time.Duration, string) Completion {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// CancelAll does nothing.
func (InstantDriver) CancelAll() {}

// TimedDriver defers completions on wall-clock timers, approximating the
// staggered animations of a live render surface. CancelAll releases every
// pending waiter immediately.
type TimedDriver struct {
	mu      sync.Mutex
	pending map[chan struct{}]*time.Timer
}

// NewTimedDriver creates a timer-backed driver.
func NewTimedDriver() *TimedDriver {
	return &TimedDriver{pending: make(map[chan struct{}]*time.Timer)}
}

// Animate schedules a completion after the given duration.
func (d *TimedDriver) Animate(_ string, _ geometry.Point, duration time.Duration, _ string) Completion {
	ch := make(chan struct{})

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[ch] = time.AfterFunc(duration, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, ok := d.pending[ch]; ok {
			delete(d.pending, ch)
			close(ch)
		}
	})
	return ch
}

// CancelAll stops every pending timer and closes its completion channel,
// so waiters resume with the last fully committed state.
func (d *TimedDriver) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for ch, timer := range d.pending {
		timer.Stop()
		delete(d.pending, ch)
		close(ch)
	}
}

// Ensure both drivers satisfy Driver.
var (
	_ Driver = InstantDriver{}
	_ Driver = (*TimedDriver)(nil)
)
