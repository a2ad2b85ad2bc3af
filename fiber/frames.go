package fiber

import "time"

// DefaultSliceBudget is the per-burst time budget for time-sliced work,
// roughly a third of a 60fps frame.
const DefaultSliceBudget = 5 * time.Millisecond

// FrameScheduler hands bursts of cooperative work to the host's idle
// scheduling mechanism. The callback receives the deadline at which the
// burst must yield.
type FrameScheduler interface {
	Request(cb func(deadline time.Time))
}

// TimerFrames schedules bursts on zero-delay timers. Callbacks fire on
// timer goroutines; the runtime takes its lock on arrival, so delivery is
// serialized against the exported entry points. Hosts wanting fully
// deterministic delivery can pump a StepFrames from their own loop.
type TimerFrames struct {
	budget time.Duration
}

func NewTimerFrames(budget time.Duration) *TimerFrames {
	return &TimerFrames{budget: budget}
}

func (f *TimerFrames) Request(cb func(deadline time.Time)) {
	time.AfterFunc(0, func() {
		cb(time.Now().Add(f.budget))
	})
}

// StepFrames queues bursts and runs them only when stepped, which makes
// time-sliced scheduling fully deterministic. A zero or negative budget
// forces a yield after every unit of work.
type StepFrames struct {
	Budget time.Duration
	queue  []func(time.Time)
}

func (f *StepFrames) Request(cb func(deadline time.Time)) {
	f.queue = append(f.queue, cb)
}

// Pending reports whether any burst is waiting.
func (f *StepFrames) Pending() bool { return len(f.queue) > 0 }

// Step runs the next queued burst and reports whether more are pending.
func (f *StepFrames) Step() bool {
	if len(f.queue) == 0 {
		return false
	}
	cb := f.queue[0]
	f.queue = f.queue[1:]
	cb(time.Now().Add(f.Budget))
	return len(f.queue) > 0
}

// Drain steps until no bursts remain.
func (f *StepFrames) Drain() {
	for f.Step() {
	}
}
