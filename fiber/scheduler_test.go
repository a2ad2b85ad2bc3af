package fiber_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/vhost"
)

func wideList(label string, n int) *fiber.Element {
	children := make([]any, n)
	for i := 0; i < n; i++ {
		children[i] = fiber.Keyed(fmt.Sprintf("k%d", i),
			fiber.E("li", fiber.Props{"label": label}))
	}
	return fiber.E("ul", nil, children...)
}

// synchronous lanes run to completion on the calling turn
func TestSyncLaneCommitsImmediately(t *testing.T) {
	rt, tree, step := newTestRuntime(t)
	root := rt.Mount(wideList("a", 5), tree.Root())

	root.Render(wideList("b", 5), fiber.LaneSync)
	assert.False(t, step.Pending())
	assert.Equal(t, "b", tree.Root().Children[0].Children[0].Attrs["label"])
}

// deferrable lanes yield at the slice budget and resume where they left off
func TestTimeSlicedRunYieldsAndResumes(t *testing.T) {
	tree := vhost.New()
	// a negative budget forces a yield after every unit of work
	step := &fiber.StepFrames{Budget: -time.Second}
	rt := fiber.CreateRuntime(tree, failingErrFunc(t), fiber.WithFrames(step))

	root := rt.Mount(wideList("a", 8), tree.Root())
	root.Render(wideList("b", 8), fiber.LaneTransition)

	// nothing committed until the bursts run out
	require.True(t, step.Pending())
	assert.Equal(t, "a", tree.Root().Children[0].Children[0].Attrs["label"])

	steps := 0
	for step.Step() {
		steps++
	}
	assert.Greater(t, steps, 1)
	assert.Equal(t, "b", tree.Root().Children[0].Children[0].Attrs["label"])
}

// a synchronous arrival discards in-flight time-sliced work entirely: no
// host mutation from the discarded pass ever lands
func TestSyncPreemptsSlicedPass(t *testing.T) {
	tree := vhost.New()
	step := &fiber.StepFrames{Budget: -time.Second}
	rt := fiber.CreateRuntime(tree, failingErrFunc(t), fiber.WithFrames(step))

	root := rt.Mount(wideList("initial", 6), tree.Root())
	tree.ResetJournal()

	root.Render(wideList("sliced", 6), fiber.LaneTransition)
	step.Step()
	step.Step() // partial progress, then preempt

	root.Render(wideList("urgent", 6), fiber.LaneSync)
	assert.Equal(t, "urgent", tree.Root().Children[0].Children[0].Attrs["label"])

	// stale queued bursts are inert
	step.Drain()

	for _, li := range tree.Root().Children[0].Children {
		assert.Equal(t, "urgent", li.Attrs["label"])
	}
	for _, m := range tree.Journal() {
		assert.NotContains(t, m.String(), "sliced")
	}
	html := tree.HTML()
	assert.False(t, strings.Contains(html, "sliced"), "discarded pass leaked into the host tree")
}

// a state update observed by a time-sliced pass survives that pass being
// discarded: the replacing synchronous pass re-observes and commits it
func TestSyncPreemptionKeepsObservedState(t *testing.T) {
	tree := vhost.New()
	step := &fiber.StepFrames{Budget: -time.Second}
	rt := fiber.CreateRuntime(tree, failingErrFunc(t), fiber.WithFrames(step))

	var bump func(string)
	var label fiber.Component = func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
		v, set := fiber.UseState(h, "old")
		bump = set
		return fiber.E("span", fiber.Props{"v": v}), nil
	}
	app := fiber.E("div", nil,
		fiber.E(label, nil),
		fiber.E("p", nil, "tail"),
		fiber.E("p", nil, "more"))
	root := rt.Mount(app, tree.Root())
	require.False(t, step.Pending())

	// the default-lane pass renders the component, consuming its
	// dirtiness, but is preempted before it can commit
	bump("new")
	step.Step()
	step.Step()
	step.Step()
	require.True(t, step.Pending())

	root.ScheduleUpdate(fiber.LaneSync)
	span := tree.Root().Children[0].Children[0]
	assert.Equal(t, "new", span.Attrs["v"])

	step.Drain()
	assert.Equal(t, "new", span.Attrs["v"])
}

// a synchronous update scheduled from inside a burst preempts at the next
// yield point instead of waiting for the sliced pass to finish
func TestSyncScheduledDuringBurstPreempts(t *testing.T) {
	tree := vhost.New()
	step := &fiber.StepFrames{Budget: -time.Second}
	rt := fiber.CreateRuntime(tree, failingErrFunc(t), fiber.WithFrames(step))

	escalated := false
	var escalate fiber.Component = func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
		if props["urgent"] == true && !escalated {
			escalated = true
			h.Invalidate(fiber.LaneSync)
		}
		return fiber.E("span", fiber.Props{"mode": props["urgent"]}), nil
	}
	app := func(urgent bool) *fiber.Element {
		return fiber.E("div", nil,
			fiber.E(escalate, fiber.Props{"urgent": urgent}),
			fiber.E("p", fiber.Props{"a": urgent}),
			fiber.E("p", fiber.Props{"b": urgent}))
	}
	root := rt.Mount(app(false), tree.Root())

	root.Render(app(true), fiber.LaneTransition)
	step.Step() // root
	step.Step() // div
	step.Step() // the component escalates; the yield point dispatches it

	// the synchronous pass committed the whole tree inside the third burst
	div := tree.Root().Children[0]
	assert.Equal(t, true, div.Children[2].Attrs["b"])
	assert.False(t, step.Pending())
}

// exported entry points are serialized; simultaneous schedules from many
// goroutines merge into orderly passes
func TestConcurrentSchedulingSerializes(t *testing.T) {
	rt, tree, step := newTestRuntime(t)
	root := rt.Mount(wideList("a", 4), tree.Root())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			root.ScheduleUpdate(fiber.LaneDefault)
		}()
	}
	wg.Wait()

	step.Drain()
	for _, li := range tree.Root().Children[0].Children {
		assert.Equal(t, "a", li.Attrs["label"])
	}
	assert.False(t, step.Pending())
}

// lower-priority arrivals never preempt; they extend the pending set and
// run as the next cycle
func TestLowerLaneDoesNotPreempt(t *testing.T) {
	tree := vhost.New()
	step := &fiber.StepFrames{Budget: -time.Second}
	rt := fiber.CreateRuntime(tree, failingErrFunc(t), fiber.WithFrames(step))

	root := rt.Mount(wideList("a", 4), tree.Root())
	root.Render(wideList("b", 4), fiber.LaneTransition)
	step.Step()

	// an idle-lane request while the transition pass is in flight
	root.ScheduleUpdate(fiber.LaneIdle)

	step.Drain()
	assert.Equal(t, "b", tree.Root().Children[0].Children[0].Attrs["label"])
	// the idle cycle ran afterwards against the same description, so the
	// tree is unchanged but no work was lost
	assert.False(t, step.Pending())
}

// lanes accumulate with bitwise OR and the highest pending one wins
func TestLaneMerging(t *testing.T) {
	merged := fiber.LaneIdle | fiber.LaneDefault | fiber.LaneTransition
	assert.Equal(t, fiber.LaneDefault, merged&-merged)

	assert.Equal(t, "default", fiber.LaneDefault.String())
	assert.Equal(t, "sync", fiber.LaneSync.String())
}

// unmounting removes the whole host tree and runs cleanups; the root can
// mount again afterwards
func TestUnmountAndRemount(t *testing.T) {
	rt, tree, step := newTestRuntime(t)

	cleaned := false
	var app fiber.Component = func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
		fiber.UseLayoutEffect(h, func() (fiber.CleanupFn, error) {
			return func() error {
				cleaned = true
				return nil
			}, nil
		})
		return fiber.E("div", fiber.Props{"app": true}), nil
	}

	root := rt.Mount(fiber.E(app, nil), tree.Root())
	require.Len(t, tree.Root().Children, 1)

	root.Unmount()
	assert.True(t, cleaned)
	assert.Empty(t, tree.Root().Children)

	root.Render(fiber.E("p", nil, "back"), fiber.LaneSync)
	step.Drain()
	require.Len(t, tree.Root().Children, 1)
	assert.Equal(t, "p", tree.Root().Children[0].Tag)
}

// a working copy without a source node is a contract violation
func TestMountNilContainerPanics(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	assert.Panics(t, func() {
		rt.Mount(fiber.E("div", nil), nil)
	})
}
