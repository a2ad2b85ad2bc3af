package fiber_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/vhost"
)

// within one cycle the immediate effect's create runs strictly before the
// deferred effect's create
func TestImmediateBeforeDeferred(t *testing.T) {
	rt, tree, _ := newTestRuntime(t)

	var order []string
	var app fiber.Component = func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
		fiber.UseLayoutEffect(h, func() (fiber.CleanupFn, error) {
			order = append(order, "layout")
			return nil, nil
		})
		fiber.UseEffect(h, func() (fiber.CleanupFn, error) {
			order = append(order, "passive")
			return nil, nil
		})
		return fiber.E("div", nil), nil
	}

	rt.Mount(fiber.E(app, nil), tree.Root())
	assert.Equal(t, []string{"layout", "passive"}, order)
}

// the deferred batch runs every cleanup across all components before any
// create
func TestDeferredBatchDestroyBeforeCreate(t *testing.T) {
	rt, tree, step := newTestRuntime(t)

	var order []string
	effectFor := func(name string) fiber.Component {
		return func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
			fiber.UseEffect(h, func() (fiber.CleanupFn, error) {
				order = append(order, "create-"+name)
				return func() error {
					order = append(order, "cleanup-"+name)
					return nil
				}, nil
			}, props["v"])
			return fiber.E("span", fiber.Props{"v": props["v"]}), nil
		}
	}
	a, b := effectFor("a"), effectFor("b")

	page := func(v int) *fiber.Element {
		return fiber.E("div", nil,
			fiber.E(a, fiber.Props{"v": v}),
			fiber.E(b, fiber.Props{"v": v}),
		)
	}

	root := rt.Mount(page(1), tree.Root())
	require.Equal(t, []string{"create-a", "create-b"}, order)

	order = order[:0]
	root.Render(page(2), fiber.LaneSync)
	step.Drain()
	assert.Equal(t, []string{"cleanup-a", "cleanup-b", "create-a", "create-b"}, order)
}

// re-rendering with an identical dependency list never re-runs the effect
func TestEffectDepsIdempotence(t *testing.T) {
	rt, tree, step := newTestRuntime(t)

	creates := 0
	var bump func(int)
	var app fiber.Component = func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
		n, setN := fiber.UseState(h, 0)
		bump = setN
		x := "stable"
		fiber.UseEffect(h, func() (fiber.CleanupFn, error) {
			creates++
			return nil, nil
		}, x)
		return fiber.E("div", fiber.Props{"n": n}), nil
	}

	rt.Mount(fiber.E(app, nil), tree.Root())
	require.Equal(t, 1, creates)

	bump(1)
	step.Drain()
	assert.Equal(t, 1, creates)

	bump(2)
	step.Drain()
	assert.Equal(t, 1, creates)
}

// a throwing create is reported, yields no cleanup, and never aborts the
// rest of the batch
func TestEffectErrorIsolation(t *testing.T) {
	tree := vhost.New()
	var caught []error
	step := &fiber.StepFrames{}
	rt := fiber.CreateRuntime(tree, func(from *fiber.Node, err error) {
		caught = append(caught, err)
	}, fiber.WithFrames(step))

	boom := errors.New("boom")
	ran := false
	var app fiber.Component = func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
		fiber.UseEffect(h, func() (fiber.CleanupFn, error) {
			return nil, boom
		})
		fiber.UseEffect(h, func() (fiber.CleanupFn, error) {
			ran = true
			return nil, nil
		})
		return fiber.E("div", nil), nil
	}

	rt.Mount(fiber.E(app, nil), tree.Root())

	require.Len(t, caught, 1)
	assert.ErrorIs(t, caught[0], boom)
	assert.True(t, ran)
}

// a deleted component's cleanup runs before its host object is removed
func TestCleanupBeforeHostRemoval(t *testing.T) {
	rt, tree, step := newTestRuntime(t)

	var liveAtCleanup bool
	var span *vhost.Node
	var widget fiber.Component = func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
		fiber.UseLayoutEffect(h, func() (fiber.CleanupFn, error) {
			return func() error {
				liveAtCleanup = tree.Live(span)
				return nil
			}, nil
		})
		return fiber.E("span", fiber.Props{"w": true}), nil
	}

	page := func(withWidget bool) *fiber.Element {
		children := []any{fiber.Keyed("head", fiber.E("h1", nil))}
		if withWidget {
			children = append(children, fiber.Keyed("w", fiber.E(widget, nil)))
		}
		return fiber.E("div", nil, children...)
	}

	root := rt.Mount(page(true), tree.Root())
	span = tree.Root().Children[0].Children[1]
	require.Equal(t, "span", span.Tag)

	root.Render(page(false), fiber.LaneSync)
	step.Drain()

	assert.True(t, liveAtCleanup, "cleanup must run while the host object is still attached")
	assert.False(t, tree.Live(span))
	require.Len(t, tree.Root().Children[0].Children, 1)
}

// deletion cleanup order is configurable between parent-first and
// children-first cascades
func TestCleanupOrderPolicy(t *testing.T) {
	run := func(order fiber.CleanupOrder) []string {
		tree := vhost.New()
		step := &fiber.StepFrames{}
		rt := fiber.CreateRuntime(tree, failingErrFunc(t),
			fiber.WithFrames(step), fiber.WithCleanupOrder(order))

		var events []string
		withCleanup := func(name string, child *fiber.Element) fiber.Component {
			return func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
				fiber.UseLayoutEffect(h, func() (fiber.CleanupFn, error) {
					return func() error {
						events = append(events, name)
						return nil
					}, nil
				})
				return child, nil
			}
		}
		inner := withCleanup("inner", fiber.E("em", nil))
		outer := withCleanup("outer", fiber.E("div", nil, fiber.E(inner, nil)))

		root := rt.Mount(fiber.E(outer, nil), tree.Root())
		root.Render(nil, fiber.LaneSync)
		return events
	}

	assert.Equal(t, []string{"outer", "inner"}, run(fiber.CleanupParentFirst))
	assert.Equal(t, []string{"inner", "outer"}, run(fiber.CleanupChildrenFirst))
}

// the deferred flush can be pushed onto the frame scheduler instead of the
// committing turn
func TestDeferredFlushOnFrame(t *testing.T) {
	tree := vhost.New()
	step := &fiber.StepFrames{}
	rt := fiber.CreateRuntime(tree, failingErrFunc(t),
		fiber.WithFrames(step), fiber.WithDeferredFlush(fiber.FlushOnFrame))

	ran := false
	var app fiber.Component = func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
		fiber.UseEffect(h, func() (fiber.CleanupFn, error) {
			ran = true
			return nil, nil
		})
		return fiber.E("div", nil), nil
	}

	rt.Mount(fiber.E(app, nil), tree.Root())
	assert.False(t, ran)
	step.Drain()
	assert.True(t, ran)
}

// UseMemo recomputes only when its dependency list changes
func TestUseMemo(t *testing.T) {
	rt, tree, step := newTestRuntime(t)

	computes := 0
	var bump func(int)
	var app fiber.Component = func(h *fiber.Hooks, props fiber.Props) (*fiber.Element, error) {
		n, setN := fiber.UseState(h, 0)
		bump = setN
		bucket := n / 2
		label := fiber.UseMemo(h, func() string {
			computes++
			return "bucket"
		}, bucket)
		return fiber.E("div", fiber.Props{"label": label, "n": n}), nil
	}

	rt.Mount(fiber.E(app, nil), tree.Root())
	require.Equal(t, 1, computes)

	bump(1) // same bucket
	step.Drain()
	assert.Equal(t, 1, computes)

	bump(2) // new bucket
	step.Drain()
	assert.Equal(t, 2, computes)
}
