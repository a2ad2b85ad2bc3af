package fiber

// EffectClass splits side effects into the two commit phases.
type EffectClass uint8

const (
	// EffectLayout effects run synchronously right after host mutations
	// are applied.
	EffectLayout EffectClass = iota
	// EffectPassive effects are batched into a single deferred flush.
	EffectPassive
)

// EffectFn creates a side effect and returns its cleanup, or nil.
type EffectFn func() (CleanupFn, error)

// CleanupFn destroys a previously created side effect.
type CleanupFn func() error

// EffectRecord is the scheduling view of one registered effect. The
// reconciler only reads its class, change flag and first-run flag; the
// create/cleanup actions stay opaque.
type EffectRecord struct {
	Class  EffectClass
	Create EffectFn

	cleanup     CleanupFn
	deps        []any // dependency list as of the last executed create
	pendingDeps []any
	changed     bool
	firstRun    bool
	done        bool // owning node deleted, terminal
}

// Hooks is the per-component local-state container. It is owned by the
// component instance and shared by both buffers of its alternate pair.
type Hooks struct {
	rt   *Runtime
	root *Root
	node *Node

	cells       []any
	cursor      int
	invalidated bool
	deleted     bool
}

func newHooks(rt *Runtime, root *Root) *Hooks {
	return &Hooks{rt: rt, root: root}
}

func (h *Hooks) begin(node *Node) {
	h.node = node
	h.cursor = 0
	if h.invalidated {
		// consumed by the pass that commits it; a discarded pass hands
		// the invalidation back
		h.invalidated = false
		h.root.observeState(h)
	}
}

// Invalidate marks the owning component stale and schedules an update on
// the given lanes, the default lane when none. It is the scheduling path
// for code already running inside the runtime, so component functions,
// effect actions and captured setters use it rather than the locked Root
// methods.
func (h *Hooks) Invalidate(lanes ...Lanes) {
	h.invalidated = true
	h.root.scheduleUpdate(lanes...)
}

// finish scans the registered effect records after a component invocation
// and flags the node for effect execution when any record is first-run or
// changed.
func (h *Hooks) finish(node *Node) {
	for _, cell := range h.cells {
		rec, ok := cell.(*EffectRecord)
		if !ok || !rec.changed {
			continue
		}
		if rec.Class == EffectLayout {
			node.Flags |= FlagLayout
		} else {
			node.Flags |= FlagPassive
		}
	}
}

func depsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func hookCell[T any](h *Hooks, build func() T) T {
	idx := h.cursor
	h.cursor++
	if idx == len(h.cells) {
		cell := build()
		h.cells = append(h.cells, cell)
		return cell
	}
	cell, ok := h.cells[idx].(T)
	if !ok {
		panic("fiber: hook order changed between invocations")
	}
	return cell
}

type stateCell[T comparable] struct {
	h     *Hooks
	value T
}

// UseState returns the cell's current value and a setter. The setter
// invalidates the owning component and schedules a default-lane update on
// its root; setting an equal value is a no-op.
func UseState[T comparable](h *Hooks, initial T) (T, func(T)) {
	cell := hookCell(h, func() *stateCell[T] {
		return &stateCell[T]{h: h, value: initial}
	})
	set := func(v T) {
		if cell.value == v {
			return
		}
		cell.value = v
		cell.h.Invalidate(LaneDefault)
	}
	return cell.value, set
}

type memoCell[T any] struct {
	value T
	deps  []any
	has   bool
}

// UseMemo recomputes only when the dependency list changes.
func UseMemo[T any](h *Hooks, compute func() T, deps ...any) T {
	cell := hookCell(h, func() *memoCell[T] { return &memoCell[T]{} })
	if !cell.has || !depsEqual(cell.deps, deps) {
		cell.value = compute()
		cell.deps = deps
		cell.has = true
	}
	return cell.value
}

// UseEffect registers a deferred-class effect.
func UseEffect(h *Hooks, fn EffectFn, deps ...any) {
	useEffect(h, EffectPassive, fn, deps)
}

// UseLayoutEffect registers an immediate-class effect.
func UseLayoutEffect(h *Hooks, fn EffectFn, deps ...any) {
	useEffect(h, EffectLayout, fn, deps)
}

func useEffect(h *Hooks, class EffectClass, fn EffectFn, deps []any) {
	idx := h.cursor
	h.cursor++
	if idx == len(h.cells) {
		h.cells = append(h.cells, &EffectRecord{
			Class:       class,
			Create:      fn,
			pendingDeps: deps,
			changed:     true,
			firstRun:    true,
		})
		return
	}
	rec, ok := h.cells[idx].(*EffectRecord)
	if !ok {
		panic("fiber: hook order changed between invocations")
	}
	rec.Create = fn
	rec.pendingDeps = deps
	// Compared against the last executed deps, so re-invoking with an
	// identical list never marks the record changed.
	rec.changed = rec.firstRun || !depsEqual(rec.deps, deps)
}
