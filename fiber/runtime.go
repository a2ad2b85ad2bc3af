// Package fiber is a dual-buffered tree reconciler. Applications describe
// their UI as immutable Element trees; the runtime diffs each description
// against the committed tree, renders either synchronously or in
// time-sliced bursts by lane priority, and applies the result to a Host in
// a two-phase commit.
package fiber

import (
	"log"
	"sync"
	"time"
)

// OnErrorFunc receives component and effect execution errors. The node is
// the one whose invocation or effect action failed.
type OnErrorFunc func(from *Node, err error)

// CleanupOrder picks the cascade direction when a deleted subtree's
// effects are destroyed.
type CleanupOrder uint8

const (
	CleanupParentFirst CleanupOrder = iota
	CleanupChildrenFirst
)

// DeferredFlushMode picks how the single deferred effect flush is
// scheduled after a commit.
type DeferredFlushMode uint8

const (
	// FlushAfterCommit runs the batch on the committing turn, after
	// immediate effects.
	FlushAfterCommit DeferredFlushMode = iota
	// FlushOnFrame schedules the batch through the frame scheduler.
	FlushOnFrame
)

// Runtime owns every piece of scheduler state so that independent runtimes
// (and their roots) never share ambient globals. A single mutex serializes
// the exported entry points against frame callbacks, which with TimerFrames
// arrive on timer goroutines. Component functions, effect actions and hook
// setters already run under that lock; they schedule through Hooks, never
// through the exported Root methods.
type Runtime struct {
	mu            *sync.Mutex
	host          Host
	onError       OnErrorFunc
	frames        FrameScheduler
	clock         func() time.Time
	cleanupOrder  CleanupOrder
	deferredFlush DeferredFlushMode

	pendingPassive   []*Node
	passiveScheduled bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFrames replaces the frame scheduler driving time-sliced work.
func WithFrames(f FrameScheduler) Option {
	return func(rt *Runtime) { rt.frames = f }
}

// WithClock replaces the time source used for slice-budget checks.
func WithClock(clock func() time.Time) Option {
	return func(rt *Runtime) { rt.clock = clock }
}

// WithCleanupOrder sets the deletion cleanup cascade order.
func WithCleanupOrder(o CleanupOrder) Option {
	return func(rt *Runtime) { rt.cleanupOrder = o }
}

// WithDeferredFlush sets how deferred effect batches are scheduled.
func WithDeferredFlush(m DeferredFlushMode) Option {
	return func(rt *Runtime) { rt.deferredFlush = m }
}

// CreateRuntime builds a runtime around a host-mutation layer. A nil
// onError falls back to logging.
func CreateRuntime(host Host, onError OnErrorFunc, opts ...Option) *Runtime {
	if host == nil {
		panic("fiber: runtime requires a host")
	}
	rt := &Runtime{
		mu:      &sync.Mutex{},
		host:    host,
		onError: onError,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.frames == nil {
		rt.frames = NewTimerFrames(DefaultSliceBudget)
	}
	return rt
}

func (rt *Runtime) reportError(from *Node, err error) {
	if rt.onError != nil {
		rt.onError(from, err)
		return
	}
	log.Printf("fiber: %s node error: %v", from.Kind, err)
}

// Root is the persistent entry point for one mounted host container. It is
// never destroyed while mounted; unmounting clears its tree and the same
// Root may mount again.
type Root struct {
	rt        *Runtime
	container HostNode
	node      *Node    // committed root fiber; its alternate pair is reused for the app's lifetime
	element   *Element // most recently mounted description

	pendingLanes Lanes
	wip          *Node
	next         *Node
	busy         bool

	// components whose invalidation was consumed by the in-flight pass
	observedState []*Hooks

	firstEffect *Node
	lastEffect  *Node
}

// Mount creates a root for the container and performs the initial pass
// synchronously.
func (rt *Runtime) Mount(el *Element, container HostNode) *Root {
	if container == nil {
		panic("fiber: mount requires a host container")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	r := &Root{
		rt:        rt,
		container: container,
		element:   el,
		node:      &Node{Kind: KindRoot, Host: container},
	}
	r.schedule(LaneSync)
	return r
}

// Current returns the committed root fiber.
func (r *Root) Current() *Node {
	r.rt.mu.Lock()
	defer r.rt.mu.Unlock()
	return r.node
}

// Container returns the mounted host container.
func (r *Root) Container() HostNode { return r.container }

// Render replaces the mounted description and schedules an update.
func (r *Root) Render(el *Element, lanes ...Lanes) {
	r.rt.mu.Lock()
	defer r.rt.mu.Unlock()
	r.element = el
	r.scheduleUpdate(lanes...)
}

// ScheduleUpdate merges the given lanes (default lane when none) into the
// pending set and triggers a scheduling cycle against the most recently
// mounted description.
func (r *Root) ScheduleUpdate(lanes ...Lanes) {
	r.rt.mu.Lock()
	defer r.rt.mu.Unlock()
	r.scheduleUpdate(lanes...)
}

func (r *Root) scheduleUpdate(lanes ...Lanes) {
	merged := LaneNone
	for _, l := range lanes {
		merged |= l
	}
	if merged == LaneNone {
		merged = LaneDefault
	}
	r.schedule(merged)
}

// Unmount tears the tree down: cascaded effect cleanup, host removal, and
// a rebuilt root fiber for any later mount.
func (r *Root) Unmount() {
	r.rt.mu.Lock()
	defer r.rt.mu.Unlock()
	r.wip, r.next = nil, nil
	r.firstEffect, r.lastEffect = nil, nil
	r.observedState = nil
	r.pendingLanes = LaneNone
	for c := r.node.Child; c != nil; c = c.Sibling {
		r.rt.cascadeCleanup(c)
		r.rt.removeHostSubtree(r.container, c)
	}
	r.node = &Node{Kind: KindRoot, Host: r.container}
	r.element = nil
}

func (r *Root) schedule(l Lanes) {
	r.pendingLanes |= l
	if r.busy {
		// picked up by the next scheduling cycle after the current one
		// commits
		return
	}
	r.dispatch()
}

// dispatch consumes the highest pending lane and decides synchronous vs.
// time-sliced execution. A synchronous-priority arrival discards any
// in-flight time-sliced pass outright.
func (r *Root) dispatch() {
	if r.pendingLanes == LaneNone {
		return
	}
	lane := highestLane(r.pendingLanes)

	if lane&syncLanes != 0 {
		r.pendingLanes = LaneNone
		if r.wip != nil {
			r.discardInFlight()
		}
		r.renderSync()
		return
	}

	if r.wip != nil {
		// one pass in flight per root; lower-priority arrivals only
		// extend the pending set
		return
	}
	r.pendingLanes = LaneNone
	r.prepareFreshPass()
	r.requestBurst()
}

func (r *Root) discardInFlight() {
	r.wip, r.next = nil, nil
	r.firstEffect, r.lastEffect = nil, nil
	// invalidations consumed by the discarded pass were never committed;
	// hand them back so the replacing pass re-observes them
	for _, h := range r.observedState {
		h.invalidated = true
	}
	r.observedState = r.observedState[:0]
}

// observeState records that the in-flight pass consumed a component's
// invalidation.
func (r *Root) observeState(h *Hooks) {
	r.observedState = append(r.observedState, h)
}

// prepareFreshPass builds a new working copy of the root fiber; every pass
// starts from the committed tree plus the pending description.
func (r *Root) prepareFreshPass() {
	r.firstEffect, r.lastEffect = nil, nil
	r.observedState = r.observedState[:0]
	r.wip = createWorkInProgress(r.node, nil, nil)
	r.next = r.wip
}

// requestBurst schedules the next time-sliced burst. The callback takes
// the runtime lock on arrival, since frame schedulers may deliver it on
// another goroutine.
func (r *Root) requestBurst() {
	r.rt.frames.Request(func(deadline time.Time) {
		r.rt.mu.Lock()
		defer r.rt.mu.Unlock()
		r.workLoop(deadline)
	})
}

func (r *Root) renderSync() {
	r.busy = true
	r.prepareFreshPass()
	for r.next != nil {
		r.next = r.rt.performUnitOfWork(r, r.next)
	}
	finished := r.wip
	r.wip = nil
	r.rt.commit(r, finished)
	r.busy = false
	r.dispatch()
}

// workLoop drives one time-sliced burst: at least one unit of work, then
// units until the deadline passes, yielding with the work-in-progress
// pointer preserved.
func (r *Root) workLoop(deadline time.Time) {
	if r.wip == nil {
		return // discarded by a synchronous preemption
	}
	r.busy = true
	for {
		r.next = r.rt.performUnitOfWork(r, r.next)
		if r.next == nil {
			break
		}
		if !r.rt.clock().Before(deadline) {
			r.busy = false
			if r.pendingLanes&syncLanes != 0 {
				// a synchronous update scheduled during this burst preempts
				// at the yield point, not after the pass commits
				r.dispatch()
				return
			}
			r.requestBurst()
			return
		}
	}
	finished := r.wip
	r.wip = nil
	r.rt.commit(r, finished)
	r.busy = false
	r.dispatch()
}

func (r *Root) appendEffect(n *Node) {
	n.NextEffect = nil
	if r.lastEffect == nil {
		r.firstEffect = n
	} else {
		r.lastEffect.NextEffect = n
	}
	r.lastEffect = n
}
