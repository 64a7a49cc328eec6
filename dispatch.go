package assistbot

import (
	"context"
	"fmt"
	"log"
	"sync"

	"go.uber.org/atomic"
)

// ──────────────────────────────────────────────
// Dispatcher — per-user serial event loop
// ──────────────────────────────────────────────
//
// One event is processed to completion before the next event for the same
// user begins; events for distinct users run in parallel. Each active user
// gets an on-demand drain goroutine that exits once its queue empties. The
// dispatcher mutex only guards queue bookkeeping, never event processing,
// so one slow user cannot stall another.

// DeliverFunc sends an outbound prompt to the user the event came from.
// Delivery is fire-and-forget: its failure never rolls back session state.
type DeliverFunc func(ev Event, prompt Prompt)

// DispatcherStats is a snapshot of dispatcher counters.
type DispatcherStats struct {
	Processed     int64
	Recovered     int64
	ActiveWorkers int32
}

// Dispatcher feeds events through the middleware pipeline into the state
// machine, preserving per-user FIFO order.
type Dispatcher struct {
	machine  *Machine
	deliver  DeliverFunc
	pipeline *MiddlewarePipeline

	mu     sync.Mutex
	queues map[int64][]Event

	processed atomic.Int64
	recovered atomic.Int64
	workers   atomic.Int32
}

// NewDispatcher creates a dispatcher over a machine and a delivery sink.
func NewDispatcher(machine *Machine, deliver DeliverFunc) *Dispatcher {
	return &Dispatcher{
		machine:  machine,
		deliver:  deliver,
		pipeline: NewMiddlewarePipeline(),
		queues:   make(map[int64][]Event),
	}
}

// Use registers a middleware wrapping event handling.
func (d *Dispatcher) Use(mw MiddlewareFunc) {
	d.pipeline.Use(mw)
}

// Dispatch enqueues an event for its user, starting a drain goroutine if
// none is running. Returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	d.mu.Lock()
	_, active := d.queues[ev.UserID]
	d.queues[ev.UserID] = append(d.queues[ev.UserID], ev)
	d.mu.Unlock()

	if !active {
		d.workers.Inc()
		go d.drain(ctx, ev.UserID)
	}
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Processed:     d.processed.Load(),
		Recovered:     d.recovered.Load(),
		ActiveWorkers: d.workers.Load(),
	}
}

// drain processes the user's queue in FIFO order until it empties.
func (d *Dispatcher) drain(ctx context.Context, userID int64) {
	defer d.workers.Dec()
	for {
		d.mu.Lock()
		q := d.queues[userID]
		if len(q) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		ev := q[0]
		d.queues[userID] = q[1:]
		d.mu.Unlock()

		d.process(ctx, ev)
	}
}

// process runs one event through the pipeline and the machine with panic
// recovery. A panicking transition is fatal to that session only: the
// session is discarded and the user gets a generic failure message.
func (d *Dispatcher) process(ctx context.Context, ev Event) {
	defer d.processed.Inc()
	defer func() {
		if r := recover(); r != nil {
			d.recovered.Inc()
			prompt := d.machine.failSession(ctx, ev.UserID, fmt.Errorf("panic in transition: %v", r))
			d.deliver(ev, prompt)
		}
	}()

	mctx := &MiddlewareContext{Event: ev, Extra: make(map[string]interface{})}
	d.pipeline.Execute(mctx, func() {
		mctx.Handled = true
		prompt := d.machine.Handle(ctx, ev)
		mctx.Prompt = &prompt
	})

	// A middleware may short-circuit without producing a prompt.
	if mctx.Prompt != nil {
		d.deliver(ev, *mctx.Prompt)
	} else if !mctx.Handled {
		log.Printf("[Dispatcher] user %d: event intercepted by middleware", ev.UserID)
	}
}
