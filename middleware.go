package assistbot

// ──────────────────────────────────────────────
// Middleware — onion-model pipeline around event handling
// ──────────────────────────────────────────────
//
// Each middleware wraps the next layer. Call next() to proceed; skip it to
// intercept the event before it reaches the state machine.
//
// Usage:
//
//	dispatcher.Use(func(ctx *MiddlewareContext, next NextFunc) {
//	    log.Printf("[Bot] user %d event %d", ctx.Event.UserID, ctx.Event.Kind)
//	    next()
//	})

// NextFunc proceeds to the next middleware or the core handler.
type NextFunc func()

// MiddlewareFunc is the signature for all middleware functions.
type MiddlewareFunc func(ctx *MiddlewareContext, next NextFunc)

// MiddlewareContext is the shared context flowing through the pipeline.
type MiddlewareContext struct {
	// Event is the inbound user event.
	Event Event
	// Prompt is the outbound prompt, populated once the core handler ran.
	Prompt *Prompt
	// Extra is an arbitrary map for middleware to attach/read data.
	Extra map[string]interface{}
	// Handled is set to true when the core handler has been reached.
	Handled bool
}

// MiddlewarePipeline builds and executes an onion-model call chain.
type MiddlewarePipeline struct {
	middlewares []MiddlewareFunc
}

// NewMiddlewarePipeline creates an empty pipeline.
func NewMiddlewarePipeline() *MiddlewarePipeline {
	return &MiddlewarePipeline{}
}

// Use appends a middleware to the pipeline.
func (p *MiddlewarePipeline) Use(mw MiddlewareFunc) {
	p.middlewares = append(p.middlewares, mw)
}

// Len returns the number of registered middlewares.
func (p *MiddlewarePipeline) Len() int {
	return len(p.middlewares)
}

// Execute runs the full pipeline ending with coreHandler:
//
//	mw[0].before → mw[1].before → core → mw[1].after → mw[0].after
func (p *MiddlewarePipeline) Execute(ctx *MiddlewareContext, coreHandler func()) {
	if len(p.middlewares) == 0 {
		coreHandler()
		return
	}

	chain := coreHandler
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		mw := p.middlewares[i]
		next := chain
		chain = func() {
			mw(ctx, next)
		}
	}

	chain()
}
