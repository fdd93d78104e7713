package router

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"botrouter/pkg/logger"
)

// maxIDAttempts bounds how often Handle asks the generator for a fresh id
// before treating it as broken.
const maxIDAttempts = 8

type routeNode[U, E, R any] struct {
	id      string
	handler *Handler[U, E, R]
	prev    *routeNode[U, E, R]
	next    *routeNode[U, E, R]
	// removed nodes keep next so an in-flight scan can step past them.
	removed bool
}

// Router dispatches updates to the first matching route.
// All methods are safe for concurrent use.
type Router[U, E, R any] struct {
	mu           sync.RWMutex
	first        *routeNode[U, E, R]
	last         *routeNode[U, E, R]
	index        map[string]*routeNode[U, E, R]
	middlewares  []MiddlewareFunc[U, E, R]
	errorHandler ErrorHandlerFunc[U, E, R]

	idGenerator IDGenerator
	logger      logger.Logger
}

type options struct {
	idGenerator  IDGenerator
	logger       logger.Logger
	errorHandler any
}

type Option func(*options)

func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		o.idGenerator = gen
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithErrorHandler installs the error handler at construction. Its type
// parameters must match the router's.
func WithErrorHandler[U, E, R any](fn ErrorHandlerFunc[U, E, R]) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

func New[U, E, R any](opts ...Option) *Router[U, E, R] {
	o := options{
		idGenerator: UUIDGenerator(),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Router[U, E, R]{
		index:       map[string]*routeNode[U, E, R]{},
		idGenerator: o.idGenerator,
		logger:      o.logger,
	}
	if o.errorHandler != nil {
		fn, ok := o.errorHandler.(ErrorHandlerFunc[U, E, R])
		if !ok {
			panic(fmt.Sprintf("router: error handler %T does not fit the router's types", o.errorHandler))
		}
		r.errorHandler = fn
	}
	return r
}

// Handle appends a route and returns its id. Routes registered earlier win
// when several predicates accept the same update.
func (r *Router[U, E, R]) Handle(match MatchFunc[U, E], handler HandlerFunc[U, E, R], middlewares ...MiddlewareFunc[U, E, R]) string {
	node := &routeNode[U, E, R]{
		handler: NewHandler(match, handler, middlewares...),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	node.id = r.newID()
	r.index[node.id] = node
	if r.first == nil {
		r.first = node
		r.last = node
		return node.id
	}
	node.prev = r.last
	r.last.next = node
	r.last = node
	return node.id
}

func (r *Router[U, E, R]) newID() string {
	for range maxIDAttempts {
		id := r.idGenerator.NewID()
		if _, taken := r.index[id]; !taken {
			return id
		}
	}
	panic("router: id generator keeps returning ids that are in use")
}

// Remove deletes the route with the given id. Unknown ids are ignored.
func (r *Router[U, E, R]) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.index[id]
	if !ok {
		return
	}
	delete(r.index, id)
	node.removed = true

	if node.prev == nil {
		r.first = node.next
	} else {
		node.prev.next = node.next
	}
	if node.next == nil {
		r.last = node.prev
	} else {
		node.next.prev = node.prev
	}
	node.prev = nil
}

// With appends router-global middleware. It runs ahead of route middleware,
// in the order added, for every dispatch that starts after the call.
func (r *Router[U, E, R]) With(middlewares ...MiddlewareFunc[U, E, R]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middlewares = append(r.middlewares, middlewares...)
}

// SetErrorHandler installs the fallback for failed dispatches. Passing nil
// removes it.
func (r *Router[U, E, R]) SetErrorHandler(fn ErrorHandlerFunc[U, E, R]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errorHandler = fn
}

func (r *Router[U, E, R]) ErrorHandler() ErrorHandlerFunc[U, E, R] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.errorHandler
}

// Routes returns the route ids in dispatch order.
func (r *Router[U, E, R]) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.index))
	for node := r.first; node != nil; node = node.next {
		ids = append(ids, node.id)
	}
	return ids
}

func (r *Router[U, E, R]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.index)
}

// Fetch dispatches update to the first route whose predicate accepts it.
//
// If no route matches, Fetch returns ErrNoHandler without consulting the
// error handler. If the chain fails and an error handler is set, its result
// is returned instead; otherwise the chain's error is returned as is.
func (r *Router[U, E, R]) Fetch(ctx context.Context, update U, env E) (R, error) {
	node := r.lookup(update, env)
	if node == nil {
		var zero R
		return zero, ErrNoHandler
	}

	r.mu.RLock()
	chain := make([]MiddlewareFunc[U, E, R], 0, len(r.middlewares)+len(node.handler.middlewares))
	chain = append(chain, r.middlewares...)
	errorHandler := r.errorHandler
	r.mu.RUnlock()
	chain = append(chain, node.handler.middlewares...)

	r.logger.Debug(ctx, "route matched", zap.String("routeID", node.id))

	result, err := execute(ctx, update, env, chain, node.handler.handler)
	if err == nil {
		return result, nil
	}
	if errorHandler == nil {
		var zero R
		return zero, err
	}

	r.logger.Warn(ctx, "route failed, running error handler", zap.String("routeID", node.id), zap.Error(err))
	return errorHandler(ctx, update, err, env)
}

// lookup walks the route list without holding the lock while predicates run,
// so a predicate may itself register or remove routes. Each step sees the
// list as it is at that moment.
func (r *Router[U, E, R]) lookup(update U, env E) *routeNode[U, E, R] {
	r.mu.RLock()
	node := r.first
	r.mu.RUnlock()

	for node != nil {
		r.mu.RLock()
		removed := node.removed
		r.mu.RUnlock()

		if !removed && node.handler.Match(update, env) {
			return node
		}

		r.mu.RLock()
		node = node.next
		r.mu.RUnlock()
	}
	return nil
}
