// Package router is a generic, first-match dispatch router.
//
// A Router holds an ordered list of routes. Each route pairs a MatchFunc with a
// terminal HandlerFunc and optional route-scoped middleware. Fetch walks the
// routes in registration order, picks the first one whose predicate accepts
// the update, and runs the chain
//
//	global middleware ++ route middleware ++ terminal handler
//
// against it. Errors raised by the chain are handed to the router's error
// handler when one is set; otherwise they are returned unchanged. An update
// that no route accepts yields ErrNoHandler, which never reaches the error
// handler.
//
// # Type parameters
//
//   - U is the update being routed.
//   - E is an environment value passed unchanged to every function of one
//     dispatch, for example the client used to reply.
//   - R is the dispatch result.
//
// # Middleware
//
// A middleware receives the rest of the chain as next and reports what it did
// through an Outcome:
//
//	func(ctx context.Context, u Update, next router.HandlerFunc[Update, Env, string], env Env) (router.Outcome[string], error) {
//	    res, err := next(ctx, u, env)
//	    if err != nil {
//	        return router.Continue[string](), err
//	    }
//	    return router.Return(res + " from middleware"), nil
//	}
//
// Return short-circuits the chain with a value. Continue falls through to the
// terminal handler, skipping any middleware that has not run yet. This holds
// whether or not next was called, so a middleware that calls next and then
// returns Continue makes the terminal handler run a second time.
package router
