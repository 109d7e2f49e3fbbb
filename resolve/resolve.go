// Package resolve is the system resolver (spec.md §2 "the resolver"): it
// ties the validator, access solver, interception tree, Postgres planner/
// transformer, module subsystem and executor together into the single
// entry point an HTTP handler (a documented collaborator, not implemented
// here per spec.md §1) calls once per request. Grounded on the teacher's
// graph/doc.go (the top-level `Graph` that owns every `Type` the rest of
// the package operates against) and contrib/graphql/gqlgen.go (the
// resolver-registry wiring pattern one layer up from codegen'd resolvers),
// with the executor itself adapted from dialect/sql/driver.go's
// Driver/Conn split between a pooled *sql.DB and a per-request *sql.Tx.
package resolve

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/exograph/exograph/access"
	"github.com/exograph/exograph/exoerr"
	"github.com/exograph/exograph/intercept"
	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/module"
	"github.com/exograph/exograph/validate"
)

// Resolver holds every piece of boot-time global state a request needs
// (spec.md §9 "Global state is limited to the IR, the connection pool, the
// JWT cache, and the JS worker pool — all initialized at boot and never
// mutated by requests").
type Resolver struct {
	Sys    *ir.System
	Schema *ast.Schema
	DB     *DB
	Pool   *module.Pool
	Limits validate.Limits

	// Providers supplies the per-annotation context providers shared across
	// requests (e.g. the env provider); request-scoped ones (JWT claims,
	// headers, cookies) are merged in by the caller per-request via
	// Request.ExtraProviders.
	Providers map[ir.ContextAnnotation]access.Provider
}

// Request is one GraphQL HTTP request's worth of input, the Go analogue of
// spec.md §6's `{ query, variables?, operationName? }` envelope.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any

	// ExtraProviders overrides/extends r.Providers for just this request
	// (the per-request JWT/header/cookie providers an HTTP layer builds
	// from the incoming request).
	ExtraProviders map[ir.ContextAnnotation]access.Provider
}

// Response carries the `data` and response headers of a successful Execute;
// a failure is returned as Execute's error, not inside the Response.
type Response struct {
	Data    map[string]any
	Headers []module.HeaderPair
}

// Execute runs req to completion: validate, then resolve every top-level
// field (spec.md §5 "Ordering"). Query fields fan out concurrently via
// errgroup since they are read-only and independent of each other; mutation
// fields run strictly sequentially, sharing one DB transaction, and abort
// the remaining mutations on the first error (spec.md §9's resolved open
// question).
func (r *Resolver) Execute(ctx context.Context, req Request) (*Response, error) {
	op, err := validate.Validate(r.Schema, req.Query, req.OperationName, req.Variables, r.Limits)
	if err != nil {
		return nil, err
	}

	reqCtx := r.requestContext(req.ExtraProviders)

	switch op.Kind {
	case validate.OpQuery:
		return r.executeQueries(ctx, op, reqCtx)
	case validate.OpMutation:
		return r.executeMutations(ctx, op, reqCtx)
	default:
		return nil, exoerr.Internal(fmt.Errorf("resolve: unknown operation kind %v", op.Kind))
	}
}

// requestContext builds the access.RequestContext for one request, layering
// req-scoped providers over the resolver's boot-time ones and wiring
// ResolveOperationFn back to this same Resolver so `@query` context
// selections and a module's `executeQuery` callback can both re-enter the
// pipeline (spec.md §4.2 "a query fn for remote context", §4.4 "re-enter the
// system resolver with an overridden context").
func (r *Resolver) requestContext(extra map[ir.ContextAnnotation]access.Provider) access.RequestContext {
	providers := make(map[ir.ContextAnnotation]access.Provider, len(r.Providers)+len(extra))
	for k, v := range r.Providers {
		providers[k] = v
	}
	for k, v := range extra {
		providers[k] = v
	}
	rc := access.RequestContext{Providers: providers}
	rc.Resolver = func(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
		resp, err := r.Execute(ctx, Request{Query: query, Variables: variables, ExtraProviders: extra})
		if err != nil {
			return nil, err
		}
		return resp.Data, nil
	}
	return rc
}

// executeQueries resolves every top-level query field of op concurrently,
// collecting headers and data in field order regardless of completion
// order.
func (r *Resolver) executeQueries(ctx context.Context, op *validate.ValidatedOperation, reqCtx access.RequestContext) (*Response, error) {
	data := make(map[string]any, len(op.Fields))
	headerSets := make([][]module.HeaderPair, len(op.Fields))

	g, gctx := errgroup.WithContext(ctx)
	results := make([]any, len(op.Fields))
	errs := make([]error, len(op.Fields))
	for i, f := range op.Fields {
		i, f := i, f
		g.Go(func() error {
			val, hdrs, err := r.resolveTopLevelField(gctx, validate.OpQuery, f, reqCtx, nil)
			results[i], headerSets[i], errs[i] = val, hdrs, err
			return nil // individual failures don't cancel sibling queries
		})
	}
	if err := g.Wait(); err != nil {
		return nil, exoerr.Internal(err)
	}

	// Every sibling query field still runs to completion even if one fails
	// (the g.Wait() above never aborts it), but the response has no `errors[]`
	// array to carry a per-field failure alongside partial data, so the
	// first field-order error found here is surfaced as the whole request's
	// error rather than nulling just that field.
	var headers []module.HeaderPair
	for i, f := range op.Fields {
		if errs[i] != nil {
			return nil, errs[i]
		}
		data[f.Alias] = results[i]
		headers = append(headers, headerSets[i]...)
	}
	return &Response{Data: data, Headers: headers}, nil
}

// executeMutations resolves every top-level mutation field of op
// sequentially in one shared transaction (spec.md §4.5, §5 "All writes from
// one top-level mutation execute in one DB transaction"), aborting and
// rolling back on the first failure.
func (r *Resolver) executeMutations(ctx context.Context, op *validate.ValidatedOperation, reqCtx access.RequestContext) (*Response, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(op.Fields))
	var headers []module.HeaderPair
	for _, f := range op.Fields {
		val, hdrs, err := r.resolveTopLevelField(ctx, validate.OpMutation, f, reqCtx, tx)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		data[f.Alias] = val
		headers = append(headers, hdrs...)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Response{Data: data, Headers: headers}, nil
}

// resolveTopLevelField dispatches one top-level field to introspection, the
// Postgres planner, or the module subsystem, wrapping the core resolution in
// its interception tree if one is bound (spec.md §4.4 "Interceptors"). tx is
// nil for a query field (each runs its own read against the pool) and the
// shared transaction executor for a mutation field.
func (r *Resolver) resolveTopLevelField(ctx context.Context, kind validate.OperationKind, f validate.ValidatedField, reqCtx access.RequestContext, tx *Tx) (any, []module.HeaderPair, error) {
	if f.Name == "__schema" || f.Name == "__type" {
		val, err := r.resolveIntrospection(f)
		return val, nil, err
	}

	interceptions := r.Sys.QueryInterceptions
	if kind == validate.OpMutation {
		interceptions = r.Sys.MutationInterceptions
	}

	cb := &module.CallbackProcessor{OperationName: f.Name}
	cb.Execute = func(ctx context.Context, query string, variables, contextOverride map[string]any) (any, error) {
		overridden := reqCtx
		if len(contextOverride) > 0 {
			merged := map[ir.ContextAnnotation]access.Provider{}
			for k, v := range reqCtx.Providers {
				merged[k] = v
			}
			merged[ir.AnnotationQuery] = access.StaticProvider(contextOverride)
			overridden.Providers = merged
		}
		resp, err := r.Execute(ctx, Request{Query: query, Variables: variables, ExtraProviders: overridden.Providers})
		if err != nil {
			return nil, err
		}
		return resp.Data, nil
	}

	core := func(ctx context.Context) (any, error) {
		if q, ok := r.Sys.QueryByName(f.Name); ok && kind == validate.OpQuery {
			return r.resolvePgQuery(ctx, q, f, reqCtx)
		}
		if m, ok := r.Sys.MutationByName(f.Name); ok && kind == validate.OpMutation {
			return r.resolvePgMutation(ctx, m, f, reqCtx, tx)
		}
		if method, ok := r.methodByName(f.Name); ok {
			return r.resolveModuleField(ctx, method, f, reqCtx, cb)
		}
		return nil, exoerr.NotFound(f.Name)
	}

	inv := &module.Invoker{Pool: r.Pool, Sys: r.Sys, Args: map[string]any{}, Core: core}
	val, err := intercept.Run(ctx, r.Sys, interceptions, f.Name, inv)
	if err != nil {
		return nil, nil, err
	}
	return val, cb.Headers(), nil
}

// methodByName resolves a top-level module-backed operation by name. The IR
// does not tag a ModuleMethod with query-vs-mutation kind (that distinction
// only matters for which schema root it was registered under, decided at IR
// build time, out of this package's scope), so the lookup here is a plain
// name match against the shared Methods arena.
func (r *Resolver) methodByName(name string) (*ir.ModuleMethod, bool) {
	for i := range r.Sys.Methods {
		if r.Sys.Methods[i].Name == name {
			return &r.Sys.Methods[i], true
		}
	}
	return nil, false
}
