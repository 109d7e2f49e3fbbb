// Package module dispatches ModuleMethod calls to a bounded pool of JS/TS
// workers and implements the executeQuery/addHeader/proceed callback
// protocol a running script uses to call back into the resolver (spec.md §5
// "JS worker pool", §1 "Module subsystem"). Grounded on
// crates/deno-subsystem/deno-graphql-resolver/{deno_operation.rs,
// exo_execution.rs, exograph_ops.rs}: there, each in-flight script owns a
// request/response mpsc channel pair to the host; here a script's host calls
// are plain method calls on the CallbackProcessor handed to its Worker, and a
// semaphore bounds how many scripts run concurrently, the way the teacher's connection pool in
// dialect/sql/driver.go bounds concurrent DB sessions.
package module

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/exograph/exograph/ir"
)

// Worker runs one ModuleMethod invocation to completion. A real
// implementation owns a Deno/QuickJS isolate that executes Script.Bytes;
// tests substitute a fake.
type Worker interface {
	Invoke(ctx context.Context, method *ir.ModuleMethod, script *ir.Script, args map[string]any, cb *CallbackProcessor) (any, error)
}

// QueryExecutor runs a nested GraphQL document on behalf of a script's
// `exograph.executeQuery` call (spec.md §5's callback protocol). It is a
// plain function type, not an interface bound to the resolve package, since
// module must not import resolve (resolve is the caller of module).
type QueryExecutor func(ctx context.Context, query string, variables map[string]any, contextOverride map[string]any) (any, error)

// ProceedFunc resumes the wrapped subtree of an Around interceptor that
// called `exograph.proceed()` mid-script. Supplied per-invocation by the
// intercept package when it runs an Around node via module.Pool.
type ProceedFunc func(ctx context.Context) (any, error)

// CallbackProcessor answers the three host calls a running script can make,
// matching exograph_ops.rs's op_exograph_execute_query /
// op_exograph_add_header / op_operation_proceed exactly in shape.
type CallbackProcessor struct {
	Execute QueryExecutor
	Proceed ProceedFunc

	// OperationName/OperationQuery back op_operation_name/op_operation_query
	// for an interceptor inspecting the operation it wraps.
	OperationName  string
	OperationQuery any

	headers []HeaderPair
}

// HeaderPair is one response header a script added via addHeader.
type HeaderPair struct {
	Name  string
	Value string
}

// AddHeader implements op_exograph_add_header: scripts may call this any
// number of times: every call appends, matching the Rust side's
// `response.headers.push`.
func (cp *CallbackProcessor) AddHeader(name, value string) {
	cp.headers = append(cp.headers, HeaderPair{Name: name, Value: value})
}

// Headers returns every header accumulated during the invocation, to be
// merged into the HTTP response (spec.md §5).
func (cp *CallbackProcessor) Headers() []HeaderPair {
	return cp.headers
}

// ExecuteQuery implements op_exograph_execute_query(_priv): it blocks the
// calling script's logical step (not the whole worker pool — other workers
// continue running) until the nested resolution completes.
func (cp *CallbackProcessor) ExecuteQuery(ctx context.Context, query string, variables, contextOverride map[string]any) (any, error) {
	if cp.Execute == nil {
		return nil, fmt.Errorf("module: executeQuery callback not configured for this invocation")
	}
	return cp.Execute(ctx, query, variables, contextOverride)
}

// ProceedCall implements op_operation_proceed: only valid for an Around
// interceptor's invocation.
func (cp *CallbackProcessor) ProceedCall(ctx context.Context) (any, error) {
	if cp.Proceed == nil {
		return nil, fmt.Errorf("module: proceed() called outside an around-interceptor invocation")
	}
	return cp.Proceed(ctx)
}

// Pool bounds how many ModuleMethod invocations run concurrently, the way
// spec.md §5 describes workers as "owned one-at-a-time": Run blocks until a
// slot is free, then hands the invocation to Worker.
type Pool struct {
	sem    *semaphore.Weighted
	worker Worker
}

// NewPool constructs a pool with room for `size` concurrent invocations.
func NewPool(worker Worker, size int64) *Pool {
	return &Pool{sem: semaphore.NewWeighted(size), worker: worker}
}

// Run acquires a worker slot, invokes method, and releases the slot once the
// script returns (or the context is cancelled while waiting).
func (p *Pool) Run(ctx context.Context, sys *ir.System, method *ir.ModuleMethod, args map[string]any, cb *CallbackProcessor) (any, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("module: waiting for a free worker slot: %w", err)
	}
	defer p.sem.Release(1)

	script := sys.Script(method.Script)
	return p.worker.Invoke(ctx, method, script, args, cb)
}
