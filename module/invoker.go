package module

import (
	"context"
	"fmt"

	"github.com/exograph/exograph/intercept"
	"github.com/exograph/exograph/ir"
)

// Invoker adapts a Pool into intercept.Invoker, so Before/After/Around
// interceptor methods and the operation's own ModuleMethod (when the core
// resolution itself is a module method rather than a Postgres query plan)
// all dispatch through the same bounded worker pool.
type Invoker struct {
	Pool *Pool
	Sys  *ir.System

	// Args supplies the arguments each interceptor method is invoked with
	// (typically just the injected context/shim arguments -- interceptors
	// never receive the operation's own GraphQL arguments).
	Args map[string]any

	// Core resolves the operation once the interception tree bottoms out.
	// For a Postgres-backed query/mutation this runs the SQL plan; for a
	// module-backed query/mutation it is itself a Pool.Run call.
	Core func(ctx context.Context) (any, error)
}

var _ intercept.Invoker = (*Invoker)(nil)

func (i *Invoker) InvokeLeaf(ctx context.Context, methodID ir.MethodId, proceed func(context.Context) (any, error)) (any, error) {
	method := i.Sys.Method(methodID)
	cb := &CallbackProcessor{Proceed: proceed}
	return i.Pool.Run(ctx, i.Sys, method, i.Args, cb)
}

func (i *Invoker) InvokeAround(ctx context.Context, methodID ir.MethodId, proceed func(context.Context) (any, error)) (any, error) {
	method := i.Sys.Method(methodID)
	cb := &CallbackProcessor{Proceed: proceed}
	return i.Pool.Run(ctx, i.Sys, method, i.Args, cb)
}

func (i *Invoker) InvokeCore(ctx context.Context) (any, error) {
	if i.Core == nil {
		return nil, fmt.Errorf("module: no core resolver configured")
	}
	return i.Core(ctx)
}
