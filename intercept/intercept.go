// Package intercept splices a top-level operation's interception tree
// (ir.InterceptionMap) around the core field resolution, the way the
// teacher's privacy package composes rules around a query/mutation -- but
// here the tree shape itself (Before/After/Around/Sequence) comes from the
// IR rather than being assembled by the caller (spec.md §5 "Interception").
package intercept

import (
	"context"
	"fmt"

	"github.com/exograph/exograph/ir"
)

// Invoker executes one interceptor or the operation's core resolution.
// module.Pool implements this against the JS/TS worker pool; tests use a
// recording fake.
type Invoker interface {
	// InvokeLeaf calls a Before/After interceptor method and returns its
	// result, which the caller discards for both kinds. For an After
	// interceptor, proceed returns the core resolution's result.
	InvokeLeaf(ctx context.Context, method ir.MethodId, proceed func(context.Context) (any, error)) (any, error)

	// InvokeAround calls an Around interceptor, handing it a `proceed`
	// closure that runs the wrapped subtree exactly once. The interceptor
	// method itself decides whether and when to call it.
	InvokeAround(ctx context.Context, method ir.MethodId, proceed func(context.Context) (any, error)) (any, error)

	// InvokeCore runs the operation's own resolution (the Postgres query
	// plan, or a module method), once the interception tree bottoms out.
	InvokeCore(ctx context.Context) (any, error)
}

// Run resolves operationName's interception tree against sys (nil tree
// means no interceptors bound, so Run falls straight through to core
// resolution) and returns whatever InvokeCore ultimately produced.
func Run(ctx context.Context, sys *ir.System, interceptions ir.InterceptionMap, operationName string, inv Invoker) (any, error) {
	node, ok := interceptions[operationName]
	if !ok {
		return inv.InvokeCore(ctx)
	}
	return runNode(ctx, sys, node, inv)
}

func runNode(ctx context.Context, sys *ir.System, node ir.InterceptorNode, inv Invoker) (any, error) {
	switch node.Kind {
	case ir.NodeLeaf:
		return runSequence(ctx, sys, []ir.InterceptorNode{node}, inv)

	case ir.NodeAround:
		around := sys.Interceptor(node.AroundInterceptor)
		if around.Kind != ir.Around {
			return nil, fmt.Errorf("intercept: node %d references a non-Around interceptor", node.AroundInterceptor)
		}
		return inv.InvokeAround(ctx, around.Method, func(innerCtx context.Context) (any, error) {
			return runChildren(innerCtx, sys, node.Children, inv)
		})

	case ir.NodeSequence:
		return runSequence(ctx, sys, node.Sequence, inv)

	default:
		return nil, fmt.Errorf("intercept: unknown interceptor node kind %v", node.Kind)
	}
}

// runChildren runs an Around node's wrapped subtree: if there are no
// children at all the wrapped operation IS the core resolution; otherwise
// the children form the remaining Before/After/Around chain.
func runChildren(ctx context.Context, sys *ir.System, children []ir.InterceptorNode, inv Invoker) (any, error) {
	if len(children) == 0 {
		return inv.InvokeCore(ctx)
	}
	return runSequence(ctx, sys, children, inv)
}

// runSequence threads Before interceptors (discarding their return value,
// matching spec.md §5 "Before interceptors run for side effects only"),
// then core resolution, then After interceptors in declared order. An
// Around anywhere in the sequence wraps everything declared after it.
func runSequence(ctx context.Context, sys *ir.System, nodes []ir.InterceptorNode, inv Invoker) (any, error) {
	if len(nodes) == 0 {
		return inv.InvokeCore(ctx)
	}

	head := nodes[0]
	rest := nodes[1:]

	if head.Kind == ir.NodeAround {
		around := sys.Interceptor(head.AroundInterceptor)
		return inv.InvokeAround(ctx, around.Method, func(innerCtx context.Context) (any, error) {
			if len(head.Children) > 0 {
				if _, err := runChildren(innerCtx, sys, head.Children, inv); err != nil {
					return nil, err
				}
			}
			return runSequence(innerCtx, sys, rest, inv)
		})
	}

	if head.Kind == ir.NodeLeaf {
		it := sys.Interceptor(head.Leaf)
		switch it.Kind {
		case ir.Before:
			if _, err := runLeaf(ctx, inv, it); err != nil {
				return nil, err
			}
			return runSequence(ctx, sys, rest, inv)
		case ir.After:
			result, err := runSequence(ctx, sys, rest, inv)
			if err != nil {
				return nil, err
			}
			if _, aerr := inv.InvokeLeaf(ctx, it.Method, func(context.Context) (any, error) { return result, nil }); aerr != nil {
				return nil, aerr
			}
			return result, nil
		default:
			return nil, fmt.Errorf("intercept: leaf node references an Around interceptor %d", head.Leaf)
		}
	}

	return runNode(ctx, sys, head, inv)
}

func runLeaf(ctx context.Context, inv Invoker, it *ir.Interceptor) (any, error) {
	switch it.Kind {
	case ir.Before, ir.After:
		return inv.InvokeLeaf(ctx, it.Method, func(innerCtx context.Context) (any, error) { return nil, nil })
	default:
		return nil, fmt.Errorf("intercept: leaf node references a non-leaf interceptor kind %v", it.Kind)
	}
}
