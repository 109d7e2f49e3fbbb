package intercept

import (
	"context"
	"testing"

	"github.com/exograph/exograph/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingInvoker logs every call it receives in order, so tests can assert
// the exact splice order Run produced without a real JS worker pool.
type recordingInvoker struct {
	calls []string
	core  any
}

func (r *recordingInvoker) InvokeLeaf(ctx context.Context, method ir.MethodId, proceed func(context.Context) (any, error)) (any, error) {
	r.calls = append(r.calls, "leaf")
	return proceed(ctx)
}

func (r *recordingInvoker) InvokeAround(ctx context.Context, method ir.MethodId, proceed func(context.Context) (any, error)) (any, error) {
	r.calls = append(r.calls, "around-start")
	v, err := proceed(ctx)
	r.calls = append(r.calls, "around-end")
	return v, err
}

func (r *recordingInvoker) InvokeCore(ctx context.Context) (any, error) {
	r.calls = append(r.calls, "core")
	return r.core, nil
}

func sysWithInterceptors(kinds ...ir.InterceptorKind) *ir.System {
	interceptors := make([]ir.Interceptor, len(kinds))
	for i, k := range kinds {
		interceptors[i] = ir.Interceptor{Kind: k, Method: ir.MethodId(i)}
	}
	return &ir.System{Interceptors: interceptors}
}

func TestRun_NoInterceptionFallsThroughToCore(t *testing.T) {
	sys := &ir.System{}
	inv := &recordingInvoker{core: "result"}

	v, err := Run(context.Background(), sys, ir.InterceptionMap{}, "venues", inv)

	require.NoError(t, err)
	assert.Equal(t, "result", v)
	assert.Equal(t, []string{"core"}, inv.calls)
}

func TestRun_BeforeThenCoreThenAfter(t *testing.T) {
	sys := sysWithInterceptors(ir.Before, ir.After)
	inv := &recordingInvoker{core: "result"}
	tree := ir.InterceptionMap{
		"venues": {
			Kind: ir.NodeSequence,
			Sequence: []ir.InterceptorNode{
				{Kind: ir.NodeLeaf, Leaf: 0},
				{Kind: ir.NodeLeaf, Leaf: 1},
			},
		},
	}

	v, err := Run(context.Background(), sys, tree, "venues", inv)

	require.NoError(t, err)
	assert.Equal(t, "result", v)
	assert.Equal(t, []string{"leaf", "core", "leaf"}, inv.calls)
}

func TestRun_AroundWrapsCore(t *testing.T) {
	sys := sysWithInterceptors(ir.Around)
	inv := &recordingInvoker{core: "result"}
	tree := ir.InterceptionMap{
		"venues": {Kind: ir.NodeAround, AroundInterceptor: 0},
	}

	v, err := Run(context.Background(), sys, tree, "venues", inv)

	require.NoError(t, err)
	assert.Equal(t, "result", v)
	assert.Equal(t, []string{"around-start", "core", "around-end"}, inv.calls)
}
