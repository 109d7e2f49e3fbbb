package module

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/exograph/exograph/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorker struct {
	inFlight  atomic.Int64
	maxSeen   atomic.Int64
	delay     time.Duration
	lastArgs  map[string]any
}

func (f *fakeWorker) Invoke(ctx context.Context, method *ir.ModuleMethod, script *ir.Script, args map[string]any, cb *CallbackProcessor) (any, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxSeen.Load()
		if n <= max || f.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}
	f.lastArgs = args
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if cb != nil {
		cb.AddHeader("x-from-script", method.Name)
	}
	return method.Name + ":done", nil
}

func testSystem() *ir.System {
	return &ir.System{
		Methods: []ir.ModuleMethod{{Name: "sendWelcomeEmail", Script: 0}},
		Scripts: []ir.Script{{Path: "welcome.ts"}},
	}
}

func TestPool_RunInvokesWorkerAndReturnsResult(t *testing.T) {
	sys := testSystem()
	w := &fakeWorker{}
	p := NewPool(w, 4)
	cb := &CallbackProcessor{}

	v, err := p.Run(context.Background(), sys, &sys.Methods[0], map[string]any{"id": 1}, cb)

	require.NoError(t, err)
	assert.Equal(t, "sendWelcomeEmail:done", v)
	assert.Equal(t, []HeaderPair{{Name: "x-from-script", Value: "sendWelcomeEmail"}}, cb.Headers())
	assert.Equal(t, map[string]any{"id": 1}, w.lastArgs)
}

func TestPool_BoundsConcurrentInvocations(t *testing.T) {
	sys := testSystem()
	w := &fakeWorker{delay: 20 * time.Millisecond}
	p := NewPool(w, 2)

	done := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, _ = p.Run(context.Background(), sys, &sys.Methods[0], nil, &CallbackProcessor{})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	assert.LessOrEqual(t, w.maxSeen.Load(), int64(2))
}

func TestCallbackProcessor_ExecuteQueryRequiresConfiguredCallback(t *testing.T) {
	cb := &CallbackProcessor{}
	_, err := cb.ExecuteQuery(context.Background(), "query { x }", nil, nil)
	assert.Error(t, err)
}

func TestCallbackProcessor_ProceedCallRequiresAroundContext(t *testing.T) {
	cb := &CallbackProcessor{}
	_, err := cb.ProceedCall(context.Background())
	assert.Error(t, err)
}
