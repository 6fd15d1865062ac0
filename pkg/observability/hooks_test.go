package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnBatchStart(ctx, "run", 10)
	p.OnCombinationStart(ctx, 0, "a_b_left")
	p.OnCombinationComplete(ctx, 0, "a_b_left", time.Second, nil)
	p.OnCombinationSkipped(ctx, 1, "a_b_left", "overlap")
	p.OnBatchComplete(ctx, "run", 9, 1, 0, time.Minute)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "done")
	c.OnCacheMiss(ctx, "done")
	c.OnCacheSet(ctx, "done", 64)

	NoopHTTPHooks{}.OnResponse(ctx, "GET", "/api/records", 200, time.Millisecond)
}

type testPipelineHooks struct {
	NoopPipelineHooks
	started int
}

func (h *testPipelineHooks) OnCombinationStart(context.Context, int, string) { h.started++ }

type testCacheHooks struct {
	NoopCacheHooks
	hits int
}

func (h *testCacheHooks) OnCacheHit(context.Context, string) { h.hits++ }

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	p := &testPipelineHooks{}
	SetPipelineHooks(p)
	Pipeline().OnCombinationStart(context.Background(), 0, "x")
	if p.started != 1 {
		t.Errorf("custom pipeline hook not called: %d", p.started)
	}

	c := &testCacheHooks{}
	SetCacheHooks(c)
	Cache().OnCacheHit(context.Background(), "done")
	if c.hits != 1 {
		t.Errorf("custom cache hook not called: %d", c.hits)
	}

	SetPipelineHooks(nil)
	if Pipeline() != PipelineHooks(p) {
		t.Error("nil should not replace registered hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset should restore noop hooks")
	}
}
