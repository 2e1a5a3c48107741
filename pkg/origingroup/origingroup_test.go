package origingroup

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewAppliesDefaults(t *testing.T) {
	g := New([]Origin{{Host: "10.0.0.1"}}, 0, 1)

	if g.Origins[0].HTTPPort != 80 {
		t.Errorf("HTTPPort = %d, want 80", g.Origins[0].HTTPPort)
	}
	if g.Origins[0].HTTPSPort != 443 {
		t.Errorf("HTTPSPort = %d, want 443", g.Origins[0].HTTPSPort)
	}
	if g.Origins[0].Weight != 10 {
		t.Errorf("Weight = %d, want 10", g.Origins[0].Weight)
	}
	if g.OriginDownTime != 10*time.Second {
		t.Errorf("OriginDownTime = %v, want 10s", g.OriginDownTime)
	}
}

func TestUnmarshalJSONInitializesState(t *testing.T) {
	data := []byte(`{"origins":[{"host":"10.0.0.1","weight":5},{"host":"10.0.0.2","weight":5}],"origin_down_time":30,"connection_retry_limit":2}`)

	var g Group
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if g.OriginDownTime != 30*time.Second {
		t.Errorf("OriginDownTime = %v, want 30s", g.OriginDownTime)
	}
	if _, _, ok := g.PickNext(nil); !ok {
		t.Error("expected PickNext to succeed on freshly decoded group")
	}
}

func TestValidateRejectsEmptyGroup(t *testing.T) {
	g := New(nil, 0, 1)
	if err := g.Validate(); err == nil {
		t.Fatal("expected error for empty origin group")
	}
}

func TestValidateRejectsZeroWeight(t *testing.T) {
	g := &Group{Origins: []Origin{{Host: "10.0.0.1", Weight: 0, HTTPPort: 80, HTTPSPort: 443}}}
	g.states = make([]state, 1)
	if err := g.Validate(); err == nil {
		t.Fatal("expected error for zero total weight")
	}
}

func TestPickNextExcludesMarkedDown(t *testing.T) {
	g := New([]Origin{
		{Host: "10.0.0.1", Weight: 10},
		{Host: "10.0.0.2", Weight: 10},
	}, time.Minute, 1)

	g.MarkDown(0)

	for i := 0; i < 20; i++ {
		_, idx, ok := g.PickNext(nil)
		if !ok {
			t.Fatal("expected a pick")
		}
		if idx == 0 {
			t.Fatal("picked origin that was marked down")
		}
	}
}

func TestPickNextFallsBackWhenAllDown(t *testing.T) {
	g := New([]Origin{
		{Host: "10.0.0.1", Weight: 10},
	}, time.Minute, 1)
	g.MarkDown(0)

	_, idx, ok := g.PickNext(nil)
	if !ok {
		t.Fatal("expected fallback pick when every origin is down")
	}
	if idx != 0 {
		t.Errorf("idx = %d, want 0", idx)
	}
}

func TestPickNextReturnsFalseWhenAllExcluded(t *testing.T) {
	g := New([]Origin{{Host: "10.0.0.1", Weight: 10}}, 0, 1)

	_, _, ok := g.PickNext(map[int]struct{}{0: {}})
	if ok {
		t.Fatal("expected no pick when the only origin is excluded")
	}
}

func TestMarkDownThenDownUntilIsInFuture(t *testing.T) {
	g := New([]Origin{{Host: "10.0.0.1", Weight: 10}}, time.Minute, 1)
	before := time.Now()
	g.MarkDown(0)

	until := g.DownUntil(0)
	if !until.After(before) {
		t.Errorf("DownUntil = %v, want after %v", until, before)
	}
}

func TestRetryLimit(t *testing.T) {
	g := New([]Origin{{Host: "10.0.0.1", Weight: 10}}, 0, 3)
	if g.RetryLimit() != 3 {
		t.Errorf("RetryLimit() = %d, want 3", g.RetryLimit())
	}
}
