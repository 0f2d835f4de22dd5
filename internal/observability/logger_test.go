package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := WithRequestID(context.Background(), "req-123")
	log.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}

	if rec["request_id"] != "req-123" {
		t.Fatalf("missing request_id: %v", rec)
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("trace_id without an active span: %v", rec)
	}
}

func TestLogger_LevelByEnv(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be off outside dev: %s", buf.String())
	}

	newLogger(&buf, "dev").Debug("shown")
	if buf.Len() == 0 {
		t.Fatalf("debug should be on in dev")
	}
}

func TestProm_NilSafe(t *testing.T) {
	var p *Prom

	called := false
	if err := p.ObserveDB("op", func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("nil Prom must still run fn")
	}

	p.CacheResult("hit")
	p.AddUploadedBytes(10)
}
