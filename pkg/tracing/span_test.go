package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSpanTree(t *testing.T) {
	ctx, root := Start(context.Background(), "search", "")
	if root.TraceID == "" || len(root.TraceID) != 16 {
		t.Fatalf("trace id = %q", root.TraceID)
	}
	_, parse := Child(ctx, "parse")
	parse.Set("terms", 2)
	parse.End()
	_, open := Child(ctx, "bm25f")
	root.End()

	if FromContext(ctx) != root {
		t.Error("FromContext should return the root")
	}
	if parse.TraceID != root.TraceID {
		t.Errorf("child trace id %q != root %q", parse.TraceID, root.TraceID)
	}
	stages := root.Stages()
	if len(stages) != 1 || stages[0].Name != "parse" || stages[0].Duration <= 0 {
		t.Errorf("stages = %+v (unended %q must be skipped)", stages, open.Name)
	}
	first := root.Duration()
	if root.End() != first {
		t.Error("End should keep the first duration")
	}
}

func TestLogValue(t *testing.T) {
	ctx, root := Start(context.Background(), "search", "abc")
	_, child := Child(ctx, "fuse")
	child.Set("results", 3)
	child.End()
	root.End()

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("search trace", "trace", root)
	var rec struct {
		Trace map[string]any `json:"trace"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	fuse, ok := rec.Trace["fuse"].(map[string]any)
	if !ok || fuse["results"] != float64(3) {
		t.Errorf("trace = %v", rec.Trace)
	}
}

func TestChildWithoutParent(t *testing.T) {
	_, span := Child(context.Background(), "orphan")
	if span.TraceID != "" {
		t.Errorf("orphan trace id = %q", span.TraceID)
	}
	if FromContext(context.Background()) != nil {
		t.Error("empty context should carry no span")
	}
}
