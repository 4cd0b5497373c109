package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithSessionAddsFieldOnce(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	ctx, _ = WithSession(ctx, "s1")
	_, log := WithSession(ctx, "s1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["session"] != "s1" {
		t.Fatalf("expected session field, got %+v", entry)
	}
	if n := bytes.Count(capture.buf.Bytes(), []byte(`"session"`)); n != 1 {
		t.Fatalf("expected session field once, got %d in %s", n, capture.buf.String())
	}
}

func TestWithSessionEmptyKeepsLogger(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	next, log := WithSession(ctx, "")
	if next != ctx {
		t.Fatalf("expected context to be unchanged")
	}
	log.Info("hello")
	entry := capture.firstEntry(t)
	if _, ok := entry["session"]; ok {
		t.Fatalf("did not expect session field, got %+v", entry)
	}
}

func TestWithJobAddsFields(t *testing.T) {
	capture := &logCapture{}
	log := WithJob(WithCommand(newCaptureLogger(capture), "sleep", 1), 3, 4242)
	log.Info("job started")

	entry := capture.firstEntry(t)
	if entry["cmd"] != "sleep" {
		t.Fatalf("expected cmd field, got %+v", entry)
	}
	if entry["job"] != float64(3) || entry["pid"] != float64(4242) {
		t.Fatalf("expected job and pid fields, got %+v", entry)
	}
}

func TestWithJobSkipsZeroValues(t *testing.T) {
	capture := &logCapture{}
	WithJob(newCaptureLogger(capture), 0, 0).Info("hello")
	entry := capture.firstEntry(t)
	if _, ok := entry["job"]; ok {
		t.Fatalf("did not expect job field, got %+v", entry)
	}
	if _, ok := entry["pid"]; ok {
		t.Fatalf("did not expect pid field, got %+v", entry)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
