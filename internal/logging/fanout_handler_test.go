package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerEnabledIfAnyChildAccepts(t *testing.T) {
	var buf bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be enabled through the debug child")
	}

	h = newFanoutHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info to be disabled")
	}
}

func TestFanoutHandlerSplitsByLevel(t *testing.T) {
	var all, errs bytes.Buffer
	logger := slog.New(TeeHandler(
		newPrettyHandler(&all, slog.LevelDebug, false),
		newPrettyHandler(&errs, slog.LevelError, false),
	))

	logger.Info("connected")
	logger.Error("publish failed", Error(errTest("boom")))

	if !strings.Contains(all.String(), "connected") || !strings.Contains(all.String(), "publish failed") {
		t.Fatalf("expected both records in main sink, got %q", all.String())
	}
	if strings.Contains(errs.String(), "connected") {
		t.Fatalf("error sink received info record: %q", errs.String())
	}
	if !strings.Contains(errs.String(), "error=boom") {
		t.Fatalf("expected error record in error sink, got %q", errs.String())
	}
}

func TestFanoutHandlerWithAttrsAndGroup(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("key", "value")}).WithGroup("broker"))
	logger.Info("test", slog.String("host", "h"))

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"key":"value"`)) {
			t.Errorf("sink %d missing attribute: %s", i, buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte(`"broker":{"host":"h"}`)) {
			t.Errorf("sink %d missing group: %s", i, buf.String())
		}
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
