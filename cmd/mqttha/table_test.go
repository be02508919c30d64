package main

import (
	"io"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"

	"mqttha/internal/deps"
	"mqttha/internal/preflight"
)

func TestRenderCheckTableColors(t *testing.T) {
	rows := []checkRow{{"Tools", "mail", statusError, "binary \"mail\" not found"}}

	plain := renderCheckTable(rows, false)
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("unexpected color codes in plain output: %q", plain)
	}
	if !strings.Contains(plain, "ERROR") {
		t.Fatalf("expected status label, got %q", plain)
	}

	text.EnableColors()
	colored := renderCheckTable(rows, true)
	if !strings.Contains(colored, "\x1b[31m") {
		t.Fatalf("expected red status, got %q", colored)
	}
}

func TestDependencyRows(t *testing.T) {
	rows := dependencyRows([]deps.Status{
		{Name: "mail", Available: false, Detail: "binary \"mail\" not found"},
		{Name: "sh", Available: true, Path: "/bin/sh"},
		{Name: "follow-up", Available: false, Optional: true, Detail: "binary \"x\" not found"},
	})
	if rows[0].kind != statusError || rows[1].kind != statusOK || rows[2].kind != statusWarn {
		t.Fatalf("unexpected kinds: %+v", rows)
	}
	if rows[1].detail != "/bin/sh" {
		t.Fatalf("expected resolved path detail, got %q", rows[1].detail)
	}
}

func TestCountFailuresIgnoresOptional(t *testing.T) {
	failed := countFailures(
		[]preflight.Result{{Name: "Broker", Passed: true}, {Name: "Log directory"}},
		[]deps.Status{{Name: "follow-up", Optional: true}, {Name: "mail"}},
	)
	if failed != 2 {
		t.Fatalf("expected 2 failures, got %d", failed)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
