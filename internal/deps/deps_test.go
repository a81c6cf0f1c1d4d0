package deps

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "#!/bin/sh\nexit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Command != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" || !results[2].Optional {
		t.Fatalf("unexpected blank requirement result %#v", results[2])
	}
}

func TestCheckPythonModule(t *testing.T) {
	dir := t.TempDir()
	ok := writeStub(t, dir, "python-ok", "#!/bin/sh\nexit 0\n")
	broken := writeStub(t, dir, "python-broken", "#!/bin/sh\necho 'Traceback' >&2\necho \"ModuleNotFoundError: No module named 'faster_whisper'\" >&2\nexit 1\n")

	if status := CheckPythonModule(context.Background(), ok, "faster_whisper", "speech recognition"); !status.Available {
		t.Fatalf("expected module available, got %#v", status)
	}

	status := CheckPythonModule(context.Background(), broken, "faster_whisper", "speech recognition")
	if status.Available {
		t.Fatal("expected import failure")
	}
	if !strings.Contains(status.Detail, "No module named") {
		t.Fatalf("detail should carry the last output line, got %q", status.Detail)
	}

	missing := CheckPythonModule(context.Background(), filepath.Join(dir, "nope"), "faster_whisper", "")
	if missing.Available || !strings.Contains(missing.Detail, "not found") {
		t.Fatalf("expected missing interpreter, got %#v", missing)
	}
}
