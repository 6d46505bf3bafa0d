package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunDryRun(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-dry-run", "-datadir", t.TempDir(), "-network", "test"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "network=test") {
		t.Fatalf("dry run output %q", out)
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-no-such-flag"}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code %d for unknown flag", code)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-network", "bogus", "-dry-run"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code %d for bad network", code)
	}
}
