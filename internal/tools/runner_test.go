package tools

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCapturesStdout(t *testing.T) {
	out, _, code, err := ExecRunner{}.Run("sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(string(out), "hello") {
		t.Fatalf("unexpected stdout: %q", string(out))
	}
}

func TestRunReportsExitCodeAndStderr(t *testing.T) {
	_, errOut, code, err := ExecRunner{}.Run("sh", "-c", "echo oops >&2; exit 3")
	if err == nil {
		t.Fatalf("expected error for exit 3")
	}
	if code != 3 {
		t.Fatalf("expected exit 3, got %d", code)
	}
	if !strings.Contains(string(errOut), "oops") {
		t.Fatalf("unexpected stderr: %q", string(errOut))
	}
}

func TestRunMissingBinaryReportsExitMissing(t *testing.T) {
	_, _, code, err := ExecRunner{}.Run("su2ctl-no-such-binary")
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
	if code != ExitMissing {
		t.Fatalf("expected exit %d, got %d", ExitMissing, code)
	}
}

func TestStreamAppliesDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	var out bytes.Buffer
	inv := Invocation{
		Name: "sh",
		Args: []string{"-c", `ls; printf '%s' "$SU2CTL_TEST_ENV"`},
		Dir:  dir,
		Env:  map[string]string{"SU2CTL_TEST_ENV": "wired"},
	}
	if err := (ExecRunner{}).Stream(context.Background(), inv, &out, &out); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !strings.Contains(out.String(), "marker") {
		t.Fatalf("expected dir listing in output, got %q", out.String())
	}
	if !strings.Contains(out.String(), "wired") {
		t.Fatalf("expected env value in output, got %q", out.String())
	}
}

func TestInvocationCommandString(t *testing.T) {
	inv := Invocation{Name: "make", Args: []string{"-j", "8"}}
	if got := inv.Command(); got != "make -j 8" {
		t.Fatalf("unexpected command string: %q", got)
	}
	if got := (Invocation{Name: "make"}).Command(); got != "make" {
		t.Fatalf("unexpected bare command string: %q", got)
	}
}
