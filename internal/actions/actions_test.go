package actions

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
}

// writeScript creates an executable shell script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestExec(t *testing.T) {
	requireShell(t)
	r := New(Config{})

	tests := []struct {
		name       string
		args       []string
		wantStatus int
		wantOutput string
	}{
		{"success", []string{"-c", "echo hello"}, 0, "hello\n"},
		{"exit status", []string{"-c", "echo oops >&2; exit 3"}, 3, "oops\n"},
		{"arguments", []string{"-c", `echo "$1-$2"`, "sh", "a", "b"}, 0, "a-b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Exec(context.Background(), "sh", tt.args)
			if err != nil {
				t.Fatalf("Exec() error = %v", err)
			}
			if out.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", out.Status, tt.wantStatus)
			}
			if out.Output != tt.wantOutput {
				t.Errorf("Output = %q, want %q", out.Output, tt.wantOutput)
			}
		})
	}
}

func TestExecErrors(t *testing.T) {
	r := New(Config{})

	out, err := r.Exec(context.Background(), "", nil)
	if !errors.Is(err, ErrEmptyCommand) || out.Status != -1 {
		t.Errorf("Exec(\"\") = %+v, %v, want status -1 and ErrEmptyCommand", out, err)
	}

	out, err = r.Exec(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	if err == nil || out.Status != -1 {
		t.Errorf("Exec(missing) = %+v, %v, want status -1 and an error", out, err)
	}
}

func TestExecTimeout(t *testing.T) {
	requireShell(t)
	r := New(Config{ExecTimeout: 100 * time.Millisecond})

	start := time.Now()
	out, err := r.Exec(context.Background(), "sh", []string{"-c", "sleep 5"})
	if err == nil {
		t.Fatal("Exec() error = nil, want timeout error")
	}
	if out.Status != -1 {
		t.Errorf("Status = %d, want -1", out.Status)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Exec() took %v, want it bounded by the timeout", elapsed)
	}
	if n := r.Running(); n != 0 {
		t.Errorf("Running() = %d after Exec, want 0", n)
	}
}

func TestOpenUsesOpener(t *testing.T) {
	requireShell(t)
	marker := filepath.Join(t.TempDir(), "opened")
	opener := writeScript(t, `echo "$1" > "`+marker+`"`)
	r := New(Config{Opener: opener})

	if err := r.Open(context.Background(), "/tmp/some file.png"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	r.Wait()

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("opener did not run: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "/tmp/some file.png" {
		t.Errorf("opener argument = %q, want %q", got, "/tmp/some file.png")
	}
}

func TestOpenWithAndLaunchValidation(t *testing.T) {
	r := New(Config{})
	if err := r.OpenWith(context.Background(), "/tmp/a", ""); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("OpenWith(no app) error = %v, want ErrEmptyCommand", err)
	}
	if err := r.Launch(context.Background(), ""); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("Launch(\"\") error = %v, want ErrEmptyCommand", err)
	}
	if err := r.Launch(context.Background(), filepath.Join(t.TempDir(), "missing-app")); err == nil && runtime.GOOS != "darwin" {
		t.Error("Launch(missing) error = nil, want an error")
	}
}

func TestOpenCanceledContext(t *testing.T) {
	r := New(Config{Opener: "true"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Open(ctx, "/tmp/a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
}

func TestCleanupKillsTrackedProcesses(t *testing.T) {
	requireShell(t)
	if runtime.GOOS == "darwin" {
		t.Skip("launch goes through open on darwin")
	}
	app := writeScript(t, "sleep 30")
	r := New(Config{})

	if err := r.Launch(context.Background(), app); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if n := r.Running(); n != 1 {
		t.Errorf("Running() = %d, want 1", n)
	}

	done := make(chan struct{})
	go func() {
		r.Cleanup()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Cleanup() did not return")
	}
	if n := r.Running(); n != 0 {
		t.Errorf("Running() after Cleanup = %d, want 0", n)
	}
}
