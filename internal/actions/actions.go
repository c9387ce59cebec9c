package actions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"media-inspector/internal/logging"
	"media-inspector/internal/metrics"
)

// DefaultExecTimeout bounds commands run through Exec.
const DefaultExecTimeout = 30 * time.Second

// waitDelay bounds how long Exec waits for output pipes after the
// command was killed, since children may keep them open.
const waitDelay = time.Second

// ErrEmptyCommand is returned when no program was given.
var ErrEmptyCommand = errors.New("empty command")

// Output is the result of Exec: the exit status and the combined
// stdout/stderr. Status is -1 when the program could not be run.
type Output struct {
	Status int    `json:"status"`
	Output string `json:"output"`
}

// Request is the body of the helper action endpoints. Path is the file to
// open, the application to launch, or the command to run.
type Request struct {
	Path string   `json:"path"`
	App  string   `json:"app,omitempty"`
	Args []string `json:"args,omitempty"`
}

// Config configures a Runner.
type Config struct {
	// ExecTimeout bounds Exec. Zero uses DefaultExecTimeout.
	ExecTimeout time.Duration
	// Opener is the program that opens a file with its default
	// application. Empty selects the platform opener.
	Opener string
}

// Runner starts external programs on behalf of the client and tracks the
// ones still running so they can be stopped at shutdown.
type Runner struct {
	execTimeout time.Duration
	opener      string

	mu        sync.Mutex
	processes map[int]*exec.Cmd
	wg        sync.WaitGroup
}

// New creates a Runner.
func New(cfg Config) *Runner {
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = DefaultExecTimeout
	}
	if cfg.Opener == "" {
		cfg.Opener = platformOpener()
	}
	return &Runner{
		execTimeout: cfg.ExecTimeout,
		opener:      cfg.Opener,
		processes:   make(map[int]*exec.Cmd),
	}
}

func platformOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}

// Open opens path with its default application.
func (r *Runner) Open(ctx context.Context, path string) error {
	err := r.start(ctx, r.opener, path)
	record("open", err)
	return err
}

// OpenWith opens path with the given application.
func (r *Runner) OpenWith(ctx context.Context, path, app string) error {
	var err error
	if app == "" {
		err = ErrEmptyCommand
	} else if runtime.GOOS == "darwin" {
		err = r.start(ctx, "open", "-a", app, path)
	} else {
		err = r.start(ctx, app, path)
	}
	record("open_with", err)
	return err
}

// Launch starts an application. Bundles go through the opener on macOS.
func (r *Runner) Launch(ctx context.Context, app string) error {
	var err error
	if app == "" {
		err = ErrEmptyCommand
	} else if runtime.GOOS == "darwin" {
		err = r.start(ctx, "open", app)
	} else {
		err = r.start(ctx, app)
	}
	record("launch", err)
	return err
}

// Exec runs command with args, waits for it and returns its exit status and
// combined output. A non-zero exit status is not an error.
func (r *Runner) Exec(ctx context.Context, command string, args []string) (Output, error) {
	if command == "" {
		record("exec", ErrEmptyCommand)
		return Output{Status: -1}, ErrEmptyCommand
	}

	ctx, cancel := context.WithTimeout(ctx, r.execTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		err = fmt.Errorf("failed to start %s: %w", command, err)
		record("exec", err)
		return Output{Status: -1, Output: err.Error()}, err
	}
	r.track(cmd)
	err := cmd.Wait()
	r.untrack(cmd)

	res := Output{Status: 0, Output: out.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		err = fmt.Errorf("%s did not finish within %v: %w", command, r.execTimeout, ctx.Err())
		res.Status = -1
		record("exec", err)
		return res, err
	case errors.As(err, &exitErr):
		res.Status = exitErr.ExitCode()
	default:
		res.Status = -1
		record("exec", err)
		return res, err
	}
	logging.Debug("Executed %s (status %d) in %v", command, res.Status, time.Since(start))
	record("exec", nil)
	return res, nil
}

// start launches a detached program and reaps it in the background.
func (r *Runner) start(ctx context.Context, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	r.track(cmd)
	logging.Debug("Started %s %v (pid %d)", name, args, cmd.Process.Pid)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := cmd.Wait(); err != nil {
			logging.Debug("%s exited: %v", name, err)
		}
		r.untrack(cmd)
	}()
	return nil
}

func (r *Runner) track(cmd *exec.Cmd) {
	r.mu.Lock()
	r.processes[cmd.Process.Pid] = cmd
	n := len(r.processes)
	r.mu.Unlock()
	metrics.ProcessesRunning.Set(float64(n))
}

func (r *Runner) untrack(cmd *exec.Cmd) {
	r.mu.Lock()
	delete(r.processes, cmd.Process.Pid)
	n := len(r.processes)
	r.mu.Unlock()
	metrics.ProcessesRunning.Set(float64(n))
}

// Running returns the number of tracked processes.
func (r *Runner) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processes)
}

// Wait blocks until every detached program has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Cleanup kills every tracked process and waits for the reapers.
func (r *Runner) Cleanup() {
	r.mu.Lock()
	for pid, cmd := range r.processes {
		logging.Info("Killing process %d (%s)", pid, cmd.Path)
		if err := cmd.Process.Kill(); err != nil {
			logging.Warn("failed to kill process %d: %v", pid, err)
		}
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func record(action string, err error) {
	status := "success"
	if err != nil {
		status = "error"
		logging.Warn("Action %s failed: %v", action, err)
	}
	metrics.ActionsTotal.WithLabelValues(action, status).Inc()
}
