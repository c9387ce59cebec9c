package menu

import (
	"context"
	"errors"
	"fmt"

	"media-inspector/internal/actions"
	"media-inspector/internal/logging"
)

// ErrNoScriptEngine is returned for a script action without an engine.
var ErrNoScriptEngine = errors.New("no script engine configured")

// Opener opens files on behalf of the menu. The helper client implements it.
type Opener interface {
	Open(ctx context.Context, path string) error
	OpenWith(ctx context.Context, path, app string) error
}

// ScriptEngine runs the script attached to an entry.
type ScriptEngine interface {
	Run(ctx context.Context, script string, args []string) (actions.Output, error)
}

// Executor runs a program and captures its output.
type Executor interface {
	Exec(ctx context.Context, command string, args []string) (actions.Output, error)
}

// ExecEngine runs scripts as external programs through an Executor.
type ExecEngine struct {
	Exec Executor
}

// Run implements ScriptEngine.
func (e ExecEngine) Run(ctx context.Context, script string, args []string) (actions.Output, error) {
	if script == "" {
		return actions.Output{Status: -1}, actions.ErrEmptyCommand
	}
	return e.Exec.Exec(ctx, script, args)
}

// Perform runs the action of an activated entry. Only script actions
// produce output.
func Perform(ctx context.Context, a Action, opener Opener, scripts ScriptEngine) (actions.Output, error) {
	switch a.Kind {
	case ActionNone, "":
		return actions.Output{}, nil
	case ActionOpen:
		return actions.Output{}, opener.Open(ctx, a.Path)
	case ActionOpenWith:
		return actions.Output{}, opener.OpenWith(ctx, a.Path, a.App)
	case ActionScript:
		if scripts == nil {
			return actions.Output{Status: -1}, ErrNoScriptEngine
		}
		out, err := scripts.Run(ctx, a.Script, a.Args)
		if err == nil && out.Status != 0 {
			logging.Warn("Script %s exited with status %d", a.Script, out.Status)
		}
		return out, err
	}
	return actions.Output{Status: -1}, fmt.Errorf("unknown action %q", a.Kind)
}
