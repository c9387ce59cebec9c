package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"media-inspector/internal/bridge"
	"media-inspector/internal/helper"
	"media-inspector/internal/inspector"
	"media-inspector/internal/logging"
	"media-inspector/internal/settings"
	"media-inspector/internal/startup"

	"github.com/spf13/cobra"
)

// options holds the flags shared by every command.
type options struct {
	helperAddr  string
	infoTimeout time.Duration
	execTimeout time.Duration
	verbose     bool
	quiet       bool
}

// exitError carries the status of a command run on the helper.
type exitError struct {
	status int
}

func (e exitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.status)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	root := newRootCmd(os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.status)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	env := startup.FromEnv()
	opts := &options{
		helperAddr:  env.HelperAddr,
		infoTimeout: env.InfoTimeout,
		execTimeout: env.ExecTimeout,
	}

	root := &cobra.Command{
		Use:   "mediainfo",
		Short: "Inspect media files through the media-inspector helper",
		Long: `mediainfo classifies a file or folder, asks the media-inspector helper
for its metadata and prints the contextual menu built from the settings.
Menu entries can be activated, and the helper can open files and run
commands on behalf of the client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case opts.verbose:
				logging.SetLevel(logging.LevelDebug)
			case opts.quiet:
				logging.SetLevel(logging.LevelError)
			}
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.helperAddr, "helper", opts.helperAddr, "helper address (HELPER_ADDR)")
	flags.DurationVar(&opts.infoTimeout, "info-timeout", opts.infoTimeout, "metadata request timeout (INFO_TIMEOUT)")
	flags.DurationVar(&opts.execTimeout, "exec-timeout", opts.execTimeout, "command timeout (EXEC_TIMEOUT)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")

	root.AddCommand(
		newInspectCmd(opts),
		newOpenCmd(opts),
		newOpenWithCmd(opts),
		newLaunchCmd(opts),
		newExecCmd(opts),
		newSettingsCmd(opts),
		newVersionCmd(),
	)
	return root
}

// withClient runs fn with a helper client whose callbacks are delivered on
// a loop that lives for the duration of the command.
func withClient(ctx context.Context, opts *options, fn func(*helper.Client) error) error {
	loop := bridge.NewLoop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Debug("loop stopped: %v", err)
		}
	}()
	defer func() {
		loop.Close()
		<-done
	}()

	client := helper.New(helper.Config{
		Addr:        opts.helperAddr,
		Loop:        loop,
		InfoTimeout: opts.infoTimeout,
		ExecTimeout: opts.execTimeout,
	})
	return fn(client)
}

func newInspectCmd(opts *options) *cobra.Command {
	var (
		asJSON       bool
		settingsFile string
		activate     string
	)
	cmd := &cobra.Command{
		Use:   "inspect PATH",
		Short: "Print the menu of a file or folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withClient(ctx, opts, func(client *helper.Client) error {
				s, err := loadSettings(ctx, client, settingsFile)
				if err != nil {
					return err
				}
				ins := inspector.New(client, settings.NewHolder(s))
				req, err := ins.Inspect(ctx, args[0])
				if err != nil {
					if errors.Is(err, helper.ErrNoInfo) || errors.Is(err, inspector.ErrUnsupported) {
						fmt.Fprintf(cmd.OutOrStdout(), "No information available for %s\n", args[0])
						return nil
					}
					return err
				}

				if activate != "" {
					index, err := parseIndex(activate)
					if err != nil {
						return err
					}
					out, err := ins.Activate(ctx, index...)
					if out.Output != "" {
						fmt.Fprint(cmd.OutOrStdout(), out.Output)
					}
					if err != nil {
						return err
					}
					if out.Status != 0 {
						return exitError{status: out.Status}
					}
					return nil
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(req)
				}
				printMenu(cmd.OutOrStdout(), req.Menu, terminalWidth(cmd.OutOrStdout()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the record and menu as JSON")
	cmd.Flags().StringVar(&settingsFile, "settings", "", "use settings from a YAML file instead of the helper")
	cmd.Flags().StringVar(&activate, "activate", "", "activate the entry at this index (e.g. 0.2)")
	return cmd
}

// loadSettings reads settings from file when given, otherwise from the
// helper, falling back to the defaults when the helper has none to give.
func loadSettings(ctx context.Context, client *helper.Client, file string) (settings.Settings, error) {
	if file != "" {
		s, err := settings.LoadFromFile(file)
		if err != nil {
			return settings.Settings{}, fmt.Errorf("failed to load settings from %s: %w", file, err)
		}
		return s, nil
	}
	s, err := client.Settings(ctx)
	if err != nil {
		logging.Warn("Using default settings: %v", err)
		return settings.Default(), nil
	}
	return s, nil
}

// parseIndex turns "0.2" into {0, 2}.
func parseIndex(s string) ([]int, error) {
	parts := strings.Split(s, ".")
	index := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid entry index %q", s)
		}
		index = append(index, n)
	}
	return index, nil
}

func newOpenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open PATH",
		Short: "Open a file with its default application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), opts, func(client *helper.Client) error {
				return client.Open(cmd.Context(), args[0])
			})
		},
	}
}

func newOpenWithCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open-with PATH APP",
		Short: "Open a file with the given application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), opts, func(client *helper.Client) error {
				return client.OpenWith(cmd.Context(), args[0], args[1])
			})
		},
	}
}

func newLaunchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "launch APP",
		Short: "Start an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), opts, func(client *helper.Client) error {
				return client.Launch(cmd.Context(), args[0])
			})
		},
	}
}

func newExecCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "exec COMMAND [ARGS...]",
		Short: "Run a command on the helper and print its output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), opts, func(client *helper.Client) error {
				out, err := client.Exec(cmd.Context(), args[0], args[1:])
				fmt.Fprint(cmd.OutOrStdout(), out.Output)
				if err != nil {
					return err
				}
				if out.Status != 0 {
					return exitError{status: out.Status}
				}
				return nil
			})
		},
	}
}

func newSettingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Export or import the helper settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the helper settings as YAML to FILE or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), opts, func(client *helper.Client) error {
				s, err := client.Settings(cmd.Context())
				if err != nil {
					return err
				}
				if len(args) == 1 {
					if err := settings.SaveToFile(args[0], s); err != nil {
						return fmt.Errorf("failed to write %s: %w", args[0], err)
					}
					logging.Info("Settings exported to %s", args[0])
					return nil
				}
				data, err := settings.Marshal(s)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Replace the helper settings with a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.LoadFromFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}
			return withClient(cmd.Context(), opts, func(client *helper.Client) error {
				if err := client.PutSettings(cmd.Context(), s); err != nil {
					return err
				}
				logging.Info("Settings imported from %s", args[0])
				return nil
			})
		},
	})
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := startup.GetBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "mediainfo %s (commit %s, built %s, %s %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
		},
	}
}
