package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"memento/internal/config"
)

// app carries the process dependencies so commands can run against an
// in-memory filesystem and buffers in tests.
type app struct {
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	logger     *slog.Logger
}

func main() {
	a := &app{
		fs:     afero.NewOsFs(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "memento-comment",
		Short:         "Render git-memento session notes as GitHub comment bodies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "Path to the renderer configuration file (YAML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log pipeline details to stderr")

	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newNoSessionCmd(a))
	root.AddCommand(newInspectCmd(a))
	return root
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(a.fs, a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (a *app) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a.logger
}

// readNote reads the note from path, or from stdin when path is empty or "-".
func (a *app) readNote(args []string) (string, string, error) {
	path := "-"
	if len(args) > 0 {
		path = args[0]
	}
	data, err := readInput(a.fs, path, a.stdin)
	if err != nil {
		return "", path, err
	}
	return string(data), path, nil
}
