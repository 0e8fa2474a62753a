// Package cli implements the handcast command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/handcast/internal/config"
	"github.com/ayusman/handcast/internal/logging"
)

// Version is the application version.
const Version = "0.1.0"

// env carries state shared by the subcommands once the root has loaded it.
type env struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "handcast",
		Short:         "Stream webcam hand landmarks to a game engine over UDP",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				e.logger.Sync()
			}
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&e.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(
		newRunCmd(e),
		newListenCmd(e),
		newReplayCmd(e),
		newSessionsCmd(e),
	)
	return root
}

// load reads the config file and builds the logger.
func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = e.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = e.logFormat
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.logger = logger
	return nil
}

// Execute runs the command line until it finishes or SIGINT/SIGTERM arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
