package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aglyzov/go-part/internal/xlog"
)

// app is the state shared by all commands
type app struct {
	logLevel string
	logFile  string

	logger zerolog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "partbench",
		Short:         "Benchmark and explore persistent adaptive radix trees",
		SilenceUsage:  true,
		SilenceErrors: false,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setLogger(cmd, xlog.DefaultConfig())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error, off")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "also write JSON logs to this rotated file")

	root.AddCommand(
		newRunCmd(a),
		newDumpCmd(a),
		newShellCmd(a),
	)
	return root
}

// setLogger (re)builds the logger from cfg; the global flags win over cfg when given.
func (a *app) setLogger(cmd *cobra.Command, cfg xlog.Config) error {
	flags := cmd.Flags()
	if flags.Changed("log-level") || cfg.Level == "" {
		cfg.Level = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.File = a.logFile
	}

	logger, closer, err := xlog.New(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := a.close(); err != nil {
		return err
	}
	a.logger, a.closer = logger, closer
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
