// Command simloop drives the tick scheduler and batch dispatcher.
//
// Usage:
//
//	go run ./cmd/simloop run --frequency 60 --entities 10000 --duration 10s
//	go run ./cmd/simloop precision --frequency 60 -n 300
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/randomizedcoder/simloop/internal/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "simloop:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "simloop",
		Short:         "Fixed-rate simulation loop with a parallel batch dispatcher",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (overrides config)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newPrecisionCommand(opts))

	return cmd
}

// loadConfig reads the config file if one was given, then applies the
// global flag overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(o.ConfigPath); err != nil {
			return config.Config{}, err
		}
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return cfg, nil
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// setMaxProcs aligns GOMAXPROCS with the container CPU quota before the
// worker pool is sized from it.
func setMaxProcs(log zerolog.Logger) func() {
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug().Msgf(format, args...)
	}))
	if err != nil {
		log.Warn().Err(err).Msg("could not apply CPU quota to GOMAXPROCS")
	}
	return undo
}
