package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/simloop/internal/dispatch"
	"github.com/randomizedcoder/simloop/internal/loop"
	"github.com/randomizedcoder/simloop/internal/telemetry"
)

// runOptions holds flags for the run command. A zero frequency or worker
// count leaves the config untouched; entities and duration override it
// whenever the flag is given, so --duration 0 runs until interrupted.
type runOptions struct {
	*rootOptions
	Frequency int
	Workers   int
	Entities  int
	Duration  time.Duration
	Seed      uint64
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a particle simulation at a fixed tick rate",
		Long: `Run a particle simulation at a fixed tick rate.

Every tick the scheduler hands all particles to the batch dispatcher, which
steps them in parallel across the worker pool. Telemetry is logged every
report interval and a summary is printed when the run ends.

Example:
  simloop run --frequency 60 --entities 100000 --duration 30s
  simloop run -c simloop.yaml --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Frequency, "frequency", 0, "ticks per second")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "dispatcher workers (default GOMAXPROCS)")
	cmd.Flags().IntVar(&opts.Entities, "entities", 0, "number of particles")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "how long to run, 0 until interrupted (default from config)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed for the initial particles")

	return cmd
}

func runSimulation(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Frequency != 0 {
		cfg.Frequency = opts.Frequency
	}
	if opts.Workers != 0 {
		cfg.Workers = opts.Workers
	}
	if cmd.Flags().Changed("entities") {
		cfg.Entities = opts.Entities
	}
	if cmd.Flags().Changed("duration") {
		cfg.Duration = opts.Duration.String()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cmd.ErrOrStderr(), cfg.Level()).With().Str("run_id", uuid.NewString()).Logger()
	defer setMaxProcs(log)()

	rec, err := telemetry.NewRecorder()
	if err != nil {
		return err
	}

	particles := newParticles(cfg.Entities, opts.Seed)

	d, err := dispatch.New[*particle](cfg.PoolSize(), stepParticle,
		dispatch.WithLogger(log),
		dispatch.WithRecorder(rec),
	)
	if err != nil {
		return err
	}
	defer func() {
		d.Shutdown()
		d.Wait()
	}()

	s, err := loop.New(cfg.Frequency, loop.Funcs{
		Update: func(delta float64) error {
			return d.Update(particles, delta)
		},
	},
		loop.WithLogger(log),
		loop.WithRecorder(rec),
		loop.WithHeartbeat(cfg.Report()),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runFor := cfg.RunFor(); runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runFor)
		defer cancel()
	}

	log.Info().
		Int("frequency", cfg.Frequency).
		Int("workers", d.Workers()).
		Int("entities", len(particles)).
		Str("duration", cfg.Duration).
		Msg("simulation starting")

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.StartContext(gctx)
	})
	g.Go(func() error {
		report(gctx, s.Done(), rec, cfg.Report(), log)
		return nil
	})
	err = g.Wait()

	rec.Drain()
	printSummary(cmd.OutOrStdout(), rec.Total(), time.Since(start), s.ExpectedTickMillis())
	return err
}

// report logs a telemetry summary every interval until the scheduler is
// done or ctx ends.
func report(ctx context.Context, done <-chan struct{}, rec *telemetry.Recorder, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			s := rec.Drain()
			log.Info().
				Uint64("ticks", s.Ticks).
				Uint64("overruns", s.Overruns).
				Float64("mean_delta", s.MeanDelta()).
				Dur("max_update", s.MaxUpdate).
				Dur("mean_batch", s.MeanBatch()).
				Uint64("dropped", s.Dropped).
				Msg("telemetry")
		}
	}
}

func printSummary(w io.Writer, s telemetry.Summary, elapsed time.Duration, budgetMillis float64) {
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────")
	fmt.Fprintf(w, "  Elapsed:          %v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Ticks:            %d (%.1f/s)\n", s.Ticks, float64(s.Ticks)/elapsed.Seconds())
	fmt.Fprintf(w, "  Tick budget:      %.3f ms\n", budgetMillis)
	fmt.Fprintf(w, "  Mean delta:       %.4f\n", s.MeanDelta())
	fmt.Fprintf(w, "  Overruns:         %d\n", s.Overruns)
	fmt.Fprintf(w, "  Max update:       %v\n", s.MaxUpdate)
	fmt.Fprintf(w, "  Max tick:         %v\n", s.MaxTick)
	fmt.Fprintf(w, "  Batches:          %d (%d failed)\n", s.Batches, s.BatchFailed)
	fmt.Fprintf(w, "  Items updated:    %d\n", s.Items)
	fmt.Fprintf(w, "  Mean batch:       %v\n", s.MeanBatch())
	fmt.Fprintf(w, "  Dropped samples:  %d\n", s.Dropped)
}
