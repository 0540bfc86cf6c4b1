package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/randomizedcoder/simloop/internal/cancel"
	"github.com/randomizedcoder/simloop/internal/tick"
)

// precisionOptions holds flags for the precision command.
type precisionOptions struct {
	*rootOptions
	Iterations int
	Frequency  int
	Lag        time.Duration
	Coarse     time.Duration
}

func newPrecisionCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &precisionOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "precision",
		Short: "Compare time.Sleep with the hybrid waiter for one tick budget",
		Long: `Compare time.Sleep with the hybrid waiter for one tick budget.

Each method waits for 1/frequency seconds, n times, and the overshoot past
the requested deadline is reported. The waiter trades CPU in the final lag
window for accuracy.

Example:
  simloop precision --frequency 60 -n 300
  simloop precision --frequency 144 --lag 3ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Iterations < 1 {
				return fmt.Errorf("iterations must be greater than zero: %d", opts.Iterations)
			}
			if opts.Frequency < 1 {
				return fmt.Errorf("frequency must be greater than zero: %d", opts.Frequency)
			}
			measurePrecision(cmd.OutOrStdout(), opts)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Iterations, "iterations", "n", 200, "number of waits per method")
	cmd.Flags().IntVar(&opts.Frequency, "frequency", 60, "tick rate whose budget is waited for")
	cmd.Flags().DurationVar(&opts.Lag, "lag", tick.DefaultLag, "waiter spin window")
	cmd.Flags().DurationVar(&opts.Coarse, "coarse", tick.DefaultCoarse, "waiter sleep step")

	return cmd
}

type waitMethod struct {
	name string
	wait func(d time.Duration)
}

// overshoot summarizes how far past the deadline a method returned.
type overshoot struct {
	mean, p99, max time.Duration
}

func measurePrecision(w io.Writer, opts *precisionOptions) {
	interval := time.Duration(float64(time.Second) / float64(opts.Frequency))
	waiter := &tick.Waiter{Lag: opts.Lag, Coarse: opts.Coarse}
	never := cancel.NewAtomic()

	fmt.Fprintf(w, "Measuring wait precision (%d iterations of %v)\n", opts.Iterations, interval)
	fmt.Fprintf(w, "Architecture: %s/%s, GOMAXPROCS=%d\n", runtime.GOOS, runtime.GOARCH, runtime.GOMAXPROCS(0))
	fmt.Fprintln(w, "─────────────────────────────────────────────────")

	methods := []waitMethod{
		{"time.Sleep", time.Sleep},
		{"tick.Waiter", func(d time.Duration) { waiter.Wait(never, d) }},
	}

	results := make([]overshoot, len(methods))
	for i, m := range methods {
		results[i] = measure(m.wait, interval, opts.Iterations)
		fmt.Fprintf(w, "  %-12s mean: %10v  p99: %10v  max: %10v\n",
			m.name, results[i].mean, results[i].p99, results[i].max)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Impact Analysis:")
	fmt.Fprintln(w, "─────────────────────────────────────────────────")
	budget := float64(interval)
	for i, m := range methods {
		fmt.Fprintf(w, "  %-12s mean overshoot is %.2f%% of the tick budget\n",
			m.name, float64(results[i].mean)/budget*100)
	}
}

func measure(wait func(time.Duration), interval time.Duration, iterations int) overshoot {
	samples := make([]time.Duration, iterations)
	var total time.Duration
	for i := range samples {
		start := tick.Now()
		wait(interval)
		over := max(tick.Since(start)-interval, 0)
		samples[i] = over
		total += over
	}
	slices.Sort(samples)
	return overshoot{
		mean: total / time.Duration(iterations),
		p99:  samples[(len(samples)*99)/100],
		max:  samples[len(samples)-1],
	}
}
