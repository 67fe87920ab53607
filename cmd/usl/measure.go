package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexshd/usl"
	"github.com/alexshd/usl/internal/dataset"
)

type measureOpts struct {
	levels   []int
	duration time.Duration
	warmup   time.Duration
	queue    int
	tasks    int
	maxProcs int
}

func (a *app) measureCommand() *cobra.Command {
	var o measureOpts

	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Run the synthetic bottleneck workload and write a dataset",
		Long: `measure runs a workload in which every task passes through one shared
channel, at each concurrency level, and writes the observed throughput in
the dataset format read by "usl fit".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMeasure(cmd.Context(), o)
		},
	}
	cmd.Flags().IntSliceVar(&o.levels, "levels", []int{1, 2, 4, 8, 16}, "concurrency levels")
	cmd.Flags().DurationVar(&o.duration, "duration", time.Second, "measurement time per level")
	cmd.Flags().DurationVar(&o.warmup, "warmup", 200*time.Millisecond, "warmup time per level")
	cmd.Flags().IntVar(&o.queue, "queue", 4, "capacity of the shared channel")
	cmd.Flags().IntVar(&o.tasks, "tasks", 100, "channel passes per operation")
	cmd.Flags().IntVar(&o.maxProcs, "max-procs", 0, "GOMAXPROCS during the run (0 = unchanged)")
	return cmd
}

func (a *app) runMeasure(ctx context.Context, o measureOpts) (err error) {
	cfg := usl.Config{
		Duration: o.duration,
		Warmup:   o.warmup,
		Levels:   o.levels,
		MaxProcs: o.maxProcs,
	}

	a.log.Info("measuring", "levels", o.levels, "duration", o.duration, "queue", o.queue)
	results, err := usl.Run(ctx, usl.BottleneckOperation(o.queue, o.tasks), cfg)
	if err != nil {
		return err
	}
	for _, r := range results {
		stats := usl.CalculateStatistics(r)
		a.log.Info("level done",
			"n", r.N,
			"throughput", r.Throughput,
			"errors", r.Errors,
			"error_rate", r.ErrorRate(),
			"p50", stats.P50,
			"p99", stats.P99)
	}

	w, closeFn, err := a.output()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()
	return dataset.Write(w, usl.Measurements(results))
}
