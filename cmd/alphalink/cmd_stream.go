package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neurofield/alphalink/feedback"
	"github.com/neurofield/alphalink/stream"
)

var (
	streamSeed int64
	streamTone float64
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Run the neurofeedback loop and emit scores over OSC",
	Long: `stream runs the feedback loop against a simulated source: every
interval it pulls the rolling window, band-pass filters it, scores the
most recent second by its averaged band power and emits the z-scored
result as an OSC message. The first baseline_windows iterations
calibrate the baseline and emit nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		src, err := stream.NewSimulatedSource(stream.SimulatedConfig{
			Channels:      cfg.Stream.Channels,
			SampleRate:    cfg.Stream.SampleRate,
			WindowSeconds: cfg.Stream.WindowSeconds,
			ChunkSeconds:  cfg.FeedbackInterval().Seconds(),
			ToneHz:        streamTone,
			Seed:          streamSeed,
		})
		if err != nil {
			return err
		}
		defer src.Close()

		sink, err := feedback.NewOSCSink(cfg.Feedback.OSC.Host, cfg.Feedback.OSC.Port, cfg.Feedback.OSC.Address)
		if err != nil {
			return err
		}

		loop, err := feedback.NewLoop(feedback.Config{
			Source:          src,
			Sink:            sink,
			Interval:        cfg.FeedbackInterval(),
			FilterLowHz:     cfg.Feedback.FilterLowHz,
			FilterHighHz:    cfg.Feedback.FilterHighHz,
			BandLowHz:       cfg.Feedback.BandLowHz,
			BandHighHz:      cfg.Feedback.BandHighHz,
			CropSeconds:     cfg.Feedback.CropSeconds,
			BaselineWindows: cfg.Feedback.BaselineWindows,
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		logger.Info("streaming to OSC target",
			zap.String("host", cfg.Feedback.OSC.Host),
			zap.Int("port", cfg.Feedback.OSC.Port),
			zap.String("address", cfg.Feedback.OSC.Address))

		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}

		return nil
	},
}

func init() {
	streamCmd.Flags().Int64Var(&streamSeed, "seed", 1, "noise seed for the simulated source")
	streamCmd.Flags().Float64Var(&streamTone, "tone", 10, "embedded tone frequency in Hz")
	rootCmd.AddCommand(streamCmd)
}
