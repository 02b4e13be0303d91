package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neurofield/alphalink/cloud"
	"github.com/neurofield/alphalink/guardian"
	"github.com/neurofield/alphalink/recording"
)

var (
	recordInput  string
	recordDevice string
	recordLabel  string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Replay a device frame log into the cloud",
	Long: `record reads base64 device frames from a capture log (one frame per
line), reconstructs their timestamps from the wrapping frame counter and
forwards them to the ingestion websocket. The session is registered in
the local recording index; the index entry is closed when the final stop
message has been acknowledged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := recording.OpenStore(cfg.Recording.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Start(recordDevice, recordLabel)
		if err != nil {
			return err
		}

		logger.Info("recording started",
			zap.String("recordingID", rec.ID),
			zap.String("deviceID", rec.DeviceID),
			zap.String("input", recordInput))

		forwarder, err := cloud.NewForwarder(cloud.Config{
			URL:         cfg.Cloud.URL,
			DeviceID:    recordDevice,
			RecordingID: rec.ID,
			PingTimeout: cfg.CloudPingTimeout(),
			RetryDelay:  cfg.CloudRetryDelay(),
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		queue := make(chan cloud.Message, 64)

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			defer close(queue)
			return produceFrames(ctx, recordInput, recordDevice, rec.ID, queue)
		})

		g.Go(func() error {
			return forwarder.Run(ctx, queue)
		})

		runErr := g.Wait()

		if err := store.Stop(rec.ID); err != nil {
			logger.Warn("failed to close recording index entry", zap.Error(err))
		}

		if runErr != nil && ctx.Err() == nil {
			return runErr
		}

		logger.Info("recording finished", zap.String("recordingID", rec.ID))

		return nil
	},
}

// produceFrames queues one cloud message per frame line, then the terminal
// stop message.
func produceFrames(ctx context.Context, path, deviceID, recordingID string, queue chan<- cloud.Message) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open frame log: %w", err)
	}
	defer f.Close()

	timeline := guardian.NewTimeline()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var last time.Time

	for scanner.Scan() {
		line := strings.TrimSuffix(strings.TrimSpace(scanner.Text()), ",")
		if line == "" {
			continue
		}

		raw, err := base64.StdEncoding.DecodeString(line)
		if err != nil {
			return fmt.Errorf("frame log: %w", err)
		}

		index, err := guardian.FrameIndex(raw)
		if err != nil {
			return fmt.Errorf("frame log: %w", err)
		}

		last = timeline.Next(index)

		msg := cloud.Message{
			DeviceTimestamp: last.Format(time.RFC3339Nano),
			DeviceID:        deviceID,
			RecordingID:     recordingID,
			Payload:         line,
		}

		select {
		case queue <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("frame log: %w", err)
	}

	stop := cloud.Message{
		DeviceTimestamp: last.Format(time.RFC3339Nano),
		DeviceID:        deviceID,
		RecordingID:     recordingID,
		Payload:         cloud.StopTimeout,
		Stop:            true,
	}

	if last.IsZero() {
		stop.DeviceTimestamp = time.Now().Format(time.RFC3339Nano)
	}

	select {
	case queue <- stop:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func init() {
	recordCmd.Flags().StringVar(&recordInput, "input", "", "path to the base64 frame log")
	recordCmd.Flags().StringVar(&recordDevice, "device", "deviceMockID", "device identifier")
	recordCmd.Flags().StringVar(&recordLabel, "label", "", "experiment label for the index")
	_ = recordCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(recordCmd)
}
