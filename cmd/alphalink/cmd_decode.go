package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neurofield/alphalink/cloud"
	"github.com/neurofield/alphalink/guardian"
	"github.com/neurofield/alphalink/recording"
)

var (
	decodeInput string
	decodeOut   string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode captured cloud messages into CSV sample files",
	Long: `decode reads a capture of cloud messages (one JSON object per line),
decrypts and unpacks each frame payload and writes eeg.csv and imu.csv
into the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		messages, err := readMessages(decodeInput)
		if err != nil {
			return err
		}

		out := decodeOut
		if out == "" {
			out = cfg.Recording.OutputDir
		}

		if err := os.MkdirAll(out, 0o755); err != nil {
			return fmt.Errorf("output dir: %w", err)
		}

		eegPath := filepath.Join(out, "eeg.csv")
		imuPath := filepath.Join(out, "imu.csv")

		eegFile, err := os.Create(eegPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", eegPath, err)
		}
		defer eegFile.Close()

		imuFile, err := os.Create(imuPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", imuPath, err)
		}
		defer imuFile.Close()

		codec, err := guardian.NewCodec()
		if err != nil {
			return err
		}

		if err := recording.NewAssembler(codec).Assemble(messages, eegFile, imuFile); err != nil {
			return err
		}

		logger.Info("recording decoded",
			zap.Int("messages", len(messages)),
			zap.String("eeg", eegPath),
			zap.String("imu", imuPath))

		return nil
	},
}

// readMessages parses a JSON-lines capture of cloud messages.
func readMessages(path string) ([]cloud.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	var messages []cloud.Message

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg cloud.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("capture line %d: %w", len(messages)+1, err)
		}

		messages = append(messages, msg)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	return messages, nil
}

func init() {
	decodeCmd.Flags().StringVar(&decodeInput, "input", "", "path to the JSON-lines message capture")
	decodeCmd.Flags().StringVar(&decodeOut, "out", "", "output directory (defaults to recording.output_dir)")
	_ = decodeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(decodeCmd)
}
