package recording

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/neurofield/alphalink/cloud"
	"github.com/neurofield/alphalink/guardian"
)

var eegHeader = []string{"timestamp", "ch1"}

var imuHeader = []string{
	"timestamp",
	"acc_x", "acc_y", "acc_z",
	"magn_x", "magn_y", "magn_z",
	"gyro_x", "gyro_y", "gyro_z",
}

// Assembler decodes a sequence of cloud messages into EEG and IMU CSV
// streams. EEG rows advance at the sample rate, IMU rows at the motion
// rate, both offset from each message's device timestamp.
type Assembler struct {
	codec *guardian.Codec
}

// NewAssembler creates an Assembler using codec to decode payloads.
func NewAssembler(codec *guardian.Codec) *Assembler {
	return &Assembler{codec: codec}
}

// Assemble writes CSV rows for every frame-carrying message. Messages whose
// payload is a stop sentinel carry no samples and are skipped. Channel 1 is
// the recorded EEG channel.
func (a *Assembler) Assemble(messages []cloud.Message, eegOut, imuOut io.Writer) error {
	eegCSV := csv.NewWriter(eegOut)
	imuCSV := csv.NewWriter(imuOut)

	if err := eegCSV.Write(eegHeader); err != nil {
		return fmt.Errorf("recording: eeg header: %w", err)
	}

	if err := imuCSV.Write(imuHeader); err != nil {
		return fmt.Errorf("recording: imu header: %w", err)
	}

	for i, msg := range messages {
		if msg.Payload == "" || isStopSentinel(msg.Payload) {
			continue
		}

		base, err := ParseTimestamp(msg.DeviceTimestamp)
		if err != nil {
			return fmt.Errorf("recording: message %d: %w", i, err)
		}

		pkt, err := a.codec.DecodeBase64(msg.Payload)
		if err != nil {
			return fmt.Errorf("recording: message %d: %w", i, err)
		}

		if err := writePacket(eegCSV, imuCSV, base, pkt); err != nil {
			return fmt.Errorf("recording: message %d: %w", i, err)
		}
	}

	eegCSV.Flush()
	if err := eegCSV.Error(); err != nil {
		return fmt.Errorf("recording: eeg flush: %w", err)
	}

	imuCSV.Flush()
	if err := imuCSV.Error(); err != nil {
		return fmt.Errorf("recording: imu flush: %w", err)
	}

	return nil
}

func isStopSentinel(payload string) bool {
	switch payload {
	case cloud.StopCancelled, cloud.StopTimeout, cloud.StopDeviceLost:
		return true
	}

	return false
}

func writePacket(eegCSV, imuCSV *csv.Writer, base float64, pkt guardian.Packet) error {
	for i, v := range pkt.Ch1 {
		ts := base + float64(i)/guardian.SampleRate
		if err := eegCSV.Write([]string{formatFloat(ts), formatFloat(v)}); err != nil {
			return fmt.Errorf("eeg row: %w", err)
		}
	}

	for i := range pkt.Acc {
		ts := base + float64(i)/guardian.MotionRate
		row := []string{
			formatFloat(ts),
			formatFloat(pkt.Acc[i].X), formatFloat(pkt.Acc[i].Y), formatFloat(pkt.Acc[i].Z),
			formatFloat(pkt.Magn[i].X), formatFloat(pkt.Magn[i].Y), formatFloat(pkt.Magn[i].Z),
			formatFloat(pkt.Gyro[i].X), formatFloat(pkt.Gyro[i].Y), formatFloat(pkt.Gyro[i].Z),
		}

		if err := imuCSV.Write(row); err != nil {
			return fmt.Errorf("imu row: %w", err)
		}
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseTimestamp converts a device timestamp string to Unix seconds. The
// device side writes local ISO timestamps with or without a zone offset.
func ParseTimestamp(s string) (float64, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
	} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return float64(t.UnixNano()) / float64(time.Second), nil
		}
	}

	// Decrypt-side messages carry the timestamp already converted to
	// seconds.
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	return 0, fmt.Errorf("unparseable timestamp %q", s)
}
