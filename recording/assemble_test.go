package recording

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/csv"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/neurofield/alphalink/cloud"
	"github.com/neurofield/alphalink/guardian"
)

// sealTestFrame builds a device frame around a body with a known first
// channel-1 value, sealed with the firmware's static credentials.
func sealTestFrame(t *testing.T, ch1Raw int32) string {
	t.Helper()

	body := make([]byte, 156)
	body[0] = byte(ch1Raw >> 16)
	body[1] = byte(ch1Raw >> 8)
	body[2] = byte(ch1Raw)

	// Put a recognizable value on the first accelerometer axis.
	binary.LittleEndian.PutUint16(body[60:], uint16(int16(1500)))

	key := make([]byte, chacha20poly1305.KeySize)
	for i := range key {
		key[i] = byte(i)
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	for i := range nonce {
		nonce[i] = byte(i)
	}

	aead, err := chacha20poly1305.New(key)
	require.NoError(t, err)

	sealed := aead.Seal(nil, nonce, body, []byte("IDUNIDUNIDUNIDUNIDUNIDUNIDUNIDUNc22"))

	frame := append([]byte{guardian.StartByte, 1}, sealed...)
	frame = append(frame, guardian.EndByte)

	return base64.StdEncoding.EncodeToString(frame)
}

func parseCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()

	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)

	return rows
}

func TestAssembleWritesTimestampedRows(t *testing.T) {
	codec, err := guardian.NewCodec()
	require.NoError(t, err)

	messages := []cloud.Message{
		{DeviceTimestamp: "1700000000", Payload: sealTestFrame(t, 1000)},
		{DeviceTimestamp: "1700000000.08", Payload: sealTestFrame(t, 2000)},
		{DeviceTimestamp: "1700000000.16", Payload: cloud.StopTimeout, Stop: true},
	}

	var eegBuf, imuBuf bytes.Buffer

	a := NewAssembler(codec)
	require.NoError(t, a.Assemble(messages, &eegBuf, &imuBuf))

	eeg := parseCSV(t, &eegBuf)
	imu := parseCSV(t, &imuBuf)

	// Header plus 20 EEG and 2 IMU samples per frame message; the stop
	// message contributes nothing.
	require.Len(t, eeg, 1+2*guardian.SamplesPerFrame)
	require.Len(t, imu, 1+2*2)

	assert.Equal(t, []string{"timestamp", "ch1"}, eeg[0])
	assert.Equal(t, "timestamp", imu[0][0])
	assert.Len(t, imu[0], 10)

	// EEG timestamps advance by 1/250 s from the message timestamp.
	first, err := strconv.ParseFloat(eeg[1][0], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1700000000.0, first, 1e-9)

	second, err := strconv.ParseFloat(eeg[2][0], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/250, second-first, 1e-9)

	// IMU timestamps advance by 1/25 s.
	imuFirst, err := strconv.ParseFloat(imu[1][0], 64)
	require.NoError(t, err)

	imuSecond, err := strconv.ParseFloat(imu[2][0], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/25, imuSecond-imuFirst, 1e-9)

	// First channel-1 value carries the device scale.
	v, err := strconv.ParseFloat(eeg[1][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.022351744455307063*1000, v, 1e-12)

	// First accelerometer value scaled by 0.001.
	acc, err := strconv.ParseFloat(imu[1][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, acc, 1e-12)
}

func TestAssembleRejectsBadPayload(t *testing.T) {
	codec, err := guardian.NewCodec()
	require.NoError(t, err)

	a := NewAssembler(codec)

	var eegBuf, imuBuf bytes.Buffer

	err = a.Assemble([]cloud.Message{
		{DeviceTimestamp: "1700000000", Payload: base64.StdEncoding.EncodeToString([]byte("garbage"))},
	}, &eegBuf, &imuBuf)
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	// Seconds form, as written by the decrypt path.
	v, err := ParseTimestamp("1700000000.25")
	require.NoError(t, err)
	assert.InDelta(t, 1700000000.25, v, 1e-9)

	// RFC 3339 with zone, as written by the device path.
	v, err = ParseTimestamp("2023-11-14T22:13:20.5+00:00")
	require.NoError(t, err)
	assert.InDelta(t, 1700000000.5, v, 1e-6)

	_, err = ParseTimestamp("not a time")
	require.Error(t, err)
}
