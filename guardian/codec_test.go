package guardian

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealFrame builds a valid raw frame around the given body using the static
// credentials.
func sealFrame(t *testing.T, index byte, body []byte) []byte {
	t.Helper()

	aead, err := chacha20poly1305.New(defaultKey)
	if err != nil {
		t.Fatalf("cipher init: %v", err)
	}

	sealed := aead.Seal(nil, defaultNonce, body, defaultAAD)

	frame := make([]byte, 0, len(sealed)+frameOverhead)
	frame = append(frame, StartByte, index)
	frame = append(frame, sealed...)
	frame = append(frame, EndByte)

	return frame
}

// testBody builds a frame body with a known ramp on channel 1, a constant
// on channel 2 and fixed IMU readings.
func testBody(t *testing.T) []byte {
	t.Helper()

	body := make([]byte, bodyBytes)
	sample := 0

	for p := 0; p < packetCount; p++ {
		off := p * packetBytes
		for s := 0; s < eegSamplesPacket; s++ {
			putInt24BE(body[off:off+3], int32(sample))
			putInt24BE(body[off+3:off+6], -1000)
			off += eegSampleBytes
			sample++
		}

		imu := p*packetBytes + eegSamplesPacket*eegSampleBytes
		for axis := 0; axis < 9; axis++ {
			binary.LittleEndian.PutUint16(body[imu+2*axis:], uint16(int16(100*(axis+1))))
		}
	}

	return body
}

func putInt24BE(b []byte, v int32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func TestDecodeRoundTrip(t *testing.T) {
	c, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	frame := sealFrame(t, 42, testBody(t))

	pkt, err := c.Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if pkt.Index != 42 {
		t.Fatalf("index=%d want=42", pkt.Index)
	}

	if len(pkt.Ch1) != SamplesPerFrame || len(pkt.Ch2) != SamplesPerFrame {
		t.Fatalf("sample counts ch1=%d ch2=%d want=%d", len(pkt.Ch1), len(pkt.Ch2), SamplesPerFrame)
	}

	for i, v := range pkt.Ch1 {
		want := eegScale * float64(i)
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("ch1[%d]=%v want=%v", i, v, want)
		}
	}

	for i, v := range pkt.Ch2 {
		want := eegScale * -1000
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("ch2[%d]=%v want=%v", i, v, want)
		}
	}

	if len(pkt.Acc) != packetCount || len(pkt.Magn) != packetCount || len(pkt.Gyro) != packetCount {
		t.Fatalf("imu counts acc=%d magn=%d gyro=%d", len(pkt.Acc), len(pkt.Magn), len(pkt.Gyro))
	}

	// Axis values 100..900 with per-sensor scales.
	if got := pkt.Acc[0]; got != (Vec3{X: 0.1, Y: 0.2, Z: 0.3}) {
		t.Fatalf("acc=%+v", got)
	}

	if got := pkt.Magn[0]; math.Abs(got.X-0.04) > 1e-12 || math.Abs(got.Y-0.05) > 1e-12 || math.Abs(got.Z-0.06) > 1e-12 {
		t.Fatalf("magn=%+v", got)
	}

	if got := pkt.Gyro[0]; math.Abs(got.X-0.7) > 1e-12 || math.Abs(got.Y-0.8) > 1e-12 || math.Abs(got.Z-0.9) > 1e-12 {
		t.Fatalf("gyro=%+v", got)
	}
}

func TestDecodeBase64(t *testing.T) {
	c, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	frame := sealFrame(t, 7, testBody(t))

	pkt, err := c.DecodeBase64(base64.StdEncoding.EncodeToString(frame))
	if err != nil {
		t.Fatalf("DecodeBase64: %v", err)
	}

	if pkt.Index != 7 {
		t.Fatalf("index=%d want=7", pkt.Index)
	}

	if _, err := c.DecodeBase64("not/base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestDecryptRejectsBadFrames(t *testing.T) {
	c, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	frame := sealFrame(t, 0, testBody(t))

	short := []byte{StartByte, 0, EndByte}
	if _, err := c.Decrypt(short); err == nil {
		t.Fatal("expected error for short frame")
	}

	badStart := append([]byte(nil), frame...)
	badStart[0] = 0x00
	if _, err := c.Decrypt(badStart); err == nil {
		t.Fatal("expected error for bad start byte")
	}

	badEnd := append([]byte(nil), frame...)
	badEnd[len(badEnd)-1] = 0xFF
	if _, err := c.Decrypt(badEnd); err == nil {
		t.Fatal("expected error for bad end byte")
	}

	tampered := append([]byte(nil), frame...)
	tampered[10] ^= 0x01
	if _, err := c.Decrypt(tampered); err == nil {
		t.Fatal("expected authentication failure for tampered frame")
	}
}

func TestNewCodecValidation(t *testing.T) {
	if _, err := NewCodec(WithKey([]byte("short"))); err == nil {
		t.Fatal("expected error for short key")
	}

	if _, err := NewCodec(WithNonce([]byte("short"))); err == nil {
		t.Fatal("expected error for short nonce")
	}
}

func TestParseBodyLength(t *testing.T) {
	if _, err := ParseBody(make([]byte, bodyBytes-1)); err == nil {
		t.Fatal("expected error for truncated body")
	}
}

func TestInt24BESignExtension(t *testing.T) {
	cases := []struct {
		in   [3]byte
		want int32
	}{
		{[3]byte{0x00, 0x00, 0x00}, 0},
		{[3]byte{0x00, 0x00, 0x01}, 1},
		{[3]byte{0x7F, 0xFF, 0xFF}, 8388607},
		{[3]byte{0xFF, 0xFF, 0xFF}, -1},
		{[3]byte{0x80, 0x00, 0x00}, -8388608},
	}

	for _, tc := range cases {
		if got := int24BE(tc.in[:]); got != tc.want {
			t.Fatalf("int24BE(%v)=%d want=%d", tc.in, got, tc.want)
		}
	}
}

func TestTimelineAdvancesByIndexDelta(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := NewTimelineAt(func() time.Time { return base })

	if got := tl.Next(10); !got.Equal(base) {
		t.Fatalf("first frame=%v want anchor=%v", got, base)
	}

	if got := tl.Next(11); !got.Equal(base.Add(80 * time.Millisecond)) {
		t.Fatalf("second frame=%v want +80ms", got)
	}

	// Two dropped frames leave a gap.
	if got := tl.Next(14); !got.Equal(base.Add(4 * 80 * time.Millisecond)) {
		t.Fatalf("after drop=%v want +320ms", got)
	}
}

func TestTimelineCounterWrap(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := NewTimelineAt(func() time.Time { return base })

	tl.Next(255)

	if got := tl.Next(0); !got.Equal(base.Add(80 * time.Millisecond)) {
		t.Fatalf("wrap 255->0=%v want +80ms", got)
	}
}

func TestTimelineReset(t *testing.T) {
	calls := 0
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := NewTimelineAt(func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Hour)
	})

	tl.Next(0)
	tl.Reset()

	if got := tl.Next(100); !got.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("post-reset frame=%v, expected a fresh clock anchor", got)
	}
}
