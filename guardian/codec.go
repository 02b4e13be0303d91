package guardian

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// Layout of the decrypted frame body: two packets, each ten EEG samples
	// of two 3-byte channels followed by one 18-byte IMU sample.
	packetCount      = 2
	eegSamplesPacket = 10
	eegSampleBytes   = 6
	imuSampleBytes   = 18
	packetBytes      = eegSamplesPacket*eegSampleBytes + imuSampleBytes
	bodyBytes        = packetCount * packetBytes

	frameOverhead = 3 // start byte, frame index, end byte
	minFrameLen   = frameOverhead + chacha20poly1305.Overhead
)

// Default transport credentials burned into current firmware. Every device
// ships with the same static key material, so the AEAD provides integrity
// checking rather than secrecy.
var (
	defaultKey   = counterBytes(chacha20poly1305.KeySize)
	defaultNonce = counterBytes(chacha20poly1305.NonceSize)
	defaultAAD   = []byte("IDUNIDUNIDUNIDUNIDUNIDUNIDUNIDUNc22")
)

func counterBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}

	return b
}

// Vec3 is a three-axis motion reading.
type Vec3 struct {
	X, Y, Z float64
}

// Packet holds the decoded contents of one notification frame: twenty EEG
// samples per channel in microvolts and two IMU samples.
type Packet struct {
	Index byte

	Ch1 []float64
	Ch2 []float64

	Acc  []Vec3
	Magn []Vec3
	Gyro []Vec3
}

// Codec authenticates and unpacks Guardian notification frames.
type Codec struct {
	key   []byte
	nonce []byte
	aad   []byte
}

// Option configures a Codec.
type Option func(*Codec)

// WithKey overrides the static transport key.
func WithKey(key []byte) Option {
	return func(c *Codec) { c.key = key }
}

// WithNonce overrides the static nonce.
func WithNonce(nonce []byte) Option {
	return func(c *Codec) { c.nonce = nonce }
}

// WithAAD overrides the additional authenticated data.
func WithAAD(aad []byte) Option {
	return func(c *Codec) { c.aad = aad }
}

// NewCodec creates a Codec with the firmware's static credentials unless
// overridden by options.
func NewCodec(opts ...Option) (*Codec, error) {
	c := &Codec{
		key:   defaultKey,
		nonce: defaultNonce,
		aad:   defaultAAD,
	}

	for _, opt := range opts {
		opt(c)
	}

	if len(c.key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("guardian: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(c.key))
	}

	if len(c.nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("guardian: nonce must be %d bytes, got %d", chacha20poly1305.NonceSize, len(c.nonce))
	}

	return c, nil
}

// FrameIndex returns the wrapping frame counter of a raw frame.
func FrameIndex(frame []byte) (byte, error) {
	if len(frame) < 2 {
		return 0, fmt.Errorf("guardian: frame too short for index: %d bytes", len(frame))
	}

	return frame[1], nil
}

// Decrypt strips the frame markers, verifies the Poly1305 tag and returns
// the plaintext body.
func (c *Codec) Decrypt(frame []byte) ([]byte, error) {
	if len(frame) < minFrameLen {
		return nil, fmt.Errorf("guardian: frame too short: %d bytes, need at least %d", len(frame), minFrameLen)
	}

	if frame[0] != StartByte {
		return nil, fmt.Errorf("guardian: bad start byte 0x%02X, want 0x%02X", frame[0], StartByte)
	}

	if frame[len(frame)-1] != EndByte {
		return nil, fmt.Errorf("guardian: bad end byte 0x%02X, want 0x%02X", frame[len(frame)-1], EndByte)
	}

	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, fmt.Errorf("guardian: cipher init: %w", err)
	}

	// Body between the two-byte prefix and the end byte, with the tag
	// appended to the ciphertext.
	sealed := frame[2 : len(frame)-1]

	plain, err := aead.Open(nil, c.nonce, sealed, c.aad)
	if err != nil {
		return nil, fmt.Errorf("guardian: frame authentication failed: %w", err)
	}

	return plain, nil
}

// Decode authenticates a raw frame and unpacks it into a Packet.
func (c *Codec) Decode(frame []byte) (Packet, error) {
	plain, err := c.Decrypt(frame)
	if err != nil {
		return Packet{}, err
	}

	pkt, err := ParseBody(plain)
	if err != nil {
		return Packet{}, err
	}

	pkt.Index = frame[1]

	return pkt, nil
}

// DecodeBase64 decodes a frame that was base64-encoded for transport.
func (c *Codec) DecodeBase64(frame string) (Packet, error) {
	raw, err := base64.StdEncoding.DecodeString(frame)
	if err != nil {
		return Packet{}, fmt.Errorf("guardian: base64 decode: %w", err)
	}

	return c.Decode(raw)
}

// ParseBody unpacks a decrypted frame body into scaled samples.
func ParseBody(body []byte) (Packet, error) {
	if len(body) != bodyBytes {
		return Packet{}, fmt.Errorf("guardian: body is %d bytes, want %d", len(body), bodyBytes)
	}

	pkt := Packet{
		Ch1:  make([]float64, 0, SamplesPerFrame),
		Ch2:  make([]float64, 0, SamplesPerFrame),
		Acc:  make([]Vec3, 0, packetCount),
		Magn: make([]Vec3, 0, packetCount),
		Gyro: make([]Vec3, 0, packetCount),
	}

	ads := 0
	for p := 0; p < packetCount; p++ {
		for s := 0; s < eegSamplesPacket; s++ {
			pkt.Ch1 = append(pkt.Ch1, eegScale*float64(int24BE(body[ads:ads+3])))
			pkt.Ch2 = append(pkt.Ch2, eegScale*float64(int24BE(body[ads+3:ads+6])))
			ads += eegSampleBytes
		}

		imu := p*packetBytes + eegSamplesPacket*eegSampleBytes
		pkt.Acc = append(pkt.Acc, vec3At(body, imu, accScale))
		pkt.Magn = append(pkt.Magn, vec3At(body, imu+6, magnScale))
		pkt.Gyro = append(pkt.Gyro, vec3At(body, imu+12, gyroScale))

		ads += imuSampleBytes
	}

	return pkt, nil
}

// int24BE decodes a 3-byte big-endian two's complement integer.
func int24BE(b []byte) int32 {
	v := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])

	return v << 8 >> 8
}

func int16LE(b []byte) int16 {
	return int16(binary.LittleEndian.Uint16(b))
}

func vec3At(body []byte, offset int, scale float64) Vec3 {
	return Vec3{
		X: scale * float64(int16LE(body[offset:offset+2])),
		Y: scale * float64(int16LE(body[offset+2:offset+4])),
		Z: scale * float64(int16LE(body[offset+4:offset+6])),
	}
}
