package guardian

// GATT characteristic UUIDs exposed by the device.
const (
	UUIDMeasEEGIMU      = "beffd56c-c915-48f5-930d-4c1feee0fcc4"
	UUIDMeasEEG         = "beffd56c-c915-48f5-930d-4c1feee0fcc5"
	UUIDMeasImpedance   = "beffd56c-c915-48f5-930d-4c1feee0fcc8"
	UUIDConfig          = "beffd56c-c915-48f5-930d-4c1feee0fcc9"
	UUIDCommand         = "beffd56c-c915-48f5-930d-4c1feee0fcca"
	UUIDDeviceService   = "0000180a-0000-1000-8000-00805f9b34fb"
	UUIDSerialNumber    = "00002a25-0000-1000-8000-00805f9b34fb"
	UUIDFirmwareVersion = "00002a26-0000-1000-8000-00805f9b34fb"
	UUIDBatteryLevel    = "00002a19-0000-1000-8000-00805f9b34fb"
)

// Command is a single-byte opcode written to the command characteristic.
type Command byte

const (
	CmdStartMeasure   Command = 'M'
	CmdStopMeasure    Command = 'S'
	CmdStartImpedance Command = 'Z'
	CmdStopImpedance  Command = 'X'
)

// ConfigValue is a two-byte setting written to the config characteristic.
type ConfigValue [2]byte

var (
	CfgLEDOn     = ConfigValue{'d', '1'}
	CfgLEDOff    = ConfigValue{'d', '0'}
	CfgNotch50Hz = ConfigValue{'n', '0'}
	CfgNotch60Hz = ConfigValue{'n', '1'}
)

// Frame markers and packet geometry.
const (
	StartByte byte = 0xF0
	EndByte   byte = 0x0F

	// SampleRate is the EEG sample rate in Hz.
	SampleRate = 250

	// MotionRate is the IMU sample rate in Hz.
	MotionRate = 25

	// SamplesPerFrame is the number of EEG samples per notification frame.
	SamplesPerFrame = 20

	// MaxFrameIndex is the modulus of the wrapping frame counter.
	MaxFrameIndex = 256
)

// Scale factors applied to the raw integer readings.
const (
	eegScale  = 0.022351744455307063
	accScale  = 0.001
	magnScale = 0.0001
	gyroScale = 0.001
)
