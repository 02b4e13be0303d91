package cloud

// Stop payload sentinels. A terminal message carries Stop=true and one of
// these strings instead of frame data.
const (
	StopCancelled  = "STOP_CANCELLED"
	StopTimeout    = "STOP_TIMEOUT"
	StopDeviceLost = "STOP_DEVICE_LOST"
)

// Message is one JSON record on the ingestion websocket. Payload carries a
// base64-encoded device frame, or a stop sentinel on the terminal message.
type Message struct {
	DeviceTimestamp string `json:"deviceTimestamp"`
	DeviceID        string `json:"deviceID"`
	RecordingID     string `json:"recordingID"`
	Payload         string `json:"payload"`
	Impedance       int    `json:"impedance"`
	Stop            bool   `json:"stop"`
}
