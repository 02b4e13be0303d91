package cloud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrQueueClosed reports that the message queue was closed before a stop
// message came through, which means the producer died.
var ErrQueueClosed = errors.New("cloud: message queue closed without stop message")

// Config configures a Forwarder.
type Config struct {
	// URL is the websocket endpoint.
	URL string

	// DeviceID and RecordingID fill in messages that leave them empty.
	DeviceID    string
	RecordingID string

	// PingTimeout bounds the liveness probe after a failed send.
	// Defaults to 10 s.
	PingTimeout time.Duration

	// RetryDelay is the pause before a reconnect attempt. Defaults to 5 s.
	RetryDelay time.Duration

	// ReceiptTimeout bounds the wait for a per-message receipt.
	// Defaults to 10 s.
	ReceiptTimeout time.Duration

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

func normalizeConfig(cfg Config) Config {
	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = 10 * time.Second
	}

	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 5 * time.Second
	}

	if cfg.ReceiptTimeout == 0 {
		cfg.ReceiptTimeout = 10 * time.Second
	}

	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return cfg
}

// Forwarder drains a message queue into the ingestion websocket.
type Forwarder struct {
	cfg Config
	log *zap.Logger
}

// NewForwarder creates a Forwarder from cfg. Zero durations take their
// defaults.
func NewForwarder(cfg Config) (*Forwarder, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("cloud: endpoint URL is required")
	}

	cfg = normalizeConfig(cfg)

	return &Forwarder{cfg: cfg, log: cfg.Logger}, nil
}

// Run forwards messages from queue until a message with Stop=true has been
// sent and acknowledged. Each message waits for a receipt before the next
// is taken from the queue. A failed send triggers a ping probe; if the probe
// fails the connection is reopened after RetryDelay and the pending message
// is resent, so no message is lost to a connection drop.
//
// If the queue is closed before a stop message arrives, Run sends a
// terminal STOP_DEVICE_LOST message and returns ErrQueueClosed.
//
// On context cancellation Run makes one final connection attempt to deliver
// a terminal message with payload STOP_CANCELLED, then returns the context
// error. If the terminal delivery itself fails, that error is returned
// instead.
func (f *Forwarder) Run(ctx context.Context, queue <-chan Message) error {
	var pending *Message

	for {
		conn, _, err := f.cfg.Dialer.DialContext(ctx, f.cfg.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return f.terminate(ctx, pending)
			}

			f.log.Warn("cloud connect failed, retrying",
				zap.String("url", f.cfg.URL),
				zap.Duration("retry", f.cfg.RetryDelay),
				zap.Error(err))

			select {
			case <-time.After(f.cfg.RetryDelay):
				continue
			case <-ctx.Done():
				return f.terminate(ctx, pending)
			}
		}

		f.log.Info("cloud connected", zap.String("url", f.cfg.URL))

		done, err := f.drain(ctx, conn, queue, &pending)
		conn.Close()

		if done {
			return err
		}

		if ctx.Err() != nil {
			return f.terminate(ctx, pending)
		}

		f.log.Warn("cloud connection lost, reconnecting",
			zap.Duration("retry", f.cfg.RetryDelay),
			zap.Error(err))

		select {
		case <-time.After(f.cfg.RetryDelay):
		case <-ctx.Done():
			return f.terminate(ctx, pending)
		}
	}
}

// drain sends messages over one connection. It returns done=true when the
// stop message was acknowledged or the caller should give up entirely.
func (f *Forwarder) drain(ctx context.Context, conn *websocket.Conn, queue <-chan Message, pending **Message) (bool, error) {
	first := true

	for {
		if *pending == nil {
			select {
			case msg, ok := <-queue:
				if !ok {
					return true, f.reportLost(conn)
				}

				f.fill(&msg)
				*pending = &msg
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}

		msg := **pending

		if err := f.send(conn, msg); err != nil {
			if probeErr := f.probe(conn); probeErr == nil {
				f.log.Info("cloud send failed but connection alive, resending", zap.Error(err))
				continue
			}

			return false, err
		}

		*pending = nil

		if first {
			first = false
			f.log.Info("first message acknowledged",
				zap.String("deviceID", msg.DeviceID),
				zap.String("recordingID", msg.RecordingID))
		}

		if msg.Stop {
			f.log.Info("stop message acknowledged",
				zap.String("recordingID", msg.RecordingID),
				zap.String("payload", msg.Payload))

			return true, nil
		}
	}
}

// reportLost tells the backend the device side went away so the recording
// gets closed, then surfaces ErrQueueClosed.
func (f *Forwarder) reportLost(conn *websocket.Conn) error {
	lost := Message{
		DeviceTimestamp: time.Now().Format(time.RFC3339Nano),
		Payload:         StopDeviceLost,
		Stop:            true,
	}
	f.fill(&lost)

	if err := f.send(conn, lost); err != nil {
		f.log.Warn("device-lost stop message not delivered", zap.Error(err))

		return fmt.Errorf("%w (stop delivery failed: %v)", ErrQueueClosed, err)
	}

	f.log.Warn("message queue closed without stop, recording marked device-lost",
		zap.String("recordingID", f.cfg.RecordingID))

	return ErrQueueClosed
}

// send writes one message and waits for its receipt.
func (f *Forwarder) send(conn *websocket.Conn, msg Message) error {
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("cloud: write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(f.cfg.ReceiptTimeout)); err != nil {
		return fmt.Errorf("cloud: set read deadline: %w", err)
	}

	if _, _, err := conn.ReadMessage(); err != nil {
		return fmt.Errorf("cloud: receipt: %w", err)
	}

	return nil
}

// probe checks connection liveness with a ping and waits for the pong.
func (f *Forwarder) probe(conn *websocket.Conn) error {
	pong := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}

		return nil
	})

	deadline := time.Now().Add(f.cfg.PingTimeout)
	if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return fmt.Errorf("cloud: ping: %w", err)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("cloud: set read deadline: %w", err)
	}

	// Pongs are only delivered while a read is in flight.
	if _, _, err := conn.ReadMessage(); err != nil {
		select {
		case <-pong:
			return nil
		default:
			return fmt.Errorf("cloud: pong: %w", err)
		}
	}

	return nil
}

// terminate delivers the terminal stop message and reports why the run
// ended.
func (f *Forwarder) terminate(ctx context.Context, pending *Message) error {
	if err := f.sendTerminal(pending); err != nil {
		f.log.Warn("terminal stop message not delivered", zap.Error(err))

		return err
	}

	return ctx.Err()
}

// sendTerminal makes one last connection attempt to deliver a stop message
// so the backend can close the recording. It uses the pending message's
// timestamp when one exists, otherwise the host clock.
func (f *Forwarder) sendTerminal(pending *Message) error {
	terminal := Message{
		DeviceTimestamp: time.Now().Format(time.RFC3339Nano),
		DeviceID:        f.cfg.DeviceID,
		RecordingID:     f.cfg.RecordingID,
		Payload:         StopCancelled,
		Stop:            true,
	}

	if pending != nil {
		terminal.DeviceTimestamp = pending.DeviceTimestamp
		if pending.DeviceID != "" {
			terminal.DeviceID = pending.DeviceID
		}

		if pending.RecordingID != "" {
			terminal.RecordingID = pending.RecordingID
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.ReceiptTimeout)
	defer cancel()

	conn, _, err := f.cfg.Dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("cloud: terminal connect: %w", err)
	}
	defer conn.Close()

	if err := f.send(conn, terminal); err != nil {
		return err
	}

	f.log.Info("terminal stop message acknowledged",
		zap.String("recordingID", terminal.RecordingID))

	return nil
}

// fill applies the configured identifiers to messages that omit them.
func (f *Forwarder) fill(msg *Message) {
	if msg.DeviceID == "" {
		msg.DeviceID = f.cfg.DeviceID
	}

	if msg.RecordingID == "" {
		msg.RecordingID = f.cfg.RecordingID
	}
}
