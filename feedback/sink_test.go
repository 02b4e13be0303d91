package feedback

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestNewOSCSinkValidation(t *testing.T) {
	if _, err := NewOSCSink("", 5005, "/in/alpha"); err == nil {
		t.Fatal("expected error for empty host")
	}

	if _, err := NewOSCSink("127.0.0.1", 0, "/in/alpha"); err == nil {
		t.Fatal("expected error for port 0")
	}

	if _, err := NewOSCSink("127.0.0.1", 5005, ""); err == nil {
		t.Fatal("expected error for empty address path")
	}
}

func TestOSCSinkEmitsSingleFloatMessage(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer conn.Close()

	port := conn.LocalAddr().(*net.UDPAddr).Port

	sink, err := NewOSCSink("127.0.0.1", port, "/in/alpha")
	if err != nil {
		t.Fatalf("NewOSCSink: %v", err)
	}

	if err := sink.Emit(1.5); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	buf := make([]byte, 512)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	packet := buf[:n]

	if !bytes.HasPrefix(packet, []byte("/in/alpha")) {
		t.Fatalf("packet does not start with the address path: %q", packet)
	}

	// One float32 argument carries the OSC type tag ",f".
	if !bytes.Contains(packet, []byte(",f")) {
		t.Fatalf("packet carries no single-float type tag: %q", packet)
	}
}
