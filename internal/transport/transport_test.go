package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/openbench/bench-core/internal/protocol"
)

func TestParseUSBAddress(t *testing.T) {
	tests := []struct {
		in       string
		vid, pid uint16
		wantErr  bool
	}{
		{"1a86:e429", 0x1a86, 0xe429, false},
		{"0483:5740", 0x0483, 0x5740, false},
		{"1a86", 0, 0, true},
		{"zzzz:e429", 0, 0, true},
		{"1a86:zzzz", 0, 0, true},
		{"1a86:e4290", 0, 0, true},
	}
	for _, tt := range tests {
		vid, pid, err := ParseUSBAddress(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrBadAddress) {
				t.Errorf("ParseUSBAddress(%q) err = %v, want ErrBadAddress", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseUSBAddress(%q): %v", tt.in, err)
			continue
		}
		if vid != tt.vid || pid != tt.pid {
			t.Errorf("ParseUSBAddress(%q) = %04x:%04x, want %04x:%04x",
				tt.in, vid, pid, tt.vid, tt.pid)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.OpenTimeout != defaultOpenTimeout {
		t.Errorf("OpenTimeout = %v, want %v", cfg.OpenTimeout, defaultOpenTimeout)
	}
	if cfg.ReadTimeout != defaultReadTimeout {
		t.Errorf("ReadTimeout = %v, want %v", cfg.ReadTimeout, defaultReadTimeout)
	}
	if cfg.WriteTimeout != defaultWriteTimeout {
		t.Errorf("WriteTimeout = %v, want %v", cfg.WriteTimeout, defaultWriteTimeout)
	}

	tuned := Config{ReadTimeout: 5 * time.Second}.withDefaults()
	if tuned.ReadTimeout != 5*time.Second {
		t.Errorf("explicit ReadTimeout overwritten: %v", tuned.ReadTimeout)
	}
}

// fakeInstrument accepts one connection and answers each received line
// with a canned response.
func fakeInstrument(t *testing.T, response string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			if n > 0 && response != "" {
				if _, err := conn.Write([]byte(response)); err != nil {
					return
				}
			}
		}
	}()

	return ln.Addr().String()
}

func TestSCPIRoundTrip(t *testing.T) {
	addr := fakeInstrument(t, "+1.234500E+00\n")

	ctx := context.Background()
	tr, err := Open(ctx, Descriptor{Kind: KindSCPI, Address: addr}, Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tr.Close()

	out := protocol.Frame{
		Kind:      protocol.FrameLine,
		Direction: protocol.Outbound,
		Data:      []byte("READ?\n"),
	}
	if err := tr.Write(ctx, out); err != nil {
		t.Fatalf("Write: %v", err)
	}

	in, err := tr.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if in.Kind != protocol.FrameLine || in.Direction != protocol.Inbound {
		t.Errorf("frame = %v %v, want inbound line", in.Kind, in.Direction)
	}
	if got := string(in.Data); got != "+1.234500E+00\n" {
		t.Errorf("Data = %q, want response line", got)
	}
}

func TestSCPIReadTimeout(t *testing.T) {
	addr := fakeInstrument(t, "")

	ctx := context.Background()
	tr, err := Open(ctx, Descriptor{Kind: KindSCPI, Address: addr},
		Config{ReadTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tr.Close()

	if _, err := tr.Read(ctx); !errors.Is(err, ErrTimeout) {
		t.Errorf("Read err = %v, want ErrTimeout", err)
	}
}

func TestSCPIUseAfterClose(t *testing.T) {
	addr := fakeInstrument(t, "")

	ctx := context.Background()
	tr, err := Open(ctx, Descriptor{Kind: KindSCPI, Address: addr}, Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close err = %v, want ErrClosed", err)
	}
	if err := tr.Write(ctx, protocol.Frame{Data: []byte("*RST\n")}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after close err = %v, want ErrClosed", err)
	}
	if _, err := tr.Read(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Read after close err = %v, want ErrClosed", err)
	}
}

func TestSCPIOpenRefused(t *testing.T) {
	// A freshly closed listener leaves a port nothing accepts on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = Open(context.Background(), Descriptor{Kind: KindSCPI, Address: addr},
		Config{OpenTimeout: time.Second})
	if !errors.Is(err, ErrOpenFailed) {
		t.Errorf("Open err = %v, want ErrOpenFailed", err)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(context.Background(), Descriptor{Kind: Kind(99)}, Config{})
	if !errors.Is(err, ErrOpenFailed) {
		t.Errorf("Open err = %v, want ErrOpenFailed", err)
	}
}

func TestKindString(t *testing.T) {
	if KindHID.String() != "hid" || KindUSB.String() != "usb" || KindSCPI.String() != "scpi" {
		t.Error("Kind names drifted")
	}
}
