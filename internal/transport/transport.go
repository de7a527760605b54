package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openbench/bench-core/internal/protocol"
)

// Kind selects the physical attachment style.
type Kind int

const (
	KindHID Kind = iota
	KindUSB
	KindSCPI
)

func (k Kind) String() string {
	switch k {
	case KindHID:
		return "hid"
	case KindUSB:
		return "usb"
	case KindSCPI:
		return "scpi"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Default timeouts and sizes for instrument I/O.
const (
	// defaultOpenTimeout bounds device enumeration and dialling.
	defaultOpenTimeout = 10 * time.Second

	// defaultReadTimeout is the per-read window. Handheld meters emit a
	// report every few hundred milliseconds; a second of silence means
	// nothing is coming.
	defaultReadTimeout = 1 * time.Second

	// defaultWriteTimeout bounds a single outbound frame.
	defaultWriteTimeout = 2 * time.Second

	// hidReportSize is the interrupt report size of the supported
	// serial-cable bridges. The bridge pads every report to 64 bytes;
	// the leading count byte says how much of it is payload.
	hidReportSize = 64

	// scpiReadBufferSize bounds one response line.
	scpiReadBufferSize = 4096
)

// Descriptor identifies one attachable instrument.
type Descriptor struct {
	Kind Kind

	// Path is the platform device node for HID ("/dev/hidraw2" or a
	// hidapi path string).
	Path string

	// VendorID and ProductID select a USB device when Path is empty.
	VendorID  uint16
	ProductID uint16

	// Address is the host:port of a SCPI socket instrument.
	Address string
}

// Config carries tuning for an open transport. Zero values take the
// package defaults.
type Config struct {
	OpenTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ReportID prefixes HID output reports. The supported bridges use
	// the unnumbered report 0x00.
	ReportID byte

	// Interface, OutEndpoint and InEndpoint pin the USB bulk pipe.
	Interface   int
	OutEndpoint int
	InEndpoint  int
}

func (c Config) withDefaults() Config {
	if c.OpenTimeout == 0 {
		c.OpenTimeout = defaultOpenTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	return c
}

// Transport is a bidirectional frame pipe to one instrument.
//
// Implementations are safe for one concurrent reader plus one
// concurrent writer; Close unblocks both.
type Transport interface {
	// Write sends one outbound frame.
	Write(ctx context.Context, f protocol.Frame) error

	// Read blocks for the next inbound frame. A quiet line returns
	// ErrTimeout after the configured window; callers poll again.
	Read(ctx context.Context) (protocol.Frame, error)

	// Close releases the device. Subsequent calls return ErrClosed.
	Close() error

	// Info describes the attachment for logs.
	Info() string
}

// Open attaches to the instrument named by the descriptor.
func Open(ctx context.Context, desc Descriptor, cfg Config) (Transport, error) {
	cfg = cfg.withDefaults()
	switch desc.Kind {
	case KindHID:
		return openHID(ctx, desc, cfg)
	case KindUSB:
		return openUSB(ctx, desc, cfg)
	case KindSCPI:
		return openSCPI(ctx, desc, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown transport kind %v", ErrOpenFailed, desc.Kind)
	}
}

// ParseUSBAddress parses "vvvv:pppp" hex vendor and product IDs.
func ParseUSBAddress(s string) (vendor, product uint16, err error) {
	vid, pid, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q is not vid:pid", ErrBadAddress, s)
	}
	v, err := strconv.ParseUint(vid, 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: vendor id %q: %v", ErrBadAddress, vid, err)
	}
	p, err := strconv.ParseUint(pid, 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: product id %q: %v", ErrBadAddress, pid, err)
	}
	return uint16(v), uint16(p), nil
}
