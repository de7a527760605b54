package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sstallion/go-hid"

	"github.com/openbench/bench-core/internal/protocol"
)

// hidInitOnce guards the process-wide hidapi runtime. hid.Exit is left
// to process teardown; re-initialising per open upsets udev on some
// hosts.
var hidInitOnce sync.Once

func hidInit() error {
	var err error
	hidInitOnce.Do(func() {
		err = hid.Init()
	})
	return err
}

// hidTransport exchanges fixed-size interrupt reports with a hidapi
// device.
type hidTransport struct {
	dev  *hid.Device
	cfg  Config
	info string

	mu     sync.Mutex
	closed bool
}

func openHID(_ context.Context, desc Descriptor, cfg Config) (Transport, error) {
	if err := hidInit(); err != nil {
		return nil, fmt.Errorf("%w: hidapi init: %v", ErrOpenFailed, err)
	}

	var (
		dev *hid.Device
		err error
	)
	if desc.Path != "" {
		dev, err = hid.OpenPath(desc.Path)
	} else {
		dev, err = hid.Open(desc.VendorID, desc.ProductID, "")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}

	info := desc.Path
	if info == "" {
		info = fmt.Sprintf("%04x:%04x", desc.VendorID, desc.ProductID)
	}
	return &hidTransport{
		dev:  dev,
		cfg:  cfg,
		info: "hid " + info,
	}, nil
}

// Write sends the frame as one output report, prefixed with the report
// ID as hidapi requires.
func (t *hidTransport) Write(ctx context.Context, f protocol.Frame) error {
	if err := t.checkOpen(ctx); err != nil {
		return err
	}

	report := make([]byte, 1+len(f.Data))
	report[0] = t.cfg.ReportID
	copy(report[1:], f.Data)

	if _, err := t.dev.Write(report); err != nil {
		return fmt.Errorf("%w: hid write: %v", ErrIO, err)
	}
	return nil
}

// Read blocks for the next interrupt report. The report arrives
// whole; partial-message reassembly is the codec's job.
func (t *hidTransport) Read(ctx context.Context) (protocol.Frame, error) {
	if err := t.checkOpen(ctx); err != nil {
		return protocol.Frame{}, err
	}

	timeout := t.cfg.ReadTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}

	buf := make([]byte, hidReportSize)
	n, err := t.dev.ReadWithTimeout(buf, timeout)
	if err != nil {
		if errors.Is(err, hid.ErrTimeout) {
			return protocol.Frame{}, ErrTimeout
		}
		return protocol.Frame{}, fmt.Errorf("%w: hid read: %v", ErrIO, err)
	}
	if n == 0 {
		return protocol.Frame{}, ErrTimeout
	}

	return protocol.Frame{
		Kind:      protocol.FrameReport,
		Direction: protocol.Inbound,
		ID:        t.cfg.ReportID,
		Data:      buf[:n],
	}, nil
}

func (t *hidTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	if err := t.dev.Close(); err != nil {
		return fmt.Errorf("%w: hid close: %v", ErrIO, err)
	}
	return nil
}

func (t *hidTransport) Info() string {
	return t.info
}

func (t *hidTransport) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	return nil
}

// ListHID enumerates attached HID instruments matching the vendor and
// product filter; zero matches everything.
func ListHID(vendor, product uint16) ([]Descriptor, error) {
	if err := hidInit(); err != nil {
		return nil, fmt.Errorf("%w: hidapi init: %v", ErrOpenFailed, err)
	}

	var found []Descriptor
	err := hid.Enumerate(vendor, product, func(info *hid.DeviceInfo) error {
		found = append(found, Descriptor{
			Kind:      KindHID,
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: hid enumerate: %v", ErrIO, err)
	}
	return found, nil
}
