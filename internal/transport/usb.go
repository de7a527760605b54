package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/gousb"

	"github.com/openbench/bench-core/internal/protocol"
)

// Vendor control transfer parameters for generator-style instruments.
const (
	usbControlRequest = 0x01
	usbReadBufferSize = 64
)

// usbTransport drives a libusb device: control frames go out as vendor
// control transfers, bulk frames through the claimed endpoint pair.
type usbTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	intf *gousb.Interface
	done func()
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint
	cfg  Config
	info string

	mu     sync.Mutex
	closed bool
}

func openUSB(_ context.Context, desc Descriptor, cfg Config) (Transport, error) {
	usbCtx := gousb.NewContext()

	dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(desc.VendorID), gousb.ID(desc.ProductID))
	if err != nil {
		usbCtx.Close()
		return nil, fmt.Errorf("%w: usb open %04x:%04x: %v",
			ErrOpenFailed, desc.VendorID, desc.ProductID, err)
	}
	if dev == nil {
		usbCtx.Close()
		return nil, fmt.Errorf("%w: usb device %04x:%04x not attached",
			ErrOpenFailed, desc.VendorID, desc.ProductID)
	}

	// The kernel usbhid driver grabs these devices first on Linux.
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("%w: usb auto-detach: %v", ErrOpenFailed, err)
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("%w: usb claim interface: %v", ErrOpenFailed, err)
	}

	t := &usbTransport{
		ctx:  usbCtx,
		dev:  dev,
		intf: intf,
		done: done,
		cfg:  cfg,
		info: fmt.Sprintf("usb %04x:%04x", desc.VendorID, desc.ProductID),
	}

	// Endpoints are optional: control-only instruments configure
	// neither and never see bulk frames.
	if cfg.OutEndpoint != 0 {
		t.out, err = intf.OutEndpoint(cfg.OutEndpoint)
		if err != nil {
			t.release()
			return nil, fmt.Errorf("%w: usb out endpoint %d: %v",
				ErrOpenFailed, cfg.OutEndpoint, err)
		}
	}
	if cfg.InEndpoint != 0 {
		t.in, err = intf.InEndpoint(cfg.InEndpoint)
		if err != nil {
			t.release()
			return nil, fmt.Errorf("%w: usb in endpoint %d: %v",
				ErrOpenFailed, cfg.InEndpoint, err)
		}
	}

	return t, nil
}

func (t *usbTransport) Write(ctx context.Context, f protocol.Frame) error {
	if err := t.checkOpen(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.WriteTimeout)
	defer cancel()

	switch f.Kind {
	case protocol.FrameControl:
		rtype := uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice)
		if _, err := t.dev.Control(rtype, usbControlRequest, 0, 0, f.Data); err != nil {
			return fmt.Errorf("%w: usb control out: %v", ErrIO, err)
		}
		return nil

	case protocol.FrameBulk:
		if t.out == nil {
			return fmt.Errorf("%w: no bulk out endpoint configured", ErrIO)
		}
		if _, err := t.out.WriteContext(ctx, f.Data); err != nil {
			return fmt.Errorf("%w: usb bulk write: %v", ErrIO, err)
		}
		return nil

	default:
		return fmt.Errorf("%w: frame kind %v on usb transport", ErrIO, f.Kind)
	}
}

func (t *usbTransport) Read(ctx context.Context) (protocol.Frame, error) {
	if err := t.checkOpen(ctx); err != nil {
		return protocol.Frame{}, err
	}
	if t.in == nil {
		return protocol.Frame{}, ErrTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.ReadTimeout)
	defer cancel()

	buf := make([]byte, usbReadBufferSize)
	n, err := t.in.ReadContext(ctx, buf)
	if err != nil {
		if ctx.Err() != nil {
			return protocol.Frame{}, ErrTimeout
		}
		return protocol.Frame{}, fmt.Errorf("%w: usb bulk read: %v", ErrIO, err)
	}

	return protocol.Frame{
		Kind:      protocol.FrameBulk,
		Direction: protocol.Inbound,
		Data:      buf[:n],
	}, nil
}

func (t *usbTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	t.release()
	return nil
}

func (t *usbTransport) release() {
	if t.done != nil {
		t.done()
	}
	if t.dev != nil {
		t.dev.Close()
	}
	if t.ctx != nil {
		t.ctx.Close()
	}
}

func (t *usbTransport) Info() string {
	return t.info
}

func (t *usbTransport) checkOpen(ctx context.Context) error {
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
