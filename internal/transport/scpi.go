package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/openbench/bench-core/internal/protocol"
)

// scpiTransport speaks newline-delimited text over a TCP socket.
type scpiTransport struct {
	conn   net.Conn
	reader *bufio.Reader
	cfg    Config
	info   string

	mu     sync.Mutex
	closed bool
}

func openSCPI(ctx context.Context, desc Descriptor, cfg Config) (Transport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.OpenTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", desc.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrOpenFailed, desc.Address, err)
	}

	return &scpiTransport{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, scpiReadBufferSize),
		cfg:    cfg,
		info:   "scpi " + desc.Address,
	}, nil
}

func (t *scpiTransport) Write(ctx context.Context, f protocol.Frame) error {
	if err := t.checkOpen(ctx); err != nil {
		return err
	}

	deadline := time.Now().Add(t.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: set write deadline: %v", ErrIO, err)
	}

	if _, err := t.conn.Write(f.Data); err != nil {
		return fmt.Errorf("%w: socket write: %v", ErrIO, err)
	}
	return nil
}

// Read returns the next response line, terminator included.
func (t *scpiTransport) Read(ctx context.Context) (protocol.Frame, error) {
	if err := t.checkOpen(ctx); err != nil {
		return protocol.Frame{}, err
	}

	deadline := time.Now().Add(t.cfg.ReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return protocol.Frame{}, fmt.Errorf("%w: set read deadline: %v", ErrIO, err)
	}

	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return protocol.Frame{}, ErrTimeout
		}
		return protocol.Frame{}, fmt.Errorf("%w: socket read: %v", ErrIO, err)
	}

	return protocol.Frame{
		Kind:      protocol.FrameLine,
		Direction: protocol.Inbound,
		Data:      line,
	}, nil
}

func (t *scpiTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	if err := t.conn.Close(); err != nil {
		return fmt.Errorf("%w: socket close: %v", ErrIO, err)
	}
	return nil
}

func (t *scpiTransport) Info() string {
	return t.info
}

func (t *scpiTransport) checkOpen(ctx context.Context) error {
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
