package protocol

import "fmt"

// Direction tags a frame as outbound (host to instrument) or inbound.
type Direction int

const (
	Outbound Direction = iota
	Inbound
)

// FrameKind selects the transport channel a frame travels on.
//
// HID transports carry Report frames; USB transports issue a control
// transfer for Control frames and a bulk transfer for Bulk frames;
// socket transports carry Line frames.
type FrameKind int

const (
	FrameReport FrameKind = iota
	FrameControl
	FrameBulk
	FrameLine
)

// Frame is one opaque unit of raw bytes exchanged with an instrument.
//
// ID carries the HID report id or USB endpoint address where the
// backend needs one; it is zero otherwise.
type Frame struct {
	Kind      FrameKind
	Direction Direction
	ID        byte
	Data      []byte
}

// String returns a short diagnostic rendering of the frame.
func (f Frame) String() string {
	dir := "out"
	if f.Direction == Inbound {
		dir = "in"
	}
	return fmt.Sprintf("Frame{%s, kind=%d, id=%#02x, % X}", dir, f.Kind, f.ID, f.Data)
}
