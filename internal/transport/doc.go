// Package transport moves protocol frames between the host and a bench
// instrument without interpreting them.
//
// Three transports cover the supported attachment styles:
//
//   - HID: interrupt reports through a hidapi device node, used by
//     serial-cable multimeters.
//   - USB: vendor control transfers and bulk endpoints via libusb, used
//     by waveform generators.
//   - SCPI: newline-delimited text over a raw TCP socket.
//
// All transports share the Transport interface: context-aware blocking
// reads and writes over opaque frames, plus Close. Framing, checksums
// and retries on malformed data belong to the protocol codecs; the
// transport's only failure modes are open, I/O and timeout errors.
package transport
