// Package protocol defines the wire-level contract shared by all
// instrument codecs: the Frame unit exchanged with a Transport, the
// Measurement produced by decoding, and the Codec interface each
// instrument implements.
//
// Frames are opaque outside codecs. A codec owns the complete wire
// format of its instrument, including any length prefix or checksum;
// transports move frames without interpreting them.
//
// # Decoding discipline
//
// Decode consumes one inbound frame and returns zero or more complete
// decoded units. An empty result with a nil error means the decoder is
// awaiting more bytes (a partial message is buffered internally). A non
// nil error wrapping ErrDecode reports a malformed frame; the decoder
// has already discarded bytes up to the next recognisable frame
// boundary, so the caller can keep feeding frames. Decode errors are
// diagnostics, never fatal to the acquisition pipeline.
package protocol
