// Package pipeline runs a command sequence against one device and
// fans the resulting measurements out to sinks.
//
// For each command the pipeline sends the encoded frame, then, when
// the codec expects a reply, polls the device until the configured
// sample window fills or the read budget runs out. Decode diagnostics
// are logged and survived; the codec has already resynchronised by the
// time they surface, so the next frame decodes normally.
//
// Events carry the reading plus the session's running minimum and
// maximum, which only tighten while min/max tracking is armed.
package pipeline
