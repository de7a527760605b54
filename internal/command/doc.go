// Package command defines the uniform command vocabulary shared by all
// instruments and the parser that turns textual command expressions into
// structured Command values.
//
// Parsing is pure and device-independent: it validates the command name,
// argument arity and argument shape, but knows nothing about which
// instrument will eventually execute the result. Capability checking
// happens later, in the instrument package.
//
// # Grammar
//
//	expr    := [ "Raw:" ] name [ ":" arg { "," arg } ]
//	arg     := number [ multiplier ] [ unit-word ] | word
//
// Numeric arguments accept a metric multiplier suffix (k, M, m, u) and
// an optional trailing unit word that is ignored ("10kHz" parses as
// 10000). The Raw: prefix marks the wrapped command for byte-exact
// transmission without device-side capability validation.
package command
