// Package native runs raw machine code produced by the assembler.
//
// This is the one place in the system that executes untrusted bytes as
// code. There is no validation, sandbox or timeout: code that never returns
// hangs the caller, and code that faults takes the process down with it.
//
// The assembler emits 32-bit x86 encodings. On amd64 hosts the bytes
// 0x40-0x4F (inc and dec in 32-bit mode) decode as REX prefixes, so programs
// that use them behave differently than on a 32-bit kernel.
package native

import "errors"

// BufferSize is the largest program the executor accepts.
const BufferSize = 1024

var (
	ErrTooLarge    = errors.New("binary too large")
	ErrUnsupported = errors.New("native execution is not supported on this platform")
)

// Executor calls code as a function taking no arguments and returns the low
// 32 bits of its integer result register.
type Executor interface {
	ExecuteRaw(code []byte) (int32, error)
}
