// Package artifact defines the on-disk form of compiled programs and the
// store I/O shared by the compiler, the assembler and the runner.
//
// A bytecode artifact is the two bytes "TB" followed by 3-byte TeaScript
// instructions. Any other content is raw native machine code.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"teaos/pkg/vfs"
)

const (
	Magic = "TB"

	BytecodeExt = ".tbin"
	NativeExt   = ".bin"
)

var (
	ErrSourceNotFound = errors.New("source file not found")
	ErrOutputCreate   = errors.New("cannot create output file")
)

// Store is the part of the virtual disk the toolchain needs.
type Store interface {
	Open(name string) (*vfs.File, error)
	Create(name string) (*vfs.File, error)
	Delete(name string) error
}

func IsBytecode(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Magic))
}

// Bytecode prepends the header to code.
func Bytecode(code []byte) []byte {
	out := make([]byte, 0, len(Magic)+len(code))
	out = append(out, Magic...)
	return append(out, code...)
}

// Payload strips the header from a bytecode artifact. Native artifacts are
// returned unchanged.
func Payload(data []byte) []byte {
	if IsBytecode(data) {
		return data[len(Magic):]
	}
	return data
}

// Load reads a whole file from the store.
func Load(store Store, name string) ([]byte, error) {
	f, err := store.Open(name)
	if err != nil {
		if errors.Is(err, vfs.ErrFileNotFound) || errors.Is(err, vfs.ErrInvalidFilename) {
			return nil, fmt.Errorf("%w: '%s'", ErrSourceNotFound, name)
		}
		return nil, err
	}
	data, err := f.Read(vfs.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrSourceNotFound, name)
	}
	return data, nil
}

// Save replaces name with data. Any previous file is removed first, so a
// failed write leaves no artifact behind.
func Save(store Store, name string, data []byte) error {
	if err := store.Delete(name); err != nil && !errors.Is(err, vfs.ErrFileNotFound) {
		return fmt.Errorf("%w '%s': %w", ErrOutputCreate, name, err)
	}
	f, err := store.Create(name)
	if err != nil {
		return fmt.Errorf("%w '%s': %w", ErrOutputCreate, name, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = store.Delete(name)
		return fmt.Errorf("%w '%s': %w", ErrOutputCreate, name, err)
	}
	return nil
}

// OutputName derives an artifact name from a source name: everything up to
// the first '.', followed by ext.
func OutputName(src, ext string) string {
	if i := strings.IndexByte(src, '.'); i >= 0 {
		src = src[:i]
	}
	return src + ext
}
