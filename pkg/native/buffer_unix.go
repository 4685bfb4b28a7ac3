//go:build (linux || darwin) && amd64

package native

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

// Buffer is a single page of executable memory. Each call rewrites the page
// and flips it between writable and executable, so it is never both.
type Buffer struct {
	mu  sync.Mutex
	mem []byte
}

// NewBuffer maps the executable page. The mapping is page aligned, which
// is 16-byte aligned like the kernel code buffer.
func NewBuffer() (*Buffer, error) {
	size := unix.Getpagesize()
	if size < BufferSize {
		size = BufferSize
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mapping executable buffer: %w", err)
	}
	return &Buffer{mem: mem}, nil
}

func (b *Buffer) ExecuteRaw(code []byte) (int32, error) {
	if len(code) > BufferSize {
		return 0, ErrTooLarge
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mem == nil {
		return 0, fmt.Errorf("executable buffer is closed")
	}
	if err := unix.Mprotect(b.mem, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return 0, fmt.Errorf("making buffer writable: %w", err)
	}
	clear(b.mem)
	copy(b.mem, code)
	if err := unix.Mprotect(b.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return 0, fmt.Errorf("making buffer executable: %w", err)
	}

	r1, _, _ := purego.SyscallN(uintptr(unsafe.Pointer(&b.mem[0])))
	return int32(uint32(r1)), nil
}

// Close unmaps the buffer.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mem == nil {
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem = nil
	return err
}
