//go:build !((linux || darwin) && amd64)

package native

// Buffer is unavailable on this platform.
type Buffer struct{}

func NewBuffer() (*Buffer, error) {
	return nil, ErrUnsupported
}

func (b *Buffer) ExecuteRaw(code []byte) (int32, error) {
	if len(code) > BufferSize {
		return 0, ErrTooLarge
	}
	return 0, ErrUnsupported
}

func (b *Buffer) Close() error { return nil }
