package vault

// this file intentionally left without build tags: memFile backs the
// package's own tests, but lives outside _test.go so other packages
// (collab) can reuse it for integration-style tests without duplicating
// the implementation.

// MemFile is a byte-slice-backed File, useful for tests and for callers
// that want to operate on an in-memory vault before persisting it.
type MemFile struct {
	data []byte
}

// NewMemFile allocates a MemFile of the given size, zero-filled.
func NewMemFile(size int64) *MemFile {
	return &MemFile{data: make([]byte, size)}
}

// NewMemFileFromBytes wraps an existing byte slice.
func NewMemFileFromBytes(b []byte) *MemFile {
	return &MemFile{data: b}
}

func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, f.data[off:])
	return n, nil
}

func (f *MemFile) WriteAt(p []byte, off int64) (int, error) {
	n := copy(f.data[off:], p)
	return n, nil
}

func (f *MemFile) Sync() error {
	return nil
}

func (f *MemFile) Size() (int64, error) {
	return int64(len(f.data)), nil
}

// Bytes returns the backing slice.
func (f *MemFile) Bytes() []byte {
	return f.data
}
