package vault

import "os"

// OSFile adapts *os.File to the vault.File interface.
type OSFile struct {
	*os.File
}

// Size returns the current file size via Stat, without disturbing any
// seek position (the vault engine only ever uses ReadAt/WriteAt).
func (f OSFile) Size() (int64, error) {
	info, err := f.File.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
