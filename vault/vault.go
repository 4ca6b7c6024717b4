// Package vault implements the password-locked secret vault engine: file
// layout derivation, per-password coordinate derivation from a single
// phash, the replicated and Shamir-threshold write/read paths, and
// catastrophic wipe.
package vault

import (
	"fmt"
	mathrand "math/rand"

	"github.com/scode/cryptvault/vaultcrypto"
)

// File is the seekable, byte-addressed handle the vault engine requires.
// *os.File satisfies it via OSFile.
type File interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Sync() error
	Size() (int64, error)
}

// Vault owns a file handle and the phash derived for one (password, salt)
// pair. It is not safe for concurrent use: per §5 the core is
// single-threaded and synchronous.
type Vault struct {
	file       File
	layout     Layout
	phash      []byte
	res        reservations
	shamirMode bool
	randSource vaultcrypto.RandomSource
	rng        *mathrand.Rand
	opts       Options
}

// Open computes the layout for file and returns a Vault with no phash set
// yet; call SetPhash before Write/Read/Wipe.
func Open(file File, randSource vaultcrypto.RandomSource, opts Options) (*Vault, error) {
	size, err := file.Size()
	if err != nil {
		return nil, fmt.Errorf("vault: stat: %w", err)
	}
	layout, err := ComputeLayout(size)
	if err != nil {
		return nil, err
	}
	if opts.SlotTargetOverride > 0 {
		layout.SlotTarget = opts.SlotTargetOverride
		layout.SlotMax = layout.SlotTarget*2 + 1
	}
	seed, err := randSource.GetRandom(8)
	if err != nil {
		return nil, fmt.Errorf("vault: seeding slot-count rng: %w", err)
	}
	return &Vault{
		file:       file,
		layout:     layout,
		shamirMode: layout.ShamirOK,
		randSource: randSource,
		rng:        mathrand.New(mathrand.NewSource(seedFromBytes(seed))),
		opts:       opts,
	}, nil
}

// SaltDigest reads the head and tail salt regions and feeds them, plus any
// external seed bytes, into vaultcrypto.SaltDigest.
func (v *Vault) SaltDigest(externalSeed []byte, deviceSerial string) ([]byte, error) {
	head := make([]byte, v.layout.SaltLen)
	if _, err := v.file.ReadAt(head, 0); err != nil {
		return nil, fmt.Errorf("vault: reading head salt: %w", err)
	}
	tail := make([]byte, v.layout.SaltLen)
	tailOffset := v.layout.FileSize - v.layout.SaltLen
	if _, err := v.file.ReadAt(tail, tailOffset); err != nil {
		return nil, fmt.Errorf("vault: reading tail salt: %w", err)
	}
	return vaultcrypto.SaltDigest(head, tail, externalSeed, deviceSerial), nil
}

// SetPhash installs the derived phash and builds the tracker reservations
// over it. shamirMode may be disabled by the caller even when the layout
// supports it (for example when the payload is too wide for a share);
// it is always disabled automatically when the layout forbids it.
func (v *Vault) SetPhash(phash []byte, shamirMode bool) error {
	res, err := reserveAll(len(phash), v.layout.SlotMax)
	if err != nil {
		return err
	}
	v.phash = phash
	v.res = res
	v.shamirMode = shamirMode && v.layout.ShamirOK
	return nil
}

// Layout returns the computed file geometry.
func (v *Vault) Layout() Layout {
	return v.layout
}

// Close flushes the file and wipes the phash from memory. It is always
// safe to call Close more than once.
func (v *Vault) Close() error {
	var err error
	if v.file != nil {
		err = v.file.Sync()
	}
	v.wipeInPlace(v.phash)
	v.phash = nil
	return err
}

func (v *Vault) wipeInPlace(b []byte) {
	if len(b) == 0 || v.randSource == nil {
		return
	}
	for pass := 0; pass < 3; pass++ {
		fresh, err := v.randSource.GetRandom(len(b))
		if err != nil {
			for i := range b {
				b[i] = byte(mathrand.Intn(256))
			}
			continue
		}
		copy(b, fresh)
	}
}

func seedFromBytes(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}
