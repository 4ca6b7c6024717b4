package vault

import "fmt"

// wipePasses is the number of overwrite/flush/fsync repetitions Wipe
// performs, per §4.10.
const wipePasses = 3

// Wipe overwrites head_salt + slot_area + tail_salt with fresh random
// bytes, three times, fsyncing after each pass. It is invoked by callers
// after a configurable number of consecutive failed read attempts.
func (v *Vault) Wipe() error {
	for pass := 0; pass < wipePasses; pass++ {
		headAndArea, err := v.randSource.GetRandom(int(v.layout.SaltLen + v.layout.Area))
		if err != nil {
			return fmt.Errorf("vault: wipe: %w", err)
		}
		if _, err := v.file.WriteAt(headAndArea, 0); err != nil {
			return fmt.Errorf("vault: wipe: %w", err)
		}
		if err := v.file.Sync(); err != nil {
			return fmt.Errorf("vault: wipe: %w", err)
		}

		tail, err := v.randSource.GetRandom(int(v.layout.SaltLen))
		if err != nil {
			return fmt.Errorf("vault: wipe: %w", err)
		}
		tailOffset := v.layout.FileSize - v.layout.SaltLen
		if _, err := v.file.WriteAt(tail, tailOffset); err != nil {
			return fmt.Errorf("vault: wipe: %w", err)
		}
		if err := v.file.Sync(); err != nil {
			return fmt.Errorf("vault: wipe: %w", err)
		}
	}
	return nil
}
