package vault

import (
	"fmt"

	"github.com/scode/cryptvault/bitpack"
	"github.com/scode/cryptvault/shamirfield"
	"github.com/scode/cryptvault/vaultcrypto"
	"github.com/scode/cryptvault/vba"
)

const maxPrimeRejectionTries = 100_000
const maxOffsetSearchTries = 100_000

// WriteSlot wraps payload in a VBA, scrubs any ghost copies from a prior
// write under the same password, and writes it out in replicated or
// Shamir-threshold mode per the vault's configuration, then verifies the
// write by reading it back.
func (v *Vault) WriteSlot(payload []byte) error {
	if len(payload) > vba.MaxPayload {
		return ErrPayloadTooLarge
	}

	useShamir := v.shamirMode
	if useShamir && len(payload)+9 >= MaxShamir {
		useShamir = false
	}

	var envelope *vba.VBA
	var err error
	if useShamir {
		shKey, shIV := v.shamirKey()
		cipher := vaultcrypto.OFBCipher{Key: shKey, IV: shIV}
		ciphertext, encErr := cipher.Encrypt(payload, v.randSource)
		if encErr != nil {
			return fmt.Errorf("vault: pre-encrypting shamir payload: %w", encErr)
		}
		envelope, err = vba.New(ciphertext, SlotLen, nil)
	} else {
		envelope, err = vba.New(payload, SlotLen, nil)
	}
	if err != nil {
		return fmt.Errorf("vault: building envelope: %w", err)
	}
	if err := envelope.Scramble(v.randSource); err != nil {
		return err
	}

	if v.hasExistingData() {
		if err := v.scrubGhosts(); err != nil {
			return err
		}
	}

	if useShamir {
		if err := v.writeShamir(envelope); err != nil {
			return err
		}
	} else {
		if err := v.writeReplicated(envelope); err != nil {
			return err
		}
	}

	if err := v.file.Sync(); err != nil {
		return fmt.Errorf("vault: flush after write: %w", err)
	}

	result, err := v.ReadSlot()
	if err != nil {
		return fmt.Errorf("vault: %w: %v", ErrVerificationFailed, err)
	}
	if result == nil {
		return ErrVerificationFailed
	}
	return nil
}

// hasExistingData probes whether any candidate slot currently holds data
// that validates under the current phash (a ghost from a previous write
// with the same password).
func (v *Vault) hasExistingData() bool {
	result, err := v.ReadSlot()
	return err == nil && result != nil
}

// ReadResult is the outcome of a successful ReadSlot.
type ReadResult struct {
	Payload []byte
	// NoSpareSlot is set when only one valid copy was found, meaning a
	// rewrite is recommended to restore redundancy (§4.7).
	NoSpareSlot bool
}

// scrubGhosts overwrites every candidate offset with fresh random bytes,
// erasing ghosts of a prior write under the same password.
func (v *Vault) scrubGhosts() error {
	for i := 0; i < v.layout.SlotMax; i++ {
		offset := v.offsetFor(i)
		junk, err := v.randSource.GetRandom(SlotLen)
		if err != nil {
			return fmt.Errorf("vault: scrubbing ghost slot: %w", err)
		}
		if _, err := v.file.WriteAt(junk, offset); err != nil {
			return fmt.Errorf("vault: scrubbing ghost slot: %w", err)
		}
	}
	return nil
}

// writeReplicated implements §4.6: choose an activation vector, and write
// the same encrypted VBA into each activated slot.
func (v *Vault) writeReplicated(envelope *vba.VBA) error {
	k := v.selectSlotCount(v.layout.SlotTarget)
	activation := activationBitmap(k, v.layout.SlotMax, v.rng)

	for i, active := range activation {
		if !active {
			continue
		}
		key, iv := v.slotKey(i)
		cipher := vaultcrypto.OFBCipher{Key: key, IV: iv}
		ciphertext, err := cipher.Encrypt(envelope.Bytes(), v.randSource)
		if err != nil {
			return fmt.Errorf("vault: encrypting slot %d: %w", i, err)
		}
		if _, err := v.file.WriteAt(ciphertext, v.offsetFor(i)); err != nil {
			return fmt.Errorf("vault: writing slot %d: %w", i, err)
		}
	}
	return nil
}

// writeShamir implements §4.8: pre-pad the envelope, derive the prime,
// rejection-sample the padding until the buffer integer is below the
// prime, generate slot_max shares, and write the activated ones.
func (v *Vault) writeShamir(envelope *vba.VBA) error {
	if envelope.PayloadEnd()%64 == 0 {
		envelope.Grow(64)
	}

	dataLen := envelope.Capacity()
	prime, err := v.primeFor(dataLen)
	if err != nil {
		return err
	}

	ok := false
	for try := 0; try < maxPrimeRejectionTries; try++ {
		if err := envelope.Scramble(v.randSource); err != nil {
			return err
		}
		if bitpack.FromBytesLE(envelope.Bytes()).Cmp(prime) < 0 {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("vault: could not pad envelope below prime after %d tries", maxPrimeRejectionTries)
	}

	threshold := min3(v.selectSlotCount(v.layout.SlotTarget)+1, v.layout.MaxReqs, v.layout.SlotMax-v.layout.SlotTarget)
	nActive := min2(v.layout.SlotMax, v.selectSlotCount(v.layout.SlotTarget)-1+threshold)

	activation, err := v.findValidOffsetConfiguration(nActive, dataLen)
	if err != nil {
		return err
	}

	shares, err := shamirfield.MakeShares(threshold, v.layout.SlotMax, prime, envelope.Bytes(), dataLen)
	if err != nil {
		return fmt.Errorf("vault: generating shamir shares: %w", err)
	}

	for i, active := range activation {
		if !active {
			continue
		}
		key, iv := v.slotKey(i)
		cipher := vaultcrypto.OFBCipher{Key: key, IV: iv}
		ciphertext, err := cipher.Encrypt(shares[i], v.randSource)
		if err != nil {
			return fmt.Errorf("vault: encrypting share %d: %w", i, err)
		}
		if _, err := v.file.WriteAt(ciphertext, v.offsetFor(i)); err != nil {
			return fmt.Errorf("vault: writing share %d: %w", i, err)
		}
	}
	return nil
}

// findValidOffsetConfiguration resamples activation bitmaps until the
// activated offsets, sorted, are pairwise separated by at least dataLen
// bytes (no share may overlap its neighbor), per §4.8 step 6.
func (v *Vault) findValidOffsetConfiguration(activeCount, dataLen int) ([]bool, error) {
	reporter := v.opts.reporter()
	for try := 0; try < maxOffsetSearchTries; try++ {
		if try > 0 && try%10000 == 0 {
			reporter.Progress(fmt.Sprintf("offset search: %d tries so far", try))
		}
		activation := activationBitmap(activeCount, v.layout.SlotMax, v.rng)
		offsets := make([]int64, 0, activeCount)
		for i, active := range activation {
			if active {
				offsets = append(offsets, v.offsetFor(i))
			}
		}
		if offsetsNonOverlapping(offsets, int64(dataLen)) {
			return activation, nil
		}
	}
	return nil, ErrLayoutSearchExhausted
}

func offsetsNonOverlapping(offsets []int64, minGap int64) bool {
	sorted := append([]int64(nil), offsets...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] < minGap {
			return false
		}
	}
	return true
}

// activationBitmap returns a slotMax-length bitmap with exactly k
// (clamped to [0, slotMax]) true entries, in a random arrangement.
func activationBitmap(k, slotMax int, rng randShuffler) []bool {
	if k < 0 {
		k = 0
	}
	if k > slotMax {
		k = slotMax
	}
	bitmap := make([]bool, slotMax)
	for i := 0; i < k; i++ {
		bitmap[i] = true
	}
	rng.Shuffle(slotMax, func(i, j int) { bitmap[i], bitmap[j] = bitmap[j], bitmap[i] })
	return bitmap
}

type randShuffler interface {
	Shuffle(n int, swap func(i, j int))
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func min3(a, b, c int) int {
	return min2(min2(a, b), c)
}
