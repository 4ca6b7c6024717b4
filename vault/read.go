package vault

import (
	"fmt"
	"math/big"

	"github.com/scode/cryptvault/bitpack"
	"github.com/scode/cryptvault/shamirfield"
	"github.com/scode/cryptvault/vaultcrypto"
	"github.com/scode/cryptvault/vba"
)

const dummyInterpolationRounds = 99

// ReadSlot blindly trial-decrypts every candidate slot, returning the
// replicated payload if any slot validates, otherwise attempting Shamir
// recovery. It returns (nil, nil) — never an error — when the password
// does not unlock this file; §4.12 treats that as an expected outcome,
// not a failure.
func (v *Vault) ReadSlot() (*ReadResult, error) {
	result, err := v.readReplicated()
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	return v.readShamirRecover()
}

// readReplicated implements §4.7.
func (v *Vault) readReplicated() (*ReadResult, error) {
	perm := v.rng.Perm(v.layout.SlotMax)

	var first *vba.VBA
	foundCount := 0
	for _, i := range perm {
		raw := make([]byte, MaxLen)
		if _, err := v.file.ReadAt(raw, v.offsetFor(i)); err != nil {
			return nil, fmt.Errorf("vault: reading slot %d: %w", i, err)
		}
		key, iv := v.slotKey(i)
		cipher := vaultcrypto.OFBCipher{Key: key, IV: iv}
		plain, err := cipher.Decrypt(raw, len(raw))
		if err != nil {
			return nil, fmt.Errorf("vault: decrypting slot %d: %w", i, err)
		}
		candidate := vba.FromBytes(plain, nil)
		if !candidate.Validate() {
			continue
		}
		foundCount++
		if foundCount == 1 {
			first = candidate
		}
		if foundCount >= 2 {
			break
		}
	}

	if foundCount == 0 {
		return nil, nil
	}
	payload := append([]byte(nil), first.Payload()...)
	return &ReadResult{Payload: payload, NoSpareSlot: foundCount == 1}, nil
}

// readShamirRecover implements §4.9.
func (v *Vault) readShamirRecover() (*ReadResult, error) {
	blocks := make([][]byte, v.layout.SlotMax)
	for i := 0; i < v.layout.SlotMax; i++ {
		raw := make([]byte, MaxShamir)
		if _, err := v.file.ReadAt(raw, v.offsetFor(i)); err != nil {
			return nil, fmt.Errorf("vault: reading share %d: %w", i, err)
		}
		key, iv := v.slotKey(i)
		cipher := vaultcrypto.OFBCipher{Key: key, IV: iv}
		plain, err := cipher.Decrypt(raw, len(raw))
		if err != nil {
			return nil, fmt.Errorf("vault: decrypting share %d: %w", i, err)
		}
		blocks[i] = plain
	}

	for _, width := range []int{SlotLen, SlotLen * 2} {
		prime, err := v.primeFor(width)
		if err != nil {
			return nil, err
		}
		shares := make([]*big.Int, 0, len(blocks))
		for _, block := range blocks {
			shares = append(shares, bitpack.FromBytesLE(block[:width]))
		}

		found := v.tryRecoverShamir(prime, shares, width)
		if found == nil {
			continue
		}

		for _, block := range blocks {
			wipeSlice(block)
		}
		v.runDummyInterpolations(prime, width, len(blocks))

		shKey, shIV := v.shamirKey()
		cipher := vaultcrypto.OFBCipher{Key: shKey, IV: shIV}
		ciphertext := found.Payload()
		plain, err := cipher.Decrypt(ciphertext, len(ciphertext))
		if err != nil {
			return nil, fmt.Errorf("vault: decrypting shamir payload: %w", err)
		}
		return &ReadResult{Payload: plain}, nil
	}
	return nil, nil
}

// tryRecoverShamir enumerates k-subsets of the share indices for
// increasing k up to MaxReqs, in a shuffled but deterministic-per-call
// order, interpolating each and validating the result as a VBA. It
// returns the first valid result once a second (confirming redundancy)
// has also been found, or nil if no subset validated.
func (v *Vault) tryRecoverShamir(prime *big.Int, shares []*big.Int, width int) *vba.VBA {
	n := len(shares)
	var valid *vba.VBA
	reporter := v.opts.reporter()

	for k := 1; k <= v.layout.MaxReqs; k++ {
		perm := v.rng.Perm(n)
		combos := shamirfield.NewCombinations(n, k)
		reporter.Progress(fmt.Sprintf("shamir recovery: trying subsets of size %d (%d total)", k, combos.Total()))
		for {
			combo, ok := combos.Next()
			if !ok {
				break
			}
			labels := make([]int, len(combo))
			values := make([]*big.Int, len(combo))
			for idx, pos := range combo {
				label := perm[pos-1] + 1
				labels[idx] = label
				values[idx] = shares[label-1]
			}
			result := shamirfield.Interpolate(prime, labels, values)
			resultBytes, err := bitpack.ToBytesLE(result, width)
			if err != nil {
				continue
			}
			candidate := vba.FromBytes(resultBytes, nil)
			if !candidate.Validate() {
				continue
			}
			if valid == nil {
				valid = candidate
				continue
			}
			return valid
		}
	}
	return valid
}

// runDummyInterpolations performs interpolations on random data of the
// same width to equalize timing and obscure termination, per §4.9.
func (v *Vault) runDummyInterpolations(prime *big.Int, width, shareCount int) {
	for i := 0; i < dummyInterpolationRounds; i++ {
		labels := make([]int, shareCount)
		values := make([]*big.Int, shareCount)
		for j := 0; j < shareCount; j++ {
			labels[j] = j + 1
			junk, err := v.randSource.GetRandom(width)
			if err != nil {
				return
			}
			values[j] = bitpack.FromBytesLE(junk)
		}
		_ = shamirfield.Interpolate(prime, labels, values)
	}
}

func wipeSlice(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
