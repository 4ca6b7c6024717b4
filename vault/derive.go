package vault

import (
	"fmt"
	"math/big"

	"github.com/scode/cryptvault/bitpack"
	"github.com/scode/cryptvault/hashtrack"
	"github.com/scode/cryptvault/vaultcrypto"
)

// reservations holds the tracker offsets for every derived quantity, in
// the fixed order mandated by §3: shamir_key, key[i], shamir_vector,
// vector[i], prime_seed, offset[i]. The order must never change, or an
// existing file becomes unreadable after a binary upgrade.
type reservations struct {
	shamirKey    hashtrack.Reservation
	key          []hashtrack.Reservation
	shamirVector hashtrack.Reservation
	vector       []hashtrack.Reservation
	primeSeed    hashtrack.Reservation
	offset       []hashtrack.Reservation
}

func reserveAll(phashLen int, slotMax int) (reservations, error) {
	tr := hashtrack.New(phashLen)

	shamirKey, err := tr.ReserveOne(32)
	if err != nil {
		return reservations{}, ErrPhashExhausted
	}
	key, err := tr.Reserve(32, slotMax)
	if err != nil {
		return reservations{}, ErrPhashExhausted
	}
	shamirVector, err := tr.ReserveOne(16)
	if err != nil {
		return reservations{}, ErrPhashExhausted
	}
	vector, err := tr.Reserve(16, slotMax)
	if err != nil {
		return reservations{}, ErrPhashExhausted
	}
	primeSeed, err := tr.ReserveOne(64 + 128)
	if err != nil {
		return reservations{}, ErrPhashExhausted
	}
	offset, err := tr.Reserve(16, slotMax)
	if err != nil {
		return reservations{}, ErrPhashExhausted
	}

	return reservations{
		shamirKey:    shamirKey,
		key:          key,
		shamirVector: shamirVector,
		vector:       vector,
		primeSeed:    primeSeed,
		offset:       offset,
	}, nil
}

// slotKey returns the AES key and IV for slot i.
func (v *Vault) slotKey(i int) (key, iv []byte) {
	return v.res.key[i].Slice(v.phash), v.res.vector[i].Slice(v.phash)
}

// shamirKey returns the AES key and IV used to pre-encrypt the Shamir
// payload.
func (v *Vault) shamirKey() (key, iv []byte) {
	return v.res.shamirKey.Slice(v.phash), v.res.shamirVector.Slice(v.phash)
}

// primeFor returns the deterministic Shamir prime for a share width of
// dataLen bytes.
func (v *Vault) primeFor(dataLen int) (*big.Int, error) {
	seed := v.res.primeSeed.Slice(v.phash)
	p, err := vaultcrypto.DeterministicPrime(seed, dataLen)
	if err != nil {
		return nil, fmt.Errorf("vault: deriving prime: %w", err)
	}
	return p, nil
}

// offsetFor returns the candidate byte offset for slot i.
func (v *Vault) offsetFor(i int) int64 {
	raw := v.res.offset[i].Slice(v.phash)
	n := bitpack.FromBytesLE(raw)
	mod := new(big.Int).Mod(n, big.NewInt(v.layout.NumSlots))
	return mod.Int64()*SlotLen + v.layout.SaltLen
}
