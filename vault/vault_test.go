package vault

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scode/cryptvault/vaultcrypto"
)

type osRandom struct{}

func (osRandom) GetRandom(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

var testArgon2Params = vaultcrypto.Argon2Params{
	Rounds:  1,
	MemKiB:  64 * 1024,
	Threads: 2,
	BufLen:  vaultcrypto.MinPhashLen,
}

// openTestVault builds a fresh in-memory vault of the given size, randomizes
// its contents (so head/tail salt aren't all-zero), and installs a phash
// derived from password+salt.
func openTestVault(t *testing.T, size int64, password string, salt []byte) *Vault {
	t.Helper()
	raw, err := (osRandom{}).GetRandom(int(size))
	assert.NoError(t, err)
	file := NewMemFileFromBytes(raw)

	v, err := Open(file, osRandom{}, Options{})
	assert.NoError(t, err)

	saltDigest, err := v.SaltDigest(salt, "")
	assert.NoError(t, err)

	phash, err := vaultcrypto.DeriveHash([]byte(password), saltDigest, testArgon2Params)
	assert.NoError(t, err)

	err = v.SetPhash(phash, true)
	assert.NoError(t, err)
	return v
}

func TestReplicatedRoundTrip(t *testing.T) {
	v := openTestVault(t, 2*1024*1024, "passw0rd", nil)
	defer v.Close()
	// This layout allows Shamir mode; turn it off so the write is replicated.
	assert.NoError(t, v.SetPhash(v.phash, false))

	err := v.WriteSlot([]byte("hello"))
	assert.NoError(t, err)

	result, err := v.ReadSlot()
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, []byte("hello"), result.Payload)
}

func TestShamirRoundTrip(t *testing.T) {
	v := openTestVault(t, 2*1024*1024, "correct horse battery staple", []byte("pepper"))
	defer v.Close()

	// 110 bytes plus the 9-byte VBA header stays under MaxShamir, so
	// WriteSlot takes the Shamir path with 128-byte shares.
	secret := make([]byte, 110)
	_, err := rand.Read(secret)
	assert.NoError(t, err)

	err = v.WriteSlot(secret)
	assert.NoError(t, err)

	result, err := v.ReadSlot()
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, secret, result.Payload)
}

func TestWrongPasswordReturnsEmpty(t *testing.T) {
	v := openTestVault(t, 2*1024*1024, "passw0rd", nil)
	defer v.Close()
	err := v.WriteSlot([]byte("hello"))
	assert.NoError(t, err)

	v2, err := Open(v.file, osRandom{}, Options{})
	assert.NoError(t, err)
	saltDigest, err := v2.SaltDigest(nil, "")
	assert.NoError(t, err)
	phash, err := vaultcrypto.DeriveHash([]byte("passw1rd"), saltDigest, testArgon2Params)
	assert.NoError(t, err)
	err = v2.SetPhash(phash, true)
	assert.NoError(t, err)

	result, err := v2.ReadSlot()
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestRewriteObliteratesGhost(t *testing.T) {
	v := openTestVault(t, 2*1024*1024, "passw0rd", nil)
	defer v.Close()

	assert.NoError(t, v.WriteSlot([]byte("hello")))
	assert.NoError(t, v.WriteSlot([]byte("world")))

	result, err := v.ReadSlot()
	assert.NoError(t, err)
	assert.Equal(t, []byte("world"), result.Payload)
}

func TestFileTooSmall(t *testing.T) {
	file := NewMemFile(500)
	_, err := Open(file, osRandom{}, Options{})
	assert.True(t, errors.Is(err, ErrFileTooSmall))
}

func TestWipeThenReadReturnsEmpty(t *testing.T) {
	v := openTestVault(t, 2*1024*1024, "passw0rd", nil)
	defer v.Close()

	assert.NoError(t, v.WriteSlot([]byte("hello")))
	assert.NoError(t, v.Wipe())

	result, err := v.ReadSlot()
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestShamirExtendByteRuleAvoidsExactBoundary(t *testing.T) {
	// A 55-byte secret plus the 9-byte VBA header lands exactly on 64
	// (the SlotLen boundary), leaving no padding; writeShamir must grow
	// the envelope by another 64 bytes so the share is wider than the
	// header plus payload. This round-trips that case.
	v := openTestVault(t, 2*1024*1024, "boundary case", []byte("salt"))
	defer v.Close()

	secret := make([]byte, 55)
	_, err := rand.Read(secret)
	assert.NoError(t, err)

	assert.NoError(t, v.WriteSlot(secret))

	result, err := v.ReadSlot()
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, secret, result.Payload)
}

func TestReadResultReportsNoSpareSlot(t *testing.T) {
	v := openTestVault(t, 2*1024*1024, "passw0rd", nil)
	defer v.Close()
	// NoSpareSlot is only set on the replicated read path.
	assert.NoError(t, v.SetPhash(v.phash, false))

	err := v.WriteSlot([]byte("solo"))
	assert.NoError(t, err)

	result, err := v.ReadSlot()
	assert.NoError(t, err)
	assert.NotNil(t, result)
	// Whether NoSpareSlot fires depends on the random activation count
	// chosen for this write; this only asserts the field is readable.
	_ = result.NoSpareSlot
}
