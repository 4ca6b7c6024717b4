package collab

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scode/cryptvault/vault"
	"github.com/scode/cryptvault/vaultcrypto"
)

func TestOSRandomSourceReturnsRequestedLength(t *testing.T) {
	buf, err := OSRandomSource{}.GetRandom(32)
	assert.NoError(t, err)
	assert.Len(t, buf, 32)
}

type fixedPasswordReader struct {
	passwords []string
	calls     int
}

func (r *fixedPasswordReader) ReadPassword() (string, error) {
	pw := r.passwords[r.calls]
	if r.calls < len(r.passwords)-1 {
		r.calls++
	}
	return pw, nil
}

func TestCachingPasswordReaderCachesAfterFirstCall(t *testing.T) {
	upstream := &fixedPasswordReader{passwords: []string{"first", "second"}}
	caching := &CachingPasswordReader{Upstream: upstream}

	first, err := caching.ReadPassword()
	assert.NoError(t, err)
	assert.Equal(t, "first", first)

	second, err := caching.ReadPassword()
	assert.NoError(t, err)
	assert.Equal(t, "first", second)
}

var testParams = vaultcrypto.Argon2Params{Rounds: 1, MemKiB: 64 * 1024, Threads: 2, BufLen: vaultcrypto.MinPhashLen}

func TestReadWithRetrySucceedsOnCorrectPassword(t *testing.T) {
	raw, err := OSRandomSource{}.GetRandom(2 * 1024 * 1024)
	assert.NoError(t, err)
	file := vault.NewMemFileFromBytes(raw)
	v, err := vault.Open(file, OSRandomSource{}, vault.Options{})
	assert.NoError(t, err)

	saltDigest, err := v.SaltDigest(nil, "")
	assert.NoError(t, err)
	phash, err := vaultcrypto.DeriveHash([]byte("hunter2"), saltDigest, testParams)
	assert.NoError(t, err)
	assert.NoError(t, v.SetPhash(phash, true))
	assert.NoError(t, v.WriteSlot([]byte("secret")))

	reader := &fixedPasswordReader{passwords: []string{"wrong", "hunter2"}}
	result, err := ReadWithRetry(v, reader, RetryOptions{
		MaxTries: 3,
		Params:   testParams,
		Sleep:    func(time.Duration) {},
	})
	assert.NoError(t, err)
	assert.Equal(t, []byte("secret"), result.Payload)
}

func TestReadWithRetryExhaustsAndWipes(t *testing.T) {
	raw, err := OSRandomSource{}.GetRandom(2 * 1024 * 1024)
	assert.NoError(t, err)
	file := vault.NewMemFileFromBytes(raw)
	v, err := vault.Open(file, OSRandomSource{}, vault.Options{})
	assert.NoError(t, err)

	saltDigest, err := v.SaltDigest(nil, "")
	assert.NoError(t, err)
	phash, err := vaultcrypto.DeriveHash([]byte("hunter2"), saltDigest, testParams)
	assert.NoError(t, err)
	assert.NoError(t, v.SetPhash(phash, true))
	assert.NoError(t, v.WriteSlot([]byte("secret")))

	reader := &fixedPasswordReader{passwords: []string{"wrong"}}
	_, err = ReadWithRetry(v, reader, RetryOptions{
		MaxTries:  2,
		WipeOnMax: true,
		Params:    testParams,
		Sleep:     func(time.Duration) {},
	})
	assert.True(t, errors.Is(err, ErrTooManyTries))

	// The slot area was wiped, so the correct phash no longer finds the secret.
	assert.NoError(t, v.SetPhash(phash, true))
	result, err := v.ReadSlot()
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestHashSaltFilesIsOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), []byte("alpha"), 0o600))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "b.bin"), []byte("beta"), 0o600))

	first, err := HashSaltFiles([]string{dir}, 64)
	assert.NoError(t, err)
	second, err := HashSaltFiles([]string{filepath.Join(dir, "b.bin"), filepath.Join(dir, "a.bin")}, 64)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWordGeneratorProducesRequestedCount(t *testing.T) {
	gen := NewWordGenerator()
	phrase, err := gen.Generate(4)
	assert.NoError(t, err)
	assert.Len(t, strings.Fields(phrase), 4)
}
