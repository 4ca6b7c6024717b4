package vba

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testRandom struct{}

func (testRandom) GetRandom(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

func TestNewAndValidate(t *testing.T) {
	v, err := New([]byte("hello"), 64, nil)
	assert.NoError(t, err)
	assert.Equal(t, 64, v.Capacity())
	assert.True(t, v.Validate())
	assert.Equal(t, []byte("hello"), v.Payload())
}

func TestNewRoundsUpCapacity(t *testing.T) {
	payload := make([]byte, 60)
	v, err := New(payload, 64, nil)
	assert.NoError(t, err)
	assert.Equal(t, 128, v.Capacity())
}

func TestNewRejectsOversizePayload(t *testing.T) {
	_, err := New(make([]byte, 256), 300, nil)
	assert.Error(t, err)
}

func TestScrambleDoesNotTouchPayload(t *testing.T) {
	v, err := New([]byte("secret"), 64, nil)
	assert.NoError(t, err)
	err = v.Scramble(testRandom{})
	assert.NoError(t, err)
	assert.True(t, v.Validate())
	assert.Equal(t, []byte("secret"), v.Payload())
}

func TestValidateFailsOnTamperedChecksum(t *testing.T) {
	v, err := New([]byte("secret"), 64, nil)
	assert.NoError(t, err)
	v.buf[0] ^= 0xff
	assert.False(t, v.Validate())
}

func TestValidateFailsOnGarbage(t *testing.T) {
	raw := make([]byte, 64)
	_, err := rand.Read(raw)
	assert.NoError(t, err)
	v := FromBytes(raw, nil)
	assert.False(t, v.Validate())
}

func TestReadInto(t *testing.T) {
	v, err := New([]byte("ab"), 64, nil)
	assert.NoError(t, err)
	err = v.ReadInto([]byte("cd"))
	assert.NoError(t, err)
	assert.True(t, v.Validate())
	assert.Equal(t, []byte("abcd"), v.Payload())
}

func TestSeedChangesChecksum(t *testing.T) {
	v1, err := New([]byte("x"), 64, nil)
	assert.NoError(t, err)
	v2, err := New([]byte("x"), 64, []byte("seed"))
	assert.NoError(t, err)
	assert.NotEqual(t, v1.Bytes()[:8], v2.Bytes()[:8])
}

func TestDestroyClearsBuffer(t *testing.T) {
	v, err := New([]byte("secret"), 64, nil)
	assert.NoError(t, err)
	err = v.Destroy(testRandom{})
	assert.NoError(t, err)
	assert.Nil(t, v.Bytes())
}
