package bitpack

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBytesLERoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 255, 256, 65535, 1 << 40} {
		i := big.NewInt(v)
		b, err := ToBytesLE(i, 8)
		assert.NoError(t, err)
		assert.Len(t, b, 8)
		assert.Equal(t, i, FromBytesLE(b))
	}
}

func TestToBytesLERejectsNegative(t *testing.T) {
	_, err := ToBytesLE(big.NewInt(-1), 8)
	assert.Error(t, err)
}

func TestToBytesLETooSmall(t *testing.T) {
	_, err := ToBytesLE(big.NewInt(1<<20), 1)
	assert.Error(t, err)
}

func TestPackUnpackBits(t *testing.T) {
	b, err := PackBits(3, 5, 5, 17)
	assert.NoError(t, err)
	values := UnpackBits(b, 3, 5)
	assert.Equal(t, []int{5, 17}, values)
}

func TestPackBitsRejectsOverflow(t *testing.T) {
	_, err := PackBits(3, 8)
	assert.Error(t, err)
}

func TestPackUnpackHex(t *testing.T) {
	packed, err := PackHex("deadbeef")
	assert.NoError(t, err)
	hexStr, n, err := UnpackHex(packed)
	assert.NoError(t, err)
	assert.Equal(t, "deadbeef", hexStr)
	assert.Equal(t, len(packed), n)
}

func TestPackUnpackBytesLP(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}
	packed, err := PackBytesLP(raw)
	assert.NoError(t, err)
	out, n, err := UnpackBytesLP(packed)
	assert.NoError(t, err)
	assert.Equal(t, raw, out)
	assert.Equal(t, len(packed), n)
}

func TestDualIntPackUnpack(t *testing.T) {
	packed, err := DualIntPack(0, 70000)
	assert.NoError(t, err)
	a, b, n, err := DualIntUnpack(packed)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), a)
	assert.Equal(t, uint64(70000), b)
	assert.Equal(t, len(packed), n)
}

func TestCipherModeRoundTrip(t *testing.T) {
	packed, err := PackCipherMode("aes-cbc-essiv:sha256")
	assert.NoError(t, err)
	out, n, err := UnpackCipherMode(packed)
	assert.NoError(t, err)
	assert.Equal(t, "aes-cbc-essiv:sha256", out)
	assert.Equal(t, len(packed), n)
}

func TestFormatByteRoundTrip(t *testing.T) {
	packed, err := MakeFormatByte(FormatDM, 3)
	assert.NoError(t, err)
	kind, part, err := GetFormatByte(packed[0])
	assert.NoError(t, err)
	assert.Equal(t, FormatDM, kind)
	assert.Equal(t, 3, part)
}
