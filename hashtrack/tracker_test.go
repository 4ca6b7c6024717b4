package hashtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReserveDisjointInOrder(t *testing.T) {
	tr := New(8192)
	shamirKey, err := tr.ReserveOne(32)
	assert.NoError(t, err)
	assert.Equal(t, Reservation{Offset: 0, Length: 32}, shamirKey)

	keys, err := tr.Reserve(32, 5)
	assert.NoError(t, err)
	assert.Equal(t, Reservation{Offset: 32, Length: 32}, keys[0])
	assert.Equal(t, Reservation{Offset: 32 + 4*32, Length: 32}, keys[4])

	shamirVector, err := tr.ReserveOne(16)
	assert.NoError(t, err)
	assert.Equal(t, 32+5*32, shamirVector.Offset)
}

func TestReserveFailsWhenHashExhausted(t *testing.T) {
	tr := New(100)
	_, err := tr.Reserve(32, 5)
	assert.Error(t, err)
}

func TestSliceReadsThroughPhash(t *testing.T) {
	phash := make([]byte, 64)
	for i := range phash {
		phash[i] = byte(i)
	}
	tr := New(64)
	res, err := tr.ReserveOne(16)
	assert.NoError(t, err)
	assert.Equal(t, phash[0:16], res.Slice(phash))
}
