// Package bitpack implements the byte-packing primitives the rest of
// cryptvault builds on: little-endian integer/byte conversion, an MSB-first
// bit-field packer, length-prefixed packers, and a dictionary compressor for
// cipher/mode tokens.
package bitpack

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// ToBytesLE converts a non-negative integer into the minimal number of
// little-endian bytes needed to represent it, or into count bytes if count
// is non-zero. count must be large enough to hold i; it is the caller's
// job to size the buffer (the derivation functions always know their
// target width ahead of time).
func ToBytesLE(i *big.Int, count int) ([]byte, error) {
	if i.Sign() < 0 {
		return nil, fmt.Errorf("bitpack: cannot pack negative integer")
	}
	be := i.Bytes()
	if count == 0 {
		count = len(be)
		if count == 0 {
			count = 1
		}
	}
	if len(be) > count {
		return nil, fmt.Errorf("bitpack: integer does not fit in %d bytes", count)
	}
	out := make([]byte, count)
	for idx, b := range be {
		out[len(be)-1-idx] = b
	}
	return out, nil
}

// FromBytesLE interprets src as a little-endian unsigned integer.
func FromBytesLE(src []byte) *big.Int {
	rev := make([]byte, len(src))
	for i, b := range src {
		rev[len(src)-1-i] = b
	}
	return new(big.Int).SetBytes(rev)
}

// Uint64ToBytesLE is the fixed-width helper used for small counters
// (offsets, slot indices) that always fit in a machine word.
func Uint64ToBytesLE(v uint64, count int) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	if count >= 8 {
		out := make([]byte, count)
		copy(out, buf)
		return out
	}
	return buf[:count]
}

// PackBits packs a sequence of (bitWidth, value) pairs MSB-first into a
// single big-endian-bit-ordered integer, returned as bytes. No value may be
// negative or exceed its declared bit width.
func PackBits(pairs ...int) ([]byte, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("bitpack: PackBits requires (width, value) pairs")
	}
	acc := new(big.Int)
	for idx := 0; idx < len(pairs); idx += 2 {
		width, value := pairs[idx], pairs[idx+1]
		if value < 0 {
			return nil, fmt.Errorf("bitpack: negative value %d not allowed", value)
		}
		if value >= 1<<uint(width) {
			return nil, fmt.Errorf("bitpack: value %d does not fit in %d bits", value, width)
		}
		acc.Lsh(acc, uint(width))
		acc.Or(acc, big.NewInt(int64(value)))
	}
	totalBits := 0
	for idx := 0; idx < len(pairs); idx += 2 {
		totalBits += pairs[idx]
	}
	byteLen := (totalBits + 7) / 8
	buf := acc.Bytes()
	if len(buf) > byteLen {
		byteLen = len(buf)
	}
	out := make([]byte, byteLen)
	copy(out[byteLen-len(buf):], buf)
	return out, nil
}

// UnpackBits reverses PackBits: given the packed bytes and the same
// sequence of bit widths, it returns the original values in order.
func UnpackBits(data []byte, widths ...int) []int {
	acc := new(big.Int).SetBytes(data)
	total := 0
	for _, w := range widths {
		total += w
	}
	values := make([]int, len(widths))
	mask := new(big.Int)
	for i := len(widths) - 1; i >= 0; i-- {
		w := widths[i]
		mask.Lsh(big.NewInt(1), uint(w))
		mask.Sub(mask, big.NewInt(1))
		field := new(big.Int).And(acc, mask)
		values[i] = int(field.Int64())
		acc.Rsh(acc, uint(w))
	}
	return values
}

// PackHex packs a hex string as <length-1 byte><raw bytes>, mirroring the
// single-byte length prefix used throughout the on-disk format helpers.
func PackHex(hexDigits string) ([]byte, error) {
	raw, err := hexDecode(hexDigits)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || len(raw) > 256 {
		return nil, fmt.Errorf("bitpack: hex value must be 1..256 bytes, got %d", len(raw))
	}
	out := make([]byte, 1+len(raw))
	out[0] = byte(len(raw) - 1)
	copy(out[1:], raw)
	return out, nil
}

// UnpackHex reverses PackHex, returning the hex string and the number of
// bytes consumed from data.
func UnpackHex(data []byte) (string, int, error) {
	if len(data) < 1 {
		return "", 0, fmt.Errorf("bitpack: truncated hex header")
	}
	count := int(data[0]) + 1
	if len(data) < 1+count {
		return "", 0, fmt.Errorf("bitpack: truncated hex payload")
	}
	return hexEncode(data[1 : 1+count]), 1 + count, nil
}

// PackBytesLP packs an arbitrary byte slice with the same
// <length-1 byte><raw bytes> convention as PackHex, for payloads that are
// already binary rather than hex text.
func PackBytesLP(raw []byte) ([]byte, error) {
	if len(raw) == 0 || len(raw) > 256 {
		return nil, fmt.Errorf("bitpack: value must be 1..256 bytes, got %d", len(raw))
	}
	out := make([]byte, 1+len(raw))
	out[0] = byte(len(raw) - 1)
	copy(out[1:], raw)
	return out, nil
}

// UnpackBytesLP reverses PackBytesLP.
func UnpackBytesLP(data []byte) ([]byte, int, error) {
	if len(data) < 1 {
		return nil, 0, fmt.Errorf("bitpack: truncated length-prefixed payload")
	}
	count := int(data[0]) + 1
	if len(data) < 1+count {
		return nil, 0, fmt.Errorf("bitpack: truncated length-prefixed payload")
	}
	out := make([]byte, count)
	copy(out, data[1:1+count])
	return out, 1 + count, nil
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("bitpack: odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[2*i] = digits[v>>4]
		out[2*i+1] = digits[v&0xf]
	}
	return string(out)
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("bitpack: invalid hex digit %q", c)
	}
}
