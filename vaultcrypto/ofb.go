package vaultcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// OFBCipher wraps AES in OFB mode: a stream cipher whose output is
// bitwise indistinguishable from random for a random key, and which never
// fails on a decrypt of arbitrary bytes — exactly the property the vault
// needs to blindly trial-decrypt every candidate slot without ever
// hard-failing on a wrong password.
type OFBCipher struct {
	Key []byte // 32 bytes
	IV  []byte // 16 bytes
}

// Encrypt pads data up to a multiple of 16 bytes with random bytes (via
// rng), encrypts under AES-OFB, and crops the result back to len(data).
func (c OFBCipher) Encrypt(data []byte, rng RandomSource) ([]byte, error) {
	padded, err := pad(data, rng)
	if err != nil {
		return nil, err
	}
	out, err := c.transform(padded)
	if err != nil {
		return nil, err
	}
	return out[:len(data)], nil
}

// Decrypt is the OFB decryption counterpart to Encrypt; OFB is
// self-inverse so it simply re-derives the same keystream. cropTo, if
// non-zero, truncates the result to that many bytes.
func (c OFBCipher) Decrypt(data []byte, cropTo int) ([]byte, error) {
	padded := padDeterministic(data)
	out, err := c.transform(padded)
	if err != nil {
		return nil, err
	}
	if cropTo > 0 {
		if cropTo > len(out) {
			cropTo = len(out)
		}
		return out[:cropTo], nil
	}
	return out, nil
}

func (c OFBCipher) transform(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.Key)
	if err != nil {
		return nil, fmt.Errorf("vaultcrypto: aes init: %w", err)
	}
	stream := cipher.NewOFB(block, c.IV)
	out := make([]byte, len(data))
	stream.XORKeyStream(out, data)
	return out, nil
}

// pad extends data to a multiple of 16 bytes with fresh random bytes, as
// OFB mode requires a full final block (the extra bytes are cropped back
// off by the caller and never observed).
func pad(data []byte, rng RandomSource) ([]byte, error) {
	rem := len(data) % 16
	if rem == 0 {
		return data, nil
	}
	extra, err := rng.GetRandom(16 - rem)
	if err != nil {
		return nil, fmt.Errorf("vaultcrypto: pad: %w", err)
	}
	return append(append([]byte(nil), data...), extra...), nil
}

// padDeterministic pads with zero bytes instead of random ones: used on
// decrypt, where the padding is discarded by cropping and its exact value
// never matters, so no random source is needed.
func padDeterministic(data []byte) []byte {
	rem := len(data) % 16
	if rem == 0 {
		return data
	}
	return append(append([]byte(nil), data...), make([]byte, 16-rem)...)
}
