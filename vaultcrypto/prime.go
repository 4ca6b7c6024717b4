package vaultcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"math/big"
)

// DeterministicPrime returns a prime of lengthBytes bytes built from a
// byte-stream seed: the same (seed, lengthBytes) always returns the same
// prime. Bytes 0-31 of seed are the AES key, bytes 32-47 the IV, bytes
// 48-63 are unused, and everything from byte 64 on is the keystream root,
// which must be at least 16 bytes long (so seed needs at least 80 bytes;
// the vault passes 192).
//
// The keystream is generated with AES-OFB, the same stream-compatible
// mode used for slot encryption, rather than a purpose-built PRNG:
// golang.org/x/crypto/argon2 and the rest of the corpus's crypto stack
// only offer symmetric block ciphers, not a seedable CSPRNG, so the
// stream cipher itself is reused as the randomness source, matching the
// AES-OFB-keystream-feeds-a-prime-search construction found in the
// reference design.
func DeterministicPrime(seed []byte, lengthBytes int) (*big.Int, error) {
	if len(seed) < 64 {
		return nil, fmt.Errorf("vaultcrypto: prime seed must be at least 64 bytes, got %d", len(seed))
	}
	block, err := aes.NewCipher(seed[0:32])
	if err != nil {
		return nil, fmt.Errorf("vaultcrypto: prime seed key: %w", err)
	}
	stream := cipher.NewOFB(block, seed[32:48])

	root := append([]byte(nil), seed[64:]...)
	if len(root) < 16 {
		return nil, fmt.Errorf("vaultcrypto: prime seed root must be at least 16 bytes, got %d", len(root))
	}
	cropLen := chunkUp(lengthBytes, 64)
	if len(root) < cropLen {
		mult := (cropLen-1)/len(root) + 1
		repeated := make([]byte, 0, len(root)*mult)
		for i := 0; i < mult; i++ {
			repeated = append(repeated, root...)
		}
		root = repeated[:cropLen]
	} else {
		root = root[:cropLen]
	}

	keystream := func(count int) []byte {
		out := make([]byte, len(root))
		stream.XORKeyStream(out, root)
		if count > len(out) {
			count = len(out)
		}
		return out[:count]
	}

	return nextPrime(lengthBytes*8, keystream)
}

// nextPrime searches for a prime of exactly bitLen bits using a
// caller-supplied pseudorandom byte generator, mirroring PyCryptodome's
// getPrime(bits, randfunc) contract: the high bit is forced set so the
// result has exactly bitLen bits, the low bit is forced set so candidates
// are always odd, and the search increments by 2 until ProbablyPrime
// accepts.
func nextPrime(bitLen int, randFunc func(count int) []byte) (*big.Int, error) {
	if bitLen < 2 {
		return nil, fmt.Errorf("vaultcrypto: prime bit length must be >= 2, got %d", bitLen)
	}
	numBytes := (bitLen + 7) / 8
	candidate := new(big.Int).SetBytes(randFunc(numBytes))
	mask := new(big.Int).Lsh(big.NewInt(1), uint(bitLen))
	mask.Sub(mask, big.NewInt(1))
	candidate.And(candidate, mask)
	candidate.SetBit(candidate, bitLen-1, 1)
	candidate.SetBit(candidate, 0, 1)

	two := big.NewInt(2)
	for i := 0; i < 1_000_000; i++ {
		if candidate.ProbablyPrime(32) {
			return candidate, nil
		}
		candidate.Add(candidate, two)
		if candidate.BitLen() > bitLen {
			candidate.SetBit(candidate, bitLen, 0)
			candidate.SetBit(candidate, bitLen-1, 1)
			candidate.SetBit(candidate, 0, 1)
		}
	}
	return nil, fmt.Errorf("vaultcrypto: exhausted search for a %d-bit prime", bitLen)
}

func chunkUp(n, multiple int) int {
	if n%multiple == 0 {
		return n
	}
	return n + (multiple - n%multiple)
}
