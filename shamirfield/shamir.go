// Package shamirfield implements Shamir's Secret Sharing over a single
// large prime field: polynomial share generation, Lagrange interpolation,
// and a deterministic k-subset enumerator for threshold recovery.
package shamirfield

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/scode/cryptvault/bitpack"
)

// MakeShares splits secret (interpreted as a little-endian integer) into
// shareCount shares over GF(prime) such that any threshold of them
// reconstruct it via Interpolate. Shares are serialized to dataLen bytes
// each, little-endian, indexed 1..shareCount.
func MakeShares(threshold, shareCount int, prime *big.Int, secret []byte, dataLen int) ([][]byte, error) {
	if threshold < 1 || threshold > shareCount {
		return nil, fmt.Errorf("shamirfield: threshold %d invalid for %d shares", threshold, shareCount)
	}
	secretInt := bitpack.FromBytesLE(secret)
	if secretInt.Cmp(prime) >= 0 {
		return nil, fmt.Errorf("shamirfield: secret is not smaller than prime")
	}

	coeffs := make([]*big.Int, threshold)
	coeffs[0] = secretInt
	for i := 1; i < threshold; i++ {
		c, err := randBelow(prime)
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}

	shares := make([][]byte, shareCount)
	for i := 0; i < shareCount; i++ {
		x := big.NewInt(int64(i + 1))
		total := evalPoly(coeffs, x, prime)
		b, err := bitpack.ToBytesLE(total, dataLen)
		if err != nil {
			return nil, fmt.Errorf("shamirfield: serializing share %d: %w", i+1, err)
		}
		shares[i] = b
	}
	return shares, nil
}

// evalPoly evaluates the polynomial (coeffs in increasing-degree order,
// coeffs[0] the constant term) at x, mod prime, via Horner's method.
func evalPoly(coeffs []*big.Int, x, prime *big.Int) *big.Int {
	total := new(big.Int)
	for i := len(coeffs) - 1; i >= 0; i-- {
		total.Mul(total, x)
		total.Add(total, coeffs[i])
		total.Mod(total, prime)
	}
	return total
}

// Interpolate performs Lagrange interpolation at x=0 mod prime, given the
// indices (1-based share numbers) and their corresponding share values.
func Interpolate(prime *big.Int, indexes []int, values []*big.Int) *big.Int {
	n := len(indexes)
	nums := make([]*big.Int, n)
	dens := make([]*big.Int, n)

	for i := 0; i < n; i++ {
		num := big.NewInt(1)
		den := big.NewInt(1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			// num *= (0 - indexes[j])
			num.Mul(num, big.NewInt(-int64(indexes[j])))
			// den *= (indexes[i] - indexes[j])
			den.Mul(den, big.NewInt(int64(indexes[i]-indexes[j])))
		}
		nums[i] = num
		dens[i] = den
	}

	denProduct := big.NewInt(1)
	for _, d := range dens {
		denProduct.Mul(denProduct, d)
	}

	total := new(big.Int)
	tmp := new(big.Int)
	for i := 0; i < n; i++ {
		tmp.Mul(nums[i], denProduct)
		tmp.Mul(tmp, values[i])
		tmp.Mod(tmp, prime)
		term := divMod(tmp, dens[i], prime)
		total.Add(total, term)
	}

	result := divMod(total, denProduct, prime)
	result.Mod(result, prime)
	if result.Sign() < 0 {
		result.Add(result, prime)
	}
	return result
}

// divMod computes num / den (mod prime) using the modular inverse of den.
func divMod(num, den, prime *big.Int) *big.Int {
	inv := new(big.Int).ModInverse(new(big.Int).Mod(den, prime), prime)
	if inv == nil {
		// den and prime are not coprime; this cannot happen for a prime
		// modulus unless den ≡ 0, which indicates duplicate indexes.
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(num, inv)
	return out.Mod(out, prime)
}

func randBelow(limit *big.Int) (*big.Int, error) {
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("shamirfield: random coefficient: %w", err)
	}
	return n, nil
}
