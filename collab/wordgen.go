package collab

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// WordGenerator produces diceware-style passphrases by drawing random
// words from the BIP-39 English wordlist: 2048 words, so each word
// contributes 11 bits of entropy.
type WordGenerator struct {
	words []string
}

// NewWordGenerator builds a WordGenerator over the BIP-39 wordlist.
func NewWordGenerator() *WordGenerator {
	return &WordGenerator{words: bip39.GetWordList()}
}

// Generate returns count words joined by a space. 4 words (44 bits) is
// the minimum recommended by the reference tool's own guidance; callers
// asking for fewer get a weaker passphrase and should be warned
// upstream.
func (g *WordGenerator) Generate(count int) (string, error) {
	chosen := make([]string, count)
	for i := range chosen {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(g.words))))
		if err != nil {
			return "", err
		}
		chosen[i] = g.words[n.Int64()]
	}
	return strings.Join(chosen, " "), nil
}
