package bitpack

import (
	"fmt"
	"strings"
)

// CipherModeDict is the ordered cipher/mode token dictionary used to
// compress device-mapper table strings. Order is fixed for on-disk format
// compatibility; append only, never reorder or remove.
var CipherModeDict = []string{
	"aes", "blowfish", "twofish", "serpent", "des", "rc4", "rsa",
	"cbc", "cfb", "ctr", "gcm", "ecb", "ocb", "ofb", "ccm", "xts",
	"md4", "md5", "crc32", "sha1", "sha256", "sha384", "sha512",
	"plain", "plain64", "plain64be", "essiv", "bennbi", "null",
	"lmk", "tcw", "random",
}

const cipherModeDictBase = 127

// PackCipherMode compresses a cipher/mode string such as
// "aes-cbc-essiv:sha256" into bytes: known tokens (split on non-word
// characters) become a single byte >= 127 looked up in CipherModeDict,
// separators are kept verbatim as ASCII, and the stream is terminated by a
// zero byte.
func PackCipherMode(mode string) ([]byte, error) {
	if len(CipherModeDict) > 128 {
		return nil, fmt.Errorf("bitpack: CipherModeDict exceeds 128 entries")
	}
	var out []byte
	rest := mode
	for len(rest) > 0 {
		word := takeWord(rest)
		if word != "" {
			if idx := indexOf(CipherModeDict, word); idx >= 0 {
				out = append(out, byte(idx+cipherModeDictBase))
			} else {
				for _, c := range []byte(word) {
					if c >= 127 {
						return nil, fmt.Errorf("bitpack: cannot encode character %q", c)
					}
					out = append(out, c)
				}
			}
			rest = rest[len(word):]
		}
		if len(rest) > 0 {
			out = append(out, rest[0])
			rest = rest[1:]
		}
	}
	return append(out, 0), nil
}

// UnpackCipherMode reverses PackCipherMode, returning the decoded string and
// the number of input bytes consumed (including the terminating zero byte).
func UnpackCipherMode(data []byte) (string, int, error) {
	var sb strings.Builder
	count := 0
	for _, c := range data {
		count++
		if c == 0 {
			return sb.String(), count, nil
		}
		if c >= cipherModeDictBase {
			idx := int(c) - cipherModeDictBase
			if idx < 0 || idx >= len(CipherModeDict) {
				return "", 0, fmt.Errorf("bitpack: cipher-mode dictionary index %d out of range", idx)
			}
			sb.WriteString(CipherModeDict[idx])
		} else {
			sb.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("bitpack: unterminated cipher-mode stream")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// takeWord returns the leading run of word characters (letters, digits,
// underscore) from s, mirroring Python's \W split semantics.
func takeWord(s string) string {
	i := 0
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	return s[:i]
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
