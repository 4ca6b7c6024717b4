package collab

import (
	"crypto/sha512"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// saltHashChunkBytes is the size of one "meg" in HashSaltFiles' maxMegs
// cap: at most maxMegs*saltHashChunkBytes bytes of each file are read,
// keeping the cost of hashing a slow removable disk bounded regardless of
// file size.
const saltHashChunkBytes = 1024 * 1024

// HashSaltFiles walks each root (file or directory) and hashes up to
// maxMegs megabytes of each regular file found, then combines the
// per-file digests — sorted, so traversal order never matters — into a
// single SHA-512 digest. The result is meant to be folded into
// vaultcrypto.SaltDigest as the externalSeed, so possession of specific
// files (a USB key, a photo library) becomes part of what unlocks a
// vault.
func HashSaltFiles(roots []string, maxMegs int) ([]byte, error) {
	var digests [][]byte
	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			digest, err := hashFilePrefix(path, maxMegs)
			if err != nil {
				return err
			}
			digests = append(digests, digest)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("collab: hashing salt files under %s: %w", root, err)
		}
	}

	sort.Slice(digests, func(i, j int) bool {
		return string(digests[i]) < string(digests[j])
	})

	h := sha512.New()
	for _, d := range digests {
		h.Write(d)
	}
	return h.Sum(nil), nil
}

func hashFilePrefix(path string, maxMegs int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha512.New()
	limit := int64(maxMegs) * saltHashChunkBytes
	if maxMegs <= 0 {
		_, err = io.Copy(h, f)
	} else {
		_, err = io.CopyN(h, f, limit)
		if err == io.EOF {
			err = nil
		}
	}
	if err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
