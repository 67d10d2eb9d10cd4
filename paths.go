package imgcache

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
)

const (
	etagFile = ".etags"

	filenamePrefix = "I$"
	hashBytes      = 16
	filenameLength = len(filenamePrefix) + hashBytes*2
)

// hashURL returns the 128 bit FNV-1a digest of url. The digest is the stable
// on-disk identity of the URL, so it must never change between releases.
func hashURL(url string) [hashBytes]byte {
	h := fnv.New128a()
	h.Write([]byte(url))

	var sum [hashBytes]byte
	h.Sum(sum[:0])
	return sum
}

// filenameOf maps a URL to its cache file name: the fixed prefix followed by
// the hex rendering of the URL hash.
func filenameOf(url string) string {
	sum := hashURL(url)
	return filenamePrefix + hex.EncodeToString(sum[:])
}

// hashFromHex decodes the hex part of a cache file name back into raw hash
// bytes. It is the inverse of the rendering in filenameOf.
func hashFromHex(s string) ([hashBytes]byte, error) {
	var sum [hashBytes]byte
	if len(s) != hashBytes*2 {
		return sum, fmt.Errorf("hash hex has length %d, want %d", len(s), hashBytes*2)
	}
	if _, err := hex.Decode(sum[:], []byte(s)); err != nil {
		return sum, err
	}
	return sum, nil
}

// isCacheFilename reports whether a directory entry name belongs to the
// cache. Other entries under the cache directory are left untouched.
func isCacheFilename(name string) bool {
	return len(name) == filenameLength && strings.HasPrefix(name, filenamePrefix)
}

// fullPath joins the cache directory and a file name.
func (c *Cache) fullPath(name string) string {
	return filepath.Join(c.cfg.CacheDir, name)
}
