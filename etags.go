package imgcache

import (
	"bytes"
	"os"
	"sort"
	"sync"

	"github.com/AdguardTeam/golibs/log"
	"github.com/natefinch/atomic"
)

// etagIndex maps URLs to their last known server validator. An entry with an
// empty etag records a URL we have seen but hold no validator for; such
// entries live in memory only and are omitted when the index is persisted.
//
// url -> etag mappings are stored in a text file. Each line looks like
//
//	http://example.com/foo.png 383761229c544a77af3df6dd1cc5c01d
type etagIndex struct {
	mu      sync.RWMutex
	entries map[string]string
	dirty   bool
}

func newETagIndex() *etagIndex {
	return &etagIndex{entries: make(map[string]string)}
}

// loadFrom reads and parses the etag file at path. A missing or empty file is
// not an error; the cache starts with an empty index.
func (x *etagIndex) loadFrom(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug("imgcache: no etag index at %s: %v", path, err)
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.parse(data)
}

// parse fills the index from the on-disk record format. Malformed records
// (empty URL or etag) are skipped, a trailing record without its newline is
// ignored as truncation.
func (x *etagIndex) parse(data []byte) {
	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			break
		}
		line := data[:nl]
		data = data[nl+1:]

		sp := bytes.IndexByte(line, ' ')
		if sp <= 0 || sp == len(line)-1 {
			continue
		}
		x.entries[string(line[:sp])] = string(line[sp+1:])
	}
}

// get returns the stored etag for url and whether the URL is known at all.
// A known URL may still carry an empty etag.
func (x *etagIndex) get(url string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	etag, ok := x.entries[url]
	return etag, ok
}

// set upserts the etag for url, replacing any previous value. The index is
// marked dirty whenever the change is visible in the persisted form.
func (x *etagIndex) set(url, etag string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	old, known := x.entries[url]
	if known && old == etag {
		return
	}
	x.entries[url] = etag
	if old != "" || etag != "" {
		x.dirty = true
	}
}

// ensure adds an entry for url if none exists yet. Used by the fetch stage so
// every completed transfer leaves a trace of the URL in the index.
func (x *etagIndex) ensure(url, etag string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, known := x.entries[url]; known {
		return
	}
	x.entries[url] = etag
	if etag != "" {
		x.dirty = true
	}
}

// clearETag drops the validator for url but keeps the entry, distinguishing
// "known URL without validator" from "unknown URL".
func (x *etagIndex) clearETag(url string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	old, known := x.entries[url]
	if !known {
		return
	}
	x.entries[url] = ""
	if old != "" {
		x.dirty = true
	}
}

// clearByHash removes the first entry whose URL hashes to sum. Eviction only
// knows the cache file name, so every indexed URL is trial-hashed.
func (x *etagIndex) clearByHash(sum [hashBytes]byte) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for url, etag := range x.entries {
		if hashURL(url) == sum {
			delete(x.entries, url)
			if etag != "" {
				x.dirty = true
			}
			return
		}
	}
}

// persistIfDirty writes the index to path if it changed since the last
// successful write. Entries without a validator are omitted. The write goes
// through a temp file rename, so a crash never leaves a torn index; on error
// the index stays dirty and is retried on the next change.
func (x *etagIndex) persistIfDirty(path string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.dirty {
		return nil
	}

	urls := make([]string, 0, len(x.entries))
	for url, etag := range x.entries {
		if url != "" && etag != "" {
			urls = append(urls, url)
		}
	}
	sort.Strings(urls)

	var buf bytes.Buffer
	for _, url := range urls {
		buf.WriteString(url)
		buf.WriteByte(' ')
		buf.WriteString(x.entries[url])
		buf.WriteByte('\n')
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return err
	}
	x.dirty = false
	return nil
}
