package imgcache

import (
	"os"
	"sort"
	"syscall"
	"time"

	"github.com/AdguardTeam/golibs/log"
)

// exists reports whether url has a cached body on disk. The file is
// authoritative; an index entry without a file counts for nothing.
func (c *Cache) exists(url string) bool {
	_, err := os.Stat(c.fullPath(filenameOf(url)))
	return err == nil
}

type cacheEntry struct {
	name  string
	atime time.Time
}

// atimeOf returns the access time of a cache file.
// It reads the Atim field of syscall.Stat_t, so this file builds only on
// platforms whose Stat_t has that field, such as Linux; when the FileInfo
// carries no *syscall.Stat_t, the modification time is used instead.
func atimeOf(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Atim.Sec, stat.Atim.Nsec)
	}
	return info.ModTime()
}

// cleanCache enforces the age and count bounds on the cache directory. Files
// past MaxAge are removed outright; of the rest, the MaxFiles most recently
// accessed survive. Every removal invalidates the file's etag entry, and the
// index is persisted if anything changed. Non-cache entries are skipped.
func (c *Cache) cleanCache() {
	dirents, err := os.ReadDir(c.cfg.CacheDir)
	if err != nil {
		log.Error("imgcache: unable to open directory to clean cache: %v", err)
		return
	}

	now := time.Now()
	var fresh []cacheEntry
	for _, dirent := range dirents {
		name := dirent.Name()
		if !isCacheFilename(name) {
			continue
		}
		info, err := dirent.Info()
		if err != nil {
			continue
		}

		atime := atimeOf(info)
		if now.Sub(atime) > c.cfg.MaxAge {
			c.evict(name, "file too old")
			continue
		}
		fresh = append(fresh, cacheEntry{name: name, atime: atime})
	}

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].atime.After(fresh[j].atime)
	})
	for i := c.cfg.MaxFiles; i < len(fresh); i++ {
		c.evict(fresh[i].name, "ran out of room")
	}

	c.persistETags()
}

// evict removes one cache file and invalidates its index entry. The entry is
// found by trial-hashing the indexed URLs against the file name.
func (c *Cache) evict(name, reason string) {
	if err := os.Remove(c.fullPath(name)); err != nil {
		log.Error("imgcache: evicting %s: %v", name, err)
		return
	}
	mEvictionsTotal.Inc()
	if c.cfg.EnableLogging {
		log.Printf("cache DELETE: %s (%s)", name, reason)
	}

	sum, err := hashFromHex(name[len(filenamePrefix):])
	if err != nil {
		log.Error("imgcache: internal consistency failure for %s: %v", name, err)
		return
	}
	c.etags.clearByHash(sum)
}

// persistETags flushes the etag index if it changed. A failed write keeps the
// index dirty, so the next change retries.
func (c *Cache) persistETags() {
	if err := c.etags.persistIfDirty(c.fullPath(etagFile)); err != nil {
		log.Error("imgcache: persisting etag index: %v", err)
	}
}
