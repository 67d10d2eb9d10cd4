package imgcache

import (
	"os"
	"time"

	"github.com/AdguardTeam/golibs/log"
	"github.com/dustin/go-humanize"
)

// workItem is one unit of deliverable output queued from the fetch stage (or
// the Load fast path) to the worker stage.
//
//   - bytes non-empty: new body downloaded, write through to disk, deliver
//   - bytes non-empty, noStore: deliver only, keep it off the disk
//   - bytes empty, failed: transport failed, deliver the disk copy if any
//   - bytes empty, not failed: revalidation confirmed the disk copy, deliver it
type workItem struct {
	url     string
	bytes   []byte
	failed  bool
	noStore bool
}

// workerRun is the worker stage. It bootstraps the cache state, starts the
// fetch stage and then drains work items until shutdown. The fetch stage must
// not run before the bootstrap: the sweep and the index load assume exclusive
// ownership of the cache directory.
func (c *Cache) workerRun() {
	defer c.workerWG.Done()

	c.etags.loadFrom(c.fullPath(etagFile))
	c.cleanCache()
	c.startFetch()

	for {
		items, ok := c.workQueue.drain()
		if !ok {
			return
		}
		for _, item := range items {
			c.process(item)
		}
	}
}

// process handles one work item per the fetch outcome it carries.
func (c *Cache) process(item workItem) {
	switch {
	case len(item.bytes) > 0 && !item.noStore:
		c.saveImage(item.url, item.bytes)
		c.deliver(item.url, item.bytes)
	case len(item.bytes) > 0:
		c.deliver(item.url, item.bytes)
	default:
		c.serveCached(item.url)
	}
}

// saveImage writes a freshly downloaded body to the cache. A failed write
// removes the partial file; the caller still delivers the in-memory bytes.
func (c *Cache) saveImage(url string, body []byte) {
	path := c.fullPath(filenameOf(url))
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, body, 0o644); err != nil {
		log.Error("imgcache: saving %s: %v", url, err)
		os.Remove(tmpPath)
		return
	}
	if err := os.Rename(tmpPath, path); err != nil {
		log.Error("imgcache: saving %s: %v", url, err)
		os.Remove(tmpPath)
		return
	}

	if c.cfg.EnableLogging {
		log.Printf("cache STORE: %s %s", url, humanize.Bytes(uint64(len(body))))
	}
}

// serveCached delivers the on-disk body for url. A missing or unreadable file
// delivers zero-length bytes, so the caller still sees the load complete.
func (c *Cache) serveCached(url string) {
	path := c.fullPath(filenameOf(url))

	body, err := os.ReadFile(path)
	if err != nil {
		if c.cfg.EnableLogging {
			log.Printf("cache ABSENT: %s", url)
		}
		c.deliver(url, nil)
		return
	}

	// Touch the file's atime so the eviction key reflects use, but keep the
	// mtime (best effort, some mounts refuse).
	if info, statErr := os.Stat(path); statErr == nil {
		_ = os.Chtimes(path, time.Now(), info.ModTime())
	}

	if c.cfg.EnableLogging {
		log.Printf("cache HIT: %s %s", url, humanize.Bytes(uint64(len(body))))
	}
	mDiskServesTotal.Inc()
	c.deliver(url, body)
}

// deliver invokes the host callback with one image.
func (c *Cache) deliver(url string, body []byte) {
	mServedBytes.Add(float64(len(body)))
	c.callback(ImageData{URL: url, Bytes: body})
}
