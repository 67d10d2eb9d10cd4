// Package imgcache is an asynchronous HTTP image cache. Callers request an
// image by URL; the cache serves a locally stored copy if one exists and
// revalidates it against the origin with a conditional request. Every
// delivery, cached or freshly downloaded, arrives through a single callback.
package imgcache

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AdguardTeam/golibs/log"
)

// ImageData is one delivered image. Bytes is zero length when the image could
// not be fetched and no cached copy exists.
type ImageData struct {
	URL   string
	Bytes []byte
}

// Callback receives every delivered image. It may fire twice for a single
// Load: once with the cached body and once with the revalidated one, which
// can differ when the origin served new bytes. It is always invoked from the
// worker goroutine and must return before the next item is processed.
type Callback func(ImageData)

// Cache is an image cache instance. It owns its cache directory exclusively:
// no other process or instance may operate on the same directory.
type Cache struct {
	cfg      Config
	callback Callback
	client   *http.Client

	etags     *etagIndex
	loadQueue *loadQueue
	workQueue *workQueue

	workerWG sync.WaitGroup
	fetchWG  sync.WaitGroup
}

// New creates the cache directory if needed and starts the worker stage,
// which loads the etag index, sweeps stale files and then starts the fetch
// stage. The returned cache is ready for Load immediately; items queued
// during the bootstrap are picked up once the fetch stage is running.
func New(cfg Config, callback Callback) (*Cache, error) {
	if callback == nil {
		return nil, errors.New("imgcache: callback must not be nil")
	}
	cfg.applyDefaults()

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("imgcache: creating cache dir: %w", err)
	}
	removeStaleTmp(cfg.CacheDir)

	c := &Cache{
		cfg:      cfg,
		callback: callback,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureTLS},
			},
		},
		etags:     newETagIndex(),
		loadQueue: newLoadQueue(),
		workQueue: newWorkQueue(),
	}

	if cfg.EnableLogging {
		log.Info("imgcache: starting, dir %s", cfg.CacheDir)
	}

	c.workerWG.Add(1)
	go c.workerRun()

	return c, nil
}

// Load asynchronously delivers the image at url through the callback. If a
// cached copy is on disk it is served right away; the origin is always asked
// as well, so a changed body arrives as a second delivery.
func (c *Cache) Load(url string) {
	mLoadsTotal.Inc()

	if c.exists(url) {
		c.workQueue.push(workItem{url: url})
	}
	c.loadQueue.push(url)
}

// Remove deletes the cached body for url and drops its validator, so the next
// Load fetches from scratch. A URL with no cached body is a no-op.
func (c *Cache) Remove(url string) error {
	if !c.exists(url) {
		return nil
	}

	if err := os.Remove(c.fullPath(filenameOf(url))); err != nil {
		return fmt.Errorf("imgcache: removing %s: %w", url, err)
	}
	if c.cfg.EnableLogging {
		log.Printf("cache REMOVE: %s", url)
	}

	c.etags.clearETag(url)
	c.persistETags()
	return nil
}

// Destroy shuts the cache down: both queues are closed, the worker stage is
// joined first (it owns the fetch stage's startup), then the fetch stage.
// In-flight transfers run to completion or time out; queued work is
// discarded. The cache must not be used afterwards.
func (c *Cache) Destroy() {
	if c.cfg.EnableLogging {
		log.Info("imgcache: shutting down")
	}

	c.loadQueue.close()
	c.workQueue.close()

	c.workerWG.Wait()
	c.fetchWG.Wait()
}

// removeStaleTmp clears temporary files a previous run may have left behind
// after a crash mid-write.
func removeStaleTmp(dir string) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, dirent := range dirents {
		if !dirent.IsDir() && strings.HasSuffix(dirent.Name(), ".tmp") {
			os.Remove(filepath.Join(dir, dirent.Name()))
		}
	}
}
