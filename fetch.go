package imgcache

import (
	"io"
	"net/http"
	"strings"

	"github.com/AdguardTeam/golibs/log"
	"github.com/dustin/go-humanize"
	"github.com/pquerna/cachecontrol/cacheobject"
)

// startFetch launches the transfer goroutines. Each goroutine owns one
// transfer slot, so at most MaxParallel requests are in flight at any
// instant. Called by the worker stage once the bootstrap is done.
func (c *Cache) startFetch() {
	for i := 0; i < c.cfg.MaxParallel; i++ {
		c.fetchWG.Add(1)
		go func() {
			defer c.fetchWG.Done()
			for {
				url, ok := c.loadQueue.pop()
				if !ok {
					return
				}
				c.transfer(url)
			}
		}()
	}
}

// transfer performs one conditional GET and hands the outcome to the worker
// stage. Every load item produces exactly one work item, so the callback
// always fires even when the transfer fails.
func (c *Cache) transfer(url string) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		log.Error("imgcache: bad request URL %s: %v", url, err)
		mFailuresTotal.Inc()
		c.workQueue.push(workItem{url: url, failed: true})
		return
	}

	// Revalidate against the stored validator only when the cached body is
	// actually on disk; an etag without a body would turn a 304 into a miss.
	var sentETag string
	if c.exists(url) {
		if etag, ok := c.etags.get(url); ok {
			sentETag = etag
		}
	}
	if sentETag != "" {
		req.Header.Set("If-None-Match", `"`+sentETag+`"`)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if c.cfg.EnableLogging {
			log.Printf("fetch FAILED: %s: %v", url, err)
		}
		mFailuresTotal.Inc()
		c.etags.ensure(url, sentETag)
		c.workQueue.push(workItem{url: url, failed: true})
		c.persistETags()
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if c.cfg.EnableLogging {
			log.Printf("fetch ABORTED: %s: %v", url, err)
		}
		mFailuresTotal.Inc()
		c.etags.ensure(url, sentETag)
		c.workQueue.push(workItem{url: url, failed: true})
		c.persistETags()
		return
	}

	c.etags.ensure(url, sentETag)

	// An empty body is the sole "unchanged" signal; status codes are not
	// inspected.
	if len(body) == 0 {
		if c.cfg.EnableLogging {
			log.Printf("fetch UNCHANGED: %s", url)
		}
		mRevalidationsTotal.Inc()
		c.workQueue.push(workItem{url: url})
		c.persistETags()
		return
	}

	mDownloadsTotal.Inc()
	mFetchedBytes.Add(float64(len(body)))

	if responseNoStore(resp.Header) {
		if c.cfg.EnableLogging {
			log.Printf("fetch NO-STORE: %s %s", url, humanize.Bytes(uint64(len(body))))
		}
		c.workQueue.push(workItem{url: url, bytes: body, noStore: true})
		c.persistETags()
		return
	}

	if c.cfg.EnableLogging {
		log.Printf("fetch MISS: %s %s", url, humanize.Bytes(uint64(len(body))))
	}
	c.etags.set(url, etagFromHeader(resp.Header.Get("ETag")))
	c.workQueue.push(workItem{url: url, bytes: body})
	c.persistETags()
}

// etagFromHeader extracts the token between the first pair of double quotes
// of an ETag header value, which also strips the W/ weak prefix.
func etagFromHeader(v string) string {
	i := strings.IndexByte(v, '"')
	if i < 0 {
		return ""
	}
	j := strings.IndexByte(v[i+1:], '"')
	if j < 0 {
		return ""
	}
	return v[i+1 : i+1+j]
}

// responseNoStore reports whether the response forbids storing the body.
func responseNoStore(h http.Header) bool {
	directives, err := cacheobject.ParseResponseCacheControl(h.Get("Cache-Control"))
	if err != nil {
		return false
	}
	return directives.NoStore
}
