package imgcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mLoadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcache_loads_total",
		Help: "The total number of Load calls.",
	})
	mDiskServesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcache_disk_serves_total",
		Help: "The total number of images served from the disk cache.",
	})
	mDownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcache_downloads_total",
		Help: "The total number of fresh bodies downloaded from origin.",
	})
	mRevalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcache_revalidations_total",
		Help: "The total number of transfers that confirmed the cached body.",
	})
	mFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcache_failures_total",
		Help: "The total number of failed transfers.",
	})
	mEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcache_evictions_total",
		Help: "The total number of cache files removed by the sweep.",
	})

	mFetchedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcache_fetched_bytes",
		Help: "Amount of body data downloaded from origin.",
	})
	mServedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcache_served_bytes",
		Help: "Amount of image data delivered through the callback.",
	})
)
