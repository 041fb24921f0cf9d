package fetchevent

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/a-h/kv"
	"github.com/debcore/debcore/metrics"
)

// DownloadEvent is one completed (or failed) fetch, as reported by the
// download manager's OnDownload hook.
type DownloadEvent struct {
	URI   string
	Bytes int64
	Err   error
}

// NewBufferedCounter starts a single goroutine draining counter and
// recording each event into a durable Counter plus the live metrics,
// using a buffered channel so a burst of download completions never
// blocks the manager goroutines that produce them.
func NewBufferedCounter(ctx context.Context, log *slog.Logger, store kv.Store, m metrics.Metrics, bufferSize int) (counter chan DownloadEvent, shutdown func()) {
	counter = make(chan DownloadEvent, bufferSize)

	var wg sync.WaitGroup
	wg.Go(func() {
		c := New(store)
		for event := range counter {
			scheme, host := schemeAndHost(event.URI)
			if event.Err != nil {
				log.Error("fetch failed", slog.String("uri", event.URI), slog.Any("error", event.Err))
				m.IncrementFetchFailure(ctx, scheme)
				continue
			}
			log.Debug("recording fetch", "scheme", scheme, "host", host, "bytes", event.Bytes)
			if err := c.Increment(ctx, scheme, host); err != nil {
				log.Error("failed to record fetch", slog.String("uri", event.URI), slog.Any("error", err))
				m.IncrementFetchFailure(ctx, scheme)
				continue
			}
			m.IncrementFetch(ctx, scheme, event.Bytes)
		}
	})

	shutdown = func() {
		close(counter)
		wg.Wait()
	}

	return counter, shutdown
}

func schemeAndHost(uri string) (scheme, host string) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", ""
	}
	return u.Scheme, u.Host
}
