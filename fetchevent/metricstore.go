// Package fetchevent wires the download manager's completed-download
// notifications into durable per-scheme/per-host counters, using the
// same buffered-channel plus single-goroutine-consumer pattern the
// teacher uses for its download counter.
package fetchevent

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/a-h/kv"
)

func New(store kv.Store) *Counter {
	return &Counter{
		store: store,
		now:   time.Now,
	}
}

// Counter tallies completed fetches per (scheme, host) pair, bucketed
// by day, so an operator can see which repositories/protocols are
// actually being used.
type Counter struct {
	store kv.Store
	now   func() time.Time
}

func (m *Counter) buildCounterKey(scheme, host string, date time.Time) string {
	encodedScheme := url.PathEscape(scheme)
	encodedHost := url.PathEscape(host)
	encodedDate := date.Format("2006-01-02")
	return path.Join("/fetchevent", encodedScheme, encodedHost, encodedDate)
}

func (m *Counter) buildCounterPrefix(scheme, host string) string {
	encodedScheme := url.PathEscape(scheme)
	encodedHost := url.PathEscape(host)
	return path.Join("/fetchevent", encodedScheme, encodedHost) + "/"
}

func (m *Counter) Increment(ctx context.Context, scheme, host string) (err error) {
	day := m.now().Truncate(24 * time.Hour)
	key := m.buildCounterKey(scheme, host, day)
	// Every time we upsert a key with Put, the version number is incremented.
	if err = m.store.Put(ctx, key, -1, ""); err != nil {
		return fmt.Errorf("fetchevent: recording fetch for %s://%s: %w", scheme, host, err)
	}
	return nil
}

func (m *Counter) Get(ctx context.Context, scheme, host string) (count Counts, err error) {
	rows, err := m.store.GetPrefix(ctx, m.buildCounterPrefix(scheme, host), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("fetchevent: listing counts for %s://%s: %w", scheme, host, err)
	}

	counts := make([]Count, len(rows))
	for i, row := range rows {
		parts := strings.Split(row.Key, "/")
		if len(parts) != 5 {
			return counts, fmt.Errorf("fetchevent: invalid key format: %s", row.Key)
		}
		if counts[i].Date, err = time.Parse("2006-01-02", parts[4]); err != nil {
			return nil, fmt.Errorf("fetchevent: parsing key %q: %w", row.Key, err)
		}
		counts[i].Count = row.Version
	}

	return counts, nil
}

type Counts []Count

func (c Counts) Total() (total int) {
	for _, count := range c {
		total += count.Count
	}
	return total
}

// Range returns the date range covered by the counts, assuming the
// counts are sorted by date.
func (c Counts) Range() (from time.Time, to time.Time) {
	if len(c) == 0 {
		return time.Time{}, time.Time{}
	}
	return c[0].Date, c[len(c)-1].Date
}

// Values provides just the count values, including zeros for days with
// no counts.
func (c Counts) Values() (values []int) {
	from, to := c.Range()
	hours := to.Sub(from).Hours()
	days := int(hours / 24)
	values = make([]int, days+1)
	for _, count := range c {
		index := int(count.Date.Sub(from).Hours() / 24)
		values[index] = count.Count
	}
	return values
}

type Count struct {
	Date  time.Time
	Count int
}
