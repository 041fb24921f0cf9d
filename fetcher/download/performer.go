package download

import (
	"context"
	"fmt"
)

// job is one queued download request. Multiple callers may be waiting on
// the same job (deduplicated by URI); finish closes done exactly once so
// every waiter observes result after it wakes.
type job struct {
	URI            string
	TargetPath     string
	ExpectedSize   int64
	ExpectedSHA256 string
	Hold           bool

	done   chan struct{}
	result jobResult
}

type jobResult struct {
	BytesWritten int64
	Err          error
}

func newJob(uri, target string, expectedSize int64, expectedSHA256 string) *job {
	return &job{URI: uri, TargetPath: target, ExpectedSize: expectedSize, ExpectedSHA256: expectedSHA256, done: make(chan struct{})}
}

// wait blocks until the job finishes and returns its result.
func (j *job) wait() jobResult {
	<-j.done
	return j.result
}

func (j *job) finish(res jobResult) {
	j.result = res
	close(j.done)
}

// performer runs one job to completion using the best available Method
// for its URI's scheme, in its own goroutine. Multiple jobs for the same
// URI are deduplicated by the Manager before a performer is ever started
// for them, so at most one performer runs per URI at a time.
func runPerformer(ctx context.Context, reg *registry, j *job) {
	scheme := schemeOf(j.URI)
	methods := reg.For(scheme)
	if len(methods) == 0 {
		j.finish(jobResult{Err: fmt.Errorf("no transport method registered for scheme %q", scheme)})
		return
	}

	var lastErr error
	for _, m := range methods {
		n, err := m.Fetch(ctx, j.URI, j.TargetPath)
		if err == nil {
			if err := verifyDownload(j.TargetPath, n, j.ExpectedSize, j.ExpectedSHA256); err != nil {
				j.finish(jobResult{BytesWritten: n, Err: err})
				return
			}
			j.finish(jobResult{BytesWritten: n})
			return
		}
		lastErr = err
	}
	j.finish(jobResult{Err: fmt.Errorf("all transport methods for scheme %q failed: %w", scheme, lastErr)})
}

func schemeOf(uri string) string {
	for i := 0; i < len(uri); i++ {
		if uri[i] == ':' {
			return uri[:i]
		}
	}
	return ""
}
