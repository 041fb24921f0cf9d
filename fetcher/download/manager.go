package download

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
)

// Manager is the archive download manager: it listens on a Unix domain
// socket for client connections speaking the protocol in protocol.go,
// deduplicates concurrent requests for the same URI, and runs performer
// goroutines bounded by MaxConcurrent, running worker/performer work in
// goroutines internally rather than forked processes, while keeping the
// external socket protocol unchanged so independent client processes can
// still talk to it.
type Manager struct {
	log           *slog.Logger
	registry      *registry
	maxConcurrent int

	mu       sync.Mutex
	inFlight map[string]*job // keyed by URI
	sem      chan struct{}

	onDownload func(uri string, bytes int64) // optional hook for fetchevent/metrics

	onPerformerStart  func() // optional hook for metrics.Metrics.PerformerStarted
	onPerformerFinish func() // optional hook for metrics.Metrics.PerformerFinished
}

// NewManager returns a Manager with no registered transport methods;
// callers should Register at least an http(s) method before Listen.
func NewManager(log *slog.Logger, maxConcurrent int) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Manager{
		log:           log,
		registry:      newRegistry(),
		maxConcurrent: maxConcurrent,
		inFlight:      make(map[string]*job),
		sem:           make(chan struct{}, maxConcurrent),
	}
}

// Register adds a transport method for its scheme.
func (m *Manager) Register(method Method) { m.registry.Register(method) }

// OnDownload sets a callback invoked after each successful download,
// intended for wiring into the fetchevent buffered counter.
func (m *Manager) OnDownload(fn func(uri string, bytes int64)) { m.onDownload = fn }

// OnPerformerLifecycle sets hooks called when a performer goroutine
// starts and finishes, intended for metrics.Metrics.PerformerStarted/
// PerformerFinished.
func (m *Manager) OnPerformerLifecycle(start, finish func()) {
	m.onPerformerStart = start
	m.onPerformerFinish = finish
}

// Listen opens the Unix domain socket at socketPath and serves client
// connections until ctx is cancelled.
func (m *Manager) Listen(ctx context.Context, socketPath string) error {
	_ = os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("download manager: listening on %s: %w", socketPath, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("download manager: accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.serveConn(ctx, conn)
		}()
	}
}

func (m *Manager) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)

	for {
		msg, err := ReadMessage(r)
		if err != nil {
			return
		}
		if len(msg.Tokens) == 0 {
			continue
		}

		switch msg.Tokens[0] {
		case CmdDownload:
			m.handleDownload(ctx, conn, msg.Tokens[1:])
		case CmdShutdown:
			return
		default:
			writeMessage(conn, Message{Tokens: []string{EventError, "", "unknown command " + msg.Tokens[0]}})
		}
	}
}

func (m *Manager) handleDownload(ctx context.Context, conn net.Conn, args []string) {
	if len(args) < 2 {
		writeMessage(conn, Message{Tokens: []string{EventError, "", "download requires uri and target path"}})
		return
	}
	uri, target := args[0], args[1]
	var expectedSize int64
	var expectedSHA256 string
	if len(args) > 2 {
		fmt.Sscanf(args[2], "%d", &expectedSize)
	}
	if len(args) > 3 {
		expectedSHA256 = args[3]
	}

	j := m.submit(ctx, uri, target, expectedSize, expectedSHA256)
	writeMessage(conn, Message{Tokens: []string{EventStart, uri}})
	res := j.wait()

	if res.Err != nil {
		writeMessage(conn, Message{Tokens: []string{EventError, uri, res.Err.Error()}})
		return
	}
	if m.onDownload != nil {
		m.onDownload(uri, res.BytesWritten)
	}
	writeMessage(conn, Message{Tokens: []string{EventDone, uri}})
}

// submit deduplicates concurrent requests for the same URI: if a job for
// uri is already in flight, the caller is handed the same job and will
// observe the same result, keeping at most one performer running per
// URI at a time.
func (m *Manager) submit(ctx context.Context, uri, target string, expectedSize int64, expectedSHA256 string) *job {
	m.mu.Lock()
	if existing, ok := m.inFlight[uri]; ok {
		m.mu.Unlock()
		return existing
	}
	j := newJob(uri, target, expectedSize, expectedSHA256)
	m.inFlight[uri] = j
	m.mu.Unlock()

	go func() {
		m.sem <- struct{}{}
		defer func() { <-m.sem }()

		if m.onPerformerStart != nil {
			m.onPerformerStart()
		}
		runPerformer(ctx, m.registry, j)
		if m.onPerformerFinish != nil {
			m.onPerformerFinish()
		}

		m.mu.Lock()
		delete(m.inFlight, uri)
		m.mu.Unlock()
	}()

	return j
}

func writeMessage(conn net.Conn, msg Message) {
	_, _ = conn.Write(msg.Encode())
}
