package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type mockServer struct {
	rec     *recorder
	stopped chan struct{}
	once    sync.Once
}

func newMockServer(rec *recorder) *mockServer {
	return &mockServer{rec: rec, stopped: make(chan struct{})}
}

func (m *mockServer) Start() error {
	<-m.stopped
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(_ context.Context) error {
	m.once.Do(func() { close(m.stopped) })
	m.rec.add("server stopped")
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_WaitsForGeneratorBeforeClosingSink(t *testing.T) {
	rec := &recorder{}
	svc := &service{
		srv: newMockServer(rec),
		generate: func(ctx context.Context) error {
			<-ctx.Done()
			// Writers still flushing after cancellation.
			time.Sleep(50 * time.Millisecond)
			rec.add("generator done")
			return ctx.Err()
		},
		closeSink:       func() error { rec.add("sink closed"); return nil },
		shutdownTimeout: 5 * time.Second,
		logger:          discardLogger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	svc.run(ctx)

	events := rec.list()
	require.Len(t, events, 3)
	assert.Contains(t, events, "server stopped")
	assert.Equal(t, []string{"generator done", "sink closed"}, events[1:], "sink must close after the generator returns")
}

func TestService_GeneratorFinishedBeforeShutdown(t *testing.T) {
	rec := &recorder{}
	svc := &service{
		srv: newMockServer(rec),
		generate: func(_ context.Context) error {
			rec.add("generator done")
			return nil
		},
		shutdownTimeout: time.Second,
		logger:          discardLogger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	svc.run(ctx)

	assert.Equal(t, []string{"generator done", "server stopped"}, rec.list())
}

func TestService_ShutdownTimeoutBoundsWait(t *testing.T) {
	rec := &recorder{}
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	svc := &service{
		srv: newMockServer(rec),
		generate: func(_ context.Context) error {
			<-block
			return nil
		},
		closeSink:       func() error { rec.add("sink closed"); return nil },
		shutdownTimeout: 50 * time.Millisecond,
		logger:          discardLogger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	svc.run(ctx)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, []string{"server stopped", "sink closed"}, rec.list())
}
