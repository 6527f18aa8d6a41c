package trigger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	runs atomic.Int32
	err  error
	done chan struct{}
}

func newCountingRunner() *countingRunner {
	return &countingRunner{done: make(chan struct{}, 16)}
}

func (r *countingRunner) Run(_ context.Context) error {
	r.runs.Add(1)
	r.done <- struct{}{}
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitRun(t *testing.T, r *countingRunner) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run")
	}
}

func TestLoop_RequestsCoalesce(t *testing.T) {
	r := newCountingRunner()
	l := NewLoop(r, discardLogger())

	l.Request("a")
	l.Request("b")
	l.Request("c")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Serve(ctx)

	waitRun(t, r)
	select {
	case <-r.done:
		t.Fatal("coalesced requests produced a second run")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, int32(1), r.runs.Load())
}

func TestLoop_ErrorDoesNotStop(t *testing.T) {
	r := newCountingRunner()
	r.err = errors.New("bad input")
	l := NewLoop(r, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Serve(ctx)

	l.Request("first")
	waitRun(t, r)
	l.Request("second")
	waitRun(t, r)
	assert.Equal(t, int32(2), r.runs.Load())
}

func TestSchedule_InvalidExpression(t *testing.T) {
	_, err := Schedule("every now and then", NewLoop(newCountingRunner(), discardLogger()))
	require.Error(t, err)
}

func TestSchedule_Valid(t *testing.T) {
	c, err := Schedule("@every 1h", NewLoop(newCountingRunner(), discardLogger()))
	require.NoError(t, err)
	c.Stop()
}

func TestWatcher_DebouncesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClock()
	r := newCountingRunner()
	l := NewLoop(r, discardLogger())

	w, err := NewWatcher(dir, "*.csv", 2*time.Second, clock, l, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	go l.Serve(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("#"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x\n1\n"), 0o600))

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	// Late events for the same write may re-arm the timer; keep advancing.
	deadline := time.After(5 * time.Second)
	for fired := false; !fired; {
		clock.Advance(2 * time.Second)
		select {
		case <-r.done:
			fired = true
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("timed out waiting for debounced run")
		}
	}
	assert.GreaterOrEqual(t, r.runs.Load(), int32(1))
}

func TestWatcher_Matches(t *testing.T) {
	w := &Watcher{glob: "*.xlsx"}
	assert.True(t, w.matches("/data/OpenSea.xlsx"))
	assert.False(t, w.matches("/data/~$OpenSea.xlsx.tmp"))
	assert.False(t, w.matches("/data/notes.txt"))
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope"), "*", time.Second, clockwork.NewFakeClock(), NewLoop(newCountingRunner(), discardLogger()), discardLogger())
	require.Error(t, err)
}
