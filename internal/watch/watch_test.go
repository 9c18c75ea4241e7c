package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRerunsOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "orders.log")
	other := filepath.Join(dir, "other.log")
	require.NoError(t, os.WriteFile(target, []byte("a\n"), 0o644))

	runs := make(chan string, 8)
	w := New(Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, w.Add(target, func(_ context.Context, path string) error {
		runs <- path
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("ignored\n"), 0o644))
	f, err := os.OpenFile(target, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("b\n")
	require.NoError(t, err)
	_, err = f.WriteString("c\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case got := <-runs:
		abs, _ := filepath.Abs(target)
		assert.Equal(t, abs, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no re-run after write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.LessOrEqual(t, len(runs), 1)
}

func TestWatcherRequiresFiles(t *testing.T) {
	err := New(Options{}).Run(context.Background())
	assert.Error(t, err)
}
