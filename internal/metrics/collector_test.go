package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats CacheStats
	err   error
	calls int
}

func (m *mockStatsProvider) CacheStats() (CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats, m.err
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCollectorCollect(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "previews.db")
	if err := os.WriteFile(dbPath, make([]byte, 4096), 0o600); err != nil {
		t.Fatal(err)
	}

	provider := &mockStatsProvider{stats: CacheStats{SourceFiles: 3, Previews: 7, TotalBytes: 12345}}
	c := NewCollector(provider, dbPath, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(PreviewCacheFiles); got != 3 {
		t.Errorf("PreviewCacheFiles = %v, want 3", got)
	}
	if got := testutil.ToFloat64(PreviewCacheCount); got != 7 {
		t.Errorf("PreviewCacheCount = %v, want 7", got)
	}
	if got := testutil.ToFloat64(PreviewCacheSize); got != 12345 {
		t.Errorf("PreviewCacheSize = %v, want 12345", got)
	}
	if got := testutil.ToFloat64(DBSizeBytes.WithLabelValues("main")); got != 4096 {
		t.Errorf("DBSizeBytes{main} = %v, want 4096", got)
	}
	if got := testutil.ToFloat64(DBSizeBytes.WithLabelValues("wal")); got != 0 {
		t.Errorf("DBSizeBytes{wal} = %v, want 0 for a missing file", got)
	}
}

func TestCollectorKeepsGaugesOnError(t *testing.T) {
	PreviewCacheCount.Set(42)
	provider := &mockStatsProvider{err: errors.New("database is locked")}
	NewCollector(provider, "", time.Hour).collect()

	if got := testutil.ToFloat64(PreviewCacheCount); got != 42 {
		t.Errorf("PreviewCacheCount = %v, want unchanged 42", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	NewCollector(nil, "", time.Hour).collect()
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, "", 10*time.Millisecond)
	c.Start()

	deadline := time.Now().Add(2 * time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if provider.callCount() < 2 {
		t.Errorf("collector ran %d times, want at least 2", provider.callCount())
	}
}
