package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/term-dates/internal/term/termtest"
)

func TestOpen_CreatesEmptyRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "term-dates.json")

	store, err := Open(path)
	require.NoError(t, err)

	assert.Empty(t, store.Years())
	assert.Equal(t, Meta{}, store.Health())

	raw, err := os.ReadFile(path)
	require.NoError(t, err, "Open should persist the default record")

	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, map[string]any{}, onDisk["data"])
	assert.Equal(t, map[string]any{"lastRefreshOk": false}, onDisk["meta"])

	// A second open reads what the first one wrote
	_, err = Open(path)
	require.NoError(t, err)
}

func TestStore_SetYearRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "term-dates.json")
	store, err := Open(path)
	require.NoError(t, err)

	want := termtest.SampleYear(2025)
	require.NoError(t, store.SetYear(2025, want))

	got, ok := store.GetYear(2025)
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = store.GetYear(2026)
	assert.False(t, ok)

	// Simulated restart
	reopened, err := Open(path)
	require.NoError(t, err)
	got, ok = reopened.GetYear(2025)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, []int{2025}, reopened.Years())
}

func TestStore_GetYearReturnsCopy(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "term-dates.json"))
	require.NoError(t, err)
	require.NoError(t, store.SetYear(2025, termtest.SampleYear(2025)))

	got, _ := store.GetYear(2025)
	got.T1.Exams.Start = "1999-01-01"

	again, _ := store.GetYear(2025)
	assert.Equal(t, "2025-05-02", again.T1.Exams.Start)
}

func TestStore_SetRefreshStatus(t *testing.T) {
	now := time.Date(2025, time.March, 1, 3, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "term-dates.json")

	store, err := Open(path, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	require.NoError(t, store.SetRefreshStatus(true))
	meta := store.Health()
	assert.True(t, meta.LastRefreshOk)
	require.NotNil(t, meta.LastRefreshAt)
	assert.True(t, meta.LastRefreshAt.Equal(now))

	require.NoError(t, store.SetRefreshStatus(false))

	reopened, err := Open(path)
	require.NoError(t, err)
	meta = reopened.Health()
	assert.False(t, meta.LastRefreshOk)
	require.NotNil(t, meta.LastRefreshAt)
	assert.True(t, meta.LastRefreshAt.Equal(now))
}

func TestStore_CrashBeforeRenameKeepsCommittedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "term-dates.json")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetYear(2025, termtest.SampleYear(2025)))

	// A crash after the temp write leaves a partial temp file behind
	require.NoError(t, os.WriteFile(path+tmpSuffix, []byte(`{"data": {"2026": {"U1"`), 0644))

	reopened, err := Open(path)
	require.NoError(t, err)
	_, ok := reopened.GetYear(2025)
	assert.True(t, ok)
	_, ok = reopened.GetYear(2026)
	assert.False(t, ok)

	// The next flush overwrites the stray temp file
	require.NoError(t, reopened.SetYear(2026, termtest.SampleYear(2026)))
	_, err = os.Stat(path + tmpSuffix)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStore_FlushFailureKeepsMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "term-dates.json")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetYear(2025, termtest.SampleYear(2025)))

	rename = func(string, string) error { return errors.New("disk on fire") }
	t.Cleanup(func() { rename = os.Rename })

	err = store.SetYear(2026, termtest.SampleYear(2026))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFlush))
	var fe *FlushError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, path, fe.Path)

	_, ok := store.GetYear(2026)
	assert.True(t, ok, "in-memory mirror should keep the update")

	_, err = os.Stat(path + tmpSuffix)
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp file should be removed")

	rename = os.Rename
	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2025}, reopened.Years(), "disk should hold the last committed record")
}

func TestOpen_Corrupt(t *testing.T) {
	valid, err := json.Marshal(termtest.SampleYear(2025))
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{"data": `},
		{"empty object", `{}`},
		{"missing meta", `{"data": {}}`},
		{"missing lastRefreshOk", `{"data": {}, "meta": {}}`},
		{"unknown top-level field", `{"data": {}, "meta": {"lastRefreshOk": true}, "extra": 1}`},
		{"wrong type", `{"data": [], "meta": {"lastRefreshOk": true}}`},
		{"non-numeric year", `{"data": {"next": ` + string(valid) + `}, "meta": {"lastRefreshOk": true}}`},
		{"padded year", `{"data": {"02025": ` + string(valid) + `}, "meta": {"lastRefreshOk": true}}`},
		{"invalid year data", `{"data": {"2025": {"U1": {}}}, "meta": {"lastRefreshOk": true}}`},
		{"bad timestamp", `{"data": {}, "meta": {"lastRefreshOk": true, "lastRefreshAt": "yesterday"}}`},
		{"trailing data", `{"data": {}, "meta": {"lastRefreshOk": true}} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "term-dates.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Open(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStorageCorrupt), "got %v", err)

			raw, readErr := os.ReadFile(path)
			require.NoError(t, readErr)
			assert.Equal(t, tt.content, string(raw), "a corrupt file must not be overwritten")
		})
	}
}

func TestOpen_AcceptsValidFile(t *testing.T) {
	valid, err := json.Marshal(termtest.SampleYear(2025))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "term-dates.json")
	content := `{"data": {"2025": ` + string(valid) + `}, "meta": {"lastRefreshOk": true, "lastRefreshAt": "2025-06-01T03:00:00.123Z"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	store, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2025}, store.Years())
	meta := store.Health()
	assert.True(t, meta.LastRefreshOk)
	require.NotNil(t, meta.LastRefreshAt)
	assert.Equal(t, 2025, meta.LastRefreshAt.Year())
}

func TestNewHealthStatus(t *testing.T) {
	now := time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}

	tests := []struct {
		name      string
		meta      Meta
		wantOK    bool
		wantFresh bool
	}{
		{"never refreshed", Meta{}, false, false},
		{"ok and recent", Meta{LastRefreshOk: true, LastRefreshAt: at(time.Hour)}, true, true},
		{"failed but recent", Meta{LastRefreshOk: false, LastRefreshAt: at(time.Hour)}, false, true},
		{"just under 25h", Meta{LastRefreshOk: true, LastRefreshAt: at(25*time.Hour - time.Second)}, true, true},
		{"exactly 25h", Meta{LastRefreshOk: true, LastRefreshAt: at(25 * time.Hour)}, true, false},
		{"stale", Meta{LastRefreshOk: true, LastRefreshAt: at(48 * time.Hour)}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewHealthStatus(tt.meta, now)
			assert.Equal(t, tt.wantOK, status.OK)
			assert.Equal(t, tt.meta.LastRefreshOk, status.LastRefreshOk)
			assert.Equal(t, tt.wantFresh, status.Fresh)
		})
	}
}

func TestOpen_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := Open("~/term-dates/cache.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "term-dates", "cache.json"), store.Path())
}
