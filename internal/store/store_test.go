package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akvarma/devpulse/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t testing.TB) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(deviceID string, ts int64) model.Snapshot {
	return model.Snapshot{
		Timestamp:   ts,
		DeviceID:    deviceID,
		Temperature: 55,
		Memory:      40,
		Voltage:     4.25,
		CPU:         30,
		IO:          12,
		Status:      model.StatusOK,
	}
}

func TestNew(t *testing.T) {
	s := newTestStore(t)
	assert.NotNil(t, s)
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestNew_WritesToDisk(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestAppend(t *testing.T) {
	s := newTestStore(t)
	err := s.Append(testSnapshot("DEV1", time.Now().Unix()))
	assert.NoError(t, err)
}

func TestAppendThenHistory(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Unix()

	snap := model.Snapshot{
		Timestamp:   now,
		DeviceID:    "DEV1",
		Temperature: 110,
		Memory:      97,
		Voltage:     2.85,
		CPU:         88,
		IO:          45,
		Status:      model.StatusLowVoltage,
	}
	require.NoError(t, s.Append(snap))

	history, err := s.History("DEV1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, snap, history[0])
}

func TestHistory_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Unix()

	for i := range 5 {
		snap := testSnapshot("DEV1", now+int64(i))
		snap.Temperature = 50 + i
		require.NoError(t, s.Append(snap))
	}

	history, err := s.History("DEV1")
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, 50, history[0].Temperature)
	assert.Equal(t, 54, history[4].Temperature)
}

func TestHistory_Empty(t *testing.T) {
	s := newTestStore(t)
	history, err := s.History("DEV99")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestHistory_ScopedToDevice(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Unix()

	require.NoError(t, s.Append(testSnapshot("DEV1", now)))
	require.NoError(t, s.Append(testSnapshot("DEV2", now)))
	require.NoError(t, s.Append(testSnapshot("DEV1", now+1)))

	history, err := s.History("DEV1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	for _, snap := range history {
		assert.Equal(t, "DEV1", snap.DeviceID)
	}
}

func TestRecent(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Unix()

	for i := range 30 {
		snap := testSnapshot("DEV1", now+int64(i))
		snap.CPU = i + 1
		require.NoError(t, s.Append(snap))
	}

	recent, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	// Newest first.
	assert.Equal(t, 30, recent[0].CPU)
	assert.Equal(t, 21, recent[9].CPU)
}

func TestRecent_DefaultLimit(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Unix()

	for i := range 30 {
		require.NoError(t, s.Append(testSnapshot("DEV1", now+int64(i))))
	}

	recent, err := s.Recent(0)
	require.NoError(t, err)
	assert.Len(t, recent, DefaultRecentLimit)
}

func TestRecent_FewerRowsThanLimit(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(testSnapshot("DEV1", time.Now().Unix())))

	recent, err := s.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestAllSnapshots(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Unix()

	require.NoError(t, s.Append(testSnapshot("DEV1", now)))
	require.NoError(t, s.Append(testSnapshot("DEV2", now)))
	require.NoError(t, s.Append(testSnapshot("DEV3", now)))

	snaps, err := s.AllSnapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "DEV1", snaps[0].DeviceID)
	assert.Equal(t, "DEV3", snaps[2].DeviceID)
}

func TestInsertAlert(t *testing.T) {
	s := newTestStore(t)
	err := s.InsertAlert(time.Now().Unix(), "device_status", "DEV1",
		"[ALERT] Device-1 (DEV1) - Overheating!", "Temp: 110", model.SeverityCritical)
	assert.NoError(t, err)
}

func TestRecentAlerts(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Unix()

	for i := range 5 {
		require.NoError(t, s.InsertAlert(now+int64(i), "device_status", "DEV1",
			"subject", "message", model.SeverityWarning))
	}

	alerts, err := s.RecentAlerts(3)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	// Newest first.
	assert.Equal(t, now+4, alerts[0].Timestamp)
	assert.Equal(t, "device_status", alerts[0].AlertType)
	assert.Equal(t, "DEV1", alerts[0].DeviceID)
	assert.Equal(t, model.SeverityWarning, alerts[0].Severity)
	assert.Positive(t, alerts[0].ID)
}

func TestRecentAlerts_Empty(t *testing.T) {
	s := newTestStore(t)
	alerts, err := s.RecentAlerts(10)
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

// ---------------------------------------------------------------------------
// Error paths: closed DB triggers all error returns
// ---------------------------------------------------------------------------

func closedTestStore(t testing.TB) *Store {
	t.Helper()
	s := newTestStore(t)
	s.Close()
	return s
}

func TestAppend_ClosedDB(t *testing.T) {
	s := closedTestStore(t)
	err := s.Append(testSnapshot("DEV1", 1))
	assert.Error(t, err)
}

func TestHistory_ClosedDB(t *testing.T) {
	s := closedTestStore(t)
	_, err := s.History("DEV1")
	assert.Error(t, err)
}

func TestRecent_ClosedDB(t *testing.T) {
	s := closedTestStore(t)
	_, err := s.Recent(10)
	assert.Error(t, err)
}

func TestAllSnapshots_ClosedDB(t *testing.T) {
	s := closedTestStore(t)
	_, err := s.AllSnapshots()
	assert.Error(t, err)
}

func TestInsertAlert_ClosedDB(t *testing.T) {
	s := closedTestStore(t)
	err := s.InsertAlert(1, "device_status", "DEV1", "s", "m", "warning")
	assert.Error(t, err)
}

func TestRecentAlerts_ClosedDB(t *testing.T) {
	s := closedTestStore(t)
	_, err := s.RecentAlerts(10)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Benchmarks
// ---------------------------------------------------------------------------

func BenchmarkAppend(b *testing.B) {
	s := newTestStore(b)
	snap := testSnapshot("DEV1", time.Now().Unix())
	b.ResetTimer()
	for b.Loop() {
		_ = s.Append(snap)
	}
}

func BenchmarkRecent(b *testing.B) {
	s := newTestStore(b)
	now := time.Now().Unix()
	for i := range 500 {
		_ = s.Append(testSnapshot("DEV1", now+int64(i)))
	}
	b.ResetTimer()
	for b.Loop() {
		_, _ = s.Recent(DefaultRecentLimit)
	}
}
