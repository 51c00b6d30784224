package store

import (
	"context"
	"testing"
	"time"

	"github.com/akvarma/devpulse/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetention(t *testing.T) {
	r := DefaultRetention()
	assert.Equal(t, 30*24*time.Hour, r.Snapshots)
	assert.Equal(t, 30*24*time.Hour, r.AlertLog)
}

func TestNewPruner(t *testing.T) {
	s := newTestStore(t)
	r := DefaultRetention()
	p := NewPruner(s, r)

	assert.NotNil(t, p)
	assert.Equal(t, s, p.store)
	assert.Equal(t, r, p.retention)
	assert.Equal(t, 1*time.Hour, p.interval)
}

func TestPrunerRun_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	p := NewPruner(s, DefaultRetention())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrune_DeletesOldData(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().Unix()
	oldTS := now - int64((31 * 24 * time.Hour).Seconds()) // older than 30d retention

	require.NoError(t, s.Append(testSnapshot("DEV1", oldTS)))
	require.NoError(t, s.Append(testSnapshot("DEV1", now)))
	require.NoError(t, s.InsertAlert(oldTS, "device_status", "DEV1", "old alert", "m", model.SeverityWarning))
	require.NoError(t, s.InsertAlert(now, "device_status", "DEV1", "new alert", "m", model.SeverityWarning))

	p := NewPruner(s, DefaultRetention())
	p.prune()

	history, err := s.History("DEV1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, now, history[0].Timestamp)

	alerts, err := s.RecentAlerts(10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "new alert", alerts[0].Subject)
}

func TestPrune_ClosedDB(t *testing.T) {
	s := newTestStore(t)
	p := NewPruner(s, DefaultRetention())
	s.Close()

	// Should not panic when DB is closed; errors are logged but not returned.
	p.prune()
}

func TestPrune_NoRowsDeleted(t *testing.T) {
	s := newTestStore(t)
	p := NewPruner(s, DefaultRetention())

	// Empty tables — prune should complete without error.
	p.prune()
}

func TestPrunerRun_TickerFires(t *testing.T) {
	s := newTestStore(t)
	p := NewPruner(s, DefaultRetention())
	p.interval = 10 * time.Millisecond // fast ticker

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPrunerRun_PrunesOnStartup(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Unix()
	oldTS := now - int64((31 * 24 * time.Hour).Seconds())

	require.NoError(t, s.Append(testSnapshot("DEV1", oldTS)))

	p := NewPruner(s, DefaultRetention())

	// Run with short-lived context so it prunes once at startup then exits
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = p.Run(ctx)

	history, err := s.History("DEV1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
