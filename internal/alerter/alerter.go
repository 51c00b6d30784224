// Package alerter evaluates snapshots and dispatches notifications.
package alerter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akvarma/devpulse/internal/model"
	"github.com/akvarma/devpulse/internal/notify"
	"github.com/akvarma/devpulse/internal/store"
)

// Alerter builds a human-readable notification for every snapshot and
// dispatches it through the configured providers. A delivery failure is an
// observable log signal, never an error that aborts the sampling cycle.
type Alerter struct {
	store     *store.Store
	providers []notify.Provider
}

// New creates an alerter. An empty provider list is a valid state: the
// alerter then only records what would have been sent.
func New(s *store.Store, providers []notify.Provider) *Alerter {
	return &Alerter{store: s, providers: providers}
}

// SeverityFor maps a status classification to a notification severity.
func SeverityFor(status string) string {
	switch status {
	case model.StatusOK:
		return model.SeverityInfo
	case model.StatusMemoryLeak:
		return model.SeverityWarning
	default:
		return model.SeverityCritical
	}
}

// EvaluateAndNotify builds the subject/body for a snapshot and dispatches it.
// Non-OK evaluations are also recorded in the alert log. The snapshot has
// already been persisted by the time this runs; nothing here can undo that.
func (a *Alerter) EvaluateAndNotify(ctx context.Context, d model.Device, snap model.Snapshot) {
	n := buildNotification(d, snap)

	if snap.Status != model.StatusOK {
		if err := a.store.InsertAlert(snap.Timestamp, n.AlertType, d.ID, n.Title, n.Message, n.Severity); err != nil {
			slog.Error("storing alert", "device", d.ID, "error", err)
		}
	}

	// A provider that cannot currently deliver (email transport whose
	// runtime-mutable recipient list is still empty) is skipped, not dialed.
	active := make([]notify.Provider, 0, len(a.providers))
	for _, p := range a.providers {
		if r, ok := p.(interface{ Ready() bool }); ok && !r.Ready() {
			slog.Debug("notification transport not ready, skipping", "provider", p.Name())
			continue
		}
		active = append(active, p)
	}

	if len(active) == 0 {
		slog.Info("no notification transport configured, recording alert locally",
			"title", n.Title, "severity", n.Severity)
		slog.Debug("alert body", "message", n.Message)
		return
	}

	for _, p := range active {
		if err := p.Send(ctx, n); err != nil {
			slog.Error("sending notification", "provider", p.Name(), "device", d.ID, "error", err)
			continue
		}
		slog.Debug("notification sent", "provider", p.Name(), "device", d.ID, "status", snap.Status)
	}
}

// buildNotification formats the subject and body describing a snapshot.
func buildNotification(d model.Device, snap model.Snapshot) model.Notification {
	title := fmt.Sprintf("[ALERT] %s (%s) - %s", d.Name, d.ID, snap.Status)
	message := fmt.Sprintf(`Device: %s (%s)
Time: %s
Temp: %d °C
Memory: %d %%
Voltage: %.2f V
CPU: %d %%
I/O: %d %%
Status: %s
`,
		d.Name, d.ID,
		snap.Time().Format(time.DateTime),
		snap.Temperature, snap.Memory, snap.Voltage, snap.CPU, snap.IO, snap.Status,
	)

	return model.Notification{
		AlertType:  "device_status",
		Severity:   SeverityFor(snap.Status),
		Title:      title,
		Message:    message,
		DeviceID:   d.ID,
		DeviceName: d.Name,
		Timestamp:  snap.Time(),
		Metadata: map[string]string{
			"status": snap.Status,
		},
	}
}
