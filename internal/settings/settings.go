// Package settings holds the process-wide mutable runtime settings.
//
// Settings is the only piece of state shared between the request handlers
// (writers) and the sampling scheduler (reader). All access goes through a
// single RWMutex; each write is atomically visible to the next read.
package settings

import (
	"strings"
	"sync"
)

// Themes accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Settings is a mutex-guarded record of the runtime-adjustable settings.
type Settings struct {
	mu              sync.RWMutex
	theme           string
	alertEmail      string
	refreshInterval int // seconds
}

// View is a read-only copy of the settings, for templates and JSON.
type View struct {
	Theme           string `json:"theme"`
	AlertEmail      string `json:"alert_email"`
	RefreshInterval int    `json:"refresh_interval"`
}

// New returns settings seeded with the given values. Out-of-range values are
// normalized the same way the setters normalize them.
func New(theme, alertEmail string, refreshInterval int) *Settings {
	s := &Settings{theme: ThemeLight, refreshInterval: 1}
	s.SetTheme(theme)
	s.SetAlertEmail(alertEmail)
	s.SetRefreshInterval(refreshInterval)
	return s
}

// Theme returns the current UI theme.
func (s *Settings) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme updates the UI theme. Unknown values fall back to light.
func (s *Settings) SetTheme(theme string) {
	if theme != ThemeLight && theme != ThemeDark {
		theme = ThemeLight
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
}

// AlertEmail returns the alert destination list as configured.
func (s *Settings) AlertEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alertEmail
}

// SetAlertEmail updates the alert destination. Empty input leaves the
// previous value in place.
func (s *Settings) SetAlertEmail(addr string) {
	if strings.TrimSpace(addr) == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertEmail = addr
}

// AlertRecipients returns the alert destination split into addresses.
func (s *Settings) AlertRecipients() []string {
	s.mu.RLock()
	raw := s.alertEmail
	s.mu.RUnlock()

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// RefreshInterval returns the sampling interval in seconds.
func (s *Settings) RefreshInterval() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshInterval
}

// SetRefreshInterval updates the sampling interval. Values below one second
// are rejected and the previous valid value is kept. The scheduler reads the
// interval at the start of every cycle, so a change takes effect on the next
// tick without restarting the loop.
func (s *Settings) SetRefreshInterval(seconds int) {
	if seconds < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshInterval = seconds
}

// Snapshot returns a consistent copy of all settings.
func (s *Settings) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Theme:           s.theme,
		AlertEmail:      s.alertEmail,
		RefreshInterval: s.refreshInterval,
	}
}
