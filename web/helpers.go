package web

import (
	"fmt"
	"time"

	"github.com/akvarma/devpulse/internal/model"
)

// FormatTime formats a unix timestamp for display.
func FormatTime(unixTS int64) string {
	return time.Unix(unixTS, 0).UTC().Format("2006-01-02 15:04:05")
}

// FormatVoltage formats a voltage reading with two decimal places.
func FormatVoltage(v float64) string {
	return fmt.Sprintf("%.2f V", v)
}

// StatusClass maps a status classification to a CSS class.
func StatusClass(status string) string {
	switch status {
	case model.StatusOK:
		return "status-ok"
	case model.StatusMemoryLeak:
		return "status-warning"
	default:
		return "status-critical"
	}
}
