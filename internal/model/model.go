// Package model defines all shared domain types for DevPulse.
package model

import "time"

// Device status classifications, derived from snapshot metrics.
// The classification order lives in the simulator; these are the values.
const (
	StatusOK          = "OK"
	StatusMemoryLeak  = "Memory Leak Risk"
	StatusOverheating = "Overheating!"
	StatusLowVoltage  = "Low Voltage!"
)

// Notification severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Device is one monitored device. The fleet is fixed at startup; IDs are
// stable and immutable for the process lifetime.
type Device struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Snapshot is one immutable observation of a device at a point in time.
type Snapshot struct {
	Timestamp   int64   `json:"timestamp"` // unix seconds, UTC
	DeviceID    string  `json:"device_id"`
	Temperature int     `json:"temperature"` // °C, [20,120]
	Memory      int     `json:"memory"`      // %, [10,100]
	Voltage     float64 `json:"voltage"`     // V, 2 decimal places, [2.5,5.5]
	CPU         int     `json:"cpu"`         // %, [1,100]
	IO          int     `json:"io"`          // %, [1,100]
	Status      string  `json:"status"`
}

// Time returns the snapshot timestamp as a UTC time.Time.
func (s Snapshot) Time() time.Time {
	return time.Unix(s.Timestamp, 0).UTC()
}

// Notification is a structured alert message handed to notify providers.
type Notification struct {
	AlertType  string            `json:"alert_type"`
	Severity   string            `json:"severity"` // "info", "warning", "critical"
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	DeviceID   string            `json:"device_id"`
	DeviceName string            `json:"device_name"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AlertRecord is a persisted row from the alert log.
type AlertRecord struct {
	ID        int64  `json:"id"`
	Timestamp int64  `json:"ts"`
	AlertType string `json:"alert_type"`
	DeviceID  string `json:"device_id"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
}
