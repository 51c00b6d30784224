// Package export renders snapshot sequences as CSV and PDF byte streams.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/akvarma/devpulse/internal/model"
)

func formatTS(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.DateTime)
}

// HistoryCSV writes one device's snapshot history. The device column is
// omitted; the caller already scoped the rows to a single device.
func HistoryCSV(w io.Writer, snaps []model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "temperature", "memory", "voltage", "cpu", "io", "status"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, s := range snaps {
		row := []string{
			formatTS(s.Timestamp),
			fmt.Sprintf("%d", s.Temperature),
			fmt.Sprintf("%d", s.Memory),
			fmt.Sprintf("%.2f", s.Voltage),
			fmt.Sprintf("%d", s.CPU),
			fmt.Sprintf("%d", s.IO),
			s.Status,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AllCSV writes snapshots across all devices, with a device_id column.
func AllCSV(w io.Writer, snaps []model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "device_id", "temperature", "memory", "voltage", "cpu", "io", "status"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, s := range snaps {
		row := []string{
			formatTS(s.Timestamp),
			s.DeviceID,
			fmt.Sprintf("%d", s.Temperature),
			fmt.Sprintf("%d", s.Memory),
			fmt.Sprintf("%.2f", s.Voltage),
			fmt.Sprintf("%d", s.CPU),
			fmt.Sprintf("%d", s.IO),
			s.Status,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
