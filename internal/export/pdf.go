package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/akvarma/devpulse/internal/model"
)

// Report writes a PDF summary of the given snapshots, one line per row.
// Page breaks are handled by fpdf's auto page break.
func Report(w io.Writer, snaps []model.Snapshot) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Device Health Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	if len(snaps) == 0 {
		pdf.CellFormat(0, 6, "No data available.", "", 1, "L", false, 0, "")
	}
	for _, s := range snaps {
		line := fmt.Sprintf("%s | %s | Temp:%dC | Mem:%d%% | Volt:%.2fV | Status:%s",
			formatTS(s.Timestamp), s.DeviceID, s.Temperature, s.Memory, s.Voltage, s.Status)
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}
