// Package export renders telemetry records into downloadable spreadsheets.
package export

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"roadmon/internal/models"
)

const sheetName = "Road Monitoring Data"

var headers = []string{
	"Device ID",
	"Timestamp", "Date", "Time",
	"Latitude", "Longitude",
	"Accel X", "Accel Y", "Accel Z", "Magnitude",
}

// ExcelExporter renders record sequences as .xlsx workbooks.
type ExcelExporter struct {
	logger *log.Logger
}

// NewExcelExporter creates a new ExcelExporter.
func NewExcelExporter(logger *log.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// Export renders the given records into a workbook and returns the file
// contents plus a timestamped download filename.
func (e *ExcelExporter) Export(records []models.Record) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, "", fmt.Errorf("failed to rename sheet: %w", err)
	}

	widths := make([]int, len(headers))
	for col, h := range headers {
		if err := setCell(f, col+1, 1, h); err != nil {
			return nil, "", err
		}
		widths[col] = len(h)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"667EEA"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, "", fmt.Errorf("failed to style header row: %w", err)
	}

	for i, rec := range records {
		dateStr, timeStr := splitTimestamp(rec.Timestamp())
		values := []interface{}{
			rec.DeviceID(),
			rec.Timestamp(),
			dateStr,
			timeStr,
			rec.Float(models.KeyLatitude),
			rec.Float(models.KeyLongitude),
			rec.Float(models.KeyAccelX),
			rec.Float(models.KeyAccelY),
			rec.Float(models.KeyAccelZ),
			rec.Magnitude(),
		}
		for col, v := range values {
			if err := setCell(f, col+1, i+2, v); err != nil {
				return nil, "", err
			}
			if l := len(fmt.Sprint(v)); l > widths[col] {
				widths[col] = l
			}
		}
	}

	for col, width := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(sheetName, name, name, float64(width+2)); err != nil {
			return nil, "", fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("road_monitoring_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf, filename, nil
}

func setCell(f *excelize.File, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell coordinates (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheetName, cell, v); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}

// splitTimestamp derives separate date and time columns from the record
// timestamp; unparseable timestamps yield empty columns.
func splitTimestamp(ts string) (string, string) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return "", ""
	}
	return t.Format("2006-01-02"), t.Format("15:04:05")
}
