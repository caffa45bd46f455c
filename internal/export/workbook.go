// Package export renders agenda views as spreadsheet workbooks.
package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// SheetName is the worksheet that holds the agenda rows.
const SheetName = "Agenda"

// ContentType is the media type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Headers are the column titles of the agenda sheet, in order.
var Headers = []string{
	"Date",
	"Time",
	"Status",
	"Job #",
	"Title",
	"Customer",
	"Vehicle",
	"Vendor",
	"Coordinator",
	"Location",
	"Conflict",
}

var columnWidths = map[string]float64{
	"A": 14, "B": 18, "C": 14, "D": 10, "E": 32, "F": 24,
	"G": 28, "H": 16, "I": 16, "J": 12, "K": 10,
}

// Workbook renders view as an XLSX document. Rows follow view.Items order; conflicting
// bookings are highlighted.
func Workbook(view *model.AgendaView) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders view as an XLSX document into w.
func Write(w io.Writer, view *model.AgendaView) error {
	if view == nil {
		return fmt.Errorf("export: nil agenda view")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	conflictStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F8D7DA"}},
	})
	if err != nil {
		return fmt.Errorf("export: conflict style: %w", err)
	}

	if err := writeRow(f, 1, toAny(Headers)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(Headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("export: apply header style: %w", err)
	}

	for i, item := range view.Items {
		row := i + 2
		if err := writeRow(f, row, itemRow(item)); err != nil {
			return err
		}
		if item.Conflict {
			first, _ := excelize.CoordinatesToCellName(1, row)
			end, _ := excelize.CoordinatesToCellName(len(Headers), row)
			if err := f.SetCellStyle(SheetName, first, end, conflictStyle); err != nil {
				return fmt.Errorf("export: apply conflict style: %w", err)
			}
		}
	}

	for col, width := range columnWidths {
		_ = f.SetColWidth(SheetName, col, col, width)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("export: freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func itemRow(item model.AgendaItem) []any {
	job := item.Job
	date := item.DisplayDate
	if date == "" {
		date = item.DateKey
	}
	timeWindow := item.TimeWindow
	if item.AllDay && timeWindow == "" {
		timeWindow = "All day"
	}
	conflict := ""
	if item.Conflict {
		conflict = "yes"
	}
	return []any{
		date,
		timeWindow,
		string(item.EffectiveStatus),
		job.JobNumber,
		job.Title,
		job.CustomerLabel,
		job.VehicleLabel,
		job.VendorID,
		job.AssigneeID(),
		string(item.Location),
		conflict,
	}
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: row %d: %w", row, err)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("export: row %d: %w", row, err)
	}
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
