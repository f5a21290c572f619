package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Mr-Dark-debug/skydash/internal/series"
)

// Sheet names of the XLSX export.
const (
	HistorySheet  = "History"
	ProgressSheet = "Progress"
)

// WriteXLSX writes the reshaped history rows of c to the History sheet and
// c.Progress to the Progress sheet.
func WriteXLSX(w io.Writer, c Chart) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		return fmt.Errorf("naming history sheet: %w", err)
	}
	if _, err := f.NewSheet(ProgressSheet); err != nil {
		return fmt.Errorf("creating progress sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := writeHistorySheet(f, c, bold); err != nil {
		return err
	}
	if err := writeProgressSheet(f, c, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeHistorySheet(f *excelize.File, c Chart, headerStyle int) error {
	header := []interface{}{"Date"}
	for _, s := range c.Data {
		header = append(header, series.FormatName(s.Name))
	}
	if err := f.SetSheetRow(HistorySheet, "A1", &header); err != nil {
		return fmt.Errorf("writing history header: %w", err)
	}
	if err := styleHeader(f, HistorySheet, len(header), headerStyle); err != nil {
		return err
	}

	for i, r := range series.Reshape(c.Data, c.location()) {
		row := []interface{}{r.Date}
		for _, s := range c.Data {
			if v, ok := r.Value(s.Name); ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(HistorySheet, cell, &row); err != nil {
			return fmt.Errorf("writing history row %s: %w", r.Date, err)
		}
	}

	if err := f.SetColWidth(HistorySheet, "A", "A", 12); err != nil {
		return err
	}
	return freezeHeader(f, HistorySheet)
}

func writeProgressSheet(f *excelize.File, c Chart, headerStyle int) error {
	header := []interface{}{"Item", "Progress", "Total"}
	if err := f.SetSheetRow(ProgressSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing progress header: %w", err)
	}
	if err := styleHeader(f, ProgressSheet, len(header), headerStyle); err != nil {
		return err
	}

	for i, p := range c.Progress {
		row := []interface{}{series.FormatName(p.Name), p.Progress, p.EndValue}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ProgressSheet, cell, &row); err != nil {
			return fmt.Errorf("writing progress row %s: %w", p.Name, err)
		}
	}

	if err := f.SetColWidth(ProgressSheet, "A", "A", 28); err != nil {
		return err
	}
	return freezeHeader(f, ProgressSheet)
}

func styleHeader(f *excelize.File, sheet string, cols, style int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	return nil
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
