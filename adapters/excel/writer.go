package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"browsercov/domain/usage"
)

const (
	coverageSheet = "Coverage"
	browsersSheet = "Browsers"
)

// WriteWorkbook writes the covering selection and the full breakdown as two sheets
func WriteWorkbook(w io.Writer, sel usage.Selection, browsers []usage.Browser) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", coverageSheet); err != nil {
		return fmt.Errorf("failed to name coverage sheet: %w", err)
	}
	if _, err := f.NewSheet(browsersSheet); err != nil {
		return fmt.Errorf("failed to create browsers sheet: %w", err)
	}

	if err := writeRow(f, coverageSheet, 1, []interface{}{"Browser", "Version", "Users", "Share %"}); err != nil {
		return err
	}
	for i, c := range sel.Selected {
		row := []interface{}{c.Name, c.Usage.Version, c.Usage.Users, round2(c.Share(sel.Total))}
		if err := writeRow(f, coverageSheet, i+2, row); err != nil {
			return err
		}
	}
	footer := len(sel.Selected) + 3
	if err := writeRow(f, coverageSheet, footer, []interface{}{"Threshold %", sel.Threshold}); err != nil {
		return err
	}
	if err := writeRow(f, coverageSheet, footer+1, []interface{}{"Coverage %", round2(sel.CoveragePercent())}); err != nil {
		return err
	}
	if err := writeRow(f, coverageSheet, footer+2, []interface{}{"Total users", sel.Total}); err != nil {
		return err
	}

	if err := writeRow(f, browsersSheet, 1, []interface{}{"Browser", "Version", "Users"}); err != nil {
		return err
	}
	line := 2
	for _, b := range browsers {
		for _, v := range b.Versions {
			if err := writeRow(f, browsersSheet, line, []interface{}{b.Name, v.Version, v.Users}); err != nil {
				return err
			}
			line++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
