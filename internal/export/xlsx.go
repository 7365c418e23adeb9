// Package export renders a person's recomputed signal log as a workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/matthewbaird/signify/internal/signals"
	"github.com/matthewbaird/signify/internal/types"
)

// SheetName is the name of the single sheet in an exported workbook.
const SheetName = "Signal Log"

// ContentType is the MIME type of an exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header lists the exported columns in order.
var Header = []string{
	"Date",
	"Event Type",
	"Description",
	"Impact",
	"Cumulative Impact",
	"Risk After",
	"Action",
	"Action Category",
	"Action Date",
	"Notes",
}

var columnWidths = []float64{12, 24, 48, 9, 18, 14, 30, 16, 12, 40}

// riskColumn is the 1-based column holding the derived category.
const riskColumn = 6

// titleRows precede the header: the person line and a blank spacer.
const titleRows = 2

// WriteTimeline writes entries, in the order given, as an xlsx workbook.
// The risk cell of each row is filled with its category colour.
func WriteTimeline(w io.Writer, person types.Person, entries []signals.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	if err != nil {
		return fmt.Errorf("creating title style: %w", err)
	}
	title := fmt.Sprintf("%s (#%d), current risk %s", person.Name, person.ID, signals.Current(entries).Label())
	if err := f.SetCellValue(SheetName, "A1", title); err != nil {
		return fmt.Errorf("writing title: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", titleStyle); err != nil {
		return fmt.Errorf("styling title: %w", err)
	}

	headerRow := titleRows + 1
	if err := writeHeader(f, headerRow); err != nil {
		return err
	}

	riskStyles, err := newRiskStyles(f)
	if err != nil {
		return err
	}

	for i, e := range entries {
		row := headerRow + 1 + i
		if err := f.SetSheetRow(SheetName, cellName(1, row), rowValues(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
		risk := cellName(riskColumn, row)
		if err := f.SetCellStyle(SheetName, risk, risk, riskStyles[e.RiskScoreAfter()]); err != nil {
			return fmt.Errorf("styling risk cell %s: %w", risk, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: cellName(1, headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, row int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	values := make([]any, len(Header))
	for i, h := range Header {
		values[i] = h
	}
	if err := f.SetSheetRow(SheetName, cellName(1, row), &values); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, cellName(1, row), cellName(len(Header), row), style); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("converting column number: %w", err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("setting width of column %s: %w", col, err)
		}
	}
	return nil
}

func newRiskStyles(f *excelize.File) (map[types.RiskCategory]int, error) {
	styles := make(map[types.RiskCategory]int, len(types.RiskCategories))
	for _, c := range types.RiskCategories {
		id, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{c.Color()}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s style: %w", c, err)
		}
		styles[c] = id
	}
	return styles, nil
}

func rowValues(e signals.Entry) *[]any {
	info := signals.EventTypeLabel(e.EventType)
	values := []any{
		e.Date.String(),
		info.Label,
		e.Description,
		e.RiskScoreImpact,
		e.CumulativeImpact(),
		e.RiskScoreAfter().Label(),
		"", "", "", "",
	}
	if resolved, ok := signals.ResolveAction(e.EventType, e.ActionTaken); ok {
		values[6] = resolved.Label
		values[7] = signals.StyleFor(resolved.Category).Label
		values[8] = resolved.DateTaken.String()
		values[9] = resolved.Notes
	}
	return &values
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
