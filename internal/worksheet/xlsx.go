package worksheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	rowsSheet  = "Worksheet"
	nodesSheet = "Nodes"
)

// RowsHeader is the column order of the consolidated worksheet export.
var RowsHeader = []string{
	"Row", "Node", "Node label", "Deviation", "Cause", "Consequence", "Safeguard", "Recommendation",
}

var nodesHeader = []string{"Node", "Node recommendation"}

// WriteXLSX writes the consolidated worksheet as an XLSX workbook: one sheet
// with every row and one with the node recommendations. A non-empty title is
// stored as the workbook title.
func WriteXLSX(out io.Writer, ws *Worksheet, title string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rowsSheet); err != nil {
		return fmt.Errorf("worksheet: xlsx: %w", err)
	}
	rows := [][]any{}
	for _, r := range ws.Rows() {
		rows = append(rows, []any{
			r.ID, r.NodeID, r.NodeLabel, r.Deviation, r.Cause, r.Consequence, r.Safeguard, r.Recommendation,
		})
	}
	if err := writeTable(f, rowsSheet, RowsHeader, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(nodesSheet); err != nil {
		return fmt.Errorf("worksheet: xlsx: %w", err)
	}
	nodes := [][]any{}
	if ws != nil {
		for _, s := range ws.Sheets {
			nodes = append(nodes, []any{s.NodeID, s.Recommendation})
		}
	}
	if err := writeTable(f, nodesSheet, nodesHeader, nodes); err != nil {
		return err
	}

	if title != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: title}); err != nil {
			return fmt.Errorf("worksheet: xlsx: %w", err)
		}
	}
	if err := f.Write(out); err != nil {
		return fmt.Errorf("worksheet: xlsx: write: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, header []string, rows [][]any) error {
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("worksheet: xlsx: %s header: %w", sheet, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("worksheet: xlsx: %s %s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
