package pipeline

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-cli/internal/model"
)

// targetColumns are the header names a tabular targets file must carry.
var targetColumns = []string{"query", "category", "max_items"}

// readCSVRows returns every row of a CSV file. Rows may have varying widths.
func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "targets: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "targets: read csv %s", path)
		}
		rows = append(rows, rec)
	}
}

// readXLSXRows returns the rows of the named sheet, or of the first sheet
// when sheetName is empty.
func readXLSXRows(path, sheetName string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "targets: open xlsx %s", path)
	}

	var sheet *xlsx.Sheet
	if sheetName != "" {
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("targets: sheet %q not found in %s", sheetName, path)
		}
		sheet = s
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.Errorf("targets: %s has no sheets", path)
		}
		sheet = f.Sheets[0]
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// targetsFromRows maps a header row plus data rows onto search targets.
// Header names are matched case-insensitively; blank rows are skipped.
func targetsFromRows(rows [][]string) ([]model.SearchTarget, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	idx := make(map[string]int, len(targetColumns))
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range targetColumns {
		if _, ok := idx[col]; !ok {
			return nil, eris.Errorf("targets: header is missing column %q", col)
		}
	}

	cell := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var targets []model.SearchTarget
	for n, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		t := model.SearchTarget{
			Query:    cell(row, "query"),
			Category: cell(row, "category"),
		}
		if raw := cell(row, "max_items"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil, eris.Errorf("targets: row %d has non-numeric max_items %q", n+2, raw)
			}
			t.MaxItems = v
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
