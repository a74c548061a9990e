package export

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-cli/internal/model"
)

// SheetName is the worksheet the XLSX sink writes.
const SheetName = "Leads"

// XLSX writes leads to a single-sheet workbook with a header row.
type XLSX struct {
	path string
}

// NewXLSX returns an XLSX sink writing to path.
func NewXLSX(path string) *XLSX {
	return &XLSX{path: path}
}

// Name implements Sink.
func (x *XLSX) Name() string { return "xlsx:" + x.path }

// Write implements Sink. The file is replaced.
func (x *XLSX) Write(_ context.Context, leads []model.Lead) error {
	if err := ensureDir(x.path); err != nil {
		return err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	addRow(sheet, model.Columns)
	for _, l := range leads {
		addRow(sheet, l.Row())
	}

	if err := f.Save(x.path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", x.path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
