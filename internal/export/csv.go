package export

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/model"
)

// CSV writes leads to a comma-separated file with a header row.
type CSV struct {
	path string
}

// NewCSV returns a CSV sink writing to path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Name implements Sink.
func (c *CSV) Name() string { return "csv:" + c.path }

// Write implements Sink. The file is replaced.
func (c *CSV) Write(_ context.Context, leads []model.Lead) error {
	if err := ensureDir(c.path); err != nil {
		return err
	}
	f, err := os.Create(c.path)
	if err != nil {
		return eris.Wrapf(err, "csv: create %s", c.path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(model.Columns); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for _, l := range leads {
		if err := w.Write(l.Row()); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	return eris.Wrap(f.Close(), "csv: close")
}
