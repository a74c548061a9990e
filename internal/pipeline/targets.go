package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-cli/internal/model"
)

// Category is an organization type and the query that finds it.
type Category struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Query string `yaml:"query" mapstructure:"query"`
}

// DefaultCategories are searched when no targets file is given.
var DefaultCategories = []Category{
	{Name: "Church", Query: "Churches in California"},
	{Name: "Hospital", Query: "Hospitals in California"},
}

// BuildTargets splits total across categories by floor division; the last
// category takes the remainder. Categories left with nothing are dropped.
func BuildTargets(total int, categories []Category) []model.SearchTarget {
	if total <= 0 || len(categories) == 0 {
		return nil
	}
	share := total / len(categories)
	targets := make([]model.SearchTarget, 0, len(categories))
	assigned := 0
	for i, c := range categories {
		n := share
		if i == len(categories)-1 {
			n = total - assigned
		}
		assigned += n
		if n <= 0 {
			continue
		}
		targets = append(targets, model.SearchTarget{Query: c.Query, Category: c.Name, MaxItems: n})
	}
	return targets
}

type targetsFile struct {
	Targets []model.SearchTarget `yaml:"targets"`
}

// LoadTargets reads search targets from a file. YAML files take the form
//
//	targets:
//	  - query: Churches in Sacramento
//	    category: Church
//	    max_items: 25
//
// while .csv and .xlsx files carry a header row with query, category and
// max_items columns. Every target is validated before any is returned.
func LoadTargets(path string) ([]model.SearchTarget, error) {
	var (
		targets []model.SearchTarget
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		targets, err = loadTable(path, readCSVRows)
	case ".xlsx":
		targets, err = loadTable(path, func(p string) ([][]string, error) { return readXLSXRows(p, "") })
	default:
		targets, err = loadYAML(path)
	}
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, eris.Errorf("targets: %s lists no targets", path)
	}
	for i, t := range targets {
		if strings.TrimSpace(t.Query) == "" {
			return nil, eris.Errorf("targets: entry %d has no query", i+1)
		}
		if t.Category == "" {
			return nil, eris.Errorf("targets: entry %d (%s) has no category", i+1, t.Query)
		}
		if t.MaxItems <= 0 {
			return nil, eris.Errorf("targets: entry %d (%s) needs max_items > 0", i+1, t.Query)
		}
	}
	return targets, nil
}

func loadYAML(path string) ([]model.SearchTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "targets: read %s", path)
	}
	var f targetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "targets: parse %s", path)
	}
	return f.Targets, nil
}

func loadTable(path string, read func(string) ([][]string, error)) ([]model.SearchTarget, error) {
	rows, err := read(path)
	if err != nil {
		return nil, err
	}
	return targetsFromRows(rows)
}
