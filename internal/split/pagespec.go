package split

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/atlas-creative/content-engine/internal/model"
)

// LoadPageTable reads and validates a YAML page descriptor table.
func LoadPageTable(path string) ([]model.PageSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "split: read page table %s", path)
	}
	return parsePageTable(data)
}

func parsePageTable(data []byte) ([]model.PageSpec, error) {
	var specs []model.PageSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, eris.Wrap(err, "split: parse page table")
	}
	if len(specs) == 0 {
		return nil, eris.New("split: page table is empty")
	}

	seen := make(map[int]bool, len(specs))
	for i, spec := range specs {
		if spec.Page < 1 {
			return nil, eris.Errorf("split: entry %d: page must be >= 1, got %d", i, spec.Page)
		}
		if seen[spec.Page] {
			return nil, eris.Errorf("split: duplicate page %d", spec.Page)
		}
		seen[spec.Page] = true

		if strings.TrimSpace(spec.Client) == "" {
			return nil, eris.Errorf("split: entry %d (page %d): client is required", i, spec.Page)
		}
		if strings.TrimSpace(spec.Title) == "" {
			return nil, eris.Errorf("split: entry %d (page %d): title is required", i, spec.Page)
		}
	}
	return specs, nil
}
