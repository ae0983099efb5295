// Package dataset loads the items krark validates from a YAML or JSON file.
//
//	items:
//	  - name: Lightning Bolt
//	    fields: { cost: 1, type: Instant }
package dataset

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// ErrDuplicateName is returned when two items share a name.
var ErrDuplicateName = errors.New("duplicate item name")

// Item is one entry of a dataset.
type Item struct {
	ItemName string         `yaml:"name" json:"name" validate:"required"`
	Fields   map[string]any `yaml:"fields" json:"fields"`
}

func (i Item) Name() string { return i.ItemName }

// Data returns the item's fields with its name added under "name", the shape
// templates and command checks see. A "name" field is overridden.
func (i Item) Data() map[string]any {
	data := make(map[string]any, len(i.Fields)+1)
	maps.Copy(data, i.Fields)
	data["name"] = i.ItemName
	return data
}

// Set is an ordered collection of uniquely named items.
type Set struct {
	Items []Item `yaml:"items" validate:"dive"`
}

func (s *Set) Len() int { return len(s.Items) }

func (s *Set) At(i int) Item { return s.Items[i] }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and parses a dataset file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return Parse(data)
}

// Parse decodes a dataset. JSON is accepted as a subset of YAML.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	seen := make(map[string]int, len(s.Items))
	for i, it := range s.Items {
		if first, ok := seen[it.ItemName]; ok {
			return nil, fmt.Errorf("%w: %q at items %d and %d", ErrDuplicateName, it.ItemName, first, i)
		}
		seen[it.ItemName] = i
	}
	return &s, nil
}
