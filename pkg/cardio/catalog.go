package cardio

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Catalog carries the human-facing description of each input field and an
// example payload for discovery clients.
type Catalog struct {
	Descriptions map[string]string      `yaml:"descriptions" json:"descriptions"`
	Example      map[string]interface{} `yaml:"example_input" json:"example_input"`
}

func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return DefaultCatalog(), err
	}
	if len(cat.Descriptions) == 0 {
		return DefaultCatalog(), fmt.Errorf("feature catalog %s has no descriptions", path)
	}
	if len(cat.Example) == 0 {
		cat.Example = DefaultCatalog().Example
	}
	return cat, nil
}

// Describe returns descriptions for the schema features and the derivation
// aliases, in that precedence.
func (c Catalog) Describe(schema Schema) map[string]string {
	out := make(map[string]string, schema.Len()+3)
	for _, name := range schema.Names() {
		if d, ok := c.Descriptions[name]; ok {
			out[name] = d
		} else {
			out[name] = "No description available"
		}
	}
	for _, alias := range []string{FieldAge, FieldHeight, FieldWeight} {
		if _, ok := out[alias]; ok {
			continue
		}
		if d, ok := c.Descriptions[alias]; ok {
			out[alias] = d
		}
	}
	return out
}

func DefaultCatalog() Catalog {
	return Catalog{
		Descriptions: map[string]string{
			FieldGender:      "1: female, 2: male",
			FieldHeight:      "Height in cm",
			FieldWeight:      "Weight in kg",
			FieldAPHi:        "Systolic BP",
			FieldAPLo:        "Diastolic BP",
			FieldCholesterol: "1 normal, 2 above normal, 3 high",
			FieldGluc:        "1 normal, 2 above normal, 3 high",
			FieldSmoke:       "0 no, 1 yes",
			FieldAlco:        "0 no, 1 yes",
			FieldActive:      "0 no, 1 yes",
			FieldAge:         "Age in years",
			FieldAgeYears:    "Age in years (auto)",
			FieldBMI:         "Body Mass Index",
		},
		Example: map[string]interface{}{
			FieldGender:      2,
			FieldHeight:      170,
			FieldWeight:      70,
			FieldAPHi:        120,
			FieldAPLo:        80,
			FieldCholesterol: 1,
			FieldGluc:        1,
			FieldSmoke:       0,
			FieldAlco:        0,
			FieldActive:      1,
			FieldAge:         50,
		},
	}
}
