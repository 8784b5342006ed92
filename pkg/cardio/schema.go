package cardio

import "fmt"

type FeatureKind int

const (
	Direct FeatureKind = iota
	Derived
)

func (k FeatureKind) String() string {
	if k == Derived {
		return "derived"
	}
	return "direct"
}

const (
	DefaultAgeYears = 50.0
	DefaultBMI      = 25.0
)

// FeatureSpec describes one vector position.
type FeatureSpec struct {
	Name    string
	Kind    FeatureKind
	Default float64
}

// Schema is the ordered feature layout the classifier was trained on. Its
// order is fixed when it is built and must match training.
type Schema struct {
	specs []FeatureSpec
}

// NewSchema builds the schema from the artifact's ordered feature names.
func NewSchema(names []string) (Schema, error) {
	if len(names) == 0 {
		return Schema{}, fmt.Errorf("empty feature list: %w", ErrModelArtifactUnavailable)
	}
	seen := make(map[string]struct{}, len(names))
	specs := make([]FeatureSpec, 0, len(names))
	for _, name := range names {
		if name == "" {
			return Schema{}, fmt.Errorf("blank feature name: %w", ErrModelArtifactUnavailable)
		}
		if _, dup := seen[name]; dup {
			return Schema{}, fmt.Errorf("duplicate feature %q: %w", name, ErrModelArtifactUnavailable)
		}
		seen[name] = struct{}{}
		specs = append(specs, specFor(name))
	}
	return Schema{specs: specs}, nil
}

func specFor(name string) FeatureSpec {
	switch name {
	case FieldAgeYears:
		return FeatureSpec{Name: name, Kind: Derived, Default: DefaultAgeYears}
	case FieldBMI:
		return FeatureSpec{Name: name, Kind: Derived, Default: DefaultBMI}
	default:
		return FeatureSpec{Name: name, Kind: Direct, Default: 0}
	}
}

func (s Schema) Len() int {
	return len(s.specs)
}

// Specs returns a copy of the ordered specs.
func (s Schema) Specs() []FeatureSpec {
	out := make([]FeatureSpec, len(s.specs))
	copy(out, s.specs)
	return out
}

func (s Schema) Names() []string {
	names := make([]string, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}
