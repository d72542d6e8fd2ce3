package plant_simulator

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
)

// DefaultType is the profile used for any unknown plant type.
const DefaultType = "default"

// Catalog maps plant-type names to tolerance profiles. It is immutable after construction.
type Catalog struct {
	profiles map[string]model.PlantTypeProfile
}

var builtinProfiles = map[string]model.PlantTypeProfile{
	"cactus":    {IdealPH: 6.0, MinHumidity: 20, MaxHumidity: 40, DryRate: 0.5},
	"tropical":  {IdealPH: 6.5, MinHumidity: 60, MaxHumidity: 90, DryRate: 0.2},
	"herb":      {IdealPH: 6.8, MinHumidity: 50, MaxHumidity: 80, DryRate: 0.3},
	DefaultType: {IdealPH: 6.5, MinHumidity: 40, MaxHumidity: 70, DryRate: 0.3},
}

// DefaultCatalog returns the built-in plant types.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(nil)
	return c
}

// NewCatalog merges overrides on top of the built-in profiles.
func NewCatalog(overrides map[string]model.PlantTypeProfile) (*Catalog, error) {
	profiles := make(map[string]model.PlantTypeProfile, len(builtinProfiles)+len(overrides))
	for name, p := range builtinProfiles {
		profiles[name] = p
	}
	for name, p := range overrides {
		key := normalizeType(name)
		if key == "" {
			return nil, fmt.Errorf("plant type with empty name")
		}
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("plant type %q: %w", name, err)
		}
		profiles[key] = p
	}
	return &Catalog{profiles: profiles}, nil
}

// LoadCatalog reads YAML overrides of the form
//
//	orchid: {ideal_ph: 6.0, min_humidity: 50, max_humidity: 80, dry_rate: 0.25}
//
// An empty path yields the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path) //nolint:gosec // operator-provided config path
	if err != nil {
		return nil, fmt.Errorf("read plant types: %w", err)
	}
	var overrides map[string]model.PlantTypeProfile
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse plant types %s: %w", path, err)
	}
	return NewCatalog(overrides)
}

// Lookup returns the profile for name, falling back to the default profile.
func (c *Catalog) Lookup(name string) model.PlantTypeProfile {
	if p, ok := c.profiles[normalizeType(name)]; ok {
		return p
	}
	return c.profiles[DefaultType]
}

// Has reports whether name is a known type (the default profile counts).
func (c *Catalog) Has(name string) bool {
	_, ok := c.profiles[normalizeType(name)]
	return ok
}

func normalizeType(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validateProfile(p model.PlantTypeProfile) error {
	switch {
	case p.MinHumidity < 0 || p.MaxHumidity > 100:
		return fmt.Errorf("humidity band [%g,%g] outside 0..100", p.MinHumidity, p.MaxHumidity)
	case p.MinHumidity > p.MaxHumidity:
		return fmt.Errorf("min_humidity %g above max_humidity %g", p.MinHumidity, p.MaxHumidity)
	case p.DryRate < 0:
		return fmt.Errorf("negative dry_rate %g", p.DryRate)
	case p.IdealPH < minPH || p.IdealPH > maxPH:
		return fmt.Errorf("ideal_ph %g outside %g..%g", p.IdealPH, minPH, maxPH)
	}
	return nil
}
