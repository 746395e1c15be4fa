// Package profiles loads agent personality templates from YAML documents.
// Documents are validated against a JSON schema before use, so malformed
// catalogs fail at load time instead of surfacing as odd agent behavior at
// runtime.
package profiles

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"fieldmind/internal/behavior"
	"fieldmind/internal/engine"
	"fieldmind/internal/world"
)

// Profile is one named personality template.
type Profile struct {
	Name               string  `yaml:"name"`
	Aggression         float64 `yaml:"aggression"`
	SpeedMultiplier    float64 `yaml:"speedMultiplier"`
	FleeHealthFraction float64 `yaml:"fleeHealthFraction"`
	Swarm              bool    `yaml:"swarm"`
	Role               string  `yaml:"role"`
	SightRadius        float64 `yaml:"sightRadius"`
	HearingRadius      float64 `yaml:"hearingRadius"`
	AttackRange        float64 `yaml:"attackRange"`
	// AggressionScript optionally rescales aggression per decision. The
	// script must define modify(base, ctx).
	AggressionScript string `yaml:"aggressionScript"`

	modifier *behavior.Modifier
}

type document struct {
	Profiles []Profile `yaml:"profiles"`
}

// Catalog is an immutable set of loaded profiles.
type Catalog struct {
	profiles map[string]Profile
	order    []string
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profiles: read %s: %w", path, err)
	}
	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profiles: %s: %w", path, err)
	}
	return catalog, nil
}

// Parse validates a YAML document against the catalog schema, compiles any
// aggression scripts, and returns the catalog. Any invalid profile fails the
// whole document.
func Parse(data []byte) (*Catalog, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	catalog := &Catalog{profiles: make(map[string]Profile, len(doc.Profiles))}
	for i := range doc.Profiles {
		p := doc.Profiles[i]
		if _, dup := catalog.profiles[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		if p.AggressionScript != "" {
			mod, err := behavior.CompileModifier(p.AggressionScript)
			if err != nil {
				return nil, fmt.Errorf("profile %q: %w", p.Name, err)
			}
			p.modifier = mod
		}
		catalog.profiles[p.Name] = p
		catalog.order = append(catalog.order, p.Name)
	}
	return catalog, nil
}

// Get returns a profile by name.
func (c *Catalog) Get(name string) (Profile, bool) {
	if c == nil {
		return Profile{}, false
	}
	p, ok := c.profiles[name]
	return p, ok
}

// Names lists the loaded profile names, sorted.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := append([]string(nil), c.order...)
	sort.Strings(names)
	return names
}

// Len returns the number of loaded profiles.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.profiles)
}

// Spec converts a profile into an engine registration for an agent homed at
// the given position.
func (p Profile) Spec(home world.Vec2) engine.AgentSpec {
	return engine.AgentSpec{
		Personality: behavior.Personality{
			Aggression:         p.Aggression,
			SpeedMultiplier:    p.SpeedMultiplier,
			FleeHealthFraction: p.FleeHealthFraction,
			Swarm:              p.Swarm,
			Role:               behavior.Role(p.Role),
			AggressionModifier: p.modifier,
		},
		SightRadius:   p.SightRadius,
		HearingRadius: p.HearingRadius,
		AttackRange:   p.AttackRange,
		Home:          home,
	}
}
