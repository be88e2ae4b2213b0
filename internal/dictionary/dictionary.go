// Package dictionary holds the immutable clinical vocabularies used by the
// matchers and the recommendation engine.
package dictionary

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
	defaultErr  error
)

// ErrInvalidDictionary is returned when a dictionary document fails validation
var ErrInvalidDictionary = errors.New("invalid dictionary")

// Condition is a named condition with its defining pattern terms
type Condition struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// Symptom is a fallback dictionary entry
type Symptom struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	Conditions []string `yaml:"conditions"`
	Severity   int      `yaml:"severity"`
}

// Advice is the advisory table used by the recommendation engine
type Advice struct {
	Urgent   string              `yaml:"urgent"`
	Closing  []string            `yaml:"closing"`
	Symptoms map[string][]string `yaml:"symptoms"` // Keyed by lower-cased symptom name
}

// Dictionary bundles all vocabularies. Treat it as read-only once loaded.
type Dictionary struct {
	Conditions []Condition `yaml:"conditions"`
	Symptoms   []Symptom   `yaml:"symptoms"`
	Advice     Advice      `yaml:"advice"`
}

// Default returns the built-in dictionary. It panics if the embedded
// document is invalid, which the package tests guard against.
func Default() *Dictionary {
	defaultOnce.Do(func() {
		defaultDict, defaultErr = Parse(defaultYAML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("dictionary: embedded default is invalid: %v", defaultErr))
	}
	return defaultDict
}

// Load reads a dictionary from a YAML file
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes and validates a YAML dictionary document
func Parse(data []byte) (*Dictionary, error) {
	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	d.normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// normalize lower-cases the terms that are compared against lower-cased text
func (d *Dictionary) normalize() {
	for i := range d.Conditions {
		for j, p := range d.Conditions[i].Patterns {
			d.Conditions[i].Patterns[j] = strings.ToLower(strings.TrimSpace(p))
		}
	}
	for i := range d.Symptoms {
		for j, k := range d.Symptoms[i].Keywords {
			d.Symptoms[i].Keywords[j] = strings.ToLower(strings.TrimSpace(k))
		}
	}
	if len(d.Advice.Symptoms) > 0 {
		lowered := make(map[string][]string, len(d.Advice.Symptoms))
		for key, lines := range d.Advice.Symptoms {
			lowered[strings.ToLower(strings.TrimSpace(key))] = lines
		}
		d.Advice.Symptoms = lowered
	}
}

// Validate checks structural invariants
func (d *Dictionary) Validate() error {
	names := make(map[string]bool)
	for _, c := range d.Conditions {
		if c.Name == "" {
			return fmt.Errorf("%w: condition without name", ErrInvalidDictionary)
		}
		if names[c.Name] {
			return fmt.Errorf("%w: duplicate condition %q", ErrInvalidDictionary, c.Name)
		}
		names[c.Name] = true
		if len(c.Patterns) == 0 {
			return fmt.Errorf("%w: condition %q has no patterns", ErrInvalidDictionary, c.Name)
		}
		for _, p := range c.Patterns {
			if p == "" {
				return fmt.Errorf("%w: condition %q has an empty pattern", ErrInvalidDictionary, c.Name)
			}
		}
	}

	for _, s := range d.Symptoms {
		if s.Name == "" {
			return fmt.Errorf("%w: symptom without name", ErrInvalidDictionary)
		}
		if s.Severity < 1 || s.Severity > 5 {
			return fmt.Errorf("%w: symptom %q severity %d outside 1..5", ErrInvalidDictionary, s.Name, s.Severity)
		}
		if len(s.Keywords) == 0 {
			return fmt.Errorf("%w: symptom %q has no keywords", ErrInvalidDictionary, s.Name)
		}
		for _, k := range s.Keywords {
			if k == "" {
				return fmt.Errorf("%w: symptom %q has an empty keyword", ErrInvalidDictionary, s.Name)
			}
		}
	}

	return nil
}

// ConditionNames returns every condition name known to the dictionary:
// the matcher conditions followed by the fallback related conditions,
// deduplicated case-insensitively.
func (d *Dictionary) ConditionNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		key := strings.ToLower(name)
		if name != "" && !seen[key] {
			seen[key] = true
			names = append(names, name)
		}
	}

	for _, c := range d.Conditions {
		add(c.Name)
	}
	for _, s := range d.Symptoms {
		for _, c := range s.Conditions {
			add(c)
		}
	}
	return names
}

// Marshal encodes the dictionary as YAML (used by `config init`)
func (d *Dictionary) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}
