package resolution

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfiguration is the scope used to run tests, the superset most
// likely to hold everything needed to execute code.
const DefaultConfiguration = "testRuntimeClasspath"

var reportValidate = validator.New()

// Module is a node of a configuration's resolved dependency tree.
type Module struct {
	Group        string   `yaml:"group" json:"group" validate:"required,excludesall=:"`
	Name         string   `yaml:"name" json:"name" validate:"required,excludesall=:"`
	Version      string   `yaml:"version,omitempty" json:"version,omitempty" validate:"required_without=File"`
	Classifier   string   `yaml:"classifier,omitempty" json:"classifier,omitempty"`
	Extension    string   `yaml:"extension,omitempty" json:"extension,omitempty"`
	File         string   `yaml:"file,omitempty" json:"file,omitempty"`
	Dependencies []Module `yaml:"dependencies,omitempty" json:"dependencies,omitempty" validate:"dive"`
}

func (m Module) Coordinate() Coordinate {
	return Coordinate{Group: m.Group, Name: m.Name}
}

// Configuration is a named dependency scope of the project.
type Configuration struct {
	Name         string   `yaml:"name" json:"name" validate:"required"`
	Extends      []string `yaml:"extends,omitempty" json:"extends,omitempty"`
	Dependencies []Module `yaml:"dependencies,omitempty" json:"dependencies,omitempty" validate:"dive"`
}

// Report is the resolved dependency graph written by the build tool once
// resolution has finished.
type Report struct {
	Project        string          `yaml:"project,omitempty" json:"project,omitempty"`
	Configurations []Configuration `yaml:"configurations" json:"configurations" validate:"dive"`

	// dir is the directory relative artifact files are resolved against.
	dir string
}

// LoadReport reads a YAML or JSON resolution report.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}

	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("validating report %s: %w", path, err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("report directory for %s: %w", path, err)
	}
	r.dir = abs

	return &r, nil
}

func (r *Report) Validate() error {
	if err := reportValidate.Struct(r); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for i, c := range r.Configurations {
		if seen[c.Name] {
			return fmt.Errorf("configuration %d: duplicate configuration name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// Configuration returns the configuration with the given name.
func (r *Report) Configuration(name string) (*Configuration, bool) {
	for i := range r.Configurations {
		if r.Configurations[i].Name == name {
			return &r.Configurations[i], true
		}
	}
	return nil, false
}
