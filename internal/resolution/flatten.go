package resolution

import (
	"errors"
	"fmt"
	"path/filepath"
)

var ErrConfigurationNotFound = errors.New("configuration not found")

// Options controls how artifact files are located while flattening.
type Options struct {
	// Repository is the root of a Maven-layout local repository used for
	// modules whose report entry carries no file.
	Repository string
}

// Flatten walks the named configuration and every configuration it extends,
// returning each distinct module once, in first-seen depth-first order.
func Flatten(r *Report, configuration string, opts Options) ([]Artifact, error) {
	f := &flattener{
		report:  r,
		opts:    opts,
		seen:    make(map[Coordinate]bool),
		visited: make(map[string]bool),
	}
	if err := f.configuration(configuration); err != nil {
		return nil, err
	}
	return f.artifacts, nil
}

type flattener struct {
	report    *Report
	opts      Options
	seen      map[Coordinate]bool
	visited   map[string]bool
	artifacts []Artifact
}

func (f *flattener) configuration(name string) error {
	if f.visited[name] {
		return nil
	}
	c, ok := f.report.Configuration(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrConfigurationNotFound, name)
	}
	f.visited[name] = true

	for _, m := range c.Dependencies {
		if err := f.module(m); err != nil {
			return err
		}
	}
	for _, parent := range c.Extends {
		if err := f.configuration(parent); err != nil {
			return fmt.Errorf("configuration %s extends %s: %w", name, parent, err)
		}
	}
	return nil
}

func (f *flattener) module(m Module) error {
	coord := m.Coordinate()
	if !f.seen[coord] {
		path, err := f.artifactPath(m)
		if err != nil {
			return err
		}
		f.seen[coord] = true
		f.artifacts = append(f.artifacts, Artifact{
			Coordinate: coord,
			Version:    m.Version,
			Path:       path,
		})
	}

	// Descend on every occurrence: a report may list a subtree only once.
	for _, dep := range m.Dependencies {
		if err := f.module(dep); err != nil {
			return err
		}
	}
	return nil
}

func (f *flattener) artifactPath(m Module) (string, error) {
	if m.File != "" {
		if filepath.IsAbs(m.File) {
			return m.File, nil
		}
		return filepath.Join(f.report.dir, m.File), nil
	}
	if f.opts.Repository == "" {
		return "", fmt.Errorf("module %s: no artifact file and no local repository configured", m.Coordinate())
	}
	return RepositoryPath(f.opts.Repository, m), nil
}
