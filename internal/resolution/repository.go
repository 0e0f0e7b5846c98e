package resolution

import (
	"path/filepath"
	"strings"
)

const defaultExtension = "jar"

// RepositoryPath locates a module's artifact in a Maven-layout repository:
// <root>/<group as path>/<name>/<version>/<name>-<version>[-<classifier>].<extension>
func RepositoryPath(root string, m Module) string {
	ext := m.Extension
	if ext == "" {
		ext = defaultExtension
	}

	file := m.Name + "-" + m.Version
	if m.Classifier != "" {
		file += "-" + m.Classifier
	}
	file += "." + ext

	groupPath := filepath.FromSlash(strings.ReplaceAll(m.Group, ".", "/"))
	return filepath.Join(root, groupPath, m.Name, m.Version, file)
}
