package scoring

import (
	"os"
	"path/filepath"
)

// DefaultProjectFile is the project configuration file looked for in each project.
const DefaultProjectFile = "CLAUDE.md"

// Workspace answers questions about files around the history that the checks need.
type Workspace interface {
	// HasProjectFile reports whether the project directory contains the configuration file.
	HasProjectFile(project string) bool
	// PreferenceText returns the long-lived preference file contents, if present.
	PreferenceText() (string, bool)
}

// FSWorkspace looks files up on the local filesystem.
type FSWorkspace struct {
	ProjectFile    string
	PreferencePath string
}

// HasProjectFile implements Workspace.
func (w FSWorkspace) HasProjectFile(project string) bool {
	if project == "" {
		return false
	}
	name := w.ProjectFile
	if name == "" {
		name = DefaultProjectFile
	}
	_, err := os.Stat(filepath.Join(project, name))
	return err == nil
}

// PreferenceText implements Workspace.
func (w FSWorkspace) PreferenceText() (string, bool) {
	if w.PreferencePath == "" {
		return "", false
	}
	data, err := os.ReadFile(w.PreferencePath)
	if err != nil {
		return "", false
	}
	return string(data), true
}
