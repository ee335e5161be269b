package deps

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
)

// PyProject holds the parts of pyproject.toml the installer reports on.
// Everything else in the file is ignored.
type PyProject struct {
	Project struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		RequiresPython       string              `toml:"requires-python"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`

	// DependencyGroups (PEP 735) entries are either requirement strings or
	// {include-group = "..."} tables, hence the untyped elements.
	DependencyGroups map[string][]interface{} `toml:"dependency-groups"`
}

// LoadPyProject parses the pyproject.toml at path.
func LoadPyProject(path string) (*PyProject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var p PyProject
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &p, nil
}

// DependencyCount returns the number of runtime dependencies plus the
// requirement strings in dependency groups. Group includes are not counted.
func (p *PyProject) DependencyCount() int {
	n := len(p.Project.Dependencies)
	for _, entries := range p.DependencyGroups {
		for _, e := range entries {
			if _, ok := e.(string); ok {
				n++
			}
		}
	}
	return n
}

// MinimumPython extracts the lower bound from requires-python when it is a
// simple ">=X.Y" (optionally followed by more clauses, e.g. ">=3.11,<4").
// The boolean is false when no such bound can be read.
func (p *PyProject) MinimumPython() (model.Version, bool) {
	for _, clause := range strings.Split(p.Project.RequiresPython, ",") {
		clause = strings.TrimSpace(clause)
		if !strings.HasPrefix(clause, ">=") {
			continue
		}
		v, err := model.ParseVersion(strings.TrimSpace(strings.TrimPrefix(clause, ">=")))
		if err != nil {
			return model.Version{}, false
		}
		return v, true
	}
	return model.Version{}, false
}
