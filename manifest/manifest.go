// Package manifest handles treepie.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Manifest represents a treepie.toml project configuration.
type Manifest struct {
	Project      Project               `toml:"project"`
	Source       Source                `toml:"source"`
	Dependencies map[string]Dependency `toml:"dependencies"`
	Image        ImageConfig           `toml:"image"`
	Wrap         WrapConfig            `toml:"wrap"`

	// Dir is the directory containing the treepie.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Description string   `toml:"description"`
	Authors     []string `toml:"authors"`
}

// Source configures source file locations.
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry"`
}

// Dependency represents a single project dependency, fetched from git
// at a pinned ref or taken from a local path.
type Dependency struct {
	Git  string `toml:"git"`
	Ref  string `toml:"ref"`
	Path string `toml:"path"`
}

// ImageConfig configures image output.
type ImageConfig struct {
	Output        string `toml:"output"`
	IncludeSource bool   `toml:"include-source"`
}

// WrapConfig configures Go package wrapping for `tp wrap`.
type WrapConfig struct {
	Output   string        `toml:"output"`
	Packages []WrapPackage `toml:"packages"`
}

// WrapPackage selects one Go package to wrap. Include, when set,
// restricts wrapping to the named exports. Base picks the first
// primitive id; zero means the tool's default.
type WrapPackage struct {
	Import  string   `toml:"import"`
	Include []string `toml:"include"`
	Base    int      `toml:"base"`
}

// Load parses and validates a treepie.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "treepie.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	// The schema check runs against the raw document so it sees the
	// keys as written, not the Go field names.
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := validateManifest(raw); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a treepie.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "treepie.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// DependencyDirPaths returns the source directories of every dependency
// already materialized under .treepie/deps, in name order. A dependency
// with its own manifest contributes its configured source dirs; one
// without contributes its root directory. Dependencies that have not
// been fetched yet (no directory on disk) are skipped; run the resolver
// to materialize them.
func (m *Manifest) DependencyDirPaths() []string {
	entries, err := os.ReadDir(m.DepsDir())
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var paths []string
	for _, name := range names {
		depDir := filepath.Join(m.DepsDir(), name)
		if dm, err := Load(depDir); err == nil {
			paths = append(paths, dm.SourceDirPaths()...)
		} else {
			paths = append(paths, depDir)
		}
	}
	return paths
}

// DepsDir returns the path to the .treepie/deps directory.
func (m *Manifest) DepsDir() string {
	return filepath.Join(m.Dir, ".treepie", "deps")
}

// WrapOutputDir returns the directory generated wrappers land in:
// the configured wrap output, or .treepie/wrap by default.
func (m *Manifest) WrapOutputDir() string {
	if m.Wrap.Output != "" {
		return filepath.Join(m.Dir, m.Wrap.Output)
	}
	return filepath.Join(m.Dir, ".treepie", "wrap")
}

// LockFilePath returns the path to .treepie/lock.toml.
func (m *Manifest) LockFilePath() string {
	return filepath.Join(m.Dir, ".treepie", "lock.toml")
}
