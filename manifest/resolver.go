package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ResolvedDep represents a dependency that has been materialized to a
// local path.
type ResolvedDep struct {
	Name      string     // dependency name
	LocalPath string     // local filesystem path
	Manifest  *Manifest  // the dependency's own manifest (may be nil)
	Dep       Dependency // the declaration that produced this resolution
}

// SourceDirPaths returns the directories holding the dependency's .tp
// sources: its manifest's configured dirs when it carries one, its
// root directory otherwise.
func (rd *ResolvedDep) SourceDirPaths() []string {
	if rd.Manifest != nil {
		return rd.Manifest.SourceDirPaths()
	}
	return []string{rd.LocalPath}
}

// Resolver materializes the dependency graph under .treepie/deps.
type Resolver struct {
	manifest *Manifest
	lock     *LockFile
	verbose  bool
}

// NewResolver creates a new dependency resolver.
func NewResolver(m *Manifest, verbose bool) *Resolver {
	return &Resolver{
		manifest: m,
		verbose:  verbose,
	}
}

// Resolve resolves all dependencies and returns them in load order
// (topologically sorted: dependencies before dependents). The lock
// file is rewritten to pin what resolution produced.
func (r *Resolver) Resolve() ([]ResolvedDep, error) {
	lock, err := ReadLock(r.manifest.LockFilePath())
	if err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	r.lock = lock

	if err := os.MkdirAll(r.manifest.DepsDir(), 0755); err != nil {
		return nil, fmt.Errorf("creating deps dir: %w", err)
	}

	resolved := make(map[string]*ResolvedDep)
	order, err := r.resolveAll(r.manifest.Dir, r.manifest.Dependencies, resolved)
	if err != nil {
		return nil, err
	}

	if err := r.writeLock(resolved); err != nil {
		return nil, fmt.Errorf("writing lock file: %w", err)
	}

	return order, nil
}

// resolveAll resolves a set of dependencies recursively, in name order
// so repeated runs produce identical lock files. ownerDir anchors any
// relative path declarations; it is the directory of the manifest that
// declared them. Returns dependencies in topological order (deps
// before dependents).
func (r *Resolver) resolveAll(ownerDir string, deps map[string]Dependency, resolved map[string]*ResolvedDep) ([]ResolvedDep, error) {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var order []ResolvedDep
	for _, name := range names {
		if _, ok := resolved[name]; ok {
			continue // already resolved
		}

		rd, err := r.resolveOne(ownerDir, name, deps[name])
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", name, err)
		}

		resolved[name] = rd

		// Transitive dependencies come first in the load order.
		if rd.Manifest != nil && len(rd.Manifest.Dependencies) > 0 {
			transitive, err := r.resolveAll(rd.Manifest.Dir, rd.Manifest.Dependencies, resolved)
			if err != nil {
				return nil, err
			}
			order = append(order, transitive...)
		}

		order = append(order, *rd)
	}

	return order, nil
}

// resolveOne resolves a single dependency.
func (r *Resolver) resolveOne(ownerDir, name string, dep Dependency) (*ResolvedDep, error) {
	if dep.Path != "" {
		return r.resolveLocal(ownerDir, name, dep)
	}
	if dep.Git != "" {
		return r.resolveGit(name, dep)
	}
	return nil, fmt.Errorf("dependency %q has no git or path specified", name)
}

// resolveLocal handles a path dependency: verify it exists and pick up
// its manifest if it carries one.
func (r *Resolver) resolveLocal(ownerDir, name string, dep Dependency) (*ResolvedDep, error) {
	localPath := dep.Path
	if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(ownerDir, localPath)
	}

	localPath, err := filepath.Abs(localPath)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", dep.Path, err)
	}

	if _, err := os.Stat(localPath); err != nil {
		return nil, fmt.Errorf("local dependency %q not found at %s: %w", name, localPath, err)
	}

	depManifest, _ := Load(localPath)

	return &ResolvedDep{
		Name:      name,
		LocalPath: localPath,
		Manifest:  depManifest,
		Dep:       dep,
	}, nil
}

// resolveGit handles a git dependency: clone on first resolve, then
// fetch and pin to the requested ref on later ones. Git dependencies
// always land under the root project's deps dir, transitive ones
// included. A checkout with local modifications is left untouched so
// edit-and-test loops against a dependency survive a resolve.
func (r *Resolver) resolveGit(name string, dep Dependency) (*ResolvedDep, error) {
	depDir := filepath.Join(r.manifest.DepsDir(), name)

	if _, err := os.Stat(depDir); os.IsNotExist(err) {
		if r.verbose {
			fmt.Printf("  Cloning %s from %s\n", name, dep.Git)
		}
		if err := gitClone(dep.Git, depDir); err != nil {
			return nil, err
		}
		if dep.Ref != "" {
			if err := gitCheckout(depDir, dep.Ref); err != nil {
				return nil, err
			}
		}
	} else {
		clean, err := gitIsClean(depDir)
		if err != nil {
			return nil, err
		}
		if !clean {
			fmt.Fprintf(os.Stderr, "  Warning: %s has local changes, leaving checkout as is\n", name)
		} else {
			locked := r.lock.FindLockedDep(name)
			if locked == nil || locked.Ref != dep.Ref {
				if r.verbose {
					fmt.Printf("  Fetching %s\n", name)
				}
				if err := gitFetch(depDir); err != nil {
					return nil, err
				}
			}
			if dep.Ref != "" {
				if err := gitCheckout(depDir, dep.Ref); err != nil {
					return nil, err
				}
			}
		}
	}

	depManifest, _ := Load(depDir)

	return &ResolvedDep{
		Name:      name,
		LocalPath: depDir,
		Manifest:  depManifest,
		Dep:       dep,
	}, nil
}

// writeLock writes the resolved dependencies to the lock file.
func (r *Resolver) writeLock(resolved map[string]*ResolvedDep) error {
	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}
	sort.Strings(names)

	lf := &LockFile{}
	for _, name := range names {
		rd := resolved[name]
		ld := LockedDep{Name: rd.Name}

		if rd.Dep.Git != "" {
			ld.Git = rd.Dep.Git
			ld.Ref = rd.Dep.Ref
			if commit, err := gitCurrentCommit(rd.LocalPath); err == nil {
				ld.Commit = commit
			}
		} else if rd.Dep.Path != "" {
			ld.Path = rd.Dep.Path
		}

		lf.Deps = append(lf.Deps, ld)
	}

	lockDir := filepath.Dir(r.manifest.LockFilePath())
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return err
	}

	return WriteLock(r.manifest.LockFilePath(), lf)
}
