package locking

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ejoffe/gitun/git"
	"gopkg.in/yaml.v3"
)

// ErrLocked is returned when a file is already locked by someone else.
var ErrLocked = errors.New("file is locked")

// LockedError tells who holds the lock on a file.
type LockedError struct {
	Path  string
	Owner string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s is locked by %s", e.Path, e.Owner)
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked || target == git.ErrRepositoryStateConflict
}

// Lock is an exclusive claim on a file.
type Lock struct {
	ID       string    `yaml:"id"`
	Path     string    `yaml:"path"`
	Owner    string    `yaml:"owner"`
	LockedAt time.Time `yaml:"lockedAt"`
}

// Registry is the content of the lock registry file.
type Registry struct {
	Locks []Lock `yaml:"locks"`
}

// ParseRegistry decodes a registry file. Empty content is an empty registry.
func ParseRegistry(content []byte) (*Registry, error) {
	registry := &Registry{}
	if strings.TrimSpace(string(content)) == "" {
		return registry, nil
	}
	err := yaml.Unmarshal(content, registry)
	if err != nil {
		return nil, &git.OutputShapeError{Output: string(content), Reason: "lock registry is not valid yaml: " + err.Error()}
	}
	return registry, nil
}

// Marshal encodes the registry with locks sorted by path.
func (r *Registry) Marshal() ([]byte, error) {
	sort.SliceStable(r.Locks, func(i, j int) bool {
		return r.Locks[i].Path < r.Locks[j].Path
	})
	return yaml.Marshal(r)
}

// Find returns the lock held on path.
func (r *Registry) Find(filePath string) (Lock, bool) {
	filePath = NormalizePath(filePath)
	for _, l := range r.Locks {
		if l.Path == filePath {
			return l, true
		}
	}
	return Lock{}, false
}

// Add records lock. The caller has checked there is no lock on the path.
func (r *Registry) Add(lock Lock) {
	lock.Path = NormalizePath(lock.Path)
	r.Locks = append(r.Locks, lock)
}

// Remove drops the lock on path and reports whether there was one.
func (r *Registry) Remove(filePath string) bool {
	filePath = NormalizePath(filePath)
	for i, l := range r.Locks {
		if l.Path == filePath {
			r.Locks = append(r.Locks[:i], r.Locks[i+1:]...)
			return true
		}
	}
	return false
}

// LockedByOthers returns the paths in files locked by someone other than owner.
func (r *Registry) LockedByOthers(owner string, files []string) []Lock {
	var locked []Lock
	for _, f := range files {
		if l, ok := r.Find(f); ok && l.Owner != owner {
			locked = append(locked, l)
		}
	}
	return locked
}

// NormalizePath turns a repository relative path into the registry key.
func NormalizePath(p string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(strings.TrimSpace(p))), "./")
}
