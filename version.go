package modhost

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ModID identifies a mod by name and semantic version. It is an immutable
// value type; identity for registry keying is case-insensitive on name,
// while dependency name matching is case-sensitive.
type ModID struct {
	Name    string
	Version *semver.Version
}

// NewModID parses a version string into a ModID.
func NewModID(name, version string) (ModID, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return ModID{}, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, version, err)
	}
	return ModID{Name: name, Version: v}, nil
}

// Key returns the case-insensitive registry key for this mod name.
func (id ModID) Key() string {
	return strings.ToLower(id.Name)
}

// Equal reports whether two ModIDs identify the same mod: names equal
// ignoring case, versions exactly equal.
func (id ModID) Equal(other ModID) bool {
	if !strings.EqualFold(id.Name, other.Name) {
		return false
	}
	if id.Version == nil || other.Version == nil {
		return id.Version == other.Version
	}
	return id.Version.Equal(other.Version)
}

// Matches reports whether this mod satisfies the given dependency: exact
// name match and version inside the dependency's accepted range.
func (id ModID) Matches(dep ModDependency) bool {
	if id.Name != dep.Name {
		return false
	}
	if dep.Versions == nil {
		return true
	}
	if id.Version == nil {
		return false
	}
	return dep.Versions.Check(id.Version)
}

// String returns "name version" for logs and failure causes.
func (id ModID) String() string {
	if id.Version == nil {
		return id.Name
	}
	return id.Name + " " + id.Version.String()
}

// ModDependency declares a dependency on another mod by name and accepted
// version range. Immutable value type.
type ModDependency struct {
	Name     string
	Versions *semver.Constraints
}

// NewModDependency parses a version-range string into a ModDependency.
// An empty range accepts any version.
func NewModDependency(name, versions string) (ModDependency, error) {
	if versions == "" {
		return ModDependency{Name: name}, nil
	}
	c, err := semver.NewConstraint(versions)
	if err != nil {
		return ModDependency{}, fmt.Errorf("%w: %q: %w", ErrInvalidVersionRange, versions, err)
	}
	return ModDependency{Name: name, Versions: c}, nil
}

// String returns "name (range)" for logs and failure causes.
func (d ModDependency) String() string {
	if d.Versions == nil {
		return d.Name
	}
	return d.Name + " (" + d.Versions.String() + ")"
}

// dependencyNames renders a dependency list for failure causes.
func dependencyNames(deps []ModDependency) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
