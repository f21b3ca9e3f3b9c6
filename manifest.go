package modhost

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

const (
	// ManifestFileName is the fixed relative name of a mod's manifest
	// within its package directory.
	ManifestFileName = "mod.json"

	// ResourceDirName is the optional resource content subdirectory of a
	// mod package. Its presence marks the mod with ContentResources.
	ResourceDirName = "assets"
)

// ModManifest is a mod's declarative description, parsed once from the
// manifest file at the root of the mod's package directory and immutable
// afterwards. Hard dependencies that are never satisfied are fatal to the
// mod; soft dependencies that are never satisfied are logged and dropped.
type ModManifest struct {
	ID           ModID
	AssemblyFile string
	HardDeps     []ModDependency
	SoftDeps     []ModDependency
}

// HasCode reports whether the manifest names a code entry artifact.
func (m *ModManifest) HasCode() bool {
	return m.AssemblyFile != ""
}

// manifest wire schema. Field names are fixed by the on-disk format.
type manifestDoc struct {
	ID           manifestID    `json:"Id"`
	AssemblyFile string        `json:"AssemblyFile"`
	HardDeps     []manifestDep `json:"HardDeps"`
	SoftDeps     []manifestDep `json:"SoftDeps"`
}

type manifestID struct {
	Name    string `json:"Name"`
	Version string `json:"Version"`
}

type manifestDep struct {
	Name     string `json:"Name"`
	Versions string `json:"Versions"`
}

// ParseManifest decodes manifest content. The parser tolerates trailing
// commas and comments by standardizing the input before unmarshalling.
func ParseManifest(data []byte) (*ModManifest, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestParse, err)
	}

	var doc manifestDoc
	if err := json.Unmarshal(std, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestParse, err)
	}
	if doc.ID.Name == "" {
		return nil, ErrManifestNameEmpty
	}

	id, err := NewModID(doc.ID.Name, doc.ID.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestParse, err)
	}

	hard, err := parseDeps(doc.HardDeps)
	if err != nil {
		return nil, fmt.Errorf("%w: hard dependency: %w", ErrManifestParse, err)
	}
	soft, err := parseDeps(doc.SoftDeps)
	if err != nil {
		return nil, fmt.Errorf("%w: soft dependency: %w", ErrManifestParse, err)
	}

	return &ModManifest{
		ID:           id,
		AssemblyFile: doc.AssemblyFile,
		HardDeps:     hard,
		SoftDeps:     soft,
	}, nil
}

// LoadManifest reads and parses the manifest of the mod package rooted at
// dir. A missing file is reported as ErrManifestMissing so callers can
// distinguish discovery failures from parse failures.
func LoadManifest(dir string) (*ModManifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestMissing, path, err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return manifest, nil
}

func parseDeps(docs []manifestDep) ([]ModDependency, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	deps := make([]ModDependency, 0, len(docs))
	for _, d := range docs {
		dep, err := NewModDependency(d.Name, d.Versions)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}
