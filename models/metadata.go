package models

import "time"

// Relation classifies a dependency edge declared by a file.
type Relation string

const (
	RelationRequired Relation = "required"
	RelationOptional Relation = "optional"
	RelationEmbedded Relation = "embedded"
)

// Dependency is a dependency edge from a file to another project.
type Dependency struct {
	ProjectID int
	Relation  Relation
}

// FileMetadata describes one downloadable file of a project. It is
// ephemeral, scoped to a single resolution call.
type FileMetadata struct {
	FileID      int
	DisplayName string
	FileName    string

	// GameVersions are the Minecraft versions the file is declared for.
	GameVersions []string
	// Loaders are the loaders the file is declared for. Empty means the
	// project predates loader tagging; such files match any loader.
	Loaders []Loader

	Dependencies []Dependency

	DownloadURL string
	PublishedAt time.Time
	// ContentHash is the sha1 reported by the registry, hex encoded.
	ContentHash string
	FileSize    int64
}

// Matches reports whether the file satisfies the constraints.
func (f FileMetadata) Matches(c Constraints) bool {
	ok := false
	for _, v := range f.GameVersions {
		if v == c.MinecraftVersion {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	if len(f.Loaders) == 0 {
		return true
	}
	for _, l := range f.Loaders {
		if l == c.Loader {
			return true
		}
	}
	return false
}

// Candidate is a project with its files ranked by compatibility then
// recency. Produced by the resolver, consumed by the caller.
type Candidate struct {
	ProjectID int
	Slug      string
	Name      string
	Summary   string

	DownloadCount int64

	// Files is ordered best-first after ranking.
	Files []FileMetadata
}
