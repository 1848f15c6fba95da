package models

import "fmt"

// Loader is the mod loading runtime a file is built for.
type Loader string

const (
	LoaderForge    Loader = "forge"
	LoaderFabric   Loader = "fabric"
	LoaderQuilt    Loader = "quilt"
	LoaderNeoForge Loader = "neoforge"
)

func ParseLoader(s string) (Loader, error) {
	switch Loader(s) {
	case LoaderForge, LoaderFabric, LoaderQuilt, LoaderNeoForge:
		return Loader(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLoader, s)
}

// Side tells which side of the game an entry is installed on.
type Side string

const (
	SideClient Side = "client"
	SideServer Side = "server"
	SideBoth   Side = "both"
)

func ParseSide(s string) (Side, error) {
	if s == "" {
		return SideBoth, nil
	}
	switch Side(s) {
	case SideClient, SideServer, SideBoth:
		return Side(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
}

// Entry is one pinned project+file pair in a manifest. FileID is fixed at
// creation time; replacing it requires an explicit replace through the store.
type Entry struct {
	// ProjectID is the project ID on CurseForge.
	ProjectID int
	// FileID is the pinned file ID of the project, never "latest".
	FileID int

	// Slug is the project slug, used for sidecar file names.
	Slug string
	// Name is the project display name.
	Name string

	// FileName is the artifact file name, e.g. "jei-1.20.1-15.2.0.27.jar".
	FileName string
	// DownloadURL is the last known download URL. Registry URLs may be
	// short-lived; builds refresh this before downloading.
	DownloadURL string
	// ContentHash is the sha1 of the artifact, hex encoded.
	ContentHash string
	// FileSize is the artifact size in bytes as reported by the registry.
	FileSize int64

	Required bool
	Side     Side
}

// Manifest is the canonical modpack descriptor. It is owned by the pack
// store and mutated only through its add/remove operations.
type Manifest struct {
	Name        string
	Version     string
	Author      string
	Description string

	Loader           Loader
	MinecraftVersion string
	LoaderVersion    string

	// Entries is ordered and unique by ProjectID.
	Entries []Entry
}

// Entry returns the entry pinned for projectID, if any.
func (m *Manifest) Entry(projectID int) (Entry, bool) {
	for _, e := range m.Entries {
		if e.ProjectID == projectID {
			return e, true
		}
	}
	return Entry{}, false
}

// Pinned maps projectID to the pinned fileID for every entry.
func (m *Manifest) Pinned() map[int]int {
	pins := make(map[int]int, len(m.Entries))
	for _, e := range m.Entries {
		pins[e.ProjectID] = e.FileID
	}
	return pins
}

// Constraints narrow file resolution to a game version and loader.
type Constraints struct {
	MinecraftVersion string
	Loader           Loader
}

func (c Constraints) String() string {
	return fmt.Sprintf("%s %s", c.Loader, c.MinecraftVersion)
}
