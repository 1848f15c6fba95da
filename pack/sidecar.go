package pack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/minepack/minepack/models"
)

// sidecarExt follows the original per-mod metadata document naming.
const sidecarExt = ".ex.json"

// Sidecar is the auxiliary per-entry metadata document kept next to the
// descriptor, holding extended registry fields the descriptor itself does
// not carry.
type Sidecar struct {
	Name     string      `json:"name"`
	Filename string      `json:"filename"`
	Summary  string      `json:"summary,omitempty"`
	Side     string      `json:"side,omitempty"`
	Link     SidecarLink `json:"link"`
}

type SidecarLink struct {
	Site      string `json:"site,omitempty"`
	ProjectID int    `json:"project_id"`
	FileID    int    `json:"file_id"`
}

func (s *Store) sidecarPath(e models.Entry) string {
	name := e.Slug
	if name == "" {
		name = fmt.Sprintf("project-%d", e.ProjectID)
	}
	return filepath.Join(s.Dir, ModsDir, name+sidecarExt)
}

// WriteSidecar persists the metadata document for an entry.
func (s *Store) WriteSidecar(e models.Entry, summary string) error {
	doc := Sidecar{
		Name:     e.Name,
		Filename: e.FileName,
		Summary:  summary,
		Side:     string(e.Side),
		Link: SidecarLink{
			Site:      fmt.Sprintf("https://www.curseforge.com/minecraft/mc-mods/%s", e.Slug),
			ProjectID: e.ProjectID,
			FileID:    e.FileID,
		},
	}
	b, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(s.Dir, ModsDir), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(s.sidecarPath(e), append(b, '\n'), 0o644)
}

// RemoveSidecar deletes the metadata document for an entry.
func (s *Store) RemoveSidecar(e models.Entry) error {
	return os.Remove(s.sidecarPath(e))
}
