package builder

import (
	"fmt"

	"github.com/minepack/minepack/models"
)

// Validate checks the manifest against the entry invariants, collecting
// every violation before failing so a caller can report them in one pass.
func Validate(m *models.Manifest) error {
	var vs []string

	if m.Name == "" {
		vs = append(vs, "pack name is empty")
	}
	if m.Version == "" {
		vs = append(vs, "pack version is empty")
	}
	if _, err := models.ParseLoader(string(m.Loader)); err != nil {
		vs = append(vs, fmt.Sprintf("loader %q is not a known loader", m.Loader))
	}
	if m.MinecraftVersion == "" {
		vs = append(vs, "minecraftVersion is empty")
	}
	if m.LoaderVersion == "" {
		vs = append(vs, "loaderVersion is empty")
	}

	seen := make(map[int]string, len(m.Entries))
	for _, e := range m.Entries {
		name := e.Slug
		if name == "" {
			name = fmt.Sprintf("entry %d", e.ProjectID)
		}
		if e.ProjectID <= 0 {
			vs = append(vs, fmt.Sprintf("%s: projectID must be positive", name))
		}
		if e.FileID <= 0 {
			vs = append(vs, fmt.Sprintf("%s: fileID must be positive", name))
		}
		if e.FileName == "" {
			vs = append(vs, fmt.Sprintf("%s: fileName is empty", name))
		}
		if _, err := models.ParseSide(string(e.Side)); err != nil {
			vs = append(vs, fmt.Sprintf("%s: side %q is not a known side", name, e.Side))
		}
		if prev, ok := seen[e.ProjectID]; ok {
			vs = append(vs, fmt.Sprintf("%s: projectID %d already used by %s", name, e.ProjectID, prev))
		} else {
			seen[e.ProjectID] = name
		}
	}

	if len(vs) > 0 {
		return &models.ValidationError{Violations: vs}
	}
	return nil
}
