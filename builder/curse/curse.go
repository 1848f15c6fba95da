// Package curse emits CurseForge launcher packages.
package curse

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/minepack/minepack/builder/curse/jsonspec"
	"github.com/minepack/minepack/models"
)

type Builder struct {
	manifest *models.Manifest
	pack     *zip.Writer

	files []jsonspec.File
}

func New(m *models.Manifest, w *zip.Writer) *Builder {
	return &Builder{manifest: m, pack: w}
}

// Add records the entry as a projectID/fileID reference. CurseForge
// packages never embed mod bytes; the launcher downloads them itself, so
// an artifact that failed to download locally still builds fine.
func (b *Builder) Add(e models.Entry) error {
	b.files = append(b.files, jsonspec.File{
		ProjectID: e.ProjectID,
		FileID:    e.FileID,
		Required:  e.Required,
	})
	return nil
}

func (b *Builder) AddOverride(name string, r io.Reader) error {
	w, err := b.pack.Create(path.Join("overrides", name))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

// Close writes manifest.json. Encoding is deterministic for a fixed
// manifest: entry order is preserved and keys are struct-ordered.
func (b *Builder) Close() error {
	m := b.manifest
	doc := jsonspec.Manifest{
		ManifestType:    "minecraftModpack",
		ManifestVersion: 1,
		Minecraft: jsonspec.MinecraftInstance{
			Version: m.MinecraftVersion,
			ModLoaders: []jsonspec.ModLoader{{
				ID:      fmt.Sprintf("%s-%s", m.Loader, m.LoaderVersion),
				Primary: true,
			}},
		},
		Name:      m.Name,
		Version:   m.Version,
		Author:    m.Author,
		Files:     b.files,
		Overrides: "overrides",
	}
	if b.files == nil {
		doc.Files = []jsonspec.File{}
	}
	w, err := b.pack.Create("manifest.json")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&doc)
}
