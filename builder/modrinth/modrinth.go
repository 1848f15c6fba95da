// Package modrinth emits Modrinth .mrpack packages.
package modrinth

import (
	"archive/zip"
	"encoding/json"
	"io"
	"path"

	"github.com/minepack/minepack/builder/modrinth/jsonspec"
	"github.com/minepack/minepack/models"
)

// loaderKeys maps loaders to Modrinth dependency ids.
var loaderKeys = map[models.Loader]string{
	models.LoaderForge:    "forge",
	models.LoaderFabric:   "fabric-loader",
	models.LoaderQuilt:    "quilt-loader",
	models.LoaderNeoForge: "neoforge",
}

type Builder struct {
	manifest *models.Manifest
	pack     *zip.Writer

	files []jsonspec.File
}

func New(m *models.Manifest, w *zip.Writer) *Builder {
	return &Builder{manifest: m, pack: w}
}

// Add records the entry as an external download in the index. The index
// is the only place mod artifacts appear; bytes are never embedded.
func (b *Builder) Add(e models.Entry) error {
	f := jsonspec.File{
		Path:      path.Join("mods", e.FileName),
		Hashes:    map[string]string{},
		Downloads: []string{e.DownloadURL},
		FileSize:  e.FileSize,
	}
	if e.ContentHash != "" {
		f.Hashes["sha1"] = e.ContentHash
	}
	switch e.Side {
	case models.SideClient:
		f.Env = &jsonspec.Env{Client: "required", Server: "unsupported"}
	case models.SideServer:
		f.Env = &jsonspec.Env{Client: "unsupported", Server: "required"}
	}
	if !e.Required {
		env := jsonspec.Env{Client: "optional", Server: "optional"}
		if f.Env == nil {
			f.Env = &env
		}
	}
	b.files = append(b.files, f)
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

// Close writes modrinth.index.json.
func (b *Builder) Close() error {
	m := b.manifest
	doc := jsonspec.Index{
		FormatVersion: 1,
		Game:          "minecraft",
		VersionID:     m.Version,
		Name:          m.Name,
		Summary:       m.Description,
		Files:         b.files,
		Dependencies: map[string]string{
			"minecraft":          m.MinecraftVersion,
			loaderKeys[m.Loader]: m.LoaderVersion,
		},
	}
	if b.files == nil {
		doc.Files = []jsonspec.File{}
	}
	w, err := b.pack.Create("modrinth.index.json")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&doc)
}
