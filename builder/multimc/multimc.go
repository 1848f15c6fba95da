// Package multimc emits MultiMC instance packages.
package multimc

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/minepack/minepack/builder/multimc/jsonspec"
	"github.com/minepack/minepack/models"
)

// loaderUIDs maps loaders to MultiMC component UIDs.
var loaderUIDs = map[models.Loader]string{
	models.LoaderForge:    "net.minecraftforge",
	models.LoaderFabric:   "net.fabricmc.fabric-loader",
	models.LoaderQuilt:    "org.quiltmc.quilt-loader",
	models.LoaderNeoForge: "net.neoforged",
}

type Builder struct {
	manifest *models.Manifest
	pack     *zip.Writer

	mods []jsonspec.Mod
}

func New(m *models.Manifest, w *zip.Writer) *Builder {
	return &Builder{manifest: m, pack: w}
}

// root is the instance directory inside the archive.
func (b *Builder) root() string {
	return b.manifest.Name
}

// Add records the entry in the external mod index. MultiMC packages
// always externalize mod downloads.
func (b *Builder) Add(e models.Entry) error {
	b.mods = append(b.mods, jsonspec.Mod{
		Name:        e.Name,
		FileName:    e.FileName,
		ProjectID:   e.ProjectID,
		FileID:      e.FileID,
		DownloadURL: e.DownloadURL,
		Sha1:        e.ContentHash,
		Required:    e.Required,
	})
	return nil
}

// AddOverride places overrides inside the instance .minecraft tree.
func (b *Builder) AddOverride(name string, r io.Reader) error {
	w, err := b.pack.Create(path.Join(b.root(), ".minecraft", name))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

// Close writes the instance descriptor, the component descriptor and the
// mod index.
func (b *Builder) Close() error {
	m := b.manifest

	cfg := fmt.Sprintf("InstanceType=OneSix\nname=%s\nIntendedVersion=%s\n", m.Name, m.MinecraftVersion)
	if err := b.addString(path.Join(b.root(), "instance.cfg"), cfg); err != nil {
		return err
	}

	pack := jsonspec.Pack{
		FormatVersion: 1,
		Components: []jsonspec.Component{
			{UID: "net.minecraft", Version: m.MinecraftVersion},
			{UID: loaderUIDs[m.Loader], Version: m.LoaderVersion},
		},
	}
	if err := b.addJSON(path.Join(b.root(), "mmc-pack.json"), &pack); err != nil {
		return err
	}

	index := jsonspec.ModIndex{Mods: b.mods}
	if index.Mods == nil {
		index.Mods = []jsonspec.Mod{}
	}
	return b.addJSON(path.Join(b.root(), ".minecraft", "mods", "minepack.index.json"), &index)
}

func (b *Builder) addString(name, s string) error {
	w, err := b.pack.Create(name)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

func (b *Builder) addJSON(name string, v interface{}) error {
	w, err := b.pack.Create(name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
