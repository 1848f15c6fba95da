// Package pack owns the on-disk pack descriptor and its per-entry
// metadata.
package pack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/minepack/minepack/models"
	"github.com/minepack/minepack/pack/hclspec"
)

const (
	// DescriptorName is the canonical descriptor at the pack root.
	DescriptorName = "minepack.pack"

	// ModsDir holds per-entry sidecar metadata documents.
	ModsDir = "mods"
	// OverridesDir is copied verbatim into built packages.
	OverridesDir = "config"
	// BuildDir receives output archives.
	BuildDir = "build"
)

// Store reads and writes the pack rooted at Dir. Writes are atomic
// (write-to-temp then rename), so a crash mid-write never truncates the
// descriptor.
type Store struct {
	Dir string
}

func (s *Store) descriptorPath() string {
	return filepath.Join(s.Dir, DescriptorName)
}

// Exists reports whether Dir holds a pack descriptor.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.descriptorPath())
	return err == nil
}

// Init scaffolds a new pack: descriptor plus the mods and overrides
// directories. Fails if a descriptor is already present.
func (s *Store) Init(m *models.Manifest) error {
	if s.Exists() {
		return models.ErrAlreadyInitialized
	}
	for _, dir := range []string{ModsDir, OverridesDir} {
		if err := os.MkdirAll(filepath.Join(s.Dir, dir), 0o755); err != nil {
			return err
		}
	}
	return s.Save(m)
}

// Load parses the descriptor into a manifest.
func (s *Store) Load() (*models.Manifest, error) {
	fpath := s.descriptorPath()
	src, err := os.ReadFile(fpath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.ErrNotAModpackDir
		}
		return nil, err
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, fpath)
	if diags.HasErrors() {
		return nil, diagErr(fpath, diags)
	}
	var spec hclspec.Descriptor
	if diags := gohcl.DecodeBody(file.Body, nil, &spec); diags.HasErrors() {
		return nil, diagErr(fpath, diags)
	}
	return manifestFromSpec(&spec)
}

func diagErr(fpath string, diags hcl.Diagnostics) error {
	return fmt.Errorf("parse %q: %w", fpath, diags)
}

func manifestFromSpec(spec *hclspec.Descriptor) (*models.Manifest, error) {
	loader, err := models.ParseLoader(spec.Pack.Loader)
	if err != nil {
		return nil, err
	}
	m := &models.Manifest{
		Name:             spec.Pack.Name,
		Version:          spec.Pack.Version,
		Author:           spec.Pack.Author,
		Description:      spec.Pack.Description,
		Loader:           loader,
		LoaderVersion:    spec.Pack.LoaderVersion,
		MinecraftVersion: spec.Pack.MinecraftVersion,
	}
	for _, mod := range spec.Mods {
		side, err := models.ParseSide(mod.Side)
		if err != nil {
			return nil, fmt.Errorf("mod %q: %w", mod.Slug, err)
		}
		m.Entries = append(m.Entries, models.Entry{
			ProjectID:   mod.ProjectID,
			FileID:      mod.FileID,
			Slug:        mod.Slug,
			Name:        mod.Name,
			FileName:    mod.FileName,
			DownloadURL: mod.DownloadURL,
			ContentHash: mod.Sha1,
			FileSize:    mod.FileSize,
			Required:    !mod.Optional,
			Side:        side,
		})
	}
	return m, nil
}

// Save writes the descriptor atomically. Entry order is preserved, so
// saving an unchanged manifest is byte-identical.
func (s *Store) Save(m *models.Manifest) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	pb := body.AppendNewBlock("pack", nil).Body()
	pb.SetAttributeValue("name", cty.StringVal(m.Name))
	pb.SetAttributeValue("version", cty.StringVal(m.Version))
	if m.Author != "" {
		pb.SetAttributeValue("author", cty.StringVal(m.Author))
	}
	if m.Description != "" {
		pb.SetAttributeValue("description", cty.StringVal(m.Description))
	}
	pb.SetAttributeValue("loader", cty.StringVal(string(m.Loader)))
	pb.SetAttributeValue("loaderVersion", cty.StringVal(m.LoaderVersion))
	pb.SetAttributeValue("minecraftVersion", cty.StringVal(m.MinecraftVersion))

	for _, e := range m.Entries {
		body.AppendNewline()
		mb := body.AppendNewBlock("mod", []string{e.Slug}).Body()
		if e.Name != "" {
			mb.SetAttributeValue("name", cty.StringVal(e.Name))
		}
		mb.SetAttributeValue("projectID", cty.NumberIntVal(int64(e.ProjectID)))
		mb.SetAttributeValue("fileID", cty.NumberIntVal(int64(e.FileID)))
		mb.SetAttributeValue("fileName", cty.StringVal(e.FileName))
		if e.DownloadURL != "" {
			mb.SetAttributeValue("downloadURL", cty.StringVal(e.DownloadURL))
		}
		if e.ContentHash != "" {
			mb.SetAttributeValue("sha1", cty.StringVal(e.ContentHash))
		}
		if e.FileSize > 0 {
			mb.SetAttributeValue("fileSize", cty.NumberIntVal(e.FileSize))
		}
		if !e.Required {
			mb.SetAttributeValue("optional", cty.BoolVal(true))
		}
		if e.Side != "" && e.Side != models.SideBoth {
			mb.SetAttributeValue("side", cty.StringVal(string(e.Side)))
		}
	}

	return renameio.WriteFile(s.descriptorPath(), f.Bytes(), 0o644)
}

// AddEntries appends entries, rejecting projectID collisions unless
// replace is set, in which case the colliding entry is rewritten in place
// so its position in the descriptor is stable.
func (s *Store) AddEntries(m *models.Manifest, entries []models.Entry, replace bool) error {
	for _, e := range entries {
		if prev, ok := m.Entry(e.ProjectID); ok {
			if !replace {
				return &models.DuplicateEntryError{ProjectID: e.ProjectID, Name: prev.Name}
			}
			for i := range m.Entries {
				if m.Entries[i].ProjectID == e.ProjectID {
					m.Entries[i] = e
					break
				}
			}
			continue
		}
		m.Entries = append(m.Entries, e)
	}
	return s.Save(m)
}

// RemoveEntry removes the entry for projectID and its sidecar document.
func (s *Store) RemoveEntry(m *models.Manifest, projectID int) (models.Entry, error) {
	for i, e := range m.Entries {
		if e.ProjectID != projectID {
			continue
		}
		m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
		if err := s.Save(m); err != nil {
			return models.Entry{}, err
		}
		if err := s.RemoveSidecar(e); err != nil && !errors.Is(err, os.ErrNotExist) {
			return models.Entry{}, err
		}
		return e, nil
	}
	return models.Entry{}, fmt.Errorf("project %d: %w", projectID, models.ErrEntryNotFound)
}
