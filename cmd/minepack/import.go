package main

import (
	"archive/zip"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/minepack/minepack/builder/curse/jsonspec"
	"github.com/minepack/minepack/models"
	"github.com/minepack/minepack/pack"
	"github.com/minepack/minepack/resolver"
)

type ImportCommand struct{}

func (*ImportCommand) Name() string     { return "import" }
func (*ImportCommand) Synopsis() string { return "import a CurseForge modpack" }
func (*ImportCommand) Usage() string {
	return `Usage: minepack import PACKAGE

	Imports an existing CurseForge package (a .zip or a bare
	manifest.json) into a fresh descriptor in the current directory. Each
	referenced file is looked up in the registry to recover its name,
	file name and download location.

Flags:
`
}

func (*ImportCommand) SetFlags(fs *flag.FlagSet) {}

func (cmd *ImportCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() != 1 {
		log.Printf("import: expected exactly one package path")
		return subcommands.ExitUsageError
	}
	fpath := fs.Arg(0)

	cm, err := readCurseManifest(fpath)
	if err != nil {
		log.Printf("read %q: %+v", fpath, err)
		return exitFailure
	}
	loader, version, err := splitLoaderID(cm)
	if err != nil {
		log.Printf("import %q: %+v", fpath, err)
		return exitFailure
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Printf("getwd: %+v", err)
		return exitFailure
	}
	s := &pack.Store{Dir: wd}

	m := &models.Manifest{
		Name:             cm.Name,
		Version:          cm.Version,
		Author:           cm.Author,
		Loader:           loader,
		LoaderVersion:    version,
		MinecraftVersion: cm.Minecraft.Version,
	}
	if err := s.Init(m); err != nil {
		log.Printf("init %q: %+v", wd, err)
		return exitFailure
	}

	reg := newRegistry()

	var entries []models.Entry
	for _, cf := range cm.Files {
		cand, err := reg.Project(ctx, cf.ProjectID)
		if err != nil {
			log.Printf("lookup project %d: %+v", cf.ProjectID, err)
			return failStatus(err)
		}
		file, ok := findFile(cand.Files, cf.FileID)
		if !ok {
			all, err := reg.ProjectFiles(ctx, cf.ProjectID, models.Constraints{})
			if err != nil {
				log.Printf("list files of project %d: %+v", cf.ProjectID, err)
				return failStatus(err)
			}
			if file, ok = findFile(all, cf.FileID); !ok {
				log.Printf("project %d: file %d not available", cf.ProjectID, cf.FileID)
				return exitFailure
			}
		}
		entries = append(entries, resolver.Entry(cand, file, cf.Required, models.SideBoth))
	}

	if err := s.AddEntries(m, entries, false); err != nil {
		log.Printf("import %q: %+v", fpath, err)
		return exitFailure
	}
	for _, e := range entries {
		if err := s.WriteSidecar(e, ""); err != nil {
			log.Printf("write sidecar for %q: %+v", e.Slug, err)
			return exitFailure
		}
	}

	log.Printf("imported %d mods from %q", len(entries), fpath)
	return subcommands.ExitSuccess
}

func readCurseManifest(fpath string) (*jsonspec.Manifest, error) {
	var r io.ReadCloser
	if strings.HasSuffix(fpath, ".zip") {
		zr, err := zip.OpenReader(fpath)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		f, err := zr.Open("manifest.json")
		if err != nil {
			return nil, err
		}
		r = f
	} else {
		f, err := os.Open(fpath)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	var cm jsonspec.Manifest
	if err := json.NewDecoder(r).Decode(&cm); err != nil {
		return nil, err
	}
	if cm.ManifestType != "minecraftModpack" {
		return nil, fmt.Errorf("unexpected manifest type %q", cm.ManifestType)
	}
	return &cm, nil
}

// splitLoaderID parses loader IDs like "forge-14.23.5.2859".
func splitLoaderID(cm *jsonspec.Manifest) (models.Loader, string, error) {
	for _, ml := range cm.Minecraft.ModLoaders {
		if !ml.Primary && len(cm.Minecraft.ModLoaders) > 1 {
			continue
		}
		name, version, ok := strings.Cut(ml.ID, "-")
		if !ok {
			return "", "", fmt.Errorf("malformed loader id %q", ml.ID)
		}
		loader, err := models.ParseLoader(name)
		if err != nil {
			return "", "", err
		}
		return loader, version, nil
	}
	return "", "", fmt.Errorf("package declares no mod loader")
}

func findFile(files []models.FileMetadata, fileID int) (models.FileMetadata, bool) {
	for _, f := range files {
		if f.FileID == fileID {
			return f, true
		}
	}
	return models.FileMetadata{}, false
}
