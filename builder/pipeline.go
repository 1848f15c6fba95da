package builder

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/minepack/minepack/builder/archive"
	cursebuilder "github.com/minepack/minepack/builder/curse"
	"github.com/minepack/minepack/builder/modrinth"
	"github.com/minepack/minepack/builder/multimc"
	"github.com/minepack/minepack/fetcher"
	"github.com/minepack/minepack/models"
	"github.com/minepack/minepack/pack"
	"github.com/minepack/minepack/resolver"
)

// Pipeline runs the build: Validate, ResolveArtifacts, Download, Assemble,
// Finalize. It reads a manifest snapshot and never writes back to it.
type Pipeline struct {
	Registry resolver.Registry
	Fetcher  *fetcher.Fetcher

	// Workers bounds the download pool.
	Workers int
}

// Result reports where the archive landed and which entries degraded to
// reference-only records.
type Result struct {
	OutputPath string
	Warnings   []string
}

// Run builds the manifest into an archive for the format, rooted at dir.
// Entries whose artifacts cannot be fetched degrade to external-link
// records for reference-only formats; an embedding format aborts on the
// first such entry.
func (p *Pipeline) Run(ctx context.Context, m *models.Manifest, dir string, format Format) (Result, error) {
	if err := Validate(m); err != nil {
		return Result{}, err
	}

	entries, failures, err := p.resolveArtifacts(ctx, m.Entries)
	if err != nil {
		return Result{}, err
	}

	if err := p.download(ctx, entries, failures); err != nil {
		return Result{}, err
	}

	return p.assemble(m, entries, failures, dir, format)
}

// resolveArtifacts refreshes the download URL of every entry. This is an
// idempotent refresh, never a re-resolution: fileID does not change here.
// A file the registry no longer serves keeps its stored URL and is
// tracked as a failure candidate for the download stage.
func (p *Pipeline) resolveArtifacts(ctx context.Context, entries []models.Entry) ([]models.Entry, []error, error) {
	out := make([]models.Entry, len(entries))
	failures := make([]error, len(entries))
	for i, e := range entries {
		url, err := p.Registry.DownloadURL(ctx, e.ProjectID, e.FileID)
		switch {
		case err == nil:
			e.DownloadURL = url
		case errors.Is(err, models.ErrRegistryUnavailable) || errors.Is(err, context.Canceled):
			return nil, nil, err
		default:
			// Keep the stored URL; download may still succeed from it.
			failures[i] = err
		}
		out[i] = e
	}
	return out, failures, nil
}

// download fills the content cache. Per-entry failures are recorded in
// failures for the assemble stage to apply format policy; they do not
// abort the stage.
func (p *Pipeline) download(ctx context.Context, entries []models.Entry, failures []error) error {
	reqs := make([]fetcher.Request, len(entries))
	for i, e := range entries {
		reqs[i] = fetcher.Request{Entry: e, URL: e.DownloadURL}
	}
	errs, err := p.Fetcher.FetchAll(ctx, reqs, p.Workers)
	if err != nil {
		return err
	}
	for i, ferr := range errs {
		if ferr == nil {
			failures[i] = nil // cache served it after all
			continue
		}
		if errors.Is(ferr, models.ErrSumsMismatch) {
			// Corrupted content is never a degradable condition.
			e := entries[i]
			return &models.ArtifactError{
				ProjectID: e.ProjectID,
				FileID:    e.FileID,
				FileName:  e.FileName,
				Err:       ferr,
			}
		}
		failures[i] = ferr
	}
	return nil
}

func (p *Pipeline) assemble(m *models.Manifest, entries []models.Entry, failures []error, dir string, format Format) (res Result, err error) {
	outDir := filepath.Join(dir, pack.BuildDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, err
	}
	final := filepath.Join(outDir, outputName(m, format))
	tmp := final + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriter(file)
	zw := zip.NewWriter(bw)

	var b Builder
	switch format {
	case FormatMultiMC:
		b = multimc.New(m, zw)
	case FormatCurseForge:
		b = cursebuilder.New(m, zw)
	case FormatModrinth:
		b = modrinth.New(m, zw)
	case FormatStandalone:
		b = archive.New(p.Fetcher, zw)
	default:
		return Result{}, fmt.Errorf("%w: %q", models.ErrUnknownFormat, format)
	}

	for i, e := range entries {
		if ferr := failures[i]; ferr != nil {
			ae := &models.ArtifactError{
				ProjectID: e.ProjectID,
				FileID:    e.FileID,
				FileName:  e.FileName,
				Err:       ferr,
			}
			if format.Embeds() {
				return Result{}, ae
			}
			res.Warnings = append(res.Warnings, ae.Error())
		}
		if err := b.Add(e); err != nil {
			return Result{}, fmt.Errorf("add %q: %w", e.FileName, err)
		}
	}

	if err := p.addOverrides(dir, b); err != nil {
		return Result{}, err
	}

	// Finalize: flush the metadata document and promote the archive.
	if err := b.Close(); err != nil {
		return Result{}, err
	}
	if err := zw.Close(); err != nil {
		return Result{}, err
	}
	if err := bw.Flush(); err != nil {
		return Result{}, err
	}
	if err := file.Close(); err != nil {
		return Result{}, err
	}
	if err := os.Rename(tmp, final); err != nil {
		return Result{}, err
	}

	res.OutputPath = final
	return res, nil
}

// addOverrides streams the overrides directory into the package, in
// lexical walk order for deterministic output.
func (p *Pipeline) addOverrides(dir string, b Builder) error {
	root := filepath.Join(dir, pack.OverridesDir)
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(root, func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, fpath)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(pack.OverridesDir, rel))
		f, err := os.Open(fpath)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				log.Printf("close %q: %+v", fpath, cerr)
			}
		}()
		return b.AddOverride(name, f)
	})
}

func outputName(m *models.Manifest, format Format) string {
	name := fmt.Sprintf("%s-%s", m.Name, m.Version)
	if label := format.Label(); label != "" {
		name += "-" + label
	}
	name = strings.ReplaceAll(name, " ", "_")
	return name + format.Ext()
}
