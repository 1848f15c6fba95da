package builder

import (
	"archive/zip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/akrylysov/pogreb"
	"github.com/go-git/go-billy/v5/memfs"

	curseSpec "github.com/minepack/minepack/builder/curse/jsonspec"
	modrinthSpec "github.com/minepack/minepack/builder/modrinth/jsonspec"
	multimcSpec "github.com/minepack/minepack/builder/multimc/jsonspec"
	"github.com/minepack/minepack/fetcher"
	"github.com/minepack/minepack/models"
	"github.com/minepack/minepack/pack"
)

// stubRegistry answers DownloadURL from a (projectID, fileID) table. The
// pipeline never calls the other capabilities.
type stubRegistry struct {
	urls map[[2]int]string
	errs map[[2]int]error
}

func (r *stubRegistry) Search(ctx context.Context, query string, cons models.Constraints) ([]models.Candidate, error) {
	return nil, models.ErrNotFound
}

func (r *stubRegistry) Project(ctx context.Context, id int) (models.Candidate, error) {
	return models.Candidate{}, models.ErrNotFound
}

func (r *stubRegistry) ProjectFiles(ctx context.Context, id int, cons models.Constraints) ([]models.FileMetadata, error) {
	return nil, models.ErrNotFound
}

func (r *stubRegistry) DownloadURL(ctx context.Context, projectID, fileID int) (string, error) {
	key := [2]int{projectID, fileID}
	if err, ok := r.errs[key]; ok {
		return "", err
	}
	if u, ok := r.urls[key]; ok {
		return u, nil
	}
	return "", models.ErrNotFound
}

func sha1hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

type testArtifact struct {
	entry models.Entry
	body  []byte
}

// newTestPipeline serves the given artifacts over HTTP and wires a
// pipeline whose registry resolves each pinned file to its local URL.
func newTestPipeline(t *testing.T, artifacts []testArtifact) (*Pipeline, *stubRegistry) {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	reg := &stubRegistry{
		urls: make(map[[2]int]string),
		errs: make(map[[2]int]error),
	}
	for _, a := range artifacts {
		p := fmt.Sprintf("/files/%d/%d", a.entry.ProjectID, a.entry.FileID)
		body := a.body
		mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(body)
		})
		reg.urls[[2]int{a.entry.ProjectID, a.entry.FileID}] = srv.URL + p
	}

	db, err := pogreb.Open(filepath.Join(t.TempDir(), "db"), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	p := &Pipeline{
		Registry: reg,
		Fetcher: &fetcher.Fetcher{
			Files:    memfs.New(),
			Database: db,
			Client:   srv.Client(),
		},
	}
	return p, reg
}

func pipelineManifest(artifacts []testArtifact) *models.Manifest {
	m := &models.Manifest{
		Name:             "Test Pack",
		Version:          "1.0.0",
		Loader:           models.LoaderFabric,
		LoaderVersion:    "0.15.11",
		MinecraftVersion: "1.20.1",
	}
	for _, a := range artifacts {
		m.Entries = append(m.Entries, a.entry)
	}
	return m
}

func defaultArtifacts() []testArtifact {
	alpha := []byte("alpha jar bytes")
	beta := []byte("beta jar bytes")
	return []testArtifact{
		{
			entry: models.Entry{
				ProjectID: 100, FileID: 1, Slug: "alpha", Name: "Alpha",
				FileName: "alpha.jar", ContentHash: sha1hex(alpha),
				FileSize: int64(len(alpha)), Required: true, Side: models.SideBoth,
			},
			body: alpha,
		},
		{
			entry: models.Entry{
				ProjectID: 200, FileID: 2, Slug: "beta", Name: "Beta",
				FileName: "beta.jar", ContentHash: sha1hex(beta),
				FileSize: int64(len(beta)), Required: false, Side: models.SideClient,
			},
			body: beta,
		},
	}
}

func writeOverride(t *testing.T, dir, name, content string) {
	t.Helper()
	fpath := filepath.Join(dir, pack.OverridesDir, name)
	if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fpath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readArchive(t *testing.T, fpath string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(fpath)
	if err != nil {
		t.Fatalf("open archive %q: %v", fpath, err)
	}
	defer zr.Close()

	out := make(map[string][]byte)
	for _, f := range zr.File {
		r, err := f.Open()
		if err != nil {
			t.Fatalf("open %q: %v", f.Name, err)
		}
		b, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			t.Fatalf("read %q: %v", f.Name, err)
		}
		out[f.Name] = b
	}
	return out
}

func TestPipelineModrinth(t *testing.T) {
	artifacts := defaultArtifacts()
	p, _ := newTestPipeline(t, artifacts)
	m := pipelineManifest(artifacts)
	dir := t.TempDir()
	writeOverride(t, dir, "options.txt", "fov:90")

	res, err := p.Run(context.Background(), m, dir, FormatModrinth)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if filepath.Base(res.OutputPath) != "Test_Pack-1.0.0.mrpack" {
		t.Errorf("OutputPath = %q", res.OutputPath)
	}

	files := readArchive(t, res.OutputPath)
	var index modrinthSpec.Index
	if err := json.Unmarshal(files["modrinth.index.json"], &index); err != nil {
		t.Fatalf("unmarshal index: %v", err)
	}
	if index.FormatVersion != 1 || index.Game != "minecraft" {
		t.Errorf("index header = %+v", index)
	}
	if index.Dependencies["minecraft"] != "1.20.1" || index.Dependencies["fabric-loader"] != "0.15.11" {
		t.Errorf("dependencies = %v", index.Dependencies)
	}
	if len(index.Files) != 2 {
		t.Fatalf("index files = %+v", index.Files)
	}
	if index.Files[0].Path != "mods/alpha.jar" || index.Files[0].Env != nil {
		t.Errorf("files[0] = %+v", index.Files[0])
	}
	f := index.Files[1]
	if f.Hashes["sha1"] != artifacts[1].entry.ContentHash {
		t.Errorf("files[1] hashes = %v", f.Hashes)
	}
	if f.Env == nil || f.Env.Client != "required" || f.Env.Server != "unsupported" {
		t.Errorf("files[1] env = %+v", f.Env)
	}
	if string(files["overrides/config/options.txt"]) != "fov:90" {
		t.Errorf("override missing: %v", files)
	}
	// Reference-only formats never embed artifact bytes.
	if _, ok := files["mods/alpha.jar"]; ok {
		t.Error("artifact bytes embedded in a reference-only package")
	}
}

func TestPipelineStandaloneEmbeds(t *testing.T) {
	artifacts := defaultArtifacts()
	p, _ := newTestPipeline(t, artifacts)
	m := pipelineManifest(artifacts)
	dir := t.TempDir()
	writeOverride(t, dir, "options.txt", "fov:90")

	res, err := p.Run(context.Background(), m, dir, FormatStandalone)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	files := readArchive(t, res.OutputPath)
	if string(files["mods/alpha.jar"]) != string(artifacts[0].body) {
		t.Errorf("mods/alpha.jar = %q", files["mods/alpha.jar"])
	}
	if string(files["mods/beta.jar"]) != string(artifacts[1].body) {
		t.Errorf("mods/beta.jar = %q", files["mods/beta.jar"])
	}
	if string(files["config/options.txt"]) != "fov:90" {
		t.Errorf("override = %q", files["config/options.txt"])
	}
}

func TestPipelineMultiMC(t *testing.T) {
	artifacts := defaultArtifacts()
	p, _ := newTestPipeline(t, artifacts)
	m := pipelineManifest(artifacts)
	dir := t.TempDir()

	res, err := p.Run(context.Background(), m, dir, FormatMultiMC)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	files := readArchive(t, res.OutputPath)
	cfg := string(files["Test Pack/instance.cfg"])
	if cfg != "InstanceType=OneSix\nname=Test Pack\nIntendedVersion=1.20.1\n" {
		t.Errorf("instance.cfg = %q", cfg)
	}

	var mmc multimcSpec.Pack
	if err := json.Unmarshal(files["Test Pack/mmc-pack.json"], &mmc); err != nil {
		t.Fatalf("unmarshal mmc-pack.json: %v", err)
	}
	if len(mmc.Components) != 2 || mmc.Components[0].UID != "net.minecraft" {
		t.Errorf("components = %+v", mmc.Components)
	}
	if mmc.Components[1].UID != "net.fabricmc.fabric-loader" || mmc.Components[1].Version != "0.15.11" {
		t.Errorf("loader component = %+v", mmc.Components[1])
	}

	var index multimcSpec.ModIndex
	if err := json.Unmarshal(files["Test Pack/.minecraft/mods/minepack.index.json"], &index); err != nil {
		t.Fatalf("unmarshal mod index: %v", err)
	}
	if len(index.Mods) != 2 || index.Mods[0].ProjectID != 100 {
		t.Errorf("mod index = %+v", index.Mods)
	}
}

func TestPipelineCurseForge(t *testing.T) {
	artifacts := defaultArtifacts()
	p, _ := newTestPipeline(t, artifacts)
	m := pipelineManifest(artifacts)
	dir := t.TempDir()

	res, err := p.Run(context.Background(), m, dir, FormatCurseForge)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	files := readArchive(t, res.OutputPath)
	var doc curseSpec.Manifest
	if err := json.Unmarshal(files["manifest.json"], &doc); err != nil {
		t.Fatalf("unmarshal manifest.json: %v", err)
	}
	if doc.ManifestType != "minecraftModpack" || doc.ManifestVersion != 1 {
		t.Errorf("header = %+v", doc)
	}
	if len(doc.Minecraft.ModLoaders) != 1 || doc.Minecraft.ModLoaders[0].ID != "fabric-0.15.11" {
		t.Errorf("modLoaders = %+v", doc.Minecraft.ModLoaders)
	}
	if len(doc.Files) != 2 || doc.Files[0].ProjectID != 100 || doc.Files[1].Required {
		t.Errorf("files = %+v", doc.Files)
	}
}

func TestPipelineValidationFailure(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	m := pipelineManifest(nil)
	m.Name = ""

	_, err := p.Run(context.Background(), m, t.TempDir(), FormatModrinth)
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestPipelineEmptyManifest(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	for _, format := range []Format{FormatMultiMC, FormatCurseForge, FormatModrinth, FormatStandalone} {
		t.Run(string(format), func(t *testing.T) {
			m := pipelineManifest(nil)
			res, err := p.Run(context.Background(), m, t.TempDir(), format)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			files := readArchive(t, res.OutputPath)

			// Metadata documents must carry an empty list, not null.
			switch format {
			case FormatCurseForge:
				var doc curseSpec.Manifest
				if err := json.Unmarshal(files["manifest.json"], &doc); err != nil {
					t.Fatalf("unmarshal manifest.json: %v", err)
				}
				if doc.Files == nil || len(doc.Files) != 0 {
					t.Errorf("files = %#v, want empty array", doc.Files)
				}
			case FormatModrinth:
				var index modrinthSpec.Index
				if err := json.Unmarshal(files["modrinth.index.json"], &index); err != nil {
					t.Fatalf("unmarshal index: %v", err)
				}
				if index.Files == nil || len(index.Files) != 0 {
					t.Errorf("files = %#v, want empty array", index.Files)
				}
			case FormatMultiMC:
				var index multimcSpec.ModIndex
				if err := json.Unmarshal(files["Test Pack/.minecraft/mods/minepack.index.json"], &index); err != nil {
					t.Fatalf("unmarshal mod index: %v", err)
				}
				if index.Mods == nil || len(index.Mods) != 0 {
					t.Errorf("mods = %#v, want empty array", index.Mods)
				}
			case FormatStandalone:
				if len(files) != 0 {
					t.Errorf("archive contents = %v, want empty", files)
				}
			}
		})
	}
}

func TestPipelineDegradesForReferenceFormats(t *testing.T) {
	artifacts := defaultArtifacts()
	p, reg := newTestPipeline(t, artifacts)
	// The registry refreshes the second entry to a dead URL.
	dead := artifacts[1].entry
	reg.urls[[2]int{dead.ProjectID, dead.FileID}] += "-gone"

	m := pipelineManifest(artifacts)
	res, err := p.Run(context.Background(), m, t.TempDir(), FormatModrinth)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one degraded entry", res.Warnings)
	}

	files := readArchive(t, res.OutputPath)
	var index modrinthSpec.Index
	if err := json.Unmarshal(files["modrinth.index.json"], &index); err != nil {
		t.Fatal(err)
	}
	// The degraded entry is still recorded as an external reference.
	if len(index.Files) != 2 {
		t.Errorf("index files = %+v", index.Files)
	}
}

func TestPipelineEmbeddingAbortsOnMissingArtifact(t *testing.T) {
	artifacts := defaultArtifacts()
	p, reg := newTestPipeline(t, artifacts)
	dead := artifacts[1].entry
	reg.urls[[2]int{dead.ProjectID, dead.FileID}] += "-gone"

	m := pipelineManifest(artifacts)
	_, err := p.Run(context.Background(), m, t.TempDir(), FormatStandalone)
	var aerr *models.ArtifactError
	if !errors.As(err, &aerr) {
		t.Fatalf("err = %v, want ArtifactError", err)
	}
	if aerr.ProjectID != dead.ProjectID {
		t.Errorf("ArtifactError = %+v", aerr)
	}
}

func TestPipelineChecksumMismatchAlwaysAborts(t *testing.T) {
	artifacts := defaultArtifacts()
	// Declared hash no longer matches the served bytes.
	artifacts[0].entry.ContentHash = sha1hex([]byte("other bytes"))
	p, _ := newTestPipeline(t, artifacts)
	m := pipelineManifest(artifacts)

	_, err := p.Run(context.Background(), m, t.TempDir(), FormatModrinth)
	var aerr *models.ArtifactError
	if !errors.As(err, &aerr) {
		t.Fatalf("err = %v, want ArtifactError", err)
	}
	if !errors.Is(err, models.ErrSumsMismatch) {
		t.Errorf("err = %v, want wrapped ErrSumsMismatch", err)
	}
}

func TestPipelineRegistryOutageAborts(t *testing.T) {
	artifacts := defaultArtifacts()
	p, reg := newTestPipeline(t, artifacts)
	e := artifacts[0].entry
	reg.errs[[2]int{e.ProjectID, e.FileID}] = models.ErrRegistryUnavailable

	m := pipelineManifest(artifacts)
	_, err := p.Run(context.Background(), m, t.TempDir(), FormatModrinth)
	if !errors.Is(err, models.ErrRegistryUnavailable) {
		t.Errorf("err = %v, want ErrRegistryUnavailable", err)
	}
}
