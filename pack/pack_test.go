package pack

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minepack/minepack/models"
)

func testManifest() *models.Manifest {
	return &models.Manifest{
		Name:             "Test Pack",
		Version:          "1.0.0",
		Author:           "tester",
		Loader:           models.LoaderFabric,
		LoaderVersion:    "0.15.11",
		MinecraftVersion: "1.20.1",
		Entries: []models.Entry{
			{
				ProjectID:   238222,
				FileID:      4712866,
				Slug:        "jei",
				Name:        "Just Enough Items",
				FileName:    "jei-1.20.1-15.2.0.27.jar",
				DownloadURL: "https://cdn.example/jei.jar",
				ContentHash: "deadbeef",
				FileSize:    1024,
				Required:    true,
				Side:        models.SideBoth,
			},
			{
				ProjectID: 248787,
				FileID:    4029434,
				Slug:      "appleskin",
				Name:      "AppleSkin",
				FileName:  "appleskin.jar",
				Required:  false,
				Side:      models.SideClient,
			},
		},
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	return &Store{Dir: t.TempDir()}
}

func TestLoadMissingDescriptor(t *testing.T) {
	s := newStore(t)
	if _, err := s.Load(); !errors.Is(err, models.ErrNotAModpackDir) {
		t.Errorf("Load err = %v, want ErrNotAModpackDir", err)
	}
}

func TestInit(t *testing.T) {
	s := newStore(t)
	m := testManifest()
	m.Entries = nil

	if err := s.Init(m); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !s.Exists() {
		t.Error("Exists() = false after Init")
	}
	for _, dir := range []string{ModsDir, OverridesDir} {
		if fi, err := os.Stat(filepath.Join(s.Dir, dir)); err != nil || !fi.IsDir() {
			t.Errorf("missing scaffold dir %q", dir)
		}
	}
	if err := s.Init(m); !errors.Is(err, models.ErrAlreadyInitialized) {
		t.Errorf("second Init err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	m := testManifest()
	if err := s.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != m.Name || got.Loader != m.Loader || got.MinecraftVersion != m.MinecraftVersion {
		t.Errorf("header = %+v", got)
	}
	if len(got.Entries) != len(m.Entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(m.Entries))
	}
	for i, e := range got.Entries {
		if e != m.Entries[i] {
			t.Errorf("entry %d = %+v, want %+v", i, e, m.Entries[i])
		}
	}
}

func TestSaveIsByteStable(t *testing.T) {
	s := newStore(t)
	m := testManifest()
	if err := s.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(s.Dir, DescriptorName))
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Save(got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(s.Dir, DescriptorName))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("save-load-save changed the descriptor:\n%s\nvs\n%s", first, second)
	}
}

func TestAddEntries(t *testing.T) {
	s := newStore(t)
	m := testManifest()
	if err := s.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dup := models.Entry{ProjectID: 238222, FileID: 1, Slug: "jei", FileName: "other.jar", Required: true, Side: models.SideBoth}
	err := s.AddEntries(m, []models.Entry{dup}, false)
	var derr *models.DuplicateEntryError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want DuplicateEntryError", err)
	}
	if derr.ProjectID != 238222 {
		t.Errorf("ProjectID = %d", derr.ProjectID)
	}

	if err := s.AddEntries(m, []models.Entry{dup}, true); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if m.Entries[0].FileID != 1 {
		t.Errorf("replace did not keep position: entries = %+v", m.Entries)
	}

	fresh := models.Entry{ProjectID: 306612, FileID: 9, Slug: "fabric-api", FileName: "fabric-api.jar", Required: true, Side: models.SideBoth}
	if err := s.AddEntries(m, []models.Entry{fresh}, false); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Entries) != 3 || got.Entries[2].ProjectID != 306612 {
		t.Errorf("entries = %+v", got.Entries)
	}
}

func TestRemoveEntry(t *testing.T) {
	s := newStore(t)
	m := testManifest()
	if err := s.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.WriteSidecar(m.Entries[0], "summary"); err != nil {
		t.Fatalf("WriteSidecar: %v", err)
	}

	e, err := s.RemoveEntry(m, 238222)
	if err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if e.Slug != "jei" {
		t.Errorf("removed = %+v", e)
	}
	if _, err := os.Stat(filepath.Join(s.Dir, ModsDir, "jei.ex.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("sidecar still present: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].ProjectID != 248787 {
		t.Errorf("entries = %+v", got.Entries)
	}

	if _, err := s.RemoveEntry(m, 238222); !errors.Is(err, models.ErrEntryNotFound) {
		t.Errorf("err = %v, want ErrEntryNotFound", err)
	}
}

func TestWriteSidecar(t *testing.T) {
	s := newStore(t)
	e := testManifest().Entries[0]
	if err := s.WriteSidecar(e, "View items and recipes"); err != nil {
		t.Fatalf("WriteSidecar: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(s.Dir, ModsDir, "jei.ex.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc Sidecar
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Name != e.Name || doc.Filename != e.FileName {
		t.Errorf("sidecar = %+v", doc)
	}
	if doc.Link.ProjectID != e.ProjectID || doc.Link.FileID != e.FileID {
		t.Errorf("link = %+v", doc.Link)
	}
}
