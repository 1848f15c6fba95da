package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/minepack/minepack/models"
)

// fakeRegistry serves canned projects keyed by ID. Search matches on slug
// or name substring the way the real registry roughly does.
type fakeRegistry struct {
	projects map[int]models.Candidate
	// files overrides the full listing per project; falls back to the
	// candidate's snapshot when absent.
	files map[int][]models.FileMetadata

	err error
}

func (r *fakeRegistry) Search(ctx context.Context, query string, cons models.Constraints) ([]models.Candidate, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []models.Candidate
	for _, c := range r.projects {
		if c.Slug == query || strings.Contains(c.Name, query) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRegistry) Project(ctx context.Context, id int) (models.Candidate, error) {
	if r.err != nil {
		return models.Candidate{}, r.err
	}
	c, ok := r.projects[id]
	if !ok {
		return models.Candidate{}, models.ErrNotFound
	}
	return c, nil
}

func (r *fakeRegistry) ProjectFiles(ctx context.Context, id int, cons models.Constraints) ([]models.FileMetadata, error) {
	if r.err != nil {
		return nil, r.err
	}
	if files, ok := r.files[id]; ok {
		return files, nil
	}
	c, ok := r.projects[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c.Files, nil
}

func (r *fakeRegistry) DownloadURL(ctx context.Context, projectID, fileID int) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "https://cdn.example/file.jar", nil
}

var testCons = models.Constraints{MinecraftVersion: "1.20.1", Loader: models.LoaderFabric}

func file(id int, deps ...models.Dependency) models.FileMetadata {
	return models.FileMetadata{
		FileID:       id,
		FileName:     "mod.jar",
		GameVersions: []string{"1.20.1"},
		Loaders:      []models.Loader{models.LoaderFabric},
		Dependencies: deps,
		ContentHash:  "da39a3ee5e6b4b0d3255bfef95601890afd80709",
	}
}

func project(id int, slug, name string, files ...models.FileMetadata) models.Candidate {
	return models.Candidate{ProjectID: id, Slug: slug, Name: name, Files: files}
}

func TestResolveProjectID(t *testing.T) {
	reg := &fakeRegistry{projects: map[int]models.Candidate{
		100: project(100, "alpha", "Alpha", file(1)),
	}}
	r := &Resolver{Registry: reg}

	cand, err := r.Resolve(context.Background(), models.Reference{Kind: models.RefProjectID, ProjectID: 100}, testCons)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cand.ProjectID != 100 || len(cand.Files) != 1 || cand.Files[0].FileID != 1 {
		t.Errorf("candidate = %+v", cand)
	}
}

func TestResolveFallsBackToFullListing(t *testing.T) {
	stale := models.FileMetadata{FileID: 9, GameVersions: []string{"1.18.2"}, Loaders: []models.Loader{models.LoaderFabric}}
	reg := &fakeRegistry{
		projects: map[int]models.Candidate{100: project(100, "alpha", "Alpha", stale)},
		files:    map[int][]models.FileMetadata{100: {file(2)}},
	}
	r := &Resolver{Registry: reg}

	cand, err := r.Resolve(context.Background(), models.Reference{Kind: models.RefProjectID, ProjectID: 100}, testCons)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(cand.Files) != 1 || cand.Files[0].FileID != 2 {
		t.Errorf("files = %+v", cand.Files)
	}
}

func TestResolveIncompatible(t *testing.T) {
	stale := models.FileMetadata{FileID: 9, GameVersions: []string{"1.18.2"}, Loaders: []models.Loader{models.LoaderFabric}}
	reg := &fakeRegistry{projects: map[int]models.Candidate{
		100: project(100, "alpha", "Alpha", stale),
	}}
	r := &Resolver{Registry: reg}

	_, err := r.Resolve(context.Background(), models.Reference{Kind: models.RefProjectID, ProjectID: 100}, testCons)
	var ierr *models.IncompatibleError
	if !errors.As(err, &ierr) {
		t.Fatalf("err = %v, want IncompatibleError", err)
	}
	if ierr.ProjectID != 100 {
		t.Errorf("ProjectID = %d", ierr.ProjectID)
	}
}

func TestResolveSlugExact(t *testing.T) {
	reg := &fakeRegistry{projects: map[int]models.Candidate{
		100: project(100, "alpha", "Alpha Mod", file(1)),
		200: project(200, "alpha-extras", "Alpha Extras", file(2)),
	}}
	r := &Resolver{Registry: reg}

	cand, err := r.Resolve(context.Background(), models.Reference{Kind: models.RefSlug, Slug: "alpha"}, testCons)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cand.ProjectID != 100 {
		t.Errorf("ProjectID = %d, want exact slug match", cand.ProjectID)
	}
}

func TestResolveQueryAmbiguous(t *testing.T) {
	reg := &fakeRegistry{projects: map[int]models.Candidate{
		100: project(100, "alpha", "Alpha Mod", file(1)),
		200: project(200, "alpha-extras", "Alpha Mod Extras", file(2)),
	}}
	r := &Resolver{Registry: reg}

	_, err := r.Resolve(context.Background(), models.Reference{Kind: models.RefQuery, Query: "Alpha Mod"}, testCons)
	var amb *models.AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("err = %v, want AmbiguousError", err)
	}
	if len(amb.Matches) != 2 {
		t.Errorf("Matches = %d, want 2", len(amb.Matches))
	}
}

func TestResolveQuerySingleCompatibleMatch(t *testing.T) {
	incompatible := models.FileMetadata{FileID: 9, GameVersions: []string{"1.12.2"}}
	reg := &fakeRegistry{projects: map[int]models.Candidate{
		100: project(100, "alpha", "Alpha Mod", file(1)),
		200: project(200, "alpha-legacy", "Alpha Mod Legacy", incompatible),
	}}
	r := &Resolver{Registry: reg}

	cand, err := r.Resolve(context.Background(), models.Reference{Kind: models.RefQuery, Query: "Alpha Mod"}, testCons)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cand.ProjectID != 100 {
		t.Errorf("ProjectID = %d", cand.ProjectID)
	}
}

func TestResolveFileURL(t *testing.T) {
	reg := &fakeRegistry{
		projects: map[int]models.Candidate{
			100: project(100, "alpha", "Alpha", file(1)),
		},
		files: map[int][]models.FileMetadata{
			100: {file(1), {FileID: 7, FileName: "alpha-old.jar", GameVersions: []string{"1.16.5"}}},
		},
	}
	r := &Resolver{Registry: reg}

	// An explicitly pinned file resolves even when it fails the
	// constraints; the pin is the user's choice.
	ref := models.Reference{Kind: models.RefFileURL, Slug: "alpha", FileID: 7}
	cand, err := r.Resolve(context.Background(), ref, testCons)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(cand.Files) != 1 || cand.Files[0].FileID != 7 {
		t.Errorf("files = %+v", cand.Files)
	}

	ref.FileID = 999
	if _, err := r.Resolve(context.Background(), ref, testCons); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveRegistryDown(t *testing.T) {
	reg := &fakeRegistry{err: models.ErrRegistryUnavailable}
	r := &Resolver{Registry: reg}

	_, err := r.Resolve(context.Background(), models.Reference{Kind: models.RefProjectID, ProjectID: 1}, testCons)
	if !errors.Is(err, models.ErrRegistryUnavailable) {
		t.Errorf("err = %v, want ErrRegistryUnavailable", err)
	}
}
