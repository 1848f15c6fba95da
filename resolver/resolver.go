// Package resolver turns loose mod references into pinned, ranked
// candidates and expands their declared dependencies.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/minepack/minepack/models"
)

// Registry is the remote mod registry collaborator. Implemented by
// curse.Client; faked in tests.
type Registry interface {
	Search(ctx context.Context, query string, cons models.Constraints) ([]models.Candidate, error)
	Project(ctx context.Context, id int) (models.Candidate, error)
	ProjectFiles(ctx context.Context, id int, cons models.Constraints) ([]models.FileMetadata, error)
	DownloadURL(ctx context.Context, projectID, fileID int) (string, error)
}

type Resolver struct {
	Registry Registry
}

// Resolve turns a reference into a single ranked candidate. Explicit file
// references bypass ranking but still validate that the project and file
// exist. Name references matching several projects at equal rank fail with
// AmbiguousError carrying all matches; picking one is the caller's call.
func (r *Resolver) Resolve(ctx context.Context, ref models.Reference, cons models.Constraints) (models.Candidate, error) {
	switch ref.Kind {
	case models.RefProjectID:
		return r.resolveProject(ctx, ref.ProjectID, cons)
	case models.RefProjectURL:
		return r.resolveSlug(ctx, ref.Slug, cons, true)
	case models.RefSlug:
		return r.resolveSlug(ctx, ref.Slug, cons, false)
	case models.RefFileURL:
		return r.resolveFile(ctx, ref, cons)
	case models.RefQuery:
		return r.resolveQuery(ctx, ref.Query, cons)
	}
	return models.Candidate{}, fmt.Errorf("unhandled reference kind %d", ref.Kind)
}

func (r *Resolver) resolveProject(ctx context.Context, id int, cons models.Constraints) (models.Candidate, error) {
	cand, err := r.Registry.Project(ctx, id)
	if err != nil {
		return models.Candidate{}, err
	}
	files, err := r.rankedFiles(ctx, cand, cons)
	if err != nil {
		return models.Candidate{}, err
	}
	cand.Files = files
	return cand, nil
}

// rankedFiles keeps only files compatible with the constraints, best
// first. The latestFiles snapshot on the project is often stale, so the
// full file listing is consulted before declaring incompatibility.
func (r *Resolver) rankedFiles(ctx context.Context, cand models.Candidate, cons models.Constraints) ([]models.FileMetadata, error) {
	files := filterFiles(cand.Files, cons)
	if len(files) > 0 {
		return files, nil
	}
	all, err := r.Registry.ProjectFiles(ctx, cand.ProjectID, cons)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	files = filterFiles(all, cons)
	if len(files) == 0 {
		return nil, &models.IncompatibleError{
			ProjectID:   cand.ProjectID,
			Name:        cand.Name,
			Constraints: cons,
		}
	}
	return files, nil
}

func filterFiles(files []models.FileMetadata, cons models.Constraints) []models.FileMetadata {
	var out []models.FileMetadata
	for _, f := range files {
		if f.Matches(cons) {
			out = append(out, f)
		}
	}
	return out
}

// resolveFile validates an explicit project+file reference. No ranking:
// the caller pinned the file, the resolver only checks it exists.
func (r *Resolver) resolveFile(ctx context.Context, ref models.Reference, cons models.Constraints) (models.Candidate, error) {
	cand, err := r.lookupSlug(ctx, ref.Slug, cons)
	if err != nil {
		return models.Candidate{}, err
	}
	for _, f := range cand.Files {
		if f.FileID == ref.FileID {
			cand.Files = []models.FileMetadata{f}
			return cand, nil
		}
	}
	all, err := r.Registry.ProjectFiles(ctx, cand.ProjectID, models.Constraints{})
	if err != nil {
		return models.Candidate{}, err
	}
	for _, f := range all {
		if f.FileID == ref.FileID {
			cand.Files = []models.FileMetadata{f}
			return cand, nil
		}
	}
	return models.Candidate{}, fmt.Errorf("file %d of project %q: %w", ref.FileID, ref.Slug, models.ErrNotFound)
}

// lookupSlug finds the single project with the given slug.
func (r *Resolver) lookupSlug(ctx context.Context, slug string, cons models.Constraints) (models.Candidate, error) {
	matches, err := r.Registry.Search(ctx, slug, cons)
	if err != nil {
		return models.Candidate{}, err
	}
	for _, m := range matches {
		if m.Slug == slug {
			return m, nil
		}
	}
	return models.Candidate{}, fmt.Errorf("slug %q: %w", slug, models.ErrNotFound)
}

// resolveSlug resolves a slug or slug-shaped token. An exact slug match
// wins outright; otherwise the token degrades to a free-text query unless
// it came from a project URL, where the slug is authoritative.
func (r *Resolver) resolveSlug(ctx context.Context, slug string, cons models.Constraints, exact bool) (models.Candidate, error) {
	cand, err := r.lookupSlug(ctx, slug, cons)
	if err == nil {
		return r.withRankedFiles(ctx, cand, cons)
	}
	if exact || !errors.Is(err, models.ErrNotFound) {
		return models.Candidate{}, err
	}
	return r.resolveQuery(ctx, slug, cons)
}

func (r *Resolver) resolveQuery(ctx context.Context, query string, cons models.Constraints) (models.Candidate, error) {
	matches, err := r.Registry.Search(ctx, query, cons)
	if err != nil {
		return models.Candidate{}, err
	}
	// Keep only projects with at least one compatible file; latestFiles is
	// a good enough signal for search results.
	var compat []models.Candidate
	for _, m := range matches {
		if files := filterFiles(m.Files, cons); len(files) > 0 {
			m.Files = files
			compat = append(compat, m)
		}
	}
	switch len(compat) {
	case 0:
		return models.Candidate{}, fmt.Errorf("%q: %w", query, models.ErrNotFound)
	case 1:
		return compat[0], nil
	}
	return models.Candidate{}, &models.AmbiguousError{Reference: query, Matches: compat}
}

func (r *Resolver) withRankedFiles(ctx context.Context, cand models.Candidate, cons models.Constraints) (models.Candidate, error) {
	files, err := r.rankedFiles(ctx, cand, cons)
	if err != nil {
		return models.Candidate{}, err
	}
	cand.Files = files
	return cand, nil
}

// Entry pins the best file of a candidate into a manifest entry.
func Entry(cand models.Candidate, file models.FileMetadata, required bool, side models.Side) models.Entry {
	return models.Entry{
		ProjectID:   cand.ProjectID,
		FileID:      file.FileID,
		Slug:        cand.Slug,
		Name:        cand.Name,
		FileName:    file.FileName,
		DownloadURL: file.DownloadURL,
		ContentHash: file.ContentHash,
		FileSize:    file.FileSize,
		Required:    required,
		Side:        side,
	}
}
