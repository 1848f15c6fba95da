package resolver

import (
	"context"
	"errors"

	"github.com/minepack/minepack/models"
)

// Skipped records a dependency that expansion attempted but did not add.
// Only optional and embedded relations end up here; a required relation
// that fails resolution fails the whole expansion.
type Skipped struct {
	Dependency models.Dependency
	Parent     int
	Reason     error
}

// Expansion is the result of one dependency walk.
type Expansion struct {
	// Added is in breadth-first discovery order, so repeated expansion of
	// the same root is deterministic and diff-friendly once persisted.
	Added   []models.Entry
	Skipped []Skipped
}

type pendingDep struct {
	dep    models.Dependency
	parent int
}

// Expand walks root's declared dependencies breadth-first and resolves
// each against the constraints. The visited set starts with rootProject
// and grows as projects are dequeued, which both prevents duplicate work
// and terminates cyclic graphs. Pinned dependencies are still resolved so
// a pin that disagrees with what resolution would now choose surfaces as
// VersionConflictError; a pin at the same file is left alone.
func (r *Resolver) Expand(ctx context.Context, root models.FileMetadata, rootProject int, pinned map[int]int, cons models.Constraints) (Expansion, error) {
	var exp Expansion

	visited := map[int]bool{rootProject: true}

	var queue []pendingDep
	enqueue := func(parent int, deps []models.Dependency) {
		for _, d := range deps {
			queue = append(queue, pendingDep{dep: d, parent: parent})
		}
	}
	enqueue(rootProject, root.Dependencies)

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		id := p.dep.ProjectID
		if visited[id] {
			continue
		}
		visited[id] = true

		cand, err := r.resolveProject(ctx, id, cons)
		if err != nil {
			if fatal, werr := depFailure(p, err); fatal {
				return Expansion{}, werr
			}
			exp.Skipped = append(exp.Skipped, Skipped{Dependency: p.dep, Parent: p.parent, Reason: err})
			continue
		}
		file := cand.Files[0]

		if pinnedFile, ok := pinned[id]; ok {
			if pinnedFile != file.FileID {
				return Expansion{}, &models.VersionConflictError{
					ProjectID:      id,
					PinnedFileID:   pinnedFile,
					ResolvedFileID: file.FileID,
				}
			}
			// Already satisfied at the same pin.
			continue
		}

		required := p.dep.Relation == models.RelationRequired
		exp.Added = append(exp.Added, Entry(cand, file, required, models.SideBoth))
		enqueue(id, file.Dependencies)
	}

	return exp, nil
}

// depFailure decides whether a resolution failure on a dependency is fatal
// for the expansion call. Registry outages always are; anything else is
// fatal only for required relations.
func depFailure(p pendingDep, err error) (bool, error) {
	if errors.Is(err, models.ErrRegistryUnavailable) || errors.Is(err, context.Canceled) {
		return true, err
	}
	if p.dep.Relation == models.RelationRequired {
		return true, &models.MissingDependencyError{
			ProjectID: p.dep.ProjectID,
			Parent:    p.parent,
			Err:       err,
		}
	}
	return false, nil
}
