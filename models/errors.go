package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Resolution.
	ErrNotFound            = errors.New("project not found")
	ErrRegistryUnavailable = errors.New("registry unavailable")

	// Store.
	ErrNotAModpackDir     = errors.New("not a modpack directory")
	ErrAlreadyInitialized = errors.New("modpack already initialized")
	ErrEntryNotFound      = errors.New("entry not found")

	// Download.
	ErrSumsMismatch = errors.New("checksum mismatch")

	ErrUnknownLoader = errors.New("unknown mod loader")
	ErrUnknownSide   = errors.New("unknown side")
	ErrUnknownFormat = errors.New("unknown output format")
)

// AmbiguousError reports a name reference matching several projects at
// equal rank. Disambiguation is the caller's responsibility.
type AmbiguousError struct {
	Reference string
	Matches   []Candidate
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches %d projects", e.Reference, len(e.Matches))
}

// IncompatibleError reports a project with no file satisfying the
// constraints.
type IncompatibleError struct {
	ProjectID   int
	Name        string
	Constraints Constraints
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("no file of project %d compatible with %s", e.ProjectID, e.Constraints)
}

// MissingDependencyError reports a required dependency that could not be
// resolved. Fatal for the expansion call that hit it.
type MissingDependencyError struct {
	ProjectID int
	Parent    int
	Err       error
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("required dependency %d of project %d: %v", e.ProjectID, e.Parent, e.Err)
}

func (e *MissingDependencyError) Unwrap() error { return e.Err }

// VersionConflictError reports a dependency already pinned to a different
// file than expansion would now resolve. The entry is never overwritten.
type VersionConflictError struct {
	ProjectID      int
	PinnedFileID   int
	ResolvedFileID int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("project %d pinned to file %d, dependency resolution wants %d",
		e.ProjectID, e.PinnedFileID, e.ResolvedFileID)
}

// DuplicateEntryError reports an add colliding with an existing entry.
type DuplicateEntryError struct {
	ProjectID int
	Name      string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("project %d (%s) is already in the modpack", e.ProjectID, e.Name)
}

// ValidationError collects every manifest violation found in one pass.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest: %s", strings.Join(e.Violations, "; "))
}

// ArtifactError ties a download or assemble failure to the entry that
// caused it.
type ArtifactError struct {
	ProjectID int
	FileID    int
	FileName  string
	Err       error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s (project %d file %d): %v", e.FileName, e.ProjectID, e.FileID, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
