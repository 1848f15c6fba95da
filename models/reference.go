package models

import (
	"net/url"
	"strconv"
	"strings"
)

// RefKind tags the recognized shapes of a loose mod reference.
type RefKind int

const (
	// RefQuery is free text for the registry search capability.
	RefQuery RefKind = iota
	// RefProjectID is a bare numeric project ID.
	RefProjectID
	// RefSlug is a project slug, e.g. "jei".
	RefSlug
	// RefProjectURL is a project page URL without an explicit file.
	RefProjectURL
	// RefFileURL is a project page URL with an explicit file ID.
	RefFileURL
)

// Reference is a parsed mod reference. Exactly the fields implied by Kind
// are set.
type Reference struct {
	Kind RefKind

	Query     string
	Slug      string
	ProjectID int
	FileID    int
}

// ParseReference classifies a loose user reference into one of the tagged
// reference kinds. It never fails: anything unrecognized is a search query.
func ParseReference(s string) Reference {
	s = strings.TrimSpace(s)

	if id, err := strconv.Atoi(s); err == nil && id > 0 {
		return Reference{Kind: RefProjectID, ProjectID: id}
	}

	if ref, ok := parseProjectURL(s); ok {
		return ref
	}

	if isSlug(s) {
		return Reference{Kind: RefSlug, Slug: s}
	}

	return Reference{Kind: RefQuery, Query: s}
}

// parseProjectURL recognizes CurseForge project page URLs of the form
// https://www.curseforge.com/minecraft/mc-mods/<slug>[/files/<fileID>].
func parseProjectURL(s string) (Reference, bool) {
	if !strings.Contains(s, "://") {
		return Reference{}, false
	}
	u, err := url.Parse(s)
	if err != nil {
		return Reference{}, false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host != "curseforge.com" {
		return Reference{}, false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// minecraft/mc-mods/<slug>[/files/<fileID>]
	if len(parts) < 3 || parts[0] != "minecraft" || parts[1] != "mc-mods" {
		return Reference{}, false
	}
	slug := parts[2]
	if !isSlug(slug) {
		return Reference{}, false
	}
	if len(parts) >= 5 && parts[3] == "files" {
		id, err := strconv.Atoi(parts[4])
		if err != nil || id <= 0 {
			return Reference{}, false
		}
		return Reference{Kind: RefFileURL, Slug: slug, FileID: id}, true
	}
	return Reference{Kind: RefProjectURL, Slug: slug}, true
}

func isSlug(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
