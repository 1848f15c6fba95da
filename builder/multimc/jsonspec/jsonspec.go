// Package jsonspec declares the MultiMC pack descriptor schema
// (mmc-pack.json) and the external mod index this builder emits.
package jsonspec

type Pack struct {
	FormatVersion int         `json:"formatVersion"`
	Components    []Component `json:"components"`
}

type Component struct {
	UID     string `json:"uid"`
	Version string `json:"version"`
}

// ModIndex lists the pack's mods as external downloads. MultiMC packages
// never embed mod bytes; this document is what a sync tool consumes to
// populate the mods directory.
type ModIndex struct {
	Mods []Mod `json:"mods"`
}

type Mod struct {
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	ProjectID   int    `json:"projectID"`
	FileID      int    `json:"fileID"`
	DownloadURL string `json:"downloadUrl"`
	Sha1        string `json:"sha1,omitempty"`
	Required    bool   `json:"required"`
}
