// Package builder compiles a manifest snapshot and cached artifact bytes
// into a distributable archive.
package builder

import (
	"fmt"
	"io"

	"github.com/minepack/minepack/models"
)

// Builder is the shared emit contract implemented by every format
// adapter. Add is called once per entry in manifest order; AddOverride
// streams an overrides file into the package; Close writes the
// target-specific metadata document and must be called exactly once.
type Builder interface {
	Add(e models.Entry) error
	AddOverride(name string, r io.Reader) error
	Close() error
}

// Format selects the target launcher ecosystem.
type Format string

const (
	FormatMultiMC    Format = "multimc"
	FormatCurseForge Format = "curseforge"
	FormatModrinth   Format = "modrinth"
	// FormatStandalone embeds every artifact into a plain archive. It is
	// the only format that requires bytes for all entries.
	FormatStandalone Format = "standalone"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMultiMC, FormatCurseForge, FormatModrinth, FormatStandalone:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnknownFormat, s)
}

// Embeds reports whether the format refuses to degrade a missing artifact
// to an external-link record.
func (f Format) Embeds() bool {
	return f == FormatStandalone
}

// Ext is the output archive extension for the format.
func (f Format) Ext() string {
	if f == FormatModrinth {
		return ".mrpack"
	}
	return ".zip"
}

// Label names the format in output file names.
func (f Format) Label() string {
	switch f {
	case FormatMultiMC:
		return "MultiMC"
	case FormatCurseForge:
		return "CurseForge"
	case FormatStandalone:
		return "Standalone"
	}
	return ""
}
