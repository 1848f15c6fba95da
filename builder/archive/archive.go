// Package archive implements the standalone embedding format: a plain
// zip containing every artifact plus overrides.
package archive

import (
	"archive/zip"
	"io"
	"log"
	"path"

	"github.com/minepack/minepack/fetcher"
	"github.com/minepack/minepack/models"
)

type Builder struct {
	dl   *fetcher.Fetcher
	pack *zip.Writer
}

func New(dl *fetcher.Fetcher, w *zip.Writer) *Builder {
	return &Builder{dl: dl, pack: w}
}

// Add embeds the cached artifact bytes under mods/. The cache must
// already hold a verified copy; there is no degradation path here.
func (b *Builder) Add(e models.Entry) error {
	src, err := b.dl.Open(e)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Printf("close %q: %+v", e.FileName, cerr)
		}
	}()
	return b.addReader(path.Join("mods", e.FileName), src)
}

func (b *Builder) AddOverride(name string, r io.Reader) error {
	return b.addReader(name, r)
}

func (b *Builder) addReader(name string, r io.Reader) error {
	w, err := b.pack.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

func (b *Builder) Close() error {
	return nil
}
