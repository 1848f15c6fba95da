package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akrylysov/pogreb"
	"github.com/akrylysov/pogreb/fs"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/subcommands"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"golang.org/x/term"

	"github.com/minepack/minepack/curse"
	"github.com/minepack/minepack/fetcher"
	"github.com/minepack/minepack/models"
	"github.com/minepack/minepack/pack"
)

// Exit codes expected by the shell layer: 1 for validation/build/user
// failures, 2 for registry/network failures.
const (
	exitFailure subcommands.ExitStatus = 1
	exitNetwork subcommands.ExitStatus = 2
)

func failStatus(err error) subcommands.ExitStatus {
	if errors.Is(err, models.ErrRegistryUnavailable) {
		return exitNetwork
	}
	return exitFailure
}

func openStore() (*pack.Store, *models.Manifest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	s := &pack.Store{Dir: wd}
	m, err := s.Load()
	if err != nil {
		return nil, nil, err
	}
	return s, m, nil
}

func newRegistry() *curse.Client {
	return curse.NewClient(curse.LoadConfig(), nil)
}

func cacheDir(p string) (string, error) {
	c, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, p), nil
}

func makeCache(p string) (string, error) {
	c, err := cacheDir(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(c, 0o700); err != nil {
		return "", err
	}
	return c, nil
}

// openFetcher wires the artifact cache. With nocache everything lives in
// memory and vanishes with the process.
func openFetcher(nocache bool) (*fetcher.Fetcher, func(), error) {
	var files billy.Filesystem
	var db *pogreb.DB
	if nocache {
		files = memfs.New()
		var err error
		// BUG pogreb.Open always calls os.MkdirAll
		db, err = pogreb.Open(".", &pogreb.Options{FileSystem: fs.Mem})
		if err != nil {
			return nil, nil, err
		}
	} else {
		cachePath, err := makeCache(programName)
		if err != nil {
			return nil, nil, err
		}
		files = osfs.New(cachePath)
		db, err = pogreb.Open(filepath.Join(cachePath, "db"), nil)
		if err != nil {
			return nil, nil, err
		}
	}
	dl := &fetcher.Fetcher{
		Files:    files,
		Database: db,
		Client:   http.DefaultClient,
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Printf("close cache db: %+v", err)
		}
	}
	return dl, closeDB, nil
}

func newDiagWr(p *hclparse.Parser) (diagWr hcl.DiagnosticWriter, color bool) {
	files := p.Files()
	stderr := os.Stderr
	fd := int(stderr.Fd())
	istty, color := fdinfo(fd)
	if !istty {
		return hcl.NewDiagnosticTextWriter(stderr, files, 80, color), color
	}
	var width uint = 80
	if w, _, err := term.GetSize(fd); err != nil {
		log.Printf("get term size: %+v", err)
	} else if w > 0 {
		width = uint(w)
	}
	return hcl.NewDiagnosticTextWriter(stderr, files, width, color), color
}

func fdinfo(fd int) (istty, color bool) {
	istty = term.IsTerminal(fd)
	if istty {
		color = true
	}
	// See https://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color = false
	}
	return
}
