package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/google/subcommands"

	"github.com/minepack/minepack/fetcher"
	"github.com/minepack/minepack/models"
)

type DownloadCommand struct {
	Workers int
}

func (*DownloadCommand) Name() string     { return "download" }
func (*DownloadCommand) Synopsis() string { return "fetch all artifacts into the cache" }
func (*DownloadCommand) Usage() string {
	return `Usage: minepack download

	Fetches every artifact of the modpack into the cache so a later
	build does not hit the network. Artifacts already cached with
	matching checksums are skipped.

Flags:
`
}

func (cmd *DownloadCommand) SetFlags(fs *flag.FlagSet) {
	fs.IntVar(&cmd.Workers, "jobs", 0, "concurrent downloads (0 for default)")
}

func (cmd *DownloadCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	_, m, err := openStore()
	if err != nil {
		log.Printf("load manifest: %+v", err)
		return exitFailure
	}

	dl, closeDB, err := openFetcher(false)
	if err != nil {
		log.Printf("open cache: %+v", err)
		return exitFailure
	}
	defer closeDB()

	reg := newRegistry()

	reqs := make([]fetcher.Request, 0, len(m.Entries))
	for _, e := range m.Entries {
		rawurl := e.DownloadURL
		if u, err := reg.DownloadURL(ctx, e.ProjectID, e.FileID); err == nil {
			rawurl = u
		} else if errors.Is(err, models.ErrRegistryUnavailable) && rawurl == "" {
			log.Printf("resolve %q: %+v", e.FileName, err)
			return exitNetwork
		}
		reqs = append(reqs, fetcher.Request{Entry: e, URL: rawurl})
	}

	errs, err := dl.FetchAll(ctx, reqs, cmd.Workers)
	if err != nil {
		log.Printf("download: %+v", err)
		return exitFailure
	}

	failed := 0
	for i, ferr := range errs {
		if ferr == nil {
			continue
		}
		failed++
		log.Printf("fetch %q: %+v", reqs[i].Entry.FileName, ferr)
	}
	if failed > 0 {
		log.Printf("download: %d of %d artifacts failed", failed, len(reqs))
		return exitNetwork
	}
	log.Printf("cached %d artifacts", len(reqs))
	return subcommands.ExitSuccess
}
