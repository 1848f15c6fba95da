package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"

	"github.com/minepack/minepack/builder"
	"github.com/minepack/minepack/models"
)

type BuildCommand struct {
	Format  string
	Output  string
	NoCache bool
	Workers int
}

func (*BuildCommand) Name() string     { return "build" }
func (*BuildCommand) Synopsis() string { return "build the modpack archive" }
func (*BuildCommand) Usage() string {
	return `Usage: minepack build [-format FORMAT]

	Validates the descriptor, refreshes download URLs, fetches missing
	artifacts into the cache and assembles the archive under build/.

	Formats: multimc (default), curseforge, modrinth, standalone.

Flags:
`
}

func (cmd *BuildCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.Format, "format", "multimc", "output format")
	fs.StringVar(&cmd.Output, "o", "", "output archive path (default under build/)")
	fs.BoolVar(&cmd.NoCache, "nocache", false, "fetch artifacts into memory instead of the cache")
	fs.IntVar(&cmd.Workers, "jobs", 0, "concurrent downloads (0 for default)")
}

func (cmd *BuildCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	format, err := builder.ParseFormat(cmd.Format)
	if err != nil {
		log.Printf("build: %+v", err)
		return subcommands.ExitUsageError
	}

	s, m, err := openStore()
	if err != nil {
		log.Printf("load manifest: %+v", err)
		return exitFailure
	}

	dl, closeDB, err := openFetcher(cmd.NoCache)
	if err != nil {
		log.Printf("open cache: %+v", err)
		return exitFailure
	}
	defer closeDB()

	p := &builder.Pipeline{
		Registry: newRegistry(),
		Fetcher:  dl,
		Workers:  cmd.Workers,
	}
	res, err := p.Run(ctx, m, s.Dir, format)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			log.Printf("build: invalid descriptor:")
			for _, v := range verr.Violations {
				log.Printf("  %s", v)
			}
			return exitFailure
		}
		log.Printf("build: %+v", err)
		return failStatus(err)
	}

	for _, w := range res.Warnings {
		log.Printf("warning: %s", w)
	}
	out := res.OutputPath
	if cmd.Output != "" {
		if err := os.Rename(res.OutputPath, cmd.Output); err != nil {
			log.Printf("move %q: %+v", cmd.Output, err)
			return exitFailure
		}
		out = cmd.Output
	}
	log.Printf("wrote %s", out)
	return subcommands.ExitSuccess
}
