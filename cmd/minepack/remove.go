package main

import (
	"context"
	"flag"
	"log"
	"strconv"

	"github.com/google/subcommands"
)

type RemoveCommand struct{}

func (*RemoveCommand) Name() string     { return "remove" }
func (*RemoveCommand) Synopsis() string { return "remove mods from the modpack" }
func (*RemoveCommand) Usage() string {
	return `Usage: minepack remove REFERENCE...

	Removes entries from the descriptor by project ID or slug. Cached
	artifacts are kept; use clean to drop them.

Flags:
`
}

func (*RemoveCommand) SetFlags(fs *flag.FlagSet) {}

func (cmd *RemoveCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() == 0 {
		log.Printf("remove: missing reference")
		return subcommands.ExitUsageError
	}

	s, m, err := openStore()
	if err != nil {
		log.Printf("load manifest: %+v", err)
		return exitFailure
	}

	for _, arg := range fs.Args() {
		id, err := strconv.Atoi(arg)
		if err != nil {
			id = 0
			for _, e := range m.Entries {
				if e.Slug == arg {
					id = e.ProjectID
					break
				}
			}
		}
		e, err := s.RemoveEntry(m, id)
		if err != nil {
			log.Printf("remove %q: %+v", arg, err)
			return exitFailure
		}
		log.Printf("removed %s (project %d)", e.Slug, e.ProjectID)
	}
	return subcommands.ExitSuccess
}
