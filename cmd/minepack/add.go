package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/google/subcommands"

	"github.com/minepack/minepack/models"
	"github.com/minepack/minepack/pack"
	"github.com/minepack/minepack/resolver"
)

type AddCommand struct {
	Yes      bool
	Replace  bool
	Optional bool
	NoDeps   bool
	Side     string
}

func (*AddCommand) Name() string     { return "add" }
func (*AddCommand) Synopsis() string { return "add mods to the modpack" }
func (*AddCommand) Usage() string {
	return `Usage: minepack add [flags] REFERENCE...

	Resolves each reference against the registry, pins the best matching
	file for this modpack's minecraft version and loader, and records it
	in the descriptor together with its required dependencies.

	A reference is a project ID, a slug, a project or file URL, or free
	text to search for.

Flags:
`
}

func (cmd *AddCommand) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.Yes, "yes", false, "pick the top match instead of failing on ambiguity")
	fs.BoolVar(&cmd.Replace, "replace", false, "replace entries that are already present")
	fs.BoolVar(&cmd.Optional, "optional", false, "mark the added mods as optional")
	fs.BoolVar(&cmd.NoDeps, "nodeps", false, "do not add required dependencies")
	fs.StringVar(&cmd.Side, "side", "", "restrict to a side (client, server)")
}

func (cmd *AddCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() == 0 {
		log.Printf("add: missing reference")
		return subcommands.ExitUsageError
	}
	side, err := models.ParseSide(cmd.Side)
	if err != nil {
		log.Printf("add: %+v", err)
		return subcommands.ExitUsageError
	}

	s, m, err := openStore()
	if err != nil {
		log.Printf("load manifest: %+v", err)
		return exitFailure
	}
	cons := models.Constraints{
		MinecraftVersion: m.MinecraftVersion,
		Loader:           m.Loader,
	}
	res := &resolver.Resolver{Registry: newRegistry()}

	for _, arg := range fs.Args() {
		if status := cmd.addOne(ctx, s, m, res, arg, cons, side); status != subcommands.ExitSuccess {
			return status
		}
	}
	return subcommands.ExitSuccess
}

func (cmd *AddCommand) addOne(ctx context.Context, s *pack.Store, m *models.Manifest, res *resolver.Resolver, arg string, cons models.Constraints, side models.Side) subcommands.ExitStatus {
	ref := models.ParseReference(arg)

	cand, err := res.Resolve(ctx, ref, cons)
	if err != nil {
		var amb *models.AmbiguousError
		switch {
		case errors.As(err, &amb) && cmd.Yes:
			cand = amb.Matches[0]
		case errors.As(err, &amb):
			log.Printf("add %q: %v, narrow the reference or pass -yes to take the first:", arg, amb)
			for _, c := range amb.Matches {
				log.Printf("  %d\t%s\t%s", c.ProjectID, c.Slug, c.Name)
			}
			return exitFailure
		default:
			log.Printf("add %q: %+v", arg, err)
			return failStatus(err)
		}
	}
	file := cand.Files[0]
	entry := resolver.Entry(cand, file, !cmd.Optional, side)

	entries := []models.Entry{entry}
	summaries := map[int]string{cand.ProjectID: cand.Summary}

	if !cmd.NoDeps {
		exp, err := res.Expand(ctx, file, cand.ProjectID, m.Pinned(), cons)
		if err != nil {
			log.Printf("expand %q: %+v", arg, err)
			return failStatus(err)
		}
		entries = append(entries, exp.Added...)
		for _, sk := range exp.Skipped {
			log.Printf("skipped %s dependency %d of project %d: %v",
				sk.Dependency.Relation, sk.Dependency.ProjectID, sk.Parent, sk.Reason)
		}
	}

	if err := s.AddEntries(m, entries, cmd.Replace); err != nil {
		log.Printf("add %q: %+v", arg, err)
		return exitFailure
	}
	for _, e := range entries {
		if err := s.WriteSidecar(e, summaries[e.ProjectID]); err != nil {
			log.Printf("write sidecar for %q: %+v", e.Slug, err)
			return exitFailure
		}
	}

	log.Printf("added %s %s (file %d)", cand.Slug, file.DisplayName, file.FileID)
	if n := len(entries) - 1; n > 0 {
		log.Printf("added %d dependencies of %s", n, cand.Slug)
	}
	return subcommands.ExitSuccess
}
