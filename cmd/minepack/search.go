package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/minepack/minepack/models"
)

type SearchCommand struct {
	Limit int
}

func (*SearchCommand) Name() string     { return "search" }
func (*SearchCommand) Synopsis() string { return "search the registry for mods" }
func (*SearchCommand) Usage() string {
	return `Usage: minepack search QUERY...

	Searches the registry for mods compatible with this modpack's
	minecraft version and loader.

Flags:
`
}

func (cmd *SearchCommand) SetFlags(fs *flag.FlagSet) {
	fs.IntVar(&cmd.Limit, "n", 10, "maximum results to print")
}

func (cmd *SearchCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() == 0 {
		log.Printf("search: missing query")
		return subcommands.ExitUsageError
	}
	query := strings.Join(fs.Args(), " ")

	_, m, err := openStore()
	if err != nil {
		log.Printf("load manifest: %+v", err)
		return exitFailure
	}
	cons := models.Constraints{
		MinecraftVersion: m.MinecraftVersion,
		Loader:           m.Loader,
	}

	reg := newRegistry()
	cands, err := reg.Search(ctx, query, cons)
	if err != nil {
		log.Printf("search %q: %+v", query, err)
		return failStatus(err)
	}
	if len(cands) == 0 {
		log.Printf("no results for %q (%s)", query, cons)
		return exitFailure
	}
	if len(cands) > cmd.Limit {
		cands = cands[:cmd.Limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tDOWNLOADS\tNAME")
	for _, c := range cands {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", c.ProjectID, c.Slug, c.DownloadCount, c.Name)
	}
	if err := w.Flush(); err != nil {
		log.Printf("flush output: %+v", err)
		return exitFailure
	}
	return subcommands.ExitSuccess
}
