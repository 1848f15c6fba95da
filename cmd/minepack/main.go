package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"
)

const programName = "minepack"

func init() {
	log.SetFlags(0)
}

func main() {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.Bool("h", false, "alias for help")
	fs.Bool("help", false, "print usage")

	cdr := subcommands.NewCommander(fs, programName)
	cdr.Register(&InitCommand{}, "")
	cdr.Register(&SearchCommand{}, "")
	cdr.Register(&AddCommand{}, "")
	cdr.Register(&RemoveCommand{}, "")
	cdr.Register(&BuildCommand{}, "")
	cdr.Register(&ImportCommand{}, "")
	cdr.Register(&DownloadCommand{}, "")
	cdr.Register(&FormatCommand{}, "")
	cdr.Register(&CleanCommand{}, "")
	cdr.Register(cdr.HelpCommand(), "help")
	cdr.Register(cdr.FlagsCommand(), "help")
	cdr.Register(cdr.CommandsCommand(), "help")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	os.Exit(int(cdr.Execute(ctx)))
}
