package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"

	"github.com/minepack/minepack/models"
	"github.com/minepack/minepack/pack"
)

type InitCommand struct {
	PackName  string
	Version   string
	Author    string
	Loader    string
	LoaderVer string
	Minecraft string
}

func (*InitCommand) Name() string     { return "init" }
func (*InitCommand) Synopsis() string { return "create a modpack in the current directory" }
func (*InitCommand) Usage() string {
	return `Usage: minepack init -name NAME -mc VERSION -loader LOADER -loaderversion VERSION [flags]

	Writes a fresh ` + pack.DescriptorName + ` descriptor and scaffolds the
	mods and config directories. Refuses to touch a directory that already
	holds a descriptor.

Flags:
`
}

func (cmd *InitCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.PackName, "name", "", "pack name")
	fs.StringVar(&cmd.Version, "version", "0.1.0", "pack version")
	fs.StringVar(&cmd.Author, "author", "", "pack author")
	fs.StringVar(&cmd.Loader, "loader", "", "mod loader (forge, fabric, quilt, neoforge)")
	fs.StringVar(&cmd.LoaderVer, "loaderversion", "", "mod loader version")
	fs.StringVar(&cmd.Minecraft, "mc", "", "minecraft version")
}

func (cmd *InitCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if cmd.PackName == "" || cmd.Minecraft == "" || cmd.Loader == "" || cmd.LoaderVer == "" {
		log.Printf("init: -name, -mc, -loader and -loaderversion are required")
		return subcommands.ExitUsageError
	}
	loader, err := models.ParseLoader(cmd.Loader)
	if err != nil {
		log.Printf("init: %+v", err)
		return subcommands.ExitUsageError
	}

	author := cmd.Author
	if author == "" {
		author = os.Getenv("USER")
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Printf("getwd: %+v", err)
		return exitFailure
	}
	s := &pack.Store{Dir: wd}

	m := &models.Manifest{
		Name:             cmd.PackName,
		Version:          cmd.Version,
		Author:           author,
		Loader:           loader,
		LoaderVersion:    cmd.LoaderVer,
		MinecraftVersion: cmd.Minecraft,
	}
	if err := s.Init(m); err != nil {
		if errors.Is(err, models.ErrAlreadyInitialized) {
			log.Printf("init: %q already holds a modpack", wd)
		} else {
			log.Printf("init %q: %+v", wd, err)
		}
		return exitFailure
	}

	log.Printf("created %s for minecraft %s (%s %s)",
		pack.DescriptorName, m.MinecraftVersion, m.Loader, m.LoaderVersion)
	return subcommands.ExitSuccess
}
