// Package hclspec declares the HCL shape of the pack descriptor.
package hclspec

type Descriptor struct {
	Pack Pack  `hcl:"pack,block"`
	Mods []Mod `hcl:"mod,block"`
}

type Pack struct {
	Name        string `hcl:"name"`
	Version     string `hcl:"version"`
	Author      string `hcl:"author,optional"`
	Description string `hcl:"description,optional"`

	Loader           string `hcl:"loader"`
	LoaderVersion    string `hcl:"loaderVersion"`
	MinecraftVersion string `hcl:"minecraftVersion"`
}

type Mod struct {
	Slug string `hcl:"slug,label"`

	Name      string `hcl:"name,optional"`
	ProjectID int    `hcl:"projectID"`
	FileID    int    `hcl:"fileID"`

	FileName    string `hcl:"fileName"`
	DownloadURL string `hcl:"downloadURL,optional"`
	Sha1        string `hcl:"sha1,optional"`
	FileSize    int64  `hcl:"fileSize,optional"`

	// Optional inverts the required flag so that the zero value of the
	// attribute keeps the common case (required mods) out of the file.
	Optional bool   `hcl:"optional,optional"`
	Side     string `hcl:"side,optional"`
}
