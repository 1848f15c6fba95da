package models

import "testing"

func TestParseReference(t *testing.T) {
	cases := []struct {
		in   string
		want Reference
	}{
		{"238222", Reference{Kind: RefProjectID, ProjectID: 238222}},
		{" 42 ", Reference{Kind: RefProjectID, ProjectID: 42}},
		{"jei", Reference{Kind: RefSlug, Slug: "jei"}},
		{"fabric-api", Reference{Kind: RefSlug, Slug: "fabric-api"}},
		{"create_", Reference{Kind: RefSlug, Slug: "create_"}},
		{"Just Enough Items", Reference{Kind: RefQuery, Query: "Just Enough Items"}},
		// Non-positive numbers fall through to the slug charset.
		{"-17", Reference{Kind: RefSlug, Slug: "-17"}},
		{"0", Reference{Kind: RefSlug, Slug: "0"}},
		{
			"https://www.curseforge.com/minecraft/mc-mods/jei",
			Reference{Kind: RefProjectURL, Slug: "jei"},
		},
		{
			"https://curseforge.com/minecraft/mc-mods/fabric-api/",
			Reference{Kind: RefProjectURL, Slug: "fabric-api"},
		},
		{
			"https://www.curseforge.com/minecraft/mc-mods/jei/files/4712866",
			Reference{Kind: RefFileURL, Slug: "jei", FileID: 4712866},
		},
		// Unrecognized URLs degrade to queries.
		{
			"https://example.com/minecraft/mc-mods/jei",
			Reference{Kind: RefQuery, Query: "https://example.com/minecraft/mc-mods/jei"},
		},
		{
			"https://www.curseforge.com/minecraft/texture-packs/faithful",
			Reference{Kind: RefQuery, Query: "https://www.curseforge.com/minecraft/texture-packs/faithful"},
		},
		{
			"https://www.curseforge.com/minecraft/mc-mods/jei/files/zero",
			Reference{Kind: RefQuery, Query: "https://www.curseforge.com/minecraft/mc-mods/jei/files/zero"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := ParseReference(tc.in)
			if got != tc.want {
				t.Errorf("ParseReference(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseLoader(t *testing.T) {
	for _, s := range []string{"forge", "fabric", "quilt", "neoforge"} {
		if _, err := ParseLoader(s); err != nil {
			t.Errorf("ParseLoader(%q): %v", s, err)
		}
	}
	if _, err := ParseLoader("rift"); err == nil {
		t.Errorf("ParseLoader(%q): want error", "rift")
	}
}

func TestParseSide(t *testing.T) {
	got, err := ParseSide("")
	if err != nil {
		t.Fatalf("ParseSide(%q): %v", "", err)
	}
	if got != SideBoth {
		t.Errorf("ParseSide(%q) = %q, want %q", "", got, SideBoth)
	}
	if _, err := ParseSide("proxy"); err == nil {
		t.Errorf("ParseSide(%q): want error", "proxy")
	}
}
