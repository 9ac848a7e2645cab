package normalize_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
)

func TestFold(t *testing.T) {
	n := normalize.New(normalize.DefaultTable())

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercases", "Berlin Hbf", "berlin hbf"},
		{"collapses whitespace", "  Berlin \t  Hbf \n", "berlin hbf"},
		{"composes decomposed umlauts", "München", "münchen"},
		{"keeps punctuation", "Frankfurt (Oder)", "frankfurt (oder)"},
		{"empty stays empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Fold(tt.raw))
		})
	}
}

func TestNormalize(t *testing.T) {
	n := normalize.New(normalize.DefaultTable())

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"expands hbf", "Berlin Hbf", "berlin hauptbahnhof"},
		{"expands bf", "Zoologischer Garten Bf", "zoologischer garten bahnhof"},
		{"whole words only", "Hbfstrasse", "hbfstrasse"},
		{"inside a word is untouched", "Bamberg", "bamberg"},
		{"hyphen is a boundary", "Bf-Nord", "bahnhof-nord"},
		{"parenthesis is a boundary", "Hamburg (Hamb)", "hamburg (hamburg)"},
		{"st before a dot", "St. Ingbert", "sankt. ingbert"},
		{"later rule wins for hp", "Haltepunkt Mitte", "haltepunkt mitte"},
		{"regional suffix", "Lauda (Württ)", "lauda (württemberg)"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizeSinglePass(t *testing.T) {
	// Each rule sees the output of the rules before it, never the ones after.
	table := normalize.NewTable(
		normalize.Abbreviation{Short: "x", Long: "y"},
		normalize.Abbreviation{Short: "y", Long: "z"},
	)
	n := normalize.New(table)
	assert.Equal(t, "z", n.Normalize("x"))

	reversed := normalize.New(normalize.NewTable(
		normalize.Abbreviation{Short: "y", Long: "z"},
		normalize.Abbreviation{Short: "x", Long: "y"},
	))
	assert.Equal(t, "y", reversed.Normalize("x"))
}

func TestNormalizeIdempotent(t *testing.T) {
	n := normalize.New(normalize.DefaultTable())

	names := []string{
		"Berlin Hbf",
		"Berlin Hauptbahnhof",
		"Hamburg-Altona",
		"Halle (Saale) Hp",
		"Stuttgart Nordbf",
		"Leipzig Str",
		"St. Ingbert",
		"Köln Messe/Deutz",
		"Bad Cannstatt S-Bahn",
		"Oberstdorf",
		"Frankfurt (Main) Südbf",
		"",
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			once := n.Normalize(name)
			assert.Equal(t, once, n.Normalize(once))
		})
	}
}

func TestNormalizeRepeatedOccurrences(t *testing.T) {
	n := normalize.New(normalize.NewTable(normalize.Abbreviation{Short: "b", Long: "berlin"}))
	assert.Equal(t, "berlin-berlin b1", n.Normalize("B-B B1"))
}

func TestWithDiacriticFolding(t *testing.T) {
	n := normalize.New(normalize.DefaultTable(), normalize.WithDiacriticFolding())

	assert.Equal(t, "munchen", n.Fold("München"))
	assert.Equal(t, "lauda (wurttemberg)", n.Normalize("Lauda (Württ)"))
	assert.Equal(t, "frankfurt suedbahnhof", n.Normalize("Frankfurt Südbf"))

	once := n.Normalize("Lauda (Württ)")
	assert.Equal(t, once, n.Normalize(once))
}

func TestStripParentheticals(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"leading qualifier", "(Oder) Frankfurt", "Frankfurt"},
		{"trailing qualifier", "Frankfurt (Oder)", "Frankfurt"},
		{"middle qualifier", "Frankfurt (Oder) Hbf", "Frankfurt Hbf"},
		{"square brackets", "Weil am Rhein [DB]", "Weil am Rhein"},
		{"no brackets", "Frankfurt", "Frankfurt"},
		{"unbalanced is kept", "Frankfurt (Oder", "Frankfurt (Oder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.StripParentheticals(tt.raw))
		})
	}
}

func TestHasBrackets(t *testing.T) {
	assert.True(t, normalize.HasBrackets("Frankfurt (Oder)"))
	assert.True(t, normalize.HasBrackets("Weil [DB]"))
	assert.False(t, normalize.HasBrackets("Frankfurt (Oder"))
	assert.False(t, normalize.HasBrackets("Frankfurt"))
}

func TestNewTable(t *testing.T) {
	table := normalize.NewTable(
		normalize.Abbreviation{Short: "HBF", Long: "Hauptbahnhof"},
		normalize.Abbreviation{Short: "bf", Long: "bahnhof"},
		normalize.Abbreviation{Short: "hbf", Long: "hbhf"},
		normalize.Abbreviation{Short: " ", Long: "ignored"},
	)

	assert.Equal(t, []normalize.Abbreviation{
		{Short: "hbf", Long: "hbhf"},
		{Short: "bf", Long: "bahnhof"},
	}, table.Entries())
	assert.Equal(t, 2, table.Len())

	entries := table.Entries()
	entries[0].Long = "mutated"
	assert.Equal(t, "hbhf", table.Entries()[0].Long)
}

func TestDefaultTable(t *testing.T) {
	table := normalize.DefaultTable()
	entries := table.Entries()
	require.NotEmpty(t, entries)

	assert.Equal(t, normalize.Abbreviation{Short: "hbf", Long: "hauptbahnhof"}, entries[0])

	seen := make(map[string]bool)
	for _, e := range entries {
		assert.False(t, seen[e.Short], "duplicate key %q", e.Short)
		seen[e.Short] = true
		if e.Short == "südbf" {
			assert.Equal(t, "suedbahnhof", e.Long)
		}
	}
}

func TestParseTable(t *testing.T) {
	t.Run("list form", func(t *testing.T) {
		table, err := normalize.ParseTable([]byte(`
abbreviations:
  - short: hbf
    long: hauptbahnhof
  - short: bf
    long: bahnhof
`))
		require.NoError(t, err)
		assert.Equal(t, []normalize.Abbreviation{
			{Short: "hbf", Long: "hauptbahnhof"},
			{Short: "bf", Long: "bahnhof"},
		}, table.Entries())
	})

	t.Run("mapping form keeps order", func(t *testing.T) {
		table, err := normalize.ParseTable([]byte(`
abbreviations:
  str: strasse
  hbf: hauptbahnhof
`))
		require.NoError(t, err)
		assert.Equal(t, []normalize.Abbreviation{
			{Short: "str", Long: "strasse"},
			{Short: "hbf", Long: "hauptbahnhof"},
		}, table.Entries())
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := normalize.ParseTable([]byte("abbreviations: [unclosed"))
		assert.Error(t, err)
	})
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abbreviations.yaml")
	require.NoError(t, os.WriteFile(path, []byte("abbreviations:\n  - short: pl\n    long: platz\n"), 0o644))

	table, err := normalize.LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = normalize.LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
