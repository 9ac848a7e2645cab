package normalize

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
)

// Abbreviation maps a short form to the text that replaces it.
type Abbreviation struct {
	Short string `json:"short" yaml:"short"`
	Long  string `json:"long" yaml:"long"`
}

// Table is an ordered, immutable abbreviation table. Expansion walks it once,
// front to back, so the order of entries is part of its meaning.
type Table struct {
	entries []Abbreviation
}

// NewTable builds a table from pairs. Keys and values are folded to the
// comparison form. A repeated key keeps the position of its first occurrence
// and the value of its last one; pairs with an empty key are dropped.
func NewTable(pairs ...Abbreviation) Table {
	return newTable(pairs, fold)
}

func newTable(pairs []Abbreviation, canon func(string) string) Table {
	entries := make([]Abbreviation, 0, len(pairs))
	position := make(map[string]int, len(pairs))
	for _, p := range pairs {
		short := canon(p.Short)
		if short == "" {
			continue
		}
		long := canon(p.Long)
		if i, ok := position[short]; ok {
			entries[i].Long = long
			continue
		}
		position[short] = len(entries)
		entries = append(entries, Abbreviation{Short: short, Long: long})
	}
	return Table{entries: entries}
}

// Entries returns a copy of the table's entries in expansion order.
func (t Table) Entries() []Abbreviation {
	out := make([]Abbreviation, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t Table) Len() int {
	return len(t.entries)
}

// DefaultTable returns the German station abbreviation table.
//
// Some pairs expand and collapse the same tokens (hp/haltepunkt,
// sbahn/s-bahn). Under a single pass the later rule wins, which keeps the
// result stable when normalizing twice.
func DefaultTable() Table {
	return NewTable(
		Abbreviation{"hbf", "hauptbahnhof"},
		Abbreviation{"bf", "bahnhof"},
		Abbreviation{"haltepunkt", "hp"},
		Abbreviation{"hp", "haltepunkt"},
		Abbreviation{"s-bahn", "sbahn"},
		Abbreviation{"sbahn", "s-bahn"},
		Abbreviation{"ostbf", "ostbahnhof"},
		Abbreviation{"westbf", "westbahnhof"},
		Abbreviation{"nordbf", "nordbahnhof"},
		Abbreviation{"südbf", "südbahnhof"},
		Abbreviation{"südbf", "suedbahnhof"},
		Abbreviation{"sudbf", "suedbahnhof"},
		Abbreviation{"str", "strasse"},
		Abbreviation{"str.", "strasse"},
		Abbreviation{"straße", "strasse"},
		Abbreviation{"pl", "platz"},
		Abbreviation{"pl.", "platz"},
		Abbreviation{"st", "sankt"},
		Abbreviation{"st.", "sankt"},
		// Regional suffixes that mostly appear in parentheses
		Abbreviation{"han", "hannover"},
		Abbreviation{"b", "berlin"},
		Abbreviation{"hamb", "hamburg"},
		Abbreviation{"bay", "bayern"},
		Abbreviation{"nrw", "nordrhein-westfalen"},
		Abbreviation{"württ", "württemberg"},
		Abbreviation{"wrtt", "württemberg"},
		Abbreviation{"sachs", "sachsen"},
		Abbreviation{"oberbay", "oberbayern"},
		Abbreviation{"westf", "westfalen"},
		Abbreviation{"oberhess", "oberhessen"},
		Abbreviation{"dillkr", "dillkreis"},
		Abbreviation{"westerw", "westerwald"},
		Abbreviation{"vogtl", "vogtland"},
		Abbreviation{"holst", "holstein"},
	)
}

// tableFile is the on-disk layout of an abbreviation table.
type tableFile struct {
	Abbreviations []Abbreviation `yaml:"abbreviations"`
}

// orderedTableFile accepts the short form `abbreviations: {hbf: hauptbahnhof}`.
type orderedTableFile struct {
	Abbreviations yaml.MapSlice `yaml:"abbreviations"`
}

// ParseTable decodes a YAML abbreviation table. Both a list of
// {short, long} entries and an ordered mapping are accepted.
func ParseTable(data []byte) (Table, error) {
	var shape struct {
		Abbreviations any `yaml:"abbreviations"`
	}
	if err := yaml.Unmarshal(data, &shape); err != nil {
		return Table{}, errors.WrapParse("yaml", "", err)
	}

	switch shape.Abbreviations.(type) {
	case nil:
		return NewTable(), nil
	case []any:
		var list tableFile
		if err := yaml.Unmarshal(data, &list); err != nil {
			return Table{}, errors.WrapParse("yaml", "", err)
		}
		return NewTable(list.Abbreviations...), nil
	}

	var ordered orderedTableFile
	if err := yaml.Unmarshal(data, &ordered); err != nil {
		return Table{}, errors.WrapParse("yaml", "", err)
	}
	pairs := make([]Abbreviation, 0, len(ordered.Abbreviations))
	for _, item := range ordered.Abbreviations {
		short, ok := item.Key.(string)
		if !ok {
			return Table{}, errors.NewValidationError("abbreviations", item.Key, "keys must be strings")
		}
		long, ok := item.Value.(string)
		if !ok {
			return Table{}, errors.NewValidationError(short, item.Value, "values must be strings")
		}
		pairs = append(pairs, Abbreviation{Short: short, Long: long})
	}
	return NewTable(pairs...), nil
}

// LoadTable reads a YAML abbreviation table from path.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, errors.WrapIO("read", path, err)
	}
	table, err := ParseTable(data)
	if err != nil {
		return Table{}, errors.WrapResource("load", "abbreviation table", path, err)
	}
	return table, nil
}
