// Package index provides an exact-key lookup over target station records.
package index

import "github.com/luisKisters/bahnhofjaeger/pkg/stations"

// KeyFunc derives the lookup key of a station name.
type KeyFunc func(name string) string

// Index maps a key to every target record that produced it. It is read-only
// after Build and safe for concurrent lookups.
type Index struct {
	keyFn   KeyFunc
	records []stations.TargetRecord
	byKey   map[string][]int
}

// Build indexes records by keyFn(record.Name). Records whose key is empty are
// not indexed. A nil keyFn indexes raw names.
func Build(records []stations.TargetRecord, keyFn KeyFunc) *Index {
	if keyFn == nil {
		keyFn = func(name string) string { return name }
	}

	idx := &Index{
		keyFn:   keyFn,
		records: make([]stations.TargetRecord, len(records)),
		byKey:   make(map[string][]int, len(records)),
	}
	copy(idx.records, records)

	for i, r := range idx.records {
		key := keyFn(r.Name)
		if key == "" {
			continue
		}
		idx.byKey[key] = append(idx.byKey[key], i)
	}
	return idx
}

// Lookup returns the records sharing key, in insertion order.
func (idx *Index) Lookup(key string) []stations.TargetRecord {
	positions := idx.byKey[key]
	if len(positions) == 0 {
		return nil
	}
	out := make([]stations.TargetRecord, len(positions))
	for i, p := range positions {
		out[i] = idx.records[p]
	}
	return out
}

// LookupName derives the key of name and looks it up.
func (idx *Index) LookupName(name string) []stations.TargetRecord {
	return idx.Lookup(idx.keyFn(name))
}

// Ambiguous reports whether more than one record shares key.
func (idx *Index) Ambiguous(key string) bool {
	return len(idx.byKey[key]) > 1
}

// Len returns the number of distinct keys.
func (idx *Index) Len() int {
	return len(idx.byKey)
}

// Records returns the number of indexed records.
func (idx *Index) Records() int {
	n := 0
	for _, positions := range idx.byKey {
		n += len(positions)
	}
	return n
}

// AmbiguousKeys returns every key shared by more than one record.
func (idx *Index) AmbiguousKeys() []string {
	var keys []string
	for key, positions := range idx.byKey {
		if len(positions) > 1 {
			keys = append(keys, key)
		}
	}
	return keys
}
