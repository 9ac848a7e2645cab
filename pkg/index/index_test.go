package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisKisters/bahnhofjaeger/pkg/index"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

func targets(names ...string) []stations.TargetRecord {
	out := make([]stations.TargetRecord, len(names))
	for i, name := range names {
		out[i] = stations.TargetRecord{ID: string(rune('a' + i)), Name: name}
	}
	return out
}

func TestBuildAndLookup(t *testing.T) {
	n := normalize.New(normalize.DefaultTable())
	idx := index.Build(targets("Berlin Hauptbahnhof", "Hamburg Hbf", "  "), n.Fold)

	hits := idx.Lookup("berlin hauptbahnhof")
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)

	hits = idx.LookupName("HAMBURG   hbf")
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)

	assert.Empty(t, idx.Lookup(""))
	assert.Empty(t, idx.Lookup("münchen hbf"))
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, idx.Records())
}

func TestAmbiguousKey(t *testing.T) {
	n := normalize.New(normalize.DefaultTable())
	idx := index.Build(targets("Neustadt", "Hamburg Hbf", "neustadt "), n.Fold)

	hits := idx.Lookup("neustadt")
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)

	assert.True(t, idx.Ambiguous("neustadt"))
	assert.False(t, idx.Ambiguous("hamburg hbf"))
	assert.False(t, idx.Ambiguous("missing"))
	assert.Equal(t, []string{"neustadt"}, idx.AmbiguousKeys())
}

func TestBuildCopiesRecords(t *testing.T) {
	records := targets("Köln Hbf")
	idx := index.Build(records, nil)

	records[0].ID = "changed"
	hits := idx.Lookup("Köln Hbf")
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}
