package fuzzy

import (
	"sort"

	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

// Entry is one rankable target.
type Entry struct {
	TargetID string
	Name     string // display name as loaded
	Key      string // comparison form
}

// Pool is the immutable set of targets every query is ranked against.
type Pool struct {
	entries []Entry
}

// NewPool keys every target with fold and keeps those with a non-empty key,
// in input order.
func NewPool(targets []stations.TargetRecord, fold func(string) string) *Pool {
	entries := make([]Entry, 0, len(targets))
	for _, t := range targets {
		key := fold(t.Name)
		if key == "" {
			continue
		}
		entries = append(entries, Entry{TargetID: t.ID, Name: t.Name, Key: key})
	}
	return &Pool{entries: entries}
}

// NewPoolFromEntries builds a pool from prepared entries.
func NewPoolFromEntries(entries ...Entry) *Pool {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return &Pool{entries: out}
}

// Len returns the number of entries.
func (p *Pool) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the pool's entries.
func (p *Pool) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Rank scores query against every pool entry and returns the candidates
// best first. Equal scores keep pool order.
func Rank(query string, pool *Pool, scorer Scorer, method stations.Method) []stations.Candidate {
	if pool == nil || pool.Len() == 0 {
		return nil
	}
	if scorer == nil {
		scorer = TokenSortRatio
	}

	ranked := make([]stations.Candidate, len(pool.entries))
	for i, e := range pool.entries {
		ranked[i] = stations.Candidate{
			TargetID: e.TargetID,
			Name:     e.Name,
			Score:    scorer(query, e.Key),
			Method:   method,
		}
	}
	sortCandidates(ranked)
	return ranked
}

func sortCandidates(c []stations.Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].Score > c[j].Score
	})
}
