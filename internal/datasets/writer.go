package datasets

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

// ResultColumns are appended after the target and source columns.
var ResultColumns = []string{
	"match_type",
	"match_score",
	"match_subtype",
	"confidence",
	"explanation",
	"candidate_ids",
}

// OutputHeader returns the header of the combined output file.
func OutputHeader() []string {
	header := make([]string, 0, len(TargetColumns)+len(SourceColumns)+len(ResultColumns))
	header = append(header, TargetColumns...)
	for _, c := range SourceColumns {
		header = append(header, c+SourceSuffix)
	}
	return append(header, ResultColumns...)
}

// WriteResults writes one row per result. Target columns are left blank for
// unmatched results.
func WriteResults(path string, sources []stations.SourceRecord, targets []stations.TargetRecord, results []stations.Result) error {
	sourceByID := make(map[string]stations.SourceRecord, len(sources))
	for _, s := range sources {
		sourceByID[s.ID] = s
	}
	targetByID := make(map[string]stations.TargetRecord, len(targets))
	for _, t := range targets {
		if _, dup := targetByID[t.ID]; !dup {
			targetByID[t.ID] = t
		}
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := make([]string, 0, len(TargetColumns)+len(SourceColumns)+len(ResultColumns))
		if t, ok := targetByID[r.TargetID]; ok && r.Matched() {
			row = append(row, targetRow(t)...)
		} else {
			row = append(row, make([]string, len(TargetColumns))...)
		}

		s, ok := sourceByID[r.SourceID]
		if !ok {
			s = stations.SourceRecord{ID: r.SourceID}
		}
		row = append(row, sourceRow(s)...)
		row = append(row,
			string(r.Type),
			strconv.Itoa(r.Score),
			r.Subtype,
			stations.FormatFloat(r.Confidence),
			r.Explanation,
			strings.Join(r.CandidateIDs, " "),
		)
		rows = append(rows, row)
	}

	return writeCSV(path, OutputHeader(), rows)
}

// WriteUnmatched writes the source columns of every unmatched record,
// ordered by station name.
func WriteUnmatched(path string, sources []stations.SourceRecord, results []stations.Result) error {
	unmatched := make(map[string]bool)
	for _, r := range results {
		if !r.Matched() {
			unmatched[r.SourceID] = true
		}
	}

	var records []stations.SourceRecord
	for _, s := range sources {
		if unmatched[s.ID] {
			records = append(records, s)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RawName < records[j].RawName
	})

	rows := make([][]string, 0, len(records))
	for _, s := range records {
		rows = append(rows, sourceRow(s))
	}
	return writeCSV(path, SourceColumns, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = outputDelimiter
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}
