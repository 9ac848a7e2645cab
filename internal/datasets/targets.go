package datasets

import (
	"context"
	"strconv"
	"strings"

	"github.com/luisKisters/bahnhofjaeger/internal/utils/ptr"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/logging"
	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

// LoadTargets reads the comma delimited OSM export. Columns are found by
// header; "@id" and "name" are required. Columns other than the known ones
// are kept as tags.
func LoadTargets(ctx context.Context, path string) ([]stations.TargetRecord, *LoadReport, error) {
	logger := logging.FromContext(ctx)

	f, r, err := openCSV(path, targetDelimiter)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	header, _, err := readRow(r)
	if err != nil {
		if isEOF(err) {
			return nil, nil, errors.NewInputMalformed(path, 0, "file is empty", err)
		}
		return nil, nil, errors.NewInputMalformed(path, 1, "unreadable header", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(trimBOM(name))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
		header[i] = name
	}
	for _, required := range []string{"@id", "name"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, errors.NewInputMalformed(path, 1, "missing column "+required, nil)
		}
	}

	known := make(map[int]bool, len(TargetColumns))
	for _, name := range TargetColumns {
		if i, ok := columns[name]; ok {
			known[i] = true
		}
	}

	report := &LoadReport{Path: path}
	var records []stations.TargetRecord
	for {
		row, line, err := readRow(r)
		if isEOF(err) {
			break
		}
		report.Rows++
		if err != nil {
			report.skip(errors.NewInputMalformed(path, line, "unreadable row", err))
			continue
		}

		col := func(name string) string {
			if i, ok := columns[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		record := stations.TargetRecord{
			ID:              col("@id"),
			Name:            col("name"),
			Lat:             parseCoordinate(col("@lat")),
			Lon:             parseCoordinate(col("@lon")),
			Railway:         col("railway"),
			PublicTransport: col("public_transport"),
		}
		if record.ID == "" {
			report.skip(errors.NewInputMalformed(path, line, "missing @id", nil))
			continue
		}
		for i, value := range row {
			if known[i] || i >= len(header) || header[i] == "" {
				continue
			}
			if value = strings.TrimSpace(value); value != "" {
				record.Tags = append(record.Tags, stations.Tag{Key: header[i], Value: value})
			}
		}
		records = append(records, record)
	}
	report.Loaded = len(records)

	for _, problem := range report.Problems {
		logger.Warn().Err(problem).Msg("Skipping target row")
	}
	logger.Info().
		Str("path", path).
		Int("rows", report.Rows).
		Int("loaded", report.Loaded).
		Int("skipped", report.Skipped).
		Msg("Loaded target stations")
	return records, report, nil
}

func parseCoordinate(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return ptr.To(v)
}

// targetRow renders the output columns of a target.
func targetRow(t stations.TargetRecord) []string {
	return []string{
		t.ID,
		t.Name,
		stations.FormatFloat(t.Lat),
		stations.FormatFloat(t.Lon),
		t.Railway,
		t.PublicTransport,
	}
}
