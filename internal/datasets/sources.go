package datasets

import (
	"context"
	"fmt"
	"strings"

	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/logging"
	"github.com/luisKisters/bahnhofjaeger/pkg/stations"
)

// LoadSources reads the semicolon delimited price list. The header row is
// skipped and columns are read by position. Rows without an id or name
// column and rows repeating an id are skipped and reported.
func LoadSources(ctx context.Context, path string) ([]stations.SourceRecord, *LoadReport, error) {
	logger := logging.FromContext(ctx)

	f, r, err := openCSV(path, sourceDelimiter)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if _, _, err := readRow(r); err != nil {
		if isEOF(err) {
			return nil, nil, errors.NewInputMalformed(path, 0, "file is empty", err)
		}
		return nil, nil, errors.NewInputMalformed(path, 1, "unreadable header", err)
	}

	report := &LoadReport{Path: path}
	seen := make(map[string]bool)
	var records []stations.SourceRecord
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

		if len(row) < minSourceColumns {
			report.skip(errors.NewInputMalformed(path, line,
				fmt.Sprintf("expected at least %d columns, got %d", minSourceColumns, len(row)), nil))
			continue
		}

		record := sourceRecord(row)
		switch {
		case record.ID == "":
			report.skip(errors.NewInputMalformed(path, line, "missing Index1", nil))
			continue
		case seen[record.ID]:
			report.skip(errors.NewInputMalformed(path, line, fmt.Sprintf("duplicate Index1 %q", record.ID), nil))
			continue
		}
		seen[record.ID] = true
		records = append(records, record)
	}
	report.Loaded = len(records)

	for _, problem := range report.Problems {
		logger.Warn().Err(problem).Msg("Skipping source row")
	}
	logger.Info().
		Str("path", path).
		Int("rows", report.Rows).
		Int("loaded", report.Loaded).
		Int("skipped", report.Skipped).
		Msg("Loaded source stations")
	return records, report, nil
}

func sourceRecord(row []string) stations.SourceRecord {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return stations.SourceRecord{
		ID:                trimBOM(col(0)),
		Code:              col(1),
		RawName:           col(2),
		Category:          col(3),
		Region:            col(4),
		PriceRegional:     ParsePrice(col(5)),
		PriceLongDistance: ParsePrice(col(6)),
		Remark:            col(7),
	}
}

// sourceRow renders a record in column order.
func sourceRow(s stations.SourceRecord) []string {
	return []string{
		s.ID,
		s.Code,
		s.RawName,
		s.Category,
		s.Region,
		stations.FormatFloat(s.PriceRegional),
		stations.FormatFloat(s.PriceLongDistance),
		s.Remark,
	}
}
