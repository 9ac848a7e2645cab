// Package datasets reads the station price list and the OSM station export
// and writes the reconciled output files.
package datasets

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/luisKisters/bahnhofjaeger/internal/utils/ptr"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
)

// Source columns of the price list, by position.
var SourceColumns = []string{
	"Index1",
	"Code",
	"Serviceeinrichtung",
	"Category",
	"State",
	"Price_SPNV",
	"Price_SPFV",
	"Bemerkung",
}

// Target columns copied to the combined output.
var TargetColumns = []string{
	"@id",
	"name",
	"@lat",
	"@lon",
	"railway",
	"public_transport",
}

// SourceSuffix marks source columns in the combined output.
const SourceSuffix = "_df0"

const (
	sourceDelimiter = ';'
	targetDelimiter = ','
	outputDelimiter = ';'

	// minSourceColumns covers id, code and name.
	minSourceColumns = 3
)

// LoadReport describes what loading a dataset kept and dropped.
type LoadReport struct {
	Path     string  `json:"path" yaml:"path"`
	Rows     int     `json:"rows" yaml:"rows"`
	Loaded   int     `json:"loaded" yaml:"loaded"`
	Skipped  int     `json:"skipped" yaml:"skipped"`
	Problems []error `json:"-" yaml:"-"`
}

func (r *LoadReport) skip(err error) {
	r.Skipped++
	r.Problems = append(r.Problems, err)
}

func openCSV(path string, delimiter rune) (*os.File, *csv.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewInputMissing(path, err)
	}
	r := csv.NewReader(f)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return f, r, nil
}

// readRow reads the next record. A parse error is returned with the 1-based
// line it occurred on.
func readRow(r *csv.Reader) ([]string, int, error) {
	record, err := r.Read()
	if err != nil {
		line := 0
		if pe, ok := err.(*csv.ParseError); ok {
			line = pe.Line
		}
		return nil, line, err
	}
	line, _ := r.FieldPos(0)
	return record, line, nil
}

func isEOF(err error) bool {
	return err == io.EOF
}

// ParsePrice reads a price such as "1.234,56 €" or "12.5". Blank and
// unparseable values yield nil.
func ParsePrice(raw string) *float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "EUR")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '€', ' ', ' ':
			return -1
		}
		return r
	}, s)
	if s == "" || s == "-" {
		return nil
	}

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Contains(s, ","):
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return ptr.To(v)
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "﻿")
}
