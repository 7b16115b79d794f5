/**
 * Filename: /Users/htang/code/hicomp/tabular.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Monday, March 2nd 2020, 2:05:47 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// sniffSampleRows is how many rows after the first are inspected for a header
const sniffSampleRows = 10

// Table holds the rows of a tab-separated file, with the header split off
// when one is detected
type Table struct {
	Filename string
	Header   []string // nil if the file has no header
	Rows     [][]string
}

// ReadTable parses a tab-separated file, gzipped or not, "-" for stdin.
// Empty lines and lines starting with '#' are skipped.
func ReadTable(filename string) (*Table, error) {
	fh, err := xopen.Ropen(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open `%s`", filename)
	}
	defer fh.Close()

	var rows [][]string
	for {
		row, err := fh.ReadString('\n')
		line := strings.TrimRight(row, "\r\n")
		if line != "" && !strings.HasPrefix(line, "#") {
			rows = append(rows, strings.Split(line, "\t"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read `%s`", filename)
		}
	}

	t := &Table{Filename: filename, Rows: rows}
	if SniffHeader(rows) {
		t.Header = rows[0]
		t.Rows = rows[1:]
	}
	return t, nil
}

// NumColumns returns the width of the table, error if rows are ragged
func (t *Table) NumColumns() (int, error) {
	width := len(t.Header)
	if width == 0 && len(t.Rows) > 0 {
		width = len(t.Rows[0])
	}
	for i, row := range t.Rows {
		if len(row) != width {
			return 0, errors.Errorf("`%s` row %d has %d columns, expected %d",
				t.Filename, i+1, len(row), width)
		}
	}
	return width, nil
}

// ColumnIndex returns the position of the named header column, -1 if absent
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

type fieldKind int

const (
	kindMissing fieldKind = iota
	kindInt
	kindFloat
	kindString
)

func kindOf(s string) fieldKind {
	if s == "" {
		return kindMissing
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return kindInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return kindFloat
	}
	return kindString
}

// SniffHeader guesses whether the first row is a header. Every column
// whose data rows agree on a type (or, for text, on a length) votes for a
// header when the first row disagrees with it.
func SniffHeader(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	first := rows[0]
	sample := rows[1:]
	if len(sample) > sniffSampleRows {
		sample = sample[:sniffSampleRows]
	}
	if len(sample) == 0 {
		for _, field := range first {
			if k := kindOf(field); k == kindInt || k == kindFloat {
				return false
			}
		}
		return true
	}

	votes := 0
	for i, head := range first {
		kind := kindMissing
		length := -1
		consistent := true
		for _, row := range sample {
			if len(row) != len(first) {
				continue
			}
			k := kindOf(row[i])
			if k == kindMissing {
				continue
			}
			if kind == kindMissing {
				kind = k
			} else if kind != k {
				consistent = false
				break
			}
			if k == kindString {
				if length == -1 {
					length = len(row[i])
				} else if length != len(row[i]) {
					length = -2
				}
			}
		}
		if !consistent || kind == kindMissing {
			continue
		}
		if kind == kindString {
			if length < 0 {
				continue
			}
			if len(head) != length {
				votes++
			} else {
				votes--
			}
			continue
		}
		if hk := kindOf(head); hk != kind && !(kind == kindFloat && hk == kindInt) {
			votes++
		} else {
			votes--
		}
	}
	return votes > 0
}

// parseValue reads a float field, with the usual spellings of missing data
func parseValue(s string) (float64, error) {
	switch strings.TrimSpace(s) {
	case "", ".", "NA", "nan", "NaN", "NAN":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parseCoord reads a genomic coordinate
func parseCoord(s string) (int, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return int(v), err
}

// formatValue writes NaN as an empty field
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
