/**
 * Filename: /Users/htang/code/hicomp/track.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Wednesday, March 4th 2020, 9:02:40 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TabularPath is a file path along with a column selector, written on the
// command line as `path::column`. The column is either a header name or a
// 0-based index, negative indices counting back from the last header column.
type TabularPath struct {
	Path    string
	Column  string
	Index   int
	ByIndex bool
}

// ParseTabularPath splits `path::column`, falling back to defaultIndex
func ParseTabularPath(s string, defaultIndex int) TabularPath {
	tp := TabularPath{Path: s, Index: defaultIndex, ByIndex: true}
	if i := strings.LastIndex(s, "::"); i >= 0 {
		tp.Path = s[:i]
		col := s[i+2:]
		if col == "" {
			return tp
		}
		if idx, err := strconv.Atoi(col); err == nil {
			tp.Index = idx
		} else {
			tp.Column = col
			tp.ByIndex = false
		}
	}
	return tp
}

// String prints the selector back in `path::column` form
func (tp TabularPath) String() string {
	if tp.ByIndex {
		return fmt.Sprintf("%s::%d", tp.Path, tp.Index)
	}
	return tp.Path + "::" + tp.Column
}

// Track is a one-dimensional genomic signal, such as GC content, used to
// orient eigenvectors
type Track struct {
	Path   string
	Name   string
	Chroms []string
	Starts []int
	Ends   []int
	Values []float64
}

// Len returns the number of intervals in the track
func (r *Track) Len() int {
	return len(r.Chroms)
}

// LoadReferenceTrack reads a bedGraph-like file, keeping chrom, start, end
// and the selected value column
func LoadReferenceTrack(tp TabularPath) (*Track, error) {
	log.Noticef("Parse reference track `%s`", tp)
	t, err := ReadTable(tp.Path)
	if err != nil {
		return nil, err
	}

	trackName := UnnamedTrack
	chromCol, startCol, endCol, valueCol := 0, 1, 2, tp.Index
	if t.Header == nil {
		if !tp.ByIndex {
			return nil, badParameter("reference-track",
				"No header found. Cannot find %q column without a header.", tp.Column)
		}
	} else {
		col := tp.Column
		if tp.ByIndex {
			idx := tp.Index
			if idx < 0 {
				idx += len(t.Header)
			}
			if idx < 0 || idx >= len(t.Header) {
				return nil, badParameter("reference-track",
					"Column #%d not compatible with header %q.", tp.Index, strings.Join(t.Header, ","))
			}
			col = t.Header[idx]
		} else if t.ColumnIndex(col) < 0 {
			return nil, badParameter("reference-track",
				"Column %q not found in header %q", col, strings.Join(t.Header, ","))
		}
		trackName = col
		chromCol, startCol, endCol = t.ColumnIndex("chrom"), t.ColumnIndex("start"), t.ColumnIndex("end")
		valueCol = t.ColumnIndex(col)
		if chromCol < 0 || startCol < 0 || endCol < 0 {
			return nil, errors.Errorf("header of `%s` must name the chrom, start and end columns", tp.Path)
		}
	}
	if valueCol < 0 {
		return nil, badParameter("reference-track", "Column #%d is not a valid column", valueCol)
	}

	track := &Track{Path: tp.Path, Name: trackName}
	for i, row := range t.Rows {
		if len(row) <= valueCol || len(row) <= endCol || len(row) <= chromCol || len(row) <= startCol {
			return nil, errors.Errorf("`%s` row %d has %d columns, column #%d requested",
				tp.Path, i+1, len(row), valueCol)
		}
		start, err := parseCoord(row[startCol])
		if err != nil {
			return nil, errors.Wrapf(err, "bad start in row %d of `%s`", i+1, tp.Path)
		}
		end, err := parseCoord(row[endCol])
		if err != nil {
			return nil, errors.Wrapf(err, "bad end in row %d of `%s`", i+1, tp.Path)
		}
		value, err := parseValue(row[valueCol])
		if err != nil {
			return nil, errors.Wrapf(err, "bad %s value in row %d of `%s`", trackName, i+1, tp.Path)
		}
		track.Chroms = append(track.Chroms, row[chromCol])
		track.Starts = append(track.Starts, start)
		track.Ends = append(track.Ends, end)
		track.Values = append(track.Values, value)
	}
	log.Noticef("Imported %d intervals of track `%s`", track.Len(), trackName)
	return track, nil
}

type binKey struct {
	chrom      string
	start, end int
}

// MergeTrack left-joins the track onto the matrix bins by (chrom, start,
// end). The result has exactly one row per bin, NaN where the track has no
// value. A track interval that is not a bin, or that appears twice, is an
// error since it would not line up with the matrix.
func MergeTrack(bins *BinTable, track *Track, matrixPath string) (*BinTable, error) {
	if bins.HasColumn(track.Name) {
		return nil, errors.Errorf("track column `%s` clashes with a bin table column", track.Name)
	}
	rowOf := make(map[binKey]int, bins.Len())
	for i := range bins.Chroms {
		rowOf[binKey{bins.Chroms[i], bins.Starts[i], bins.Ends[i]}] = i
	}

	values := nanSlice(bins.Len())
	seen := make([]bool, bins.Len())
	for i := range track.Chroms {
		key := binKey{track.Chroms[i], track.Starts[i], track.Ends[i]}
		row, ok := rowOf[key]
		if !ok {
			return nil, errors.Errorf("There is something in the %s that couldn't be merged with cooler-bins %s: "+
				"%s:%d-%d is not a bin", track.Path, matrixPath, key.chrom, key.start, key.end)
		}
		if seen[row] {
			return nil, errors.Errorf("There is something in the %s that couldn't be merged with cooler-bins %s: "+
				"%s:%d-%d appears more than once", track.Path, matrixPath, key.chrom, key.start, key.end)
		}
		seen[row] = true
		values[row] = track.Values[i]
	}

	merged := bins.Copy()
	if err := merged.AddColumn(track.Name, values); err != nil {
		return nil, err
	}
	if merged.Len() != bins.Len() {
		return nil, errors.Errorf("merged track has %d rows for %d bins", merged.Len(), bins.Len())
	}
	log.Noticef("Merged track `%s`: %d of %d bins carry a value", track.Name, track.Len(), bins.Len())
	return merged, nil
}
