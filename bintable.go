/**
 * Filename: /Users/htang/code/hicomp/bintable.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Tuesday, March 3rd 2020, 10:48:55 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"io"
	"sort"
	"strconv"

	"github.com/biogo/store/interval"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// BinTable is an ordered list of genomic bins with named float columns
// attached, e.g. balancing weights, a phasing track or eigenvectors
type BinTable struct {
	Chroms  []string
	Starts  []int
	Ends    []int
	columns []string
	values  map[string][]float64
	trees   map[string]*interval.IntTree
}

// binInterval is the IntTree payload, UID is the row index plus one
type binInterval struct {
	Start, End int
	UID        uintptr
}

// Overlap rule for half-open intervals
func (i binInterval) Overlap(b interval.IntRange) bool {
	return i.End > b.Start && i.Start < b.End
}

// ID returns the ID of the interval
func (i binInterval) ID() uintptr {
	return i.UID
}

// Range returns the range of the interval
func (i binInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.Start, End: i.End}
}

// NewBinTable allocates an empty table
func NewBinTable() *BinTable {
	return &BinTable{values: make(map[string][]float64)}
}

// Len returns the number of bins
func (t *BinTable) Len() int {
	return len(t.Chroms)
}

// Append adds a bin, columns get NaN for it
func (t *BinTable) Append(chrom string, start, end int) {
	t.Chroms = append(t.Chroms, chrom)
	t.Starts = append(t.Starts, start)
	t.Ends = append(t.Ends, end)
	for _, name := range t.columns {
		t.values[name] = append(t.values[name], nanSlice(1)...)
	}
	t.trees = nil
}

// AddColumn attaches a column, replacing any column with the same name
func (t *BinTable) AddColumn(name string, values []float64) error {
	if len(values) != t.Len() {
		return errors.Errorf("column `%s` has %d values for %d bins", name, len(values), t.Len())
	}
	if !t.HasColumn(name) {
		t.columns = append(t.columns, name)
	}
	t.values[name] = values
	return nil
}

// HasColumn checks if the named column exists
func (t *BinTable) HasColumn(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Column returns the values of the named column
func (t *BinTable) Column(name string) ([]float64, bool) {
	v, ok := t.values[name]
	return v, ok
}

// ColumnNames lists the value columns in insertion order
func (t *BinTable) ColumnNames() []string {
	return append([]string(nil), t.columns...)
}

// Coords returns a copy of the table holding only chrom, start and end
func (t *BinTable) Coords() *BinTable {
	c := NewBinTable()
	c.Chroms = append([]string(nil), t.Chroms...)
	c.Starts = append([]int(nil), t.Starts...)
	c.Ends = append([]int(nil), t.Ends...)
	return c
}

// Copy makes a deep copy of the table
func (t *BinTable) Copy() *BinTable {
	c := t.Coords()
	for _, name := range t.columns {
		c.columns = append(c.columns, name)
		c.values[name] = append([]float64(nil), t.values[name]...)
	}
	return c
}

// UniqueChroms lists the chromosomes in order of first appearance
func (t *BinTable) UniqueChroms() []string {
	seen := make(map[string]bool)
	var chroms []string
	for _, chrom := range t.Chroms {
		if !seen[chrom] {
			seen[chrom] = true
			chroms = append(chroms, chrom)
		}
	}
	return chroms
}

// buildTrees indexes the bins of every chromosome
func (t *BinTable) buildTrees() error {
	t.trees = make(map[string]*interval.IntTree)
	for i, chrom := range t.Chroms {
		tree, ok := t.trees[chrom]
		if !ok {
			tree = &interval.IntTree{}
			t.trees[chrom] = tree
		}
		bin := binInterval{Start: t.Starts[i], End: t.Ends[i], UID: uintptr(i + 1)}
		if err := tree.Insert(bin, true); err != nil {
			t.trees = nil
			return errors.Wrapf(err, "cannot index bin %s:%d-%d", chrom, t.Starts[i], t.Ends[i])
		}
	}
	for _, tree := range t.trees {
		tree.AdjustRanges()
	}
	return nil
}

// Select returns the sorted row indices of the bins overlapping the region
func (t *BinTable) Select(r Region) ([]int, error) {
	if t.trees == nil {
		if err := t.buildTrees(); err != nil {
			return nil, err
		}
	}
	tree, ok := t.trees[r.Chrom]
	if !ok {
		return nil, nil
	}
	hits := tree.Get(binInterval{Start: r.Start, End: r.End})
	idx := make([]int, len(hits))
	for i, hit := range hits {
		idx[i] = int(hit.ID()) - 1
	}
	sort.Ints(idx)
	return idx, nil
}

// WriteTSV serializes the table with a header line, NaN as empty fields
func (t *BinTable) WriteTSV(w io.Writer) error {
	tw := tsv.NewWriter(w)
	header := append([]string{"chrom", "start", "end"}, t.columns...)
	for _, name := range header {
		tw.WriteString(name)
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i := range t.Chroms {
		tw.WriteString(t.Chroms[i])
		tw.WriteString(strconv.Itoa(t.Starts[i]))
		tw.WriteString(strconv.Itoa(t.Ends[i]))
		for _, name := range t.columns {
			tw.WriteString(formatValue(t.values[name][i]))
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// EigvalTable holds eigenvalues, one row per analysed region. Regions is
// nil for genome-wide (trans) analysis, which yields a single row.
type EigvalTable struct {
	Regions []Region
	Columns []string
	Values  [][]float64
}

// WriteTSV serializes the eigenvalue table with a header line
func (t *EigvalTable) WriteTSV(w io.Writer) error {
	tw := tsv.NewWriter(w)
	var header []string
	if t.Regions != nil {
		header = []string{"chrom", "start", "end", "name"}
	}
	header = append(header, t.Columns...)
	for _, name := range header {
		tw.WriteString(name)
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i, row := range t.Values {
		if t.Regions != nil {
			r := t.Regions[i]
			tw.WriteString(r.Chrom)
			tw.WriteString(strconv.Itoa(r.Start))
			tw.WriteString(strconv.Itoa(r.End))
			tw.WriteString(r.Name)
		}
		for _, v := range row {
			tw.WriteString(formatValue(v))
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
