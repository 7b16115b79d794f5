/**
 * Filename: /Users/htang/code/hicomp/cooler.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Tuesday, March 3rd 2020, 3:22:18 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// Cooler is a read-only handle to a balanced Hi-C contact matrix, stored as
// the tables that `cooler dump` writes:
//
// chroms.tsv   name    length
// bins.tsv     chrom   start   end     weight
// pixels.tsv   bin1_id bin2_id count
// info.tsv     key     value           (optional)
//
// Each table may be gzipped. Pixels hold the upper triangle only.
type Cooler struct {
	Path        string
	chroms      []Chrom
	chromIdx    map[string]int
	chromOffset []int // first bin of each chromosome, plus the bin count
	bins        *BinTable
	weights     []float64
	bin1Offset  []int // pixels of bin i are bin2[bin1Offset[i]:bin1Offset[i+1]]
	bin2        []int
	counts      []float64
	info        map[string]string
}

// findTable locates a table of the bundle, allowing compressed variants
func findTable(dir, name string, required bool) (string, error) {
	for _, ext := range []string{".tsv", ".tsv.gz", ".txt", ".txt.gz"} {
		filename := filepath.Join(dir, name+ext)
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
	}
	if required {
		return "", errors.Errorf("no %s table found in `%s`", name, dir)
	}
	return "", nil
}

// OpenCooler loads the matrix bundle at path
func OpenCooler(path string) (*Cooler, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open matrix `%s`", path)
	}
	if !st.IsDir() {
		return nil, errors.Errorf("matrix `%s` is not a directory of dumped tables", path)
	}
	log.Noticef("Parse matrix `%s`", path)

	r := &Cooler{Path: path, info: make(map[string]string)}
	if err := r.parseInfo(); err != nil {
		return nil, err
	}
	if err := r.parseChroms(); err != nil {
		return nil, err
	}
	if err := r.parseBins(); err != nil {
		return nil, err
	}
	if err := r.parsePixels(); err != nil {
		return nil, err
	}
	log.Noticef("Matrix contains %d chromosomes, %d bins and %d pixels",
		len(r.chroms), r.bins.Len(), len(r.counts))
	return r, nil
}

// parseInfo reads the optional key/value metadata
func (r *Cooler) parseInfo() error {
	filename, err := findTable(r.Path, "info", false)
	if err != nil || filename == "" {
		return err
	}
	t, err := ReadTable(filename)
	if err != nil {
		return err
	}
	rows := t.Rows
	if t.Header != nil {
		rows = append([][]string{t.Header}, rows...)
	}
	for _, row := range rows {
		if len(row) >= 2 {
			r.info[row[0]] = row[1]
		}
	}
	return nil
}

// parseChroms reads chromosome names and lengths
func (r *Cooler) parseChroms() error {
	filename, err := findTable(r.Path, "chroms", true)
	if err != nil {
		return err
	}
	t, err := ReadTable(filename)
	if err != nil {
		return err
	}
	r.chromIdx = make(map[string]int)
	for i, row := range t.Rows {
		if len(row) < 2 {
			return errors.Errorf("`%s` line %d: expected name and length", filename, i+1)
		}
		length, err := parseCoord(row[1])
		if err != nil {
			return errors.Wrapf(err, "`%s` line %d", filename, i+1)
		}
		if _, ok := r.chromIdx[row[0]]; ok {
			return errors.Errorf("`%s`: duplicate chromosome `%s`", filename, row[0])
		}
		r.chromIdx[row[0]] = len(r.chroms)
		r.chroms = append(r.chroms, Chrom{Name: row[0], Length: length})
	}
	return nil
}

// parseBins reads the bin table, which must follow chromosome order
func (r *Cooler) parseBins() error {
	filename, err := findTable(r.Path, "bins", true)
	if err != nil {
		return err
	}
	t, err := ReadTable(filename)
	if err != nil {
		return err
	}
	chromCol, startCol, endCol, weightCol := 0, 1, 2, 3
	if t.Header != nil {
		chromCol, startCol, endCol = t.ColumnIndex("chrom"), t.ColumnIndex("start"), t.ColumnIndex("end")
		weightCol = t.ColumnIndex("weight")
		if chromCol < 0 || startCol < 0 || endCol < 0 {
			return errors.Errorf("`%s` header must contain chrom, start and end", filename)
		}
	}

	r.bins = NewBinTable()
	r.chromOffset = make([]int, len(r.chroms)+1)
	prevChrom, prevEnd := -1, 0
	for i, row := range t.Rows {
		if len(row) <= endCol || len(row) <= chromCol || len(row) <= startCol {
			return errors.Errorf("`%s` line %d: too few columns", filename, i+1)
		}
		ci, ok := r.chromIdx[row[chromCol]]
		if !ok {
			return errors.Errorf("`%s` line %d: unknown chromosome `%s`", filename, i+1, row[chromCol])
		}
		start, err := parseCoord(row[startCol])
		if err != nil {
			return errors.Wrapf(err, "`%s` line %d", filename, i+1)
		}
		end, err := parseCoord(row[endCol])
		if err != nil {
			return errors.Wrapf(err, "`%s` line %d", filename, i+1)
		}
		if ci < prevChrom {
			return errors.Errorf("`%s` line %d: bins are not in chromosome order", filename, i+1)
		}
		for ci > prevChrom {
			prevChrom++
			r.chromOffset[prevChrom] = i
			prevEnd = 0
		}
		if start != prevEnd || end <= start || end > r.chroms[ci].Length {
			return errors.Errorf("`%s` line %d: bin %s:%d-%d is not contiguous", filename, i+1,
				row[chromCol], start, end)
		}
		prevEnd = end
		r.bins.Append(row[chromCol], start, end)

		weight := 1.0
		if weightCol >= 0 && weightCol < len(row) {
			if weight, err = parseValue(row[weightCol]); err != nil {
				return errors.Wrapf(err, "`%s` line %d", filename, i+1)
			}
		}
		r.weights = append(r.weights, weight)
	}
	for prevChrom < len(r.chroms) {
		prevChrom++
		r.chromOffset[prevChrom] = r.bins.Len()
	}
	return r.bins.AddColumn("weight", r.weights)
}

type pixel struct {
	bin1, bin2 int
	count      float64
}

// parsePixels reads the sparse upper triangle into a CSR index like
// indexes/bin1_offset of a cooler
func (r *Cooler) parsePixels() error {
	filename, err := findTable(r.Path, "pixels", true)
	if err != nil {
		return err
	}
	t, err := ReadTable(filename)
	if err != nil {
		return err
	}
	nbins := r.bins.Len()
	pixels := make([]pixel, 0, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) < 3 {
			return errors.Errorf("`%s` line %d: expected bin1_id, bin2_id and count", filename, i+1)
		}
		b1, err1 := strconv.Atoi(row[0])
		b2, err2 := strconv.Atoi(row[1])
		count, err3 := strconv.ParseFloat(row[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return errors.Errorf("`%s` line %d: malformed pixel", filename, i+1)
		}
		if b1 < 0 || b2 >= nbins || b1 > b2 {
			return errors.Errorf("`%s` line %d: pixel (%d, %d) outside the upper triangle of %d bins",
				filename, i+1, b1, b2, nbins)
		}
		pixels = append(pixels, pixel{b1, b2, count})
	}
	sort.Slice(pixels, func(i, j int) bool {
		if pixels[i].bin1 != pixels[j].bin1 {
			return pixels[i].bin1 < pixels[j].bin1
		}
		return pixels[i].bin2 < pixels[j].bin2
	})

	r.bin1Offset = make([]int, nbins+1)
	r.bin2 = make([]int, len(pixels))
	r.counts = make([]float64, len(pixels))
	for k, p := range pixels {
		r.bin1Offset[p.bin1+1]++
		r.bin2[k] = p.bin2
		r.counts[k] = p.count
	}
	for i := 0; i < nbins; i++ {
		r.bin1Offset[i+1] += r.bin1Offset[i]
	}
	return nil
}

// Bins returns a copy of the bin table, with the balancing weights
func (r *Cooler) Bins() *BinTable {
	return r.bins.Copy()
}

// NumBins returns the number of bins of the matrix
func (r *Cooler) NumBins() int {
	return r.bins.Len()
}

// Chroms returns the chromosome sizes in matrix order
func (r *Cooler) Chroms() []Chrom {
	return append([]Chrom(nil), r.chroms...)
}

// ChromNames lists the chromosome names in matrix order
func (r *Cooler) ChromNames() []string {
	names := make([]string, len(r.chroms))
	for i, c := range r.chroms {
		names[i] = c.Name
	}
	return names
}

// Offset returns the index of the first bin of the chromosome
func (r *Cooler) Offset(chrom string) (int, error) {
	ci, ok := r.chromIdx[chrom]
	if !ok {
		return 0, errors.Errorf("unknown chromosome `%s`", chrom)
	}
	return r.chromOffset[ci], nil
}

// Extent returns the bin range [lo, hi) overlapping the region
func (r *Cooler) Extent(region Region) (int, int, error) {
	ci, ok := r.chromIdx[region.Chrom]
	if !ok {
		return 0, 0, errors.Errorf("unknown chromosome `%s`", region.Chrom)
	}
	clo, chi := r.chromOffset[ci], r.chromOffset[ci+1]
	lo := clo + sort.Search(chi-clo, func(i int) bool { return r.bins.Ends[clo+i] > region.Start })
	hi := clo + sort.Search(chi-clo, func(i int) bool { return r.bins.Starts[clo+i] >= region.End })
	if hi < lo {
		hi = lo
	}
	return lo, hi, nil
}

// IgnoreDiags returns the number of diagonals masked during balancing
func (r *Cooler) IgnoreDiags() int {
	if v, ok := r.info["ignore_diags"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return DefaultIgnoreDiags
}

// BinSize returns the resolution of the matrix, 0 if bins are not uniform.
// The last bin of each chromosome may be shorter.
func (r *Cooler) BinSize() int {
	if v, ok := r.info["bin-size"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	size := 0
	for ci := range r.chroms {
		for i := r.chromOffset[ci]; i < r.chromOffset[ci+1]-1; i++ {
			w := r.bins.Ends[i] - r.bins.Starts[i]
			if size == 0 {
				size = w
			} else if w != size {
				return 0
			}
		}
	}
	if size == 0 && r.bins.Len() > 0 {
		size = r.bins.Ends[0] - r.bins.Starts[0]
	}
	return size
}

// Matrix fetches the dense symmetric block of bins [lo, hi). Balanced
// values are count * w_i * w_j, NaN where a weight is missing.
func (r *Cooler) Matrix(balance bool, lo, hi int) (*mat64.Dense, error) {
	if lo < 0 || hi > r.bins.Len() || lo >= hi {
		return nil, errors.Errorf("invalid bin range [%d, %d) for %d bins", lo, hi, r.bins.Len())
	}
	n := hi - lo
	A := mat64.NewDense(n, n, nil)
	if balance {
		for i := lo; i < hi; i++ {
			if math.IsNaN(r.weights[i]) {
				A.SetRow(i-lo, nanSlice(n))
				A.SetCol(i-lo, nanSlice(n))
			}
		}
	}
	for i := lo; i < hi; i++ {
		for k := r.bin1Offset[i]; k < r.bin1Offset[i+1]; k++ {
			j := r.bin2[k]
			if j >= hi {
				break
			}
			if j < lo {
				continue
			}
			v := r.counts[k]
			if balance {
				v *= r.weights[i] * r.weights[j]
			}
			A.Set(i-lo, j-lo, v)
			A.Set(j-lo, i-lo, v)
		}
	}
	return A, nil
}
