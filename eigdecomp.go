/**
 * Filename: /Users/htang/code/hicomp/eigdecomp.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Thursday, March 5th 2020, 4:47:29 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// EigOptions controls the eigen decomposition of contact matrices
type EigOptions struct {
	NEigs          int
	PhasingTrack   string  // bin table column used to orient eigenvectors, "" for none
	IgnoreDiags    int     // diagonals to ignore in cis, < 0 to use the matrix metadata
	ClipPercentile float64 // cis O/E clipping, disabled unless in (0, 100)
	SortMetric     string  // re-sort eigenvectors by this correlation, "" to keep the order
	OELog          bool    // log2 O/E instead of O/E - 1
	PercTop        float64 // trans blowout clipping
	PercBottom     float64 // trans low coverage filter
	Seed           int64
	BadBins        []int // bin ids masked in cis on top of balancing, e.g. known translocations
}

// DefaultEigOptions returns the options used by call-compartments
func DefaultEigOptions() EigOptions {
	return EigOptions{
		NEigs:          DefaultNEigs,
		IgnoreDiags:    -1,
		ClipPercentile: DefaultClipPercentile,
		PercTop:        DefaultPercTop,
		PercBottom:     DefaultPercBottom,
		Seed:           DefaultSeed,
	}
}

// nanEigs is the result for matrices too small to decompose
func nanEigs(n, N int) ([]float64, [][]float64) {
	vecs := make([][]float64, n)
	for i := range vecs {
		vecs[i] = nanSlice(N)
	}
	return nanSlice(n), vecs
}

// finiteCopy copies A, replacing NaN and Inf by 0
func finiteCopy(A *mat64.Dense) *mat64.Dense {
	B := mat64.DenseCopyOf(A)
	N, M := B.Dims()
	for i := 0; i < N; i++ {
		row := B.RawRowView(i)
		for j := 0; j < M; j++ {
			if !isFinite(row[j]) {
				row[j] = 0
			}
		}
	}
	return B
}

// CisEig computes compartment eigenvectors of a dense intra-chromosomal
// matrix. The amplitude of every eigenvector is weighted by its eigenvalue.
// When phasing is given, eigenvectors are flipped to correlate positively
// with it.
func CisEig(A *mat64.Dense, phasing []float64, opts EigOptions) ([]float64, [][]float64, error) {
	N, M := A.Dims()
	if N != M {
		return nil, nil, errors.Errorf("matrix is not square (%d x %d)", N, M)
	}
	ignoreDiags := opts.IgnoreDiags
	if ignoreDiags < 0 {
		ignoreDiags = DefaultIgnoreDiags
	}
	A = finiteCopy(A)
	mask := make([]bool, N)
	nValid := 0
	for j, s := range colSums(A) {
		if s > 0 {
			mask[j] = true
			nValid++
		}
	}
	if N <= ignoreDiags+3 || nValid <= ignoreDiags+3 {
		vals, vecs := nanEigs(opts.NEigs, N)
		return vals, vecs, nil
	}

	for d := -ignoreDiags + 1; d < ignoreDiags; d++ {
		setDiag(A, 1.0, d)
	}
	observedOverExpected(A, mask)

	if opts.ClipPercentile > 0 && opts.ClipPercentile < 100 {
		var valid []float64
		for i := 0; i < N; i++ {
			if !mask[i] {
				continue
			}
			for j := 0; j < N; j++ {
				if mask[j] {
					valid = append(valid, A.At(i, j))
				}
			}
		}
		hi := percentile(valid, opts.ClipPercentile)
		for i := 0; i < N; i++ {
			row := A.RawRowView(i)
			for j := range row {
				row[j] = math.Max(0, math.Min(row[j], hi))
			}
		}
	}

	for i := 0; i < N; i++ {
		row := A.RawRowView(i)
		for j := range row {
			switch {
			case !mask[i] || !mask[j]:
				row[j] = 0
			case opts.OELog:
				row[j] = math.Log2(row[j])
			default:
				row[j]--
			}
		}
	}

	vecs, vals, err := getEig(A, opts.NEigs)
	if err != nil {
		return nil, nil, err
	}
	scaleEigvecs(vecs, vals)

	if phasing != nil {
		if vals, vecs, err = phaseEigs(vals, vecs, phasing, opts.SortMetric); err != nil {
			return nil, nil, err
		}
	}
	return vals, vecs, nil
}

// checkPartition validates bin offsets of contiguous blocks, e.g. chromosomes
func checkPartition(partition []int, nBins int) error {
	ok := len(partition) >= 2 && partition[0] == 0 && partition[len(partition)-1] == nBins
	for i := 1; ok && i < len(partition); i++ {
		ok = partition[i] > partition[i-1]
	}
	if !ok {
		return errors.Errorf("Not a valid partition. Must be a monotonic sequence from 0 to %d.", nBins)
	}
	return nil
}

// TransEig computes compartment eigenvectors on inter-chromosomal contacts
// of a whole-genome matrix. Cis blocks, given by the partition offsets, are
// replaced by random trans values before balancing.
func TransEig(A *mat64.Dense, partition []int, phasing []float64, opts EigOptions) ([]float64, [][]float64, error) {
	N, M := A.Dims()
	if N != M {
		return nil, nil, errors.New("A is not symmetric")
	}
	if err := checkPartition(partition, N); err != nil {
		return nil, nil, err
	}
	A = finiteCopy(A)

	partID := make([]int, N)
	for p := 0; p+1 < len(partition); p++ {
		for i := partition[p]; i < partition[p+1]; i++ {
			partID[i] = p
			for j := partition[p]; j < partition[p+1]; j++ {
				A.Set(i, j, 0)
			}
		}
	}
	isTrans := func(i, j int) bool { return partID[i] != partID[j] }

	good := goodBins(A)
	filterHeatmap(A, good, isTrans, opts.PercTop, opts.PercBottom)
	good = goodBins(A)

	rng := rand.New(rand.NewSource(opts.Seed))
	for round := 0; round < 2; round++ {
		fakeCis(A, cisMask(A, isTrans), rng)
		iterativeCorrectionSymmetric(A)
	}

	var sum float64
	var n int
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if good[i] && good[j] {
				sum += A.At(i, j)
				n++
			}
		}
	}
	if n == 0 {
		vals, vecs := nanEigs(opts.NEigs, N)
		return vals, vecs, nil
	}
	mean := sum / float64(n)
	for i := 0; i < N; i++ {
		row := A.RawRowView(i)
		for j := range row {
			if good[i] && good[j] {
				row[j] = (row[j] - mean) / mean
			} else {
				row[j] = 0
			}
		}
	}

	vecs, vals, err := getEig(A, opts.NEigs)
	if err != nil {
		return nil, nil, err
	}
	scaleEigvecs(vecs, vals)
	if phasing != nil {
		if vals, vecs, err = phaseEigs(vals, vecs, phasing, opts.SortMetric); err != nil {
			return nil, nil, err
		}
	}
	return vals, vecs, nil
}

// goodBins zeroes the rows and columns without any contacts and returns
// which bins are left
func goodBins(A *mat64.Dense) []bool {
	sums := colSums(A)
	good := make([]bool, len(sums))
	for i, s := range sums {
		good[i] = s != 0
		if !good[i] {
			zeroRowCol(A, i)
		}
	}
	return good
}

// filterHeatmap truncates trans blowouts above the percTop percentile, then
// removes bins whose coverage is under the percBottom percentile
func filterHeatmap(A *mat64.Dense, good []bool, isTrans func(i, j int) bool, percTop, percBottom float64) {
	N, _ := A.Dims()
	var trans []float64
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if good[i] && good[j] && isTrans(i, j) {
				trans = append(trans, A.At(i, j))
			}
		}
	}
	if len(trans) == 0 {
		return
	}
	lim := percentile(trans, percTop)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if good[i] && good[j] && isTrans(i, j) && A.At(i, j) > lim {
				A.Set(i, j, lim)
			}
		}
	}

	marg := colSums(A)
	var nonzero []float64
	for _, m := range marg {
		if m > 0 {
			nonzero = append(nonzero, m)
		}
	}
	minCutoff := percentile(nonzero, percBottom)
	for i, m := range marg {
		if m > 0 && m < minCutoff {
			zeroRowCol(A, i)
		}
	}
}

// cisMask labels pixels as cis, trans, or bad when a bin has no coverage
func cisMask(A *mat64.Dense, isTrans func(i, j int) bool) [][]uint8 {
	N, _ := A.Dims()
	empty := make([]bool, N)
	for j, s := range colSums(A) {
		empty[j] = math.Abs(s) <= 1e-10
	}
	mask := make([][]uint8, N)
	for i := range mask {
		mask[i] = make([]uint8, N)
		for j := range mask[i] {
			switch {
			case empty[i] || empty[j]:
				mask[i][j] = cellBad
			case isTrans(i, j):
				mask[i][j] = cellTrans
			default:
				mask[i][j] = cellCis
			}
		}
	}
	return mask
}

// phaseEigs flips eigenvectors to correlate positively with the phasing
// track. With a sort metric, eigenpairs are also re-sorted by decreasing
// absolute correlation.
func phaseEigs(vals []float64, vecs [][]float64, phasing []float64, metric string) ([]float64, [][]float64, error) {
	if metric != "" && !contains(SortMetrics, metric) {
		return nil, nil, errors.Errorf("Unknown sorting metric: %s", metric)
	}
	corrs := make([]float64, len(vecs))
	for i, vec := range vecs {
		var x, y []float64
		for k := range vec {
			if isFinite(vec[k]) && k < len(phasing) && isFinite(phasing[k]) {
				x = append(x, phasing[k])
				y = append(y, vec[k])
			}
		}
		var corr float64
		switch metric {
		case "", "spearmanr":
			corr = spearmanr(x, y)
		case "pearsonr":
			corr = pearsonr(x, y)
		case "var_explained":
			r := pearsonr(x, y)
			corr = sign(r) * r * r * variance(y)
		case "MAD_explained":
			corr = comed(x, y) * mad(y)
		}
		corrs[i] = corr
	}

	for i, vec := range vecs {
		if s := sign(corrs[i]); s < 0 {
			for k := range vec {
				vec[k] = -vec[k]
			}
		}
	}

	if metric != "" {
		order := make([]int, len(vecs))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return sortKey(corrs[order[a]]) > sortKey(corrs[order[b]])
		})
		sortedVals := make([]float64, len(vals))
		sortedVecs := make([][]float64, len(vecs))
		for r, c := range order {
			sortedVals[r] = vals[c]
			sortedVecs[r] = vecs[c]
		}
		vals, vecs = sortedVals, sortedVecs
	}
	return vals, vecs, nil
}

// sortKey ranks a correlation by magnitude, NaN last
func sortKey(corr float64) float64 {
	if math.IsNaN(corr) {
		return math.Inf(-1)
	}
	return math.Abs(corr)
}

// eigColumns names the eigenvector (E1..) or eigenvalue (eigval1..) columns
func eigColumns(prefix string, n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return cols
}

// phasingColumn fetches the phasing track from the bin table, if requested
func phasingColumn(bins *BinTable, name string) ([]float64, error) {
	if name == "" {
		return nil, nil
	}
	track, ok := bins.Column(name)
	if !ok {
		return nil, errors.Errorf("No column %q in the bin table", name)
	}
	return track, nil
}

// CoolerCisEig computes compartment eigenvectors in every region, or in
// every chromosome of the bin table when regions is nil. It returns the
// eigenvalues per region and the bin table extended with E1..En, NaN
// outside the regions.
func CoolerCisEig(clr *Cooler, bins *BinTable, regions []Region, opts EigOptions) (*EigvalTable, *BinTable, error) {
	if bins.Len() != clr.NumBins() {
		return nil, nil, errors.Errorf("bin table has %d rows, matrix has %d bins", bins.Len(), clr.NumBins())
	}
	var err error
	if regions == nil {
		if regions, err = WholeChromRegions(bins.UniqueChroms(), clr.Chroms()); err != nil {
			return nil, nil, err
		}
	}
	track, err := phasingColumn(bins, opts.PhasingTrack)
	if err != nil {
		return nil, nil, err
	}
	if opts.IgnoreDiags < 0 {
		opts.IgnoreDiags = clr.IgnoreDiags()
	}

	eigvecTable := bins.Copy()
	eigvecCols := eigColumns("E", opts.NEigs)
	eigvecs := make([][]float64, opts.NEigs)
	for i, col := range eigvecCols {
		eigvecs[i] = nanSlice(bins.Len())
		if err := eigvecTable.AddColumn(col, eigvecs[i]); err != nil {
			return nil, nil, err
		}
	}
	eigvalTable := &EigvalTable{
		Regions: regions,
		Columns: eigColumns("eigval", opts.NEigs),
		Values:  make([][]float64, len(regions)),
	}

	for ri, region := range regions {
		eigvalTable.Values[ri] = nanSlice(opts.NEigs)
		log.Debugf("Now doing region %s", region)
		lo, hi, err := clr.Extent(region)
		if err != nil {
			return nil, nil, err
		}
		if hi <= lo {
			log.Warningf("Region %s contains no bins", region)
			continue
		}
		rows, err := eigvecTable.Select(region)
		if err != nil {
			return nil, nil, err
		}
		if len(rows) != hi-lo {
			return nil, nil, errors.Errorf("region %s selects %d bins in the table, %d in the matrix",
				region, len(rows), hi-lo)
		}
		A, err := clr.Matrix(true, lo, hi)
		if err != nil {
			return nil, nil, err
		}
		for _, b := range opts.BadBins {
			if b >= lo && b < hi {
				A.SetRow(b-lo, nanSlice(hi-lo))
				A.SetCol(b-lo, nanSlice(hi-lo))
			}
		}
		var phasing []float64
		if track != nil {
			phasing = make([]float64, len(rows))
			for k, row := range rows {
				phasing[k] = track[row]
			}
		}
		vals, vecs, err := CisEig(A, phasing, opts)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "region %s", region)
		}
		for e := range vecs {
			for k, row := range rows {
				eigvecs[e][row] = vecs[e][k]
			}
		}
		eigvalTable.Values[ri] = vals
	}
	return eigvalTable, eigvecTable, nil
}

// CoolerTransEig computes genome-wide compartment eigenvectors from trans
// contacts, partitioned by chromosome
func CoolerTransEig(clr *Cooler, bins *BinTable, opts EigOptions) (*EigvalTable, *BinTable, error) {
	n := clr.NumBins()
	if bins.Len() != n {
		return nil, nil, errors.Errorf("bin table has %d rows, matrix has %d bins", bins.Len(), n)
	}
	var partition []int
	for _, chrom := range clr.ChromNames() {
		offset, err := clr.Offset(chrom)
		if err != nil {
			return nil, nil, err
		}
		// chromosomes without bins would repeat the previous offset
		if offset < n && (len(partition) == 0 || offset > partition[len(partition)-1]) {
			partition = append(partition, offset)
		}
	}
	partition = append(partition, n)

	track, err := phasingColumn(bins, opts.PhasingTrack)
	if err != nil {
		return nil, nil, err
	}
	A, err := clr.Matrix(true, 0, n)
	if err != nil {
		return nil, nil, err
	}
	log.Noticef("Decompose genome-wide matrix of %d bins over %d chromosomes", n, len(partition)-1)
	vals, vecs, err := TransEig(A, partition, track, opts)
	if err != nil {
		return nil, nil, err
	}

	eigvecTable := bins.Copy()
	for i, col := range eigColumns("E", opts.NEigs) {
		if err := eigvecTable.AddColumn(col, vecs[i]); err != nil {
			return nil, nil, err
		}
	}
	eigvalTable := &EigvalTable{
		Columns: eigColumns("eigval", opts.NEigs),
		Values:  [][]float64{vals},
	}
	return eigvalTable, eigvecTable, nil
}
