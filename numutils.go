/**
 * Filename: /Users/htang/code/hicomp/numutils.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Thursday, March 5th 2020, 10:16:03 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"math"
	"math/rand"
	"sort"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// zeroAtol is the absolute tolerance under which a pixel counts as zero
const zeroAtol = 1e-8

// setDiag sets the k-th diagonal of a square matrix to x, k < 0 below
func setDiag(A *mat64.Dense, x float64, k int) {
	N, _ := A.Dims()
	for i := 0; i < N; i++ {
		j := i + k
		if j >= 0 && j < N {
			A.Set(i, j, x)
		}
	}
}

// colSums returns the sum of every column
func colSums(A *mat64.Dense) []float64 {
	N, M := A.Dims()
	sums := make([]float64, M)
	for i := 0; i < N; i++ {
		floats.Add(sums, A.RawRowView(i))
	}
	return sums
}

// zeroRowCol zeroes out row and column i
func zeroRowCol(A *mat64.Dense, i int) {
	N, _ := A.Dims()
	for j := 0; j < N; j++ {
		A.Set(i, j, 0)
		A.Set(j, i, 0)
	}
}

// logbins returns unique integers between lo and hi, spaced so that the
// ratio of consecutive edges is about ratio
func logbins(lo, hi int, ratio float64) []int {
	if hi <= lo {
		return []int{lo}
	}
	n := int(math.Log(float64(hi)/float64(lo)) / math.Log(ratio))
	l0, l1 := math.Log10(float64(lo)), math.Log10(float64(hi))
	edges := []int{lo}
	for i := 1; i < n; i++ {
		v := l0 + (l1-l0)*float64(i)/float64(n-1)
		x := int(math.RoundToEven(math.Pow(10, v)))
		if x > edges[len(edges)-1] && x <= hi {
			edges = append(edges, x)
		}
	}
	if edges[len(edges)-1] != hi {
		edges = append(edges, hi)
	}
	return edges
}

// observedOverExpected divides every pixel by the mean of the valid pixels
// of its diagonal band, bands growing geometrically away from the main
// diagonal. A is modified in place.
func observedOverExpected(A *mat64.Dense, mask []bool) {
	N, _ := A.Dims()
	edges := append([]int{0}, logbins(1, N, DistBinEdgeRatio)...)
	valid := func(i, j int) bool {
		return mask == nil || (mask[i] && mask[j])
	}
	for b := 0; b+1 < len(edges); b++ {
		lo, hi := edges[b], edges[b+1]
		sum, n := 0.0, 0
		for offset := lo; offset < hi; offset++ {
			for j := 0; j < N-offset; j++ {
				if valid(offset+j, j) {
					sum += A.At(offset+j, j)
					n++
				}
			}
		}
		// empty bands stay at zero
		if n == 0 || sum == 0 {
			continue
		}
		expected := sum / float64(n)
		for offset := lo; offset < hi; offset++ {
			for j := 0; j < N-offset; j++ {
				if !valid(offset+j, j) {
					continue
				}
				A.Set(offset+j, j, A.At(offset+j, j)/expected)
				if offset > 0 {
					A.Set(j, offset+j, A.At(j, offset+j)/expected)
				}
			}
		}
	}
}

// percentile computes the q-th percentile with linear interpolation between
// the closest ranks
func percentile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// getEig returns the n eigenpairs of largest magnitude of a symmetric
// matrix, eigenvalues sorted by decreasing absolute value. Rows that are all
// zero are left out of the decomposition and get NaN in the eigenvectors.
func getEig(A *mat64.Dense, n int) ([][]float64, []float64, error) {
	N, _ := A.Dims()
	vecs := make([][]float64, n)
	for i := range vecs {
		vecs[i] = nanSlice(N)
	}
	vals := nanSlice(n)

	var idx []int
	for j := 0; j < N; j++ {
		for i := 0; i < N; i++ {
			if math.Abs(A.At(i, j)) > zeroAtol {
				idx = append(idx, j)
				break
			}
		}
	}
	m := len(idx)
	if m == 0 {
		return vecs, vals, nil
	}

	S := mat64.NewSymDense(m, nil)
	for a := 0; a < m; a++ {
		for b := a; b < m; b++ {
			S.SetSym(a, b, A.At(idx[a], idx[b]))
		}
	}
	var (
		M mat64.Dense
		e mat64.EigenSym
	)
	if ok := e.Factorize(S, true); !ok {
		return nil, nil, errors.New("eigen decomposition did not converge")
	}
	values := e.Values(nil)
	M.EigenvectorsSym(&e)

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(values[order[a]]) > math.Abs(values[order[b]])
	})
	k := n
	if m < k {
		k = m
	}
	for r := 0; r < k; r++ {
		c := order[r]
		vals[r] = values[c]
		for a, i := range idx {
			vecs[r][i] = M.At(a, c)
		}
	}
	return vecs, vals, nil
}

// scaleEigvecs normalizes each eigenvector to unit length, then weights it
// by the square root of the magnitude of its eigenvalue
func scaleEigvecs(vecs [][]float64, vals []float64) {
	for i, v := range vecs {
		ss := 0.0
		for _, x := range v {
			if !math.IsNaN(x) {
				ss += x * x
			}
		}
		floats.Scale(math.Sqrt(math.Abs(vals[i]))/math.Sqrt(ss), v)
	}
}

// iterativeCorrectionSymmetric balances a symmetric matrix so that all
// non-empty rows sum to the same value. A is modified in place.
func iterativeCorrectionSymmetric(A *mat64.Dense) (bias []float64, converged bool) {
	N, _ := A.Dims()
	bias = make([]float64, N)
	for i := range bias {
		bias[i] = 1
	}
	mask := make([]bool, N)
	for i := 0; i < N; i++ {
		mask[i] = floats.Sum(A.RawRowView(i)) == 0
	}

	s := make([]float64, N)
	for iter := 0; iter < ICMaxIter; iter++ {
		var marg []float64
		for i := 0; i < N; i++ {
			s[i] = floats.Sum(A.RawRowView(i))
			if !mask[i] {
				marg = append(marg, s[i])
			}
		}
		if len(marg) == 0 {
			return bias, true
		}
		mean := floats.Sum(marg) / float64(len(marg))
		for i := range s {
			if mask[i] {
				s[i] = 1
			} else {
				s[i] = (s[i]/mean-1)*0.8 + 1
			}
			bias[i] *= s[i]
		}
		for i := 0; i < N; i++ {
			row := A.RawRowView(i)
			for j := range row {
				row[j] /= s[i] * s[j]
			}
		}
		if v, _ := stats.PopulationVariance(s); v < ICTol {
			converged = true
			break
		}
	}

	var valid []float64
	for i, b := range bias {
		if !mask[i] {
			valid = append(valid, b)
		}
	}
	corr := floats.Sum(valid) / float64(len(valid))
	A.Scale(corr*corr, A)
	floats.Scale(1/corr, bias)
	return bias, converged
}

// Cell labels for fakeCis
const (
	cellTrans = 0
	cellCis   = 1
	cellBad   = 2
)

// fakeCis replaces every cis pixel by a trans pixel drawn at random from the
// same row or column, so that cis contacts carry no signal
func fakeCis(A *mat64.Dense, mask [][]uint8, rng *rand.Rand) {
	N, _ := A.Dims()
	hasTrans := make([]bool, N)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if mask[i][j] == cellTrans {
				hasTrans[i] = true
				break
			}
		}
	}
	for i := 0; i < N; i++ {
		for j := i; j < N; j++ {
			if mask[i][j] != cellCis || (!hasTrans[i] && !hasTrans[j]) {
				continue
			}
			for {
				s := rng.Intn(N)
				if rng.Intn(2) == 0 {
					if mask[i][s] == cellTrans {
						A.Set(i, j, A.At(i, s))
						A.Set(j, i, A.At(i, s))
						break
					}
				} else if mask[j][s] == cellTrans {
					A.Set(i, j, A.At(j, s))
					A.Set(j, i, A.At(j, s))
					break
				}
			}
		}
	}
}

// rankdata assigns ranks, ties get the average of their ranks
func rankdata(a []float64) []float64 {
	order := make([]int, len(a))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return a[order[i]] < a[order[j]] })
	ranks := make([]float64, len(a))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && a[order[j+1]] == a[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// pearsonr is the Pearson correlation, NaN when undefined
func pearsonr(x, y []float64) float64 {
	r, err := stats.Correlation(x, y)
	if err != nil {
		return math.NaN()
	}
	return r
}

// spearmanr is the Pearson correlation of the ranks
func spearmanr(x, y []float64) float64 {
	return pearsonr(rankdata(x), rankdata(y))
}

// variance is the population variance, NaN for an empty slice
func variance(a []float64) float64 {
	v, err := stats.PopulationVariance(a)
	if err != nil {
		return math.NaN()
	}
	return v
}

// median of the values, NaN for an empty slice
func median(a []float64) float64 {
	m, err := stats.Median(a)
	if err != nil {
		return math.NaN()
	}
	return m
}

// mad is the median absolute deviation from the median
func mad(a []float64) float64 {
	m := median(a)
	dev := make([]float64, len(a))
	for i, x := range a {
		dev[i] = math.Abs(x - m)
	}
	return median(dev)
}

// comed is the comedian correlation: the median of the product of
// deviations from the medians, normalized by both MADs
func comed(x, y []float64) float64 {
	mx, my := median(x), median(y)
	prod := make([]float64, len(x))
	for i := range x {
		prod[i] = (x[i] - mx) * (y[i] - my)
	}
	denom := mad(x) * mad(y)
	if denom == 0 {
		return 0
	}
	return median(prod) / denom
}
