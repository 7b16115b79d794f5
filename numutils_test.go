/*
 *  numutils_test.go
 *  hicomp
 *
 *  Created by Haibao Tang on 03/10/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package hicomp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	data := []float64{4, 1, 3, 2}
	assert.InDelta(t, 2.5, percentile(data, 50), 1e-12)
	assert.InDelta(t, 1.0, percentile(data, 0), 1e-12)
	assert.InDelta(t, 4.0, percentile(data, 100), 1e-12)
	assert.InDelta(t, 3.7, percentile(data, 90), 1e-12)
	assert.True(t, math.IsNaN(percentile(nil, 50)))
	assert.Equal(t, []float64{4, 1, 3, 2}, data, "input must not be reordered")
}

func TestRankdata(t *testing.T) {
	assert.Equal(t, []float64{2, 3.5, 3.5, 1}, rankdata([]float64{10, 20, 20, 5}))
	assert.Equal(t, []float64{1, 2, 3}, rankdata([]float64{-1, 0, 7}))
}

func TestCorrelations(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, pearsonr(x, []float64{2, 4, 6, 8, 10}), 1e-12)
	assert.InDelta(t, -1.0, pearsonr(x, []float64{5, 4, 3, 2, 1}), 1e-12)
	assert.InDelta(t, 1.0, spearmanr(x, []float64{1, 4, 9, 16, 25}), 1e-12)
	assert.True(t, math.IsNaN(pearsonr(nil, nil)))
}

func TestMADAndComed(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, median(x))
	assert.Equal(t, 1.0, mad(x))
	assert.Equal(t, 2.0, variance(x))
	assert.True(t, math.IsNaN(variance(nil)))
	assert.InDelta(t, 1.0, comed(x, x), 1e-12)
	assert.Equal(t, 0.0, comed(x, []float64{1, 1, 1, 1, 1}))
}

func TestLogbins(t *testing.T) {
	edges := logbins(1, 1000, DistBinEdgeRatio)
	require.NotEmpty(t, edges)
	assert.Equal(t, 1, edges[0])
	assert.Equal(t, 1000, edges[len(edges)-1])
	for i := 1; i < len(edges); i++ {
		assert.True(t, edges[i] > edges[i-1], "edges must increase")
		ratio := float64(edges[i]) / float64(edges[i-1])
		assert.True(t, ratio < 2.01, "edges %d -> %d grow too fast", edges[i-1], edges[i])
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, logbins(1, 6, DistBinEdgeRatio))
	assert.Equal(t, []int{5}, logbins(5, 5, DistBinEdgeRatio))
}

func TestObservedOverExpectedToeplitz(t *testing.T) {
	N := 6
	A := mat64.NewDense(N, N, nil)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			A.Set(i, j, 10/float64(absInt(i-j)+1))
		}
	}
	observedOverExpected(A, nil)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			assert.InDelta(t, 1.0, A.At(i, j), 1e-12)
		}
	}
}

func TestObservedOverExpectedIgnoresMasked(t *testing.T) {
	A := mat64.NewDense(3, 3, []float64{
		2, 4, 1,
		4, 2, 8,
		1, 8, 2,
	})
	mask := []bool{true, true, false}
	observedOverExpected(A, mask)
	// diagonal 1 only counts the (0, 1) pixel
	assert.InDelta(t, 1.0, A.At(0, 1), 1e-12)
	assert.InDelta(t, 8.0, A.At(1, 2), 1e-12)
	assert.InDelta(t, 2.0, A.At(2, 2), 1e-12)
}

func TestGetEig(t *testing.T) {
	A := mat64.NewDense(4, 4, nil)
	A.Set(0, 0, 3)
	A.Set(2, 2, -5)
	A.Set(3, 3, 1)
	vecs, vals, err := getEig(A, 2)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.InDelta(t, -5.0, vals[0], 1e-10)
	assert.InDelta(t, 3.0, vals[1], 1e-10)

	assert.True(t, math.IsNaN(vecs[0][1]), "empty bin gets NaN")
	assert.InDelta(t, 1.0, math.Abs(vecs[0][2]), 1e-10)
	assert.InDelta(t, 0.0, vecs[0][0], 1e-10)
	assert.InDelta(t, 1.0, math.Abs(vecs[1][0]), 1e-10)
}

func TestGetEigMoreEigsThanBins(t *testing.T) {
	A := mat64.NewDense(2, 2, []float64{2, 0, 0, 0})
	vecs, vals, err := getEig(A, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, vals[0], 1e-10)
	assert.True(t, math.IsNaN(vals[1]))
	assert.True(t, math.IsNaN(vals[2]))
	assert.True(t, math.IsNaN(vecs[2][0]))
}

func TestScaleEigvecs(t *testing.T) {
	vecs := [][]float64{{3, math.NaN(), 4}}
	scaleEigvecs(vecs, []float64{-4})
	assert.InDelta(t, 1.2, vecs[0][0], 1e-12)
	assert.True(t, math.IsNaN(vecs[0][1]))
	assert.InDelta(t, 1.6, vecs[0][2], 1e-12)
}

func TestIterativeCorrectionSymmetric(t *testing.T) {
	A := mat64.NewDense(4, 4, []float64{
		4, 2, 1, 0,
		2, 3, 1, 0,
		1, 1, 2, 0,
		0, 0, 0, 0,
	})
	bias, converged := iterativeCorrectionSymmetric(A)
	assert.True(t, converged)
	require.Len(t, bias, 4)
	sums := []float64{
		floats.Sum(A.RawRowView(0)),
		floats.Sum(A.RawRowView(1)),
		floats.Sum(A.RawRowView(2)),
	}
	for _, s := range sums[1:] {
		assert.InEpsilon(t, sums[0], s, 1e-2)
	}
	assert.Equal(t, 0.0, floats.Sum(A.RawRowView(3)))
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, A.At(i, j), A.At(j, i), 1e-12)
		}
	}
}

func TestFakeCis(t *testing.T) {
	A := mat64.NewDense(4, 4, []float64{
		0, 0, 1, 2,
		0, 0, 3, 4,
		1, 3, 0, 0,
		2, 4, 0, 0,
	})
	partID := []int{0, 0, 1, 1}
	isTrans := func(i, j int) bool { return partID[i] != partID[j] }
	orig := mat64.DenseCopyOf(A)
	fakeCis(A, cisMask(A, isTrans), rand.New(rand.NewSource(DefaultSeed)))

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, A.At(i, j), A.At(j, i), "fake cis must stay symmetric")
			if isTrans(i, j) {
				assert.Equal(t, orig.At(i, j), A.At(i, j), "trans pixels are kept")
				continue
			}
			var candidates []float64
			for s := 0; s < 4; s++ {
				if isTrans(i, s) {
					candidates = append(candidates, orig.At(i, s))
				}
				if isTrans(j, s) {
					candidates = append(candidates, orig.At(j, s))
				}
			}
			assert.Contains(t, candidates, A.At(i, j))
		}
	}
}

func TestPhaseEigsSortsNaNLast(t *testing.T) {
	nan := math.NaN()
	phasing := []float64{1, 2, 3, 4, 5}
	vecs := [][]float64{
		{nan, nan, nan, nan, nan},
		{-1, -3, -2, -5, -4},
		{1, 2, 3, 4, 5},
	}
	vals, sorted, err := phaseEigs([]float64{10, 20, 30}, vecs, phasing, "spearmanr")
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 20, 10}, vals)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, sorted[0])
	assert.Equal(t, []float64{1, 3, 2, 5, 4}, sorted[1], "flipped to correlate positively")
	assert.True(t, math.IsNaN(sorted[2][0]))
}

func TestCheckPartition(t *testing.T) {
	assert.NoError(t, checkPartition([]int{0, 3, 5}, 5))
	assert.Error(t, checkPartition([]int{0, 3}, 5))
	assert.Error(t, checkPartition([]int{1, 5}, 5))
	assert.Error(t, checkPartition([]int{0, 3, 3, 5}, 5))
	assert.Error(t, checkPartition([]int{0}, 0))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
