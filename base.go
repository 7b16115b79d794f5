/**
 * Filename: /Users/htang/code/hicomp/base.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Monday, March 2nd 2020, 10:12:31 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"math"
	"os"

	logging "github.com/op/go-logging"
)

const (
	// Version is the current version of hicomp
	Version = "0.3.1"
	// DefaultNEigs is the number of eigenvectors computed when not specified
	DefaultNEigs = 3
	// DefaultIgnoreDiags is used when the matrix carries no ignore_diags metadata
	DefaultIgnoreDiags = 2
	// DefaultClipPercentile clips O/E pixels above this percentile in cis
	DefaultClipPercentile = 99.9
	// DefaultPercTop clips trans blowout contacts above this percentile
	DefaultPercTop = 99.95
	// DefaultPercBottom removes bins with trans coverage below this percentile
	DefaultPercBottom = 1.0
	// DefaultSeed seeds the fake-cis sampler for trans analysis
	DefaultSeed = 42
	// DefaultTrackColumn is the column index of the value in a bedGraph-like track
	DefaultTrackColumn = 3
	// DistBinEdgeRatio is the ratio between consecutive diagonal bins in O/E
	DistBinEdgeRatio = 1.03
	// ICMaxIter bounds the iterative correction loop
	ICMaxIter = 1000
	// ICTol is the convergence criterion of iterative correction
	ICTol = 1e-5
	// UnnamedTrack is the name given to a track column without header
	UnnamedTrack = "ref"
)

// ContactTypes lists the supported contact types
var ContactTypes = []string{"cis", "trans"}

// SortMetrics lists the accepted eigenvector re-sorting metrics
var SortMetrics = []string{"pearsonr", "spearmanr", "var_explained", "MAD_explained"}

var log = logging.MustGetLogger("hicomp")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// SetVerbose switches between NOTICE and DEBUG output
func SetVerbose(verbose bool) {
	level := logging.NOTICE
	if verbose {
		level = logging.DEBUG
	}
	logging.SetLevel(level, "hicomp")
}

// contains checks if a string is in the list
func contains(a []string, x string) bool {
	for _, s := range a {
		if s == x {
			return true
		}
	}
	return false
}

// isFinite is true for anything but NaN and +-Inf
func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// nanSlice allocates a slice filled with NaN
func nanSlice(n int) []float64 {
	a := make([]float64, n)
	for i := range a {
		a[i] = math.NaN()
	}
	return a
}

// sign returns -1, 0 or 1
func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
