/*
 *  gc_test.go
 *  hicomp
 *
 *  Created by Haibao Tang on 03/10/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package hicomp_test

import (
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/hicomp"
)

func TestGCContent(t *testing.T) {
	fastafile := filepath.Join(t.TempDir(), "genome.fa")
	hicomp.WriteTestFile(t, fastafile, ">chr1 test chromosome\nGGGGCCCCAT\nATATNNNN\n>chr2\nACGT\n")

	bins := hicomp.NewBinTable()
	bins.Append("chr1", 0, 8)
	bins.Append("chr1", 8, 16)
	bins.Append("chr1", 16, 20)
	bins.Append("chr2", 0, 4)
	gc, err := hicomp.GCContent(bins, fastafile)
	require.NoError(t, err)
	assert.Equal(t, 1.0, gc[0])
	assert.Equal(t, 0.0, gc[1])
	assert.True(t, math.IsNaN(gc[2]), "all N bin")
	assert.Equal(t, 0.5, gc[3])

	bins.Append("chr3", 0, 4)
	_, err = hicomp.GCContent(bins, fastafile)
	assert.Error(t, err, "chromosome missing from the FASTA")
}

func TestGCTracker(t *testing.T) {
	m := hicomp.TestMatrix{
		Chroms:  []hicomp.Chrom{{Name: "chr1", Length: 20}},
		BinSize: 10,
		Count:   func(a, b hicomp.TestBin) float64 { return 1 },
	}
	dir := t.TempDir()
	fastafile := filepath.Join(dir, "genome.fa")
	hicomp.WriteTestFile(t, fastafile, ">chr1\nGCGCGCGCGCATATATATAT\n")

	tracker := &hicomp.GCTracker{
		CoolPath:  hicomp.WriteTestCooler(t, m),
		Fastafile: fastafile,
		Outfile:   filepath.Join(dir, "gc.tsv"),
	}
	require.NoError(t, tracker.Run())
	content, err := ioutil.ReadFile(tracker.Outfile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Equal(t, []string{
		"chrom\tstart\tend\tGC",
		"chr1\t0\t10\t1",
		"chr1\t10\t20\t0",
	}, lines)

	// the output is a valid reference track
	track, err := hicomp.LoadReferenceTrack(hicomp.ParseTabularPath(tracker.Outfile+"::GC", 3))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, track.Values)
}
