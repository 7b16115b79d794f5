/*
 *  helpers_test.go
 *  hicomp
 *
 *  Created by Haibao Tang on 03/10/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package hicomp

import (
	"fmt"
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

// TestBin locates a bin by chromosome index and position within it
type TestBin struct {
	Chrom int
	Index int
}

// TestMatrix describes a synthetic matrix bundle for tests
type TestMatrix struct {
	Chroms  []Chrom
	BinSize int
	Weight  func(b TestBin) float64    // nil for 1.0
	Count   func(a, b TestBin) float64 // 0 to omit the pixel
}

// WriteTestCooler dumps the matrix as a bundle in a fresh temp directory
func WriteTestCooler(t *testing.T, m TestMatrix) string {
	t.Helper()
	dir := t.TempDir()

	var chroms, bins, pixels strings.Builder
	var all []TestBin
	for ci, c := range m.Chroms {
		fmt.Fprintf(&chroms, "%s\t%d\n", c.Name, c.Length)
		for start, k := 0, 0; start < c.Length; start, k = start+m.BinSize, k+1 {
			all = append(all, TestBin{Chrom: ci, Index: k})
		}
	}
	bins.WriteString("chrom\tstart\tend\tweight\n")
	for _, b := range all {
		c := m.Chroms[b.Chrom]
		start := b.Index * m.BinSize
		end := start + m.BinSize
		if end > c.Length {
			end = c.Length
		}
		w := 1.0
		if m.Weight != nil {
			w = m.Weight(b)
		}
		fmt.Fprintf(&bins, "%s\t%d\t%d\t%s\n", c.Name, start, end, formatValue(w))
	}
	pixels.WriteString("bin1_id\tbin2_id\tcount\n")
	for i := range all {
		for j := i; j < len(all); j++ {
			if v := m.Count(all[i], all[j]); v != 0 && !math.IsNaN(v) {
				fmt.Fprintf(&pixels, "%d\t%d\t%s\n", i, j, formatValue(v))
			}
		}
	}

	writeTestFile(t, filepath.Join(dir, "chroms.tsv"), chroms.String())
	writeTestFile(t, filepath.Join(dir, "bins.tsv"), bins.String())
	writeTestFile(t, filepath.Join(dir, "pixels.tsv"), pixels.String())
	writeTestFile(t, filepath.Join(dir, "info.tsv"),
		fmt.Sprintf("bin-size\t%d\nignore_diags\t2\n", m.BinSize))
	return dir
}

// WriteTestFile is exported for the external test package
func WriteTestFile(t *testing.T, filename, content string) {
	writeTestFile(t, filename, content)
}

func writeTestFile(t *testing.T, filename, content string) {
	t.Helper()
	if err := ioutil.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// Compartment is the A/B label of a bin in the checkerboard matrix, blocks
// of 5 bins
func Compartment(b TestBin) int {
	return (b.Index / 5) % 2
}

// CheckerboardCount decays with distance in cis and doubles within a
// compartment type
func CheckerboardCount(a, b TestBin) float64 {
	factor := 0.5
	if Compartment(a) == Compartment(b) {
		factor = 2
	}
	if a.Chrom != b.Chrom {
		return 5 * factor
	}
	d := a.Index - b.Index
	if d < 0 {
		d = -d
	}
	return 100 / float64(d+1) * factor
}

// CheckerboardMatrix has chr1 (40 bins), chr2 (25 bins) and chrM (3 bins)
func CheckerboardMatrix() TestMatrix {
	return TestMatrix{
		Chroms: []Chrom{
			{Name: "chr1", Length: 400000},
			{Name: "chr2", Length: 250000},
			{Name: "chrM", Length: 30000},
		},
		BinSize: 10000,
		Count:   CheckerboardCount,
	}
}

// GCTrackContent renders a phasing track following the compartments, A bins
// GC rich
func GCTrackContent(m TestMatrix, header bool) string {
	var sb strings.Builder
	if header {
		sb.WriteString("chrom\tstart\tend\tGC\n")
	}
	for _, c := range m.Chroms {
		for start, k := 0, 0; start < c.Length; start, k = start+m.BinSize, k+1 {
			end := start + m.BinSize
			if end > c.Length {
				end = c.Length
			}
			gc := 0.35 + 0.01*float64(k%3)
			if Compartment(TestBin{Index: k}) == 0 {
				gc = 0.55 + 0.01*float64(k%3)
			}
			fmt.Fprintf(&sb, "%s\t%d\t%d\t%s\n", c.Name, start, end, formatValue(gc))
		}
	}
	return sb.String()
}
