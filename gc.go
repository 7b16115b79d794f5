/**
 * Filename: /Users/htang/code/hicomp/gc.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Friday, March 6th 2020, 2:14:52 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
)

// GCColumn is the name of the phasing column written by the gc step
const GCColumn = "GC"

// GCTracker computes the GC content of every matrix bin, the usual phasing
// track for compartment calling
type GCTracker struct {
	CoolPath  string
	Fastafile string
	Outfile   string
}

// Run writes chrom, start, end, GC for every bin
func (r *GCTracker) Run() error {
	clr, err := OpenCooler(r.CoolPath)
	if err != nil {
		return err
	}
	bins := clr.Bins().Coords()
	gc, err := GCContent(bins, r.Fastafile)
	if err != nil {
		return err
	}
	if err := bins.AddColumn(GCColumn, gc); err != nil {
		return err
	}
	if err := writeTable(r.Outfile, bins); err != nil {
		return err
	}
	log.Noticef("GC track of %d bins written to `%s`", bins.Len(), r.Outfile)
	return nil
}

// fracGC is (G+C)/(A+C+G+T), NaN when there is no called base
func fracGC(s []byte) float64 {
	var gc, at int
	for _, b := range s {
		switch b {
		case 'G', 'C', 'g', 'c':
			gc++
		case 'A', 'T', 'a', 't':
			at++
		}
	}
	if gc+at == 0 {
		return math.NaN()
	}
	return float64(gc) / float64(gc+at)
}

// GCContent reads the genome FASTA and returns the GC fraction for each bin
func GCContent(bins *BinTable, fastafile string) ([]float64, error) {
	log.Noticef("Parse FASTA file `%s`", fastafile)
	reader, err := fastx.NewDefaultReader(fastafile)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open `%s`", fastafile)
	}
	seq.ValidateSeq = false // This flag makes parsing FASTA much faster

	rowsByChrom := make(map[string][]int)
	for i, chrom := range bins.Chroms {
		rowsByChrom[chrom] = append(rowsByChrom[chrom], i)
	}
	gc := nanSlice(bins.Len())
	found := make(map[string]bool)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read `%s`", fastafile)
		}
		words := strings.Fields(string(rec.Name))
		if len(words) == 0 {
			continue
		}
		name := words[0]
		rows, ok := rowsByChrom[name]
		if !ok {
			continue
		}
		sequence := rec.Seq.Seq
		for _, i := range rows {
			start, end := bins.Starts[i], bins.Ends[i]
			if end > len(sequence) {
				end = len(sequence)
			}
			if start < end {
				gc[i] = fracGC(sequence[start:end])
			}
		}
		found[name] = true
	}
	for _, chrom := range bins.UniqueChroms() {
		if !found[chrom] {
			return nil, errors.Errorf("chromosome `%s` is missing from `%s`", chrom, fastafile)
		}
	}
	return gc, nil
}

// writeTable writes a bin table to a file, "-" for stdout, gzipped if the
// name ends in .gz
func writeTable(filename string, table interface{ WriteTSV(io.Writer) error }) error {
	fh, err := xopen.Wopen(filename)
	if err != nil {
		return errors.Wrapf(err, "cannot create `%s`", filename)
	}
	if err := table.WriteTSV(fh); err != nil {
		fh.Close()
		return errors.Wrapf(err, "cannot write `%s`", filename)
	}
	return fh.Close()
}
