/**
 * Filename: /Users/htang/code/hicomp/output.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Monday, March 9th 2020, 10:05:13 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"math"

	"github.com/kshedden/gonpy"
	"github.com/pbenner/gonetics"
	"github.com/pkg/errors"
)

// OutputName builds `prefix.contactType.suffix`
func OutputName(prefix, contactType, suffix string) string {
	return prefix + "." + contactType + "." + suffix
}

// WriteBigWig exports one column of the bin table as a bigWig track.
// Bins without a finite value are left out of the track.
func WriteBigWig(filename string, table *BinTable, column string, chroms []Chrom, binSize int) error {
	values, ok := table.Column(column)
	if !ok {
		return errors.Errorf("No column %q in the eigenvector table", column)
	}
	if binSize <= 0 {
		return errors.New("bigWig export requires bins of uniform size")
	}

	seqnames := make([]string, len(chroms))
	lengths := make([]int, len(chroms))
	for i, c := range chroms {
		seqnames[i] = c.Name
		lengths[i] = c.Length
	}
	track := gonetics.AllocSimpleTrack(column, gonetics.NewGenome(seqnames, lengths), binSize)
	for _, name := range seqnames {
		seq, err := track.GetMutableSequence(name)
		if err != nil {
			return err
		}
		for i := 0; i < seq.NBins(); i++ {
			seq.SetBin(i, math.NaN())
		}
	}

	n := 0
	for i, v := range values {
		if !isFinite(v) {
			continue
		}
		seq, err := track.GetMutableSequence(table.Chroms[i])
		if err != nil {
			return err
		}
		if k := table.Starts[i] / binSize; k < seq.NBins() {
			seq.SetBin(k, v)
			n++
		}
	}
	log.Noticef("Writing %d bins of `%s` to bigWig `%s`", n, column, filename)
	if err := (gonetics.GenericTrack{Track: track}).ExportBigWig(filename); err != nil {
		return errors.Wrapf(err, "cannot write `%s`", filename)
	}
	return nil
}

// WriteNpy stores the given columns as a row-major (bins x columns) float64
// array
func WriteNpy(filename string, table *BinTable, columns []string) error {
	data := make([]float64, table.Len()*len(columns))
	for j, name := range columns {
		values, ok := table.Column(name)
		if !ok {
			return errors.Errorf("No column %q in the eigenvector table", name)
		}
		for i, v := range values {
			data[i*len(columns)+j] = v
		}
	}
	w, err := gonpy.NewFileWriter(filename)
	if err != nil {
		return errors.Wrapf(err, "cannot create `%s`", filename)
	}
	w.Shape = []int{table.Len(), len(columns)}
	if err := w.WriteFloat64(data); err != nil {
		return errors.Wrapf(err, "cannot write `%s`", filename)
	}
	return nil
}
