/**
 * Filename: /Users/htang/code/hicomp/regions.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Tuesday, March 3rd 2020, 9:31:10 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Chrom stores the name and length of each chromosome
type Chrom struct {
	Name   string
	Length int
}

// Region is a named half-open genomic interval
type Region struct {
	Chrom string
	Start int
	End   int
	Name  string
}

// String outputs the UCSC representation of the region
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// chromLength looks up the size of a chromosome
func chromLength(chromsizes []Chrom, name string) (int, bool) {
	for _, c := range chromsizes {
		if c.Name == name {
			return c.Length, true
		}
	}
	return 0, false
}

// WholeChromRegions makes one region per chromosome, named after it
func WholeChromRegions(chroms []string, chromsizes []Chrom) ([]Region, error) {
	regions := make([]Region, 0, len(chroms))
	for _, chrom := range chroms {
		length, ok := chromLength(chromsizes, chrom)
		if !ok {
			return nil, errors.Errorf("unknown chromosome `%s`", chrom)
		}
		regions = append(regions, Region{Chrom: chrom, Start: 0, End: length, Name: chrom})
	}
	return regions, nil
}

// ReadRegions parses a BED-like file with columns chrom, start, end and an
// optional name. Regions are checked against the chromosome sizes.
func ReadRegions(filename string, chromsizes []Chrom) ([]Region, error) {
	log.Noticef("Parse regions file `%s`", filename)
	t, err := ReadTable(filename)
	if err != nil {
		return nil, err
	}
	width, err := t.NumColumns()
	if err != nil {
		return nil, err
	}
	if width != 3 && width != 4 {
		return nil, errors.Errorf("The region file does not have three or four tab-delimited columns. " +
			"We expect a bed file with columns chrom, start, end, and optional name")
	}

	var regions []Region
	for i, row := range t.Rows {
		start, err := parseCoord(row[1])
		if err != nil {
			return nil, errors.Wrapf(err, "bad start on line %d of `%s`", i+1, filename)
		}
		end, err := parseCoord(row[2])
		if err != nil {
			return nil, errors.Wrapf(err, "bad end on line %d of `%s`", i+1, filename)
		}
		r := Region{Chrom: row[0], Start: start, End: end}
		if width == 4 {
			r.Name = row[3]
		} else {
			r.Name = r.String()
		}
		if err := validateRegion(r, chromsizes); err != nil {
			return nil, errors.Wrapf(err, "line %d of `%s`", i+1, filename)
		}
		regions = append(regions, r)
	}
	log.Noticef("A total of %d regions imported", len(regions))
	return regions, nil
}

// validateRegion makes sure the region lies within a known chromosome
func validateRegion(r Region, chromsizes []Chrom) error {
	length, ok := chromLength(chromsizes, r.Chrom)
	if !ok {
		return errors.Errorf("unknown chromosome `%s`", r.Chrom)
	}
	if r.Start < 0 || r.Start >= r.End {
		return errors.Errorf("invalid interval %s", r)
	}
	if r.End > length {
		return errors.Errorf("region %s exceeds chromosome length %d", r, length)
	}
	return nil
}

// FilterRegions keeps the regions on the given chromosomes, in order. The
// result is non-nil even when every region is dropped.
func FilterRegions(regions []Region, chroms []string) []Region {
	kept := []Region{}
	for _, r := range regions {
		if contains(chroms, r.Chrom) {
			kept = append(kept, r)
		}
	}
	return kept
}
