/**
 * Filename: /Users/htang/code/hicomp/compartments.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Monday, March 9th 2020, 3:30:44 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// CompartmentCaller performs eigen value decomposition on a contact matrix
// to calculate the compartment signal, orienting eigenvectors with an
// optional phasing track
type CompartmentCaller struct {
	CoolPath       string
	ReferenceTrack string // `path::column`, empty for none
	Regions        string // BED-like file, cis only
	ContactType    string
	OutPrefix      string
	BigWig         bool
	Npy            bool
	Opts           EigOptions
	// Output files
	OutEigvals string
	OutEigvecs string
	OutBigWig  string
	OutNpy     string
}

// Validate checks the options before any file is read
func (r *CompartmentCaller) Validate() error {
	if !contains(ContactTypes, r.ContactType) {
		return badParameter("contact-type", "%q is not one of %s", r.ContactType, strings.Join(ContactTypes, ", "))
	}
	if r.Opts.NEigs < 1 {
		return badParameter("n-eigs", "%d is smaller than 1", r.Opts.NEigs)
	}
	if r.Opts.SortMetric != "" && !contains(SortMetrics, r.Opts.SortMetric) {
		return badParameter("sort-metric", "%q is not one of %s", r.Opts.SortMetric, strings.Join(SortMetrics, ", "))
	}
	if r.OutPrefix == "" {
		return badParameter("out-prefix", "an output prefix is required")
	}
	if r.Regions != "" && r.ContactType == "trans" {
		return errors.Wrap(ErrNotImplemented, "Regions not yet supported with trans contact type")
	}
	if r.ReferenceTrack != "" {
		tp := ParseTabularPath(r.ReferenceTrack, DefaultTrackColumn)
		if tp.Path != "-" {
			if _, err := os.Stat(tp.Path); err != nil {
				return badParameter("reference-track", "Path %q does not exist.", tp.Path)
			}
		}
	}
	return nil
}

// Run is the main function body of call-compartments
func (r *CompartmentCaller) Run() error {
	if err := r.Validate(); err != nil {
		return err
	}
	clr, err := OpenCooler(r.CoolPath)
	if err != nil {
		return err
	}

	bins, err := r.loadBins(clr)
	if err != nil {
		return err
	}

	var eigvals *EigvalTable
	var eigvecs *BinTable
	switch r.ContactType {
	case "cis":
		regions, err := r.resolveRegions(clr, bins)
		if err != nil {
			return err
		}
		log.Noticef("Cis eigen decomposition over %d regions (n_eigs = %d)", len(regions), r.Opts.NEigs)
		if eigvals, eigvecs, err = CoolerCisEig(clr, bins, regions, r.Opts); err != nil {
			return err
		}
	case "trans":
		log.Noticef("Trans eigen decomposition (n_eigs = %d)", r.Opts.NEigs)
		if eigvals, eigvecs, err = CoolerTransEig(clr, bins, r.Opts); err != nil {
			return err
		}
	}

	if err := r.write(clr, eigvals, eigvecs); err != nil {
		return err
	}
	log.Notice("Success")
	return nil
}

// loadBins returns the matrix bins, merged with the reference track when
// one is given
func (r *CompartmentCaller) loadBins(clr *Cooler) (*BinTable, error) {
	if r.ReferenceTrack == "" {
		r.Opts.PhasingTrack = ""
		return clr.Bins().Coords(), nil
	}
	track, err := LoadReferenceTrack(ParseTabularPath(r.ReferenceTrack, DefaultTrackColumn))
	if err != nil {
		return nil, err
	}
	bins, err := MergeTrack(clr.Bins(), track, r.CoolPath)
	if err != nil {
		return nil, err
	}
	r.Opts.PhasingTrack = track.Name
	return bins, nil
}

// resolveRegions uses the regions file, or whole chromosomes otherwise,
// restricted to the chromosomes of the bin table
func (r *CompartmentCaller) resolveRegions(clr *Cooler, bins *BinTable) ([]Region, error) {
	chroms := bins.UniqueChroms()
	if r.Regions == "" {
		return WholeChromRegions(chroms, clr.Chroms())
	}
	regions, err := ReadRegions(r.Regions, clr.Chroms())
	if err != nil {
		return nil, err
	}
	kept := FilterRegions(regions, chroms)
	if len(kept) < len(regions) {
		log.Warningf("%d regions dropped, their chromosomes are not in the track", len(regions)-len(kept))
	}
	return kept, nil
}

// write serializes eigenvalues, eigenvectors and the optional tracks
func (r *CompartmentCaller) write(clr *Cooler, eigvals *EigvalTable, eigvecs *BinTable) error {
	r.OutEigvals = OutputName(r.OutPrefix, r.ContactType, "lam.txt")
	r.OutEigvecs = OutputName(r.OutPrefix, r.ContactType, "vecs.tsv")
	if err := writeTable(r.OutEigvals, eigvals); err != nil {
		return err
	}
	log.Noticef("Eigenvalues written to `%s`", r.OutEigvals)
	if err := writeTable(r.OutEigvecs, eigvecs); err != nil {
		return err
	}
	log.Noticef("Eigenvectors written to `%s`", r.OutEigvecs)

	if r.BigWig {
		r.OutBigWig = OutputName(r.OutPrefix, r.ContactType, "bw")
		if err := WriteBigWig(r.OutBigWig, eigvecs, "E1", clr.Chroms(), clr.BinSize()); err != nil {
			return err
		}
	}
	if r.Npy {
		r.OutNpy = OutputName(r.OutPrefix, r.ContactType, "vecs.npy")
		if err := WriteNpy(r.OutNpy, eigvecs, eigColumns("E", r.Opts.NEigs)); err != nil {
			return err
		}
		log.Noticef("Eigenvector matrix written to `%s`", r.OutNpy)
	}
	return nil
}
