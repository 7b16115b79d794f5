/**
 * Filename: /Users/htang/code/hicomp/root.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Monday, March 9th 2020, 5:02:18 pm
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hicomp",
		Short:         "Compartment calling on Hi-C contact matrices",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newCallCompartmentsCommand(), newGCCommand())
	return rootCmd
}

func newCallCompartmentsCommand() *cobra.Command {
	caller := &CompartmentCaller{Opts: DefaultEigOptions()}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "call-compartments COOL_PATH",
		Short: "Eigen decomposition of a contact matrix into compartments",
		Long: `Perform eigen value decomposition on a contact matrix to calculate
compartment signal by finding the eigenvector that correlates best with the
phasing track.

COOL_PATH : a matrix directory holding chroms.tsv, bins.tsv and pixels.tsv
(optionally gzipped), the tables written by 'cooler dump'.

The reference track is a bedGraph-like file with tab-separated columns chrom,
start, end and the track value. Use 'path::column' to select the value column
by header name or 0-based index. With a header, a negative index counts back
from the last column, so 'path::-1' selects the last one.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			SetVerbose(verbose)
			caller.CoolPath = args[0]
			return caller.Run()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&caller.ReferenceTrack, "reference-track", "",
		"Reference track for orienting and ranking eigenvectors, as 'path::column'")
	flags.StringVar(&caller.Regions, "regions", "",
		"BED file with the regions (chrom, start, end, optional name) for cis eigen decomposition")
	flags.StringVar(&caller.ContactType, "contact-type", "cis",
		"Type of the contacts to perform eigen-value decomposition on, cis or trans")
	flags.IntVar(&caller.Opts.NEigs, "n-eigs", DefaultNEigs,
		"Number of eigenvectors to compute")
	flags.BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
	flags.StringVarP(&caller.OutPrefix, "out-prefix", "o", "",
		"Save compartment track as a BED-like file")
	flags.BoolVar(&caller.BigWig, "bigwig", false,
		"Also save compartment track (E1) as a bigWig file")
	flags.BoolVar(&caller.Npy, "npy", false,
		"Also save the eigenvectors as a (bins x n-eigs) .npy array")
	flags.IntVar(&caller.Opts.IgnoreDiags, "ignore-diags", -1,
		"Number of diagonals to ignore in cis, -1 to use the matrix metadata")
	flags.Float64Var(&caller.Opts.ClipPercentile, "clip-percentile", DefaultClipPercentile,
		"Clip cis O/E pixels above this percentile, 0 to disable")
	flags.StringVar(&caller.Opts.SortMetric, "sort-metric", "",
		"Re-sort eigenvectors by pearsonr, spearmanr, var_explained or MAD_explained")
	flags.BoolVar(&caller.Opts.OELog, "oe-log", false,
		"Use log2 O/E in cis instead of O/E - 1")
	flags.Float64Var(&caller.Opts.PercTop, "perc-top", DefaultPercTop,
		"Clip trans blowout contacts above this percentile")
	flags.Float64Var(&caller.Opts.PercBottom, "perc-bottom", DefaultPercBottom,
		"Remove bins with trans coverage below this percentile")
	flags.Int64Var(&caller.Opts.Seed, "seed", DefaultSeed,
		"Seed of the random sampler used in trans")
	_ = cmd.MarkFlagRequired("out-prefix")
	return cmd
}

func newGCCommand() *cobra.Command {
	tracker := &GCTracker{}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "gc COOL_PATH FASTA",
		Short: "GC content of every bin, for use as a reference track",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			SetVerbose(verbose)
			tracker.CoolPath = args[0]
			tracker.Fastafile = args[1]
			return tracker.Run()
		},
	}
	cmd.Flags().StringVarP(&tracker.Outfile, "output", "o", "-",
		"Output bedGraph-like file, '-' for stdout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
	return cmd
}

// Execute runs the command line
func Execute() error {
	return NewRootCommand().Execute()
}
