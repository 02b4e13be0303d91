// Command bandinfo prints EEG frequency band definitions and how a Welch
// analysis configuration covers them.
//
// Usage:
//
//	bandinfo [flags] [band-name ...]
//
// Without arguments it prints info for all standard bands.
//
// Examples:
//
//	bandinfo alpha
//	bandinfo -rate 250 -segment 512 alpha beta
//	bandinfo -list
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/neurofield/alphalink/dsp/welch"
	"github.com/neurofield/alphalink/neuro/bands"
)

func main() {
	rate := flag.Float64("rate", 250, "sample rate in Hz")
	segment := flag.Int("segment", 250, "Welch segment length in samples")
	list := flag.Bool("list", false, "list available band names")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bandinfo [flags] [band-name ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints EEG band definitions and their Welch bin coverage.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, prints info for all bands.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bandinfo alpha beta\n")
		fmt.Fprintf(os.Stderr, "  bandinfo -rate 250 -segment 512 alpha\n")
		fmt.Fprintf(os.Stderr, "  bandinfo -list\n")
	}
	flag.Parse()

	if *list {
		for _, b := range bands.All {
			fmt.Println(b.Name)
		}
		return
	}

	selected := resolveBands(flag.Args())
	if len(selected) == 0 {
		fmt.Fprintf(os.Stderr, "error: no matching bands\n")
		os.Exit(1)
	}

	est, err := welch.NewEstimator(welch.Config{
		SampleRate:    *rate,
		SegmentLength: *segment,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	printAnalysis(selected, est)
}

func resolveBands(names []string) []bands.Band {
	if len(names) == 0 {
		return bands.All
	}

	var result []bands.Band
	for _, name := range names {
		b, err := bands.ByName(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v (use -list to see available)\n", err)
			continue
		}
		result = append(result, b)
	}
	return result
}

func printAnalysis(selected []bands.Band, est *welch.Estimator) {
	binHz := est.BinHz()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Band\tRange [Hz]\tWidth [Hz]\tBins\tBin Range [Hz]\n")
	fmt.Fprintf(tw, "----\t----------\t----------\t----\t--------------\n")

	for _, b := range selected {
		first, count := binCoverage(b, binHz)

		binRange := "-"
		if count > 0 {
			binRange = fmt.Sprintf("%.3f .. %.3f", float64(first)*binHz, float64(first+count-1)*binHz)
		}

		fmt.Fprintf(tw, "%s\t%g .. %g\t%g\t%d\t%s\n",
			b.Name, b.Lo, b.Hi, b.Width(), count, binRange)
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}

	fmt.Printf("\nresolution: %.4f Hz/bin\n", binHz)
}

// binCoverage returns the first bin index inside the band and the number of
// covered bins, matching the half-open selection used for scoring.
func binCoverage(b bands.Band, binHz float64) (int, int) {
	first := -1
	count := 0

	for i := 0; ; i++ {
		f := float64(i) * binHz
		if f >= b.Hi {
			break
		}
		if f >= b.Lo {
			if first < 0 {
				first = i
			}
			count++
		}
	}

	return first, count
}
