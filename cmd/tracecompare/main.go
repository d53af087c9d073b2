// Command tracecompare diffs two trace directories produced by
// internal/trace.FileWriter (e.g. this pipeline's output vs. a dump from
// another implementation) and reports the first diverging step.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/qduc/easyocr-go/test/tracecompare"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("tracecompare", flag.ContinueOnError)
	aDir := fs.String("a", "", "first trace directory")
	bDir := fs.String("b", "", "second trace directory")
	cont := fs.Bool("continue", false, "keep comparing after the first drift")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *aDir == "" || *bDir == "" {
		fmt.Fprintln(os.Stderr, "usage: tracecompare -a <dir> -b <dir> [-continue]")
		return 2
	}

	result, err := tracecompare.Compare(*aDir, *bDir, tracecompare.Options{Continue: *cont})
	if err != nil {
		fmt.Fprintln(os.Stderr, "tracecompare:", err)
		return 2
	}

	if result.NameMismatch {
		fmt.Fprintln(os.Stderr, "Step list mismatch (by name/order).")
		fmt.Fprintf(os.Stderr, "  A steps: %v\n", result.ANames)
		fmt.Fprintf(os.Stderr, "  B steps: %v\n", result.BNames)
		fmt.Fprintln(os.Stderr, "Proceeding with index-based comparison of shared prefix.")
	}

	for _, step := range result.Steps {
		mark := "✓"
		if !step.Matched {
			mark = "✗"
		}
		fmt.Printf("[%03d] %s (%s) %s %s\n", step.Index, step.Name, step.Kind, mark, step.Detail)
	}

	if !result.Drift {
		fmt.Println("\nNo drift detected in shared steps.")
		return 0
	}
	fmt.Println("\nDrift detected.")
	return 1
}
