// Package main provides the matchcheck command: load a hierarchy
// fixture, classify its type-test queries, and report the checkability
// warnings.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/orizon-lang/matchcheck/internal/checkability"
	"github.com/orizon-lang/matchcheck/internal/diagnostics"
	"github.com/orizon-lang/matchcheck/internal/fixture"
	"github.com/orizon-lang/matchcheck/internal/watch"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		showHelp    = flag.Bool("help", false, "show help information")
		strict      = flag.Bool("strict", false, "exit non-zero when any warning is emitted")
		verbose     = flag.Bool("verbose", false, "print the classification of every query")
		watchMode   = flag.Bool("watch", false, "re-run the analysis whenever the fixture changes")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("matchcheck v%s (%s)\n", version, commit)

		return
	}

	if *showHelp {
		showUsage()

		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Println("Error: expected exactly one fixture file")
		showUsage()
		os.Exit(1)
	}

	path := args[0]

	if *watchMode {
		runWatch(path, *verbose)

		return
	}

	warnings, err := runOnce(path, *verbose, os.Stdout)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	if *strict && warnings > 0 {
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("matchcheck - static checkability analysis for runtime type tests")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("    matchcheck [OPTIONS] <FIXTURE_FILE>")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("    --version    Show version information")
	fmt.Println("    --help       Show this help message")
	fmt.Println("    --strict     Exit non-zero when any warning is emitted")
	fmt.Println("    --verbose    Print the classification of every query")
	fmt.Println("    --watch      Re-run the analysis whenever the fixture changes")
	fmt.Println()
	fmt.Println("The fixture file declares a class hierarchy and a list of")
	fmt.Println("(scrutinee, pattern) queries; see internal/fixture for the format.")
}

func runOnce(path string, verbose bool, out io.Writer) (int, error) {
	f, err := fixture.Load(path)
	if err != nil {
		return 0, err
	}

	uni, elab, queries, err := f.Build()
	if err != nil {
		return 0, err
	}

	sink := diagnostics.NewCollector()
	analyzer := checkability.NewAnalyzer(uni, uni, elab, sink)

	for _, q := range queries {
		result := analyzer.CheckTypeTest(q.Span, q.Scrutinee, q.Pattern)
		if verbose {
			fmt.Fprintf(out, "%s: %s matches %s: %s\n", q.Span, q.Scrutinee, q.Pattern, result)
		}
	}

	// The checkpoint: sealed hierarchies are complete now, provisional
	// verdicts get their recheck.
	if err := elab.Finalize(); err != nil {
		return 0, err
	}

	for _, d := range sink.Diagnostics() {
		fmt.Fprintln(out, d.String())
	}

	return sink.Count(), nil
}

func runWatch(path string, verbose bool) {
	w, err := watch.New()
	if err != nil {
		log.Fatalf("Watcher setup failed: %v", err)
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		log.Fatalf("Cannot watch %s: %v", path, err)
	}

	rerun := func() {
		if _, err := runOnce(path, verbose, os.Stdout); err != nil {
			log.Printf("analysis failed: %v", err)
		}
	}

	rerun()

	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				return
			}

			if ev.Op.Has(watch.OpWrite | watch.OpCreate | watch.OpRename) {
				// Editors replace files on save; re-arm the watch on
				// the path before re-running.
				_ = w.Add(path)

				rerun()
			}
		case werr := <-w.Errors():
			log.Printf("watch error: %v", werr)
		}
	}
}
