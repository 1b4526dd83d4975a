// Command pytanis-assign runs the greedy reviewer assignment engine
// (internal/assignment) over a proposals file and a reviewers file, both
// JSON arrays matching assignment.Proposal and assignment.Reviewer, and
// writes the upload-ready assignment document (internal/export).
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/PioneersHub/pytanis-go/internal/assignment"
	"github.com/PioneersHub/pytanis-go/internal/export"
	"github.com/PioneersHub/pytanis-go/internal/wire"
)

func main() {
	proposalsPath := flag.String("proposals", "", "path to a JSON array of proposals (required)")
	reviewersPath := flag.String("reviewers", "", "path to a JSON array of reviewers (required)")
	outPath := flag.String("out", "", "output JSON file path; defaults to stdout")
	buffer := flag.Int("buffer", 3, "extra reviewer count assigned beyond target, to tolerate no-shows")
	aliasesPath := flag.String("aliases", "", "optional path to a JSON object mapping submission track to reviewer-preference track")
	flag.Parse()

	if *proposalsPath == "" || *reviewersPath == "" {
		fmt.Fprintln(os.Stderr, "pytanis-assign: -proposals and -reviewers are required")
		os.Exit(2)
	}

	if err := run(*proposalsPath, *reviewersPath, *outPath, *aliasesPath, *buffer); err != nil {
		fmt.Fprintf(os.Stderr, "pytanis-assign: %v\n", err)
		os.Exit(1)
	}
}

func run(proposalsPath, reviewersPath, outPath, aliasesPath string, buffer int) error {
	var proposals []assignment.Proposal
	if err := readJSON(proposalsPath, &proposals); err != nil {
		return fmt.Errorf("reading proposals: %w", err)
	}

	var reviewers []assignment.Reviewer
	if err := readJSON(reviewersPath, &reviewers); err != nil {
		return fmt.Errorf("reading reviewers: %w", err)
	}

	var aliases map[string]string
	if aliasesPath != "" {
		if err := readJSON(aliasesPath, &aliases); err != nil {
			return fmt.Errorf("reading track aliases: %w", err)
		}
	}

	var warnings []assignment.Warning
	opts := assignment.Options{
		Buffer:       buffer,
		TrackAliases: aliases,
		Diagnostics: func(w assignment.Warning) {
			warnings = append(warnings, w)
		},
	}

	result, err := assignment.Assign(proposals, reviewers, opts)
	if err != nil {
		var mismatch *wire.TrackMismatch
		if errors.As(err, &mismatch) {
			return fmt.Errorf("track taxonomy mismatch: only in submissions=%v, only in reviewers=%v",
				mismatch.OnlyInSubmissions, mismatch.OnlyInReviewers)
		}
		return fmt.Errorf("running assignment: %w", err)
	}

	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "pytanis-assign: warning: %s: %s\n", w.Proposal, w.Message)
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return export.WriteAssignmentJSON(w, result)
}

func readJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}
