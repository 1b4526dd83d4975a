// Package assignment implements the reviewer assignment engine: a
// deterministic greedy allocator that maps proposals needing review to
// reviewers, honoring per-reviewer track preferences, a load-balancing
// buffer, and a wants-all override.
//
// Determinism is achieved the same way as in
// core/redis_registry.go's listing code: sort by an explicit key, never by
// map iteration order. The inner loop walks reviewers in their original
// input order whenever load ties, so two runs over identical inputs
// produce byte-identical output.
package assignment

import (
	"sort"

	"github.com/PioneersHub/pytanis-go/internal/wire"
)

// Proposal is one input proposal needing review coverage.
type Proposal struct {
	Code      string
	Track     string
	Target    int
	Completed int
}

// Reviewer is one input reviewer and their standing preferences.
type Reviewer struct {
	ID               string
	Email            string
	TrackPreferences []string
	AlreadyAssigned  []string
	WantsAll         bool
}

// Warning is a non-fatal diagnostic emitted when no preference-matching
// reviewer exists for a proposal.
type Warning struct {
	Proposal string
	Message  string
}

// Options configures one Assign run.
type Options struct {
	// Buffer is the extra reviewer count assigned beyond target to
	// tolerate no-shows. Typical range is 2-6; callers choose the
	// concrete value.
	Buffer int
	// TrackAliases maps a submission track name to the reviewer
	// preference track name it should be matched against. Tracks absent
	// from the map are matched as-is.
	TrackAliases map[string]string
	// Diagnostics receives non-fatal warnings. Defaults to a no-op.
	Diagnostics func(Warning)
}

// Row is one reviewer's ordered proposal list, the shape the export
// artifact and deterministic serialization both rely on.
type Row struct {
	Email     string
	Proposals []string
}

// Result is the output of one Assign run.
type Result struct {
	// Assignments maps reviewer email to its ordered proposal-code list.
	Assignments map[string][]string
}

// Rows returns the assignment sorted by reviewer email, the canonical
// order used for byte-identical serialization across runs.
func (r Result) Rows() []Row {
	rows := make([]Row, 0, len(r.Assignments))
	for email, codes := range r.Assignments {
		rows = append(rows, Row{Email: email, Proposals: codes})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Email < rows[j].Email })
	return rows
}

type proposalState struct {
	input     Proposal
	remaining int
	origIndex int
}

type reviewerState struct {
	input       Reviewer
	assigned    map[string]bool
	assignments []string
	origIndex   int
}

// Assign runs the buffer-subtracting greedy allocator: a proposal's
// already-assigned reviewer count is subtracted from its remaining need
// before the buffer is applied, rather than left to inflate the target
// independently.
func Assign(proposals []Proposal, reviewers []Reviewer, opts Options) (Result, error) {
	if opts.Diagnostics == nil {
		opts.Diagnostics = func(Warning) {}
	}

	if err := checkTrackCoverage(proposals, reviewers, opts.TrackAliases); err != nil {
		return Result{}, err
	}

	alreadyAssignedCount := make(map[string]int, len(proposals))
	reviewerStates := make([]*reviewerState, len(reviewers))
	for i, rv := range reviewers {
		rs := &reviewerState{
			input:     rv,
			assigned:  make(map[string]bool, len(rv.AlreadyAssigned)),
			origIndex: i,
		}
		for _, code := range rv.AlreadyAssigned {
			if !rs.assigned[code] {
				rs.assigned[code] = true
				rs.assignments = append(rs.assignments, code)
				alreadyAssignedCount[code]++
			}
		}
		reviewerStates[i] = rs
	}

	proposalStates := make([]*proposalState, len(proposals))
	for i, p := range proposals {
		need := p.Target - p.Completed
		if need < 0 {
			need = 0
		}
		remaining := need + opts.Buffer - alreadyAssignedCount[p.Code]
		if remaining < 0 {
			remaining = 0
		}
		proposalStates[i] = &proposalState{input: p, remaining: remaining, origIndex: i}
	}

	sorted := make([]*proposalState, len(proposalStates))
	copy(sorted, proposalStates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].remaining > sorted[j].remaining
	})

	alias := func(track string) string {
		if mapped, ok := opts.TrackAliases[track]; ok {
			return mapped
		}
		return track
	}

	for {
		progressed := false
		for _, ps := range sorted {
			if ps.remaining <= 0 {
				continue
			}
			reviewer, usedFallback := pickReviewer(reviewerStates, ps, alias)
			if usedFallback {
				opts.Diagnostics(Warning{
					Proposal: ps.input.Code,
					Message:  (&wire.NoReviewer{Proposal: ps.input.Code}).Error(),
				})
			}
			if reviewer == nil {
				ps.remaining = 0
				continue
			}
			reviewer.assigned[ps.input.Code] = true
			reviewer.assignments = append(reviewer.assignments, ps.input.Code)
			ps.remaining--
			progressed = true
		}
		if !progressed {
			break
		}
	}

	allCodes := make([]string, len(proposals))
	for i, p := range proposals {
		allCodes[i] = p.Code
	}
	for _, rs := range reviewerStates {
		if !rs.input.WantsAll {
			continue
		}
		for _, code := range allCodes {
			if rs.assigned[code] {
				continue
			}
			rs.assigned[code] = true
			rs.assignments = append(rs.assignments, code)
		}
	}

	out := make(map[string][]string, len(reviewerStates))
	for _, rs := range reviewerStates {
		out[rs.input.Email] = rs.assignments
	}
	return Result{Assignments: out}, nil
}

// pickReviewer selects the reviewer for one unit of proposal ps: a
// preference-matching reviewer with the fewest current assignments, ties
// broken by input order; falling back to the least-loaded non-excluded
// reviewer when no preference match exists. usedFallback reports whether
// the preference-matching loop came up empty and the fallback loop ran,
// regardless of whether that fallback loop itself found a reviewer.
func pickReviewer(reviewers []*reviewerState, ps *proposalState, alias func(string) string) (reviewer *reviewerState, usedFallback bool) {
	target := alias(ps.input.Track)

	var best *reviewerState
	for _, rs := range reviewers {
		if rs.assigned[ps.input.Code] {
			continue
		}
		if !prefersTrack(rs.input.TrackPreferences, target) {
			continue
		}
		if best == nil || len(rs.assignments) < len(best.assignments) {
			best = rs
		}
	}
	if best != nil {
		return best, false
	}

	for _, rs := range reviewers {
		if rs.assigned[ps.input.Code] {
			continue
		}
		if best == nil || len(rs.assignments) < len(best.assignments) {
			best = rs
		}
	}
	return best, true
}

func prefersTrack(prefs []string, track string) bool {
	for _, p := range prefs {
		if p == track {
			return true
		}
	}
	return false
}

func checkTrackCoverage(proposals []Proposal, reviewers []Reviewer, aliases map[string]string) error {
	submissionTracks := make(map[string]bool)
	for _, p := range proposals {
		track := p.Track
		if mapped, ok := aliases[track]; ok {
			track = mapped
		}
		submissionTracks[track] = true
	}

	reviewerTracks := make(map[string]bool)
	for _, r := range reviewers {
		for _, t := range r.TrackPreferences {
			reviewerTracks[t] = true
		}
	}

	var onlyInSubmissions, onlyInReviewers []string
	for t := range submissionTracks {
		if !reviewerTracks[t] {
			onlyInSubmissions = append(onlyInSubmissions, t)
		}
	}
	for t := range reviewerTracks {
		if !submissionTracks[t] {
			onlyInReviewers = append(onlyInReviewers, t)
		}
	}
	sort.Strings(onlyInSubmissions)
	sort.Strings(onlyInReviewers)

	if len(onlyInSubmissions) > 0 || len(onlyInReviewers) > 0 {
		return &wire.TrackMismatch{OnlyInSubmissions: onlyInSubmissions, OnlyInReviewers: onlyInReviewers}
	}
	return nil
}
