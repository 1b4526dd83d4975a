// Package projections implements the tabular projections: pure
// functions turning wire records into flat row/column tables suitable as
// assignment and scheduling inputs, plus the bias-correction formulas used
// to turn raw review scores into comparable per-proposal aggregates.
//
// Every function here is a pure transformation over plain slices — no
// receiver, no hidden state.
package projections

import (
	"github.com/PioneersHub/pytanis-go/internal/wire"
)

// ProposalRow is one (proposal, speaker) pair. A proposal with no speakers
// yields a single row with empty speaker fields; a proposal with N
// speakers yields N rows sharing every proposal-level field.
type ProposalRow struct {
	Code           string
	Title          string
	Track          string
	MainTrack      string
	SubTrack       string
	SubmissionType string
	State          wire.ProposalState
	DurationMin    int
	SpeakerCode    string
	SpeakerName    string
}

// ProposalTable explodes proposals into one row per (proposal, speaker).
func ProposalTable(proposals []wire.Proposal) []ProposalRow {
	var rows []ProposalRow
	for _, p := range proposals {
		trackName := ""
		if p.Track != nil {
			if full, ok := p.Track.Full(); ok {
				trackName = full.Name.Text("en")
			}
		}
		main, sub := SplitTrack(trackName)

		submissionType := ""
		if full, ok := p.SubmissionType.Full(); ok {
			submissionType = full.Name.Text("en")
		}

		base := ProposalRow{
			Code:           p.Code,
			Title:          p.Title,
			Track:          trackName,
			MainTrack:      main,
			SubTrack:       sub,
			SubmissionType: submissionType,
			State:          p.State,
			DurationMin:    p.DurationMin,
		}

		if len(p.Speakers) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, sp := range p.Speakers {
			row := base
			row.SpeakerCode = sp.Code()
			if full, ok := sp.Full(); ok {
				row.SpeakerName = full.Name
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// GroupSpeakersByProposal re-implodes an exploded ProposalTable back into
// a proposal-code -> ordered speaker-code list mapping, the inverse of the
// explode step ProposalTable performs.
func GroupSpeakersByProposal(rows []ProposalRow) map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, r := range rows {
		if r.SpeakerCode == "" {
			if _, ok := out[r.Code]; !ok {
				out[r.Code] = nil
			}
			continue
		}
		if seen[r.Code] == nil {
			seen[r.Code] = make(map[string]bool)
		}
		if seen[r.Code][r.SpeakerCode] {
			continue
		}
		seen[r.Code][r.SpeakerCode] = true
		out[r.Code] = append(out[r.Code], r.SpeakerCode)
	}
	return out
}

// SpeakerRow is one (speaker, proposal) pair.
type SpeakerRow struct {
	Code         string
	Name         string
	ProposalCode string
}

// SpeakerTable explodes speakers into one row per (speaker, proposal).
func SpeakerTable(speakers []wire.Speaker) []SpeakerRow {
	var rows []SpeakerRow
	for _, sp := range speakers {
		if len(sp.Proposals) == 0 {
			rows = append(rows, SpeakerRow{Code: sp.Code, Name: sp.Name})
			continue
		}
		for _, code := range sp.Proposals {
			rows = append(rows, SpeakerRow{Code: sp.Code, Name: sp.Name, ProposalCode: code})
		}
	}
	return rows
}

// ReviewRow is a flat row-per-review projection.
type ReviewRow struct {
	ID       int
	Proposal string
	Reviewer string
	Score    *float64
}

// ReviewTable flattens reviews into rows.
func ReviewTable(reviews []wire.Review) []ReviewRow {
	rows := make([]ReviewRow, len(reviews))
	for i, r := range reviews {
		rows[i] = ReviewRow{ID: r.ID, Proposal: r.Proposal, Reviewer: r.Reviewer, Score: r.Score}
	}
	return rows
}

// SplitTrack splits a track name on the first colon into main and sub
// components.
func SplitTrack(name string) (main, sub string) {
	return wire.SplitTrackName(name)
}

// ReviewerMeans computes each reviewer's personal mean score across every
// scored review in rows. Reviewers with no scored reviews are omitted.
func ReviewerMeans(rows []ReviewRow) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range rows {
		if r.Score == nil {
			continue
		}
		sums[r.Reviewer] += *r.Score
		counts[r.Reviewer]++
	}
	means := make(map[string]float64, len(sums))
	for reviewer, sum := range sums {
		means[reviewer] = sum / float64(counts[reviewer])
	}
	return means
}

// DebiasedScore is the raw score minus the reviewer's personal mean.
func DebiasedScore(raw, reviewerMean float64) float64 {
	return raw - reviewerMean
}

// AggregateScore is the mean of a proposal's debiased review scores. It
// returns 0 for a proposal with no scored reviews.
func AggregateScore(debiasedScores []float64) float64 {
	if len(debiasedScores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range debiasedScores {
		sum += s
	}
	return sum / float64(len(debiasedScores))
}

// VoteScore sums public-vote values strictly greater than 1: a value of
// exactly 1 ("indifferent") is discarded, a value of 2 is normalized to 1
// so higher categories dominate, and values above 2 pass through
// unchanged.
func VoteScore(votes []int) int {
	var total int
	for _, v := range votes {
		switch {
		case v <= 1:
			continue
		case v == 2:
			total += 1
		default:
			total += v
		}
	}
	return total
}
