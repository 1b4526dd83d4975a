// Package wire holds the value objects exchanged with the upstream
// conference-management service: proposals, speakers, reviews, rooms,
// tracks, submission types, questions/answers, and the multilingual
// string wrapper used throughout. Types here are immutable value objects;
// nothing in this package performs I/O.
package wire

import (
	"strings"
	"time"
)

// MultiLingualString maps a language tag ("en", "de", ...) to display text.
// By convention "en" is always present; equality is structural.
type MultiLingualString map[string]string

// Text returns the string for lang, falling back to "en", then to the
// first value present in map iteration order (only reached when "en" is
// itself missing, which violates convention but must not panic).
func (m MultiLingualString) Text(lang string) string {
	if v, ok := m[lang]; ok {
		return v
	}
	if v, ok := m["en"]; ok {
		return v
	}
	for _, v := range m {
		return v
	}
	return ""
}

// Equal reports structural equality without reflection.
func (m MultiLingualString) Equal(other MultiLingualString) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ProposalState is the lifecycle state of a submission.
type ProposalState string

const (
	StateSubmitted ProposalState = "submitted"
	StateAccepted  ProposalState = "accepted"
	StateConfirmed ProposalState = "confirmed"
	StateRejected  ProposalState = "rejected"
	StateWithdrawn ProposalState = "withdrawn"
	StateCanceled  ProposalState = "canceled"
	StateDeleted   ProposalState = "deleted"
)

// QuestionTarget identifies what kind of entity a Question is attached to.
type QuestionTarget string

const (
	TargetProposal QuestionTarget = "proposal"
	TargetSpeaker  QuestionTarget = "speaker"
	TargetReview   QuestionTarget = "review"
)

// Track is a taxonomic grouping of proposals, e.g. "PyData: Machine Learning".
type Track struct {
	ID   int                `json:"id"`
	Name MultiLingualString `json:"name"`
}

// RefID implements Identifiable.
func (t Track) RefID() int { return t.ID }

// MainSub splits the track name on the first colon: "PyData: ML" ->
// ("PyData", "ML"). When there is no colon, Sub is empty.
func (t Track) MainSub(lang string) (main, sub string) {
	return SplitTrackName(t.Name.Text(lang))
}

// SplitTrackName splits a display name on the first colon and trims
// surrounding whitespace from both halves.
func SplitTrackName(name string) (main, sub string) {
	idx := strings.Index(name, ":")
	if idx < 0 {
		return strings.TrimSpace(name), ""
	}
	return strings.TrimSpace(name[:idx]), strings.TrimSpace(name[idx+1:])
}

// SubmissionType describes the kind of proposal (talk, workshop, sponsored
// slot, ...).
type SubmissionType struct {
	ID   int                `json:"id"`
	Name MultiLingualString `json:"name"`
}

// RefID implements Identifiable.
func (s SubmissionType) RefID() int { return s.ID }

// Option is one allowed value of a closed-set Question.
type Option struct {
	ID    int                `json:"id"`
	Label MultiLingualString `json:"label"`
}

// RefID implements Identifiable.
func (o Option) RefID() int { return o.ID }

// Question describes a custom field attached to proposals, speakers, or
// reviews, optionally constrained to a closed set of Options.
type Question struct {
	ID      int            `json:"id"`
	Prompt  MultiLingualString `json:"prompt"`
	Target  QuestionTarget `json:"target"`
	Options []Option       `json:"options,omitempty"`
}

// RefID implements Identifiable.
func (q Question) RefID() int { return q.ID }

// Answer binds a Question to a specific target record with a value and,
// for closed-set questions, the chosen Options.
type Answer struct {
	ID        int      `json:"id"`
	Question  Ref[Question] `json:"question"`
	TargetID  string   `json:"target_id"`
	Value     string   `json:"answer,omitempty"`
	OptionIDs []int    `json:"options,omitempty"`
}

// RefID implements Identifiable.
func (a Answer) RefID() int { return a.ID }

// AvailabilityWindow is a half-open time range during which a speaker or
// room is available.
type AvailabilityWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// URLs bundles the optional external links a proposal may carry.
type URLs struct {
	Slides   string `json:"slides,omitempty"`
	Video    string `json:"video,omitempty"`
	Public   string `json:"public,omitempty"`
}

// Proposal is a talk submission in any lifecycle state.
type Proposal struct {
	Code           string              `json:"code"`
	Title          string              `json:"title"`
	Abstract       string              `json:"abstract"`
	Description    string              `json:"description"`
	SubmissionType Ref[SubmissionType] `json:"submission_type"`
	Track          *Ref[Track]         `json:"track,omitempty"`
	State          ProposalState       `json:"state"`
	PendingState   *ProposalState      `json:"pending_state,omitempty"`
	DurationMin    int                 `json:"duration"`
	Speakers       []CodeRef[Speaker]  `json:"speakers"`
	Answers        []Ref[Answer]       `json:"answers,omitempty"`
	CreatedAt      time.Time           `json:"created"`
	URLs           *URLs               `json:"urls,omitempty"`
}

// RefCode implements CodeIdentifiable.
func (p Proposal) RefCode() string { return p.Code }

// Speaker is a person associated with one or more proposals.
type Speaker struct {
	Code         string               `json:"code"`
	Name         string               `json:"name"`
	Biography    string               `json:"biography,omitempty"`
	AvatarURL    string               `json:"avatar,omitempty"`
	Proposals    []string             `json:"submissions,omitempty"`
	Answers      []Ref[Answer]        `json:"answers,omitempty"`
	Availability []AvailabilityWindow `json:"availability,omitempty"`
}

// RefCode implements CodeIdentifiable.
func (s Speaker) RefCode() string { return s.Code }

// Review is one reviewer's evaluation of a proposal.
type Review struct {
	ID         int       `json:"id"`
	Proposal   string    `json:"proposal"`
	Reviewer   string    `json:"user"`
	Score      *float64  `json:"score,omitempty"`
	Text       string    `json:"text,omitempty"`
	CreatedAt  time.Time `json:"created"`
	UpdatedAt  time.Time `json:"updated"`
}

// RefID implements Identifiable.
func (r Review) RefID() int { return r.ID }

// Room is a physical space talks are scheduled into.
type Room struct {
	ID           int                  `json:"id"`
	Name         MultiLingualString   `json:"name"`
	Capacity     int                  `json:"capacity"`
	Availability []AvailabilityWindow `json:"availability,omitempty"`
}

// RefID implements Identifiable.
func (r Room) RefID() int { return r.ID }

// Event identifies one conference edition on the upstream. It is the unit
// most other endpoints are scoped under (a submission, a room, a track all
// belong to exactly one event).
type Event struct {
	Slug string             `json:"slug"`
	Name MultiLingualString `json:"name"`
}

// RefCode implements CodeIdentifiable.
func (e Event) RefCode() string { return e.Slug }

// Tag is a free-form label attachable to proposals, independent of the
// track taxonomy.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// RefID implements Identifiable.
func (t Tag) RefID() int { return t.ID }

// User is the authenticated-user record returned by the "me" endpoint.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
