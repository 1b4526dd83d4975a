// Package schedule implements the schedule optimization engine: a
// mixed-integer program over (talk, day, session, position, room)
// placement variables, an external solver invocation, and the state
// machine that carries one run from collected inputs to an emitted
// timetable.
//
// No MIP/LP modeling library appears anywhere in the retrieved example
// pack, so the model builder, MPS writer, and solution parser below are
// hand-written against the standard library — the one core subsystem this
// module has no third-party dependency to adopt for. See DESIGN.md.
package schedule

import (
	"fmt"
	"sort"
)

// TalkID and RoomID are opaque identifiers matching the upstream's
// proposal code and room name respectively.
type TalkID string
type RoomID string

// Talk is one scheduling input: a proposal reduced to the attributes the
// optimizer needs.
type Talk struct {
	ID          TalkID
	DurationMin int
	MainTrack   string
	SubTrack    string
	Sponsored   bool
}

// Slot is one (day, session, position, room) placement opportunity.
type Slot struct {
	Day      int
	Session  int
	Position int
	Room     RoomID
	// LengthMin is the slot's duration; 0 marks a non-existent slot and
	// must never appear in Input.Slots.
	LengthMin int
}

func (s Slot) key() string {
	return fmt.Sprintf("%d_%d_%d_%s", s.Day, s.Session, s.Position, s.Room)
}

// dsl identifies a (day, session, position) triple independent of room,
// the grouping the co-occurrence auxiliary variable ranges over.
type dsl struct {
	Day, Session, Position int
}

// dsr identifies a (day, session, room) triple, the grouping the
// track-homogeneity auxiliary variables range over.
type dsr struct {
	Day, Session int
	Room         RoomID
}

// Pref captures a speaker/room eligibility preference for one
// (talk, slot) pair, valued in {-1, 0, 1}.
type Pref struct {
	Talk  TalkID
	Slot  Slot
	Value int
}

// Pairing is a pair of talks (e.g. the two parts of a tutorial) that must
// occupy consecutive positions in the same room and session.
type Pairing struct {
	First, Second TalkID
}

// Input collects everything the builder needs to construct a Model.
type Input struct {
	Talks    []Talk
	Slots    []Slot
	Prefs    []Pref
	Fit      map[TalkID]map[RoomID]float64
	Cooc     map[TalkID]map[TalkID]float64
	Pairings []Pairing
}

// Sense is a constraint's comparison operator.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "L"
	case GE:
		return "G"
	default:
		return "E"
	}
}

// Variable is one column of the model.
type Variable struct {
	Name   string
	Binary bool
	LB, UB float64
	Obj    float64
}

// Constraint is one row of the model: Σ Coeffs[v]·v (Sense) RHS.
type Constraint struct {
	Name   string
	Sense  Sense
	RHS    float64
	Coeffs map[string]float64
}

// Placement records which (talk, slot) a placement variable represents,
// the inverse of xName, kept explicit so the solution loader never has
// to re-derive it by parsing the variable name string.
type Placement struct {
	Talk TalkID
	Slot Slot
}

// Model is the in-memory sparse MIP: a variable table, a list of
// constraint rows, and an objective vector folded into each variable's
// Obj field (the model is always a maximization).
type Model struct {
	Vars        []Variable
	Constraints []Constraint
	Placements  map[string]Placement

	varIndex map[string]int
}

// NewModel constructs an empty model.
func NewModel() *Model {
	return &Model{varIndex: make(map[string]int), Placements: make(map[string]Placement)}
}

// AddVar registers a variable, returning its name for convenience in
// constraint coefficient maps. Re-adding the same name accumulates into
// its objective coefficient rather than duplicating the column.
func (m *Model) AddVar(v Variable) string {
	if idx, ok := m.varIndex[v.Name]; ok {
		m.Vars[idx].Obj += v.Obj
		return v.Name
	}
	m.varIndex[v.Name] = len(m.Vars)
	m.Vars = append(m.Vars, v)
	return v.Name
}

// AddObjective adds coeff to varName's existing objective term.
func (m *Model) AddObjective(varName string, coeff float64) {
	if idx, ok := m.varIndex[varName]; ok {
		m.Vars[idx].Obj += coeff
	}
}

// AddConstraint appends a constraint row.
func (m *Model) AddConstraint(c Constraint) {
	m.Constraints = append(m.Constraints, c)
}

// VarNames returns variable names in a stable, deterministic order (the
// order they were added), matching the "byte-identical across runs"
// invariant for anything derived from model order.
func (m *Model) VarNames() []string {
	names := make([]string, len(m.Vars))
	for i, v := range m.Vars {
		names[i] = v.Name
	}
	return names
}

// Validate checks that values satisfies every constraint in the model,
// within tolerance. It is used both by tests (to confirm a hand-picked
// assignment is feasible) and by solution.go to reject a solver's output
// that violates the model it was asked to solve.
func (m *Model) Validate(values map[string]float64) error {
	const tol = 1e-6
	for _, c := range m.Constraints {
		var sum float64
		for name, coeff := range c.Coeffs {
			sum += coeff * values[name]
		}
		switch c.Sense {
		case LE:
			if sum > c.RHS+tol {
				return fmt.Errorf("constraint %s violated: %.6f > %.6f", c.Name, sum, c.RHS)
			}
		case GE:
			if sum < c.RHS-tol {
				return fmt.Errorf("constraint %s violated: %.6f < %.6f", c.Name, sum, c.RHS)
			}
		case EQ:
			if sum < c.RHS-tol || sum > c.RHS+tol {
				return fmt.Errorf("constraint %s violated: %.6f != %.6f", c.Name, sum, c.RHS)
			}
		}
	}
	return nil
}

func xName(talk TalkID, s Slot) string {
	return fmt.Sprintf("x_%s_%s", talk, s.key())
}

func coName(t1, t2 TalkID) string {
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return fmt.Sprintf("co_%s_%s", t1, t2)
}

func mtName(d dsr, mainTrack string) string {
	return fmt.Sprintf("mt_%d_%d_%s_%s", d.Day, d.Session, d.Room, mainTrack)
}

func stName(d dsr, subTrack string) string {
	return fmt.Sprintf("st_%d_%d_%s_%s", d.Day, d.Session, d.Room, subTrack)
}

// Build constructs the sparse MIP from in. The popularity/capacity (fit)
// and preference terms are linear in the placement variable directly, so
// they are folded straight into each x variable's objective coefficient
// rather than materialized as a separate x_room auxiliary variable,
// without the redundant columns. The co-occurrence and track-homogeneity
// terms are genuinely non-linear in x and keep their auxiliary variables
// and linearizing constraints.
func Build(in Input) (*Model, error) {
	m := NewModel()

	prefByTalkSlot := make(map[string]int, len(in.Prefs))
	for _, p := range in.Prefs {
		prefByTalkSlot[string(p.Talk)+"|"+p.Slot.key()] = p.Value
	}

	slotsByDSL := make(map[dsl][]Slot)
	slotsByDSR := make(map[dsr][]Slot)
	positions := make(map[int]bool)
	for _, s := range in.Slots {
		if s.LengthMin <= 0 {
			continue
		}
		key := dsl{s.Day, s.Session, s.Position}
		slotsByDSL[key] = append(slotsByDSL[key], s)
		rkey := dsr{s.Day, s.Session, s.Room}
		slotsByDSR[rkey] = append(slotsByDSR[rkey], s)
		positions[s.Position] = true
	}
	numPositions := len(positions)

	// x[t, slot] variables, constraints 1-3.
	talkVars := make(map[TalkID][]string, len(in.Talks))
	for _, t := range in.Talks {
		var scheduleCoeffs = map[string]float64{}
		var durationCoeffs = map[string]float64{}
		for _, s := range in.Slots {
			if s.LengthMin <= 0 {
				continue
			}
			name := xName(t.ID, s)
			obj := 1e8*float64(prefByTalkSlot[string(t.ID)+"|"+s.key()]) + 1e6*fitOf(in.Fit, t.ID, s.Room)
			m.AddVar(Variable{Name: name, Binary: true, UB: 1, Obj: obj})
			m.Placements[name] = Placement{Talk: t.ID, Slot: s}
			scheduleCoeffs[name] = 1
			durationCoeffs[name] = float64(s.LengthMin)
			talkVars[t.ID] = append(talkVars[t.ID], name)
		}

		m.AddConstraint(Constraint{
			Name: "sched_" + string(t.ID), Sense: EQ, RHS: 1, Coeffs: scheduleCoeffs,
		})
		m.AddConstraint(Constraint{
			Name: "dur_" + string(t.ID), Sense: EQ, RHS: float64(t.DurationMin), Coeffs: durationCoeffs,
		})
	}

	// Constraint 2: each slot holds at most one talk.
	for _, s := range in.Slots {
		if s.LengthMin <= 0 {
			continue
		}
		coeffs := map[string]float64{}
		for _, t := range in.Talks {
			coeffs[xName(t.ID, s)] = 1
		}
		m.AddConstraint(Constraint{Name: "slot_" + s.key(), Sense: LE, RHS: 1, Coeffs: coeffs})
	}

	// co[t1,t2] auxiliary variables + linearization, objective term
	// -1e4 * Σ cooc * co.
	for i, t1 := range in.Talks {
		for _, t2 := range in.Talks[i+1:] {
			cooc := coocOf(in.Cooc, t1.ID, t2.ID)
			if cooc == 0 {
				continue
			}
			name := coName(t1.ID, t2.ID)
			m.AddVar(Variable{Name: name, Binary: true, UB: 1, Obj: -1e4 * cooc})

			for _, key := range sortedDSLKeys(slotsByDSL) {
				slots := slotsByDSL[key]
				coeffs := map[string]float64{name: 1}
				for _, s := range slots {
					coeffs[xName(t1.ID, s)] -= 1
					coeffs[xName(t2.ID, s)] -= 1
				}
				name1 := fmt.Sprintf("co_%s_%s_%d_%d_%d", t1.ID, t2.ID, key.Day, key.Session, key.Position)
				m.AddConstraint(Constraint{Name: name1, Sense: GE, RHS: -1, Coeffs: coeffs})
			}
		}
	}

	// mt/st auxiliary variables + linearization, objective terms
	// -1e2 * Σ mt, -1 * Σ st. Main/sub tracks are collected once, in the
	// order talks first introduce them, so variable creation order does
	// not depend on map iteration.
	var mainOrder, subOrder []string
	seenMain := map[string]bool{}
	seenSub := map[string]bool{}
	talksByMain := map[string][]TalkID{}
	talksBySub := map[string][]TalkID{}
	for _, t := range in.Talks {
		if !seenMain[t.MainTrack] {
			seenMain[t.MainTrack] = true
			mainOrder = append(mainOrder, t.MainTrack)
		}
		if !seenSub[t.SubTrack] {
			seenSub[t.SubTrack] = true
			subOrder = append(subOrder, t.SubTrack)
		}
		talksByMain[t.MainTrack] = append(talksByMain[t.MainTrack], t.ID)
		talksBySub[t.SubTrack] = append(talksBySub[t.SubTrack], t.ID)
	}

	for _, d := range sortedDSRKeys(slotsByDSR) {
		slots := slotsByDSR[d]
		for _, main := range mainOrder {
			name := mtName(d, main)
			m.AddVar(Variable{Name: name, Binary: true, UB: 1, Obj: -1e2})
			coeffs := map[string]float64{name: float64(numPositions)}
			for _, tid := range talksByMain[main] {
				for _, s := range slots {
					coeffs[xName(tid, s)] -= 1
				}
			}
			m.AddConstraint(Constraint{Name: "mt_" + name, Sense: GE, RHS: 0, Coeffs: coeffs})
		}
		for _, sub := range subOrder {
			name := stName(d, sub)
			m.AddVar(Variable{Name: name, Binary: true, UB: 1, Obj: -1})
			coeffs := map[string]float64{name: float64(numPositions)}
			for _, tid := range talksBySub[sub] {
				for _, s := range slots {
					coeffs[xName(tid, s)] -= 1
				}
			}
			m.AddConstraint(Constraint{Name: "st_" + name, Sense: GE, RHS: 0, Coeffs: coeffs})
		}
	}

	// Constraint 4: consecutive-slot co-location for paired sessions.
	for _, pair := range in.Pairings {
		for _, d := range sortedDSRKeys(slotsByDSR) {
			slots := slotsByDSR[d]
			byPos := make(map[int]Slot, len(slots))
			for _, s := range slots {
				byPos[s.Position] = s
			}
			var positionsSorted []int
			for p := range byPos {
				positionsSorted = append(positionsSorted, p)
			}
			sort.Ints(positionsSorted)
			for _, p := range positionsSorted {
				cur := byPos[p]
				if _, ok := byPos[p-1]; !ok {
					// Second cannot open a run of positions.
					m.AddConstraint(Constraint{
						Name:   fmt.Sprintf("pairhead_%s_%s_%d_%d_%s_%d", pair.First, pair.Second, d.Day, d.Session, d.Room, p),
						Sense:  EQ,
						Coeffs: map[string]float64{xName(pair.Second, cur): 1},
					})
				}
				next, ok := byPos[p+1]
				if !ok {
					// First cannot close a run of positions.
					m.AddConstraint(Constraint{
						Name:   fmt.Sprintf("pairtail_%s_%s_%d_%d_%s_%d", pair.First, pair.Second, d.Day, d.Session, d.Room, p),
						Sense:  EQ,
						Coeffs: map[string]float64{xName(pair.First, cur): 1},
					})
					continue
				}
				name := fmt.Sprintf("pair_%s_%s_%d_%d_%s_%d", pair.First, pair.Second, d.Day, d.Session, d.Room, p)
				m.AddConstraint(Constraint{
					Name:  name,
					Sense: EQ,
					RHS:   0,
					Coeffs: map[string]float64{
						xName(pair.First, cur):   1,
						xName(pair.Second, next): -1,
					},
				})
			}
		}
	}

	return m, nil
}

// sortedDSLKeys returns the keys of a (day, session, position) map in a
// fixed total order, so variable and constraint creation never depends on
// Go's randomized map iteration order.
func sortedDSLKeys(m map[dsl][]Slot) []dsl {
	keys := make([]dsl, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Session != b.Session {
			return a.Session < b.Session
		}
		return a.Position < b.Position
	})
	return keys
}

// sortedDSRKeys returns the keys of a (day, session, room) map in a fixed
// total order, for the same reason as sortedDSLKeys.
func sortedDSRKeys(m map[dsr][]Slot) []dsr {
	keys := make([]dsr, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Session != b.Session {
			return a.Session < b.Session
		}
		return a.Room < b.Room
	})
	return keys
}

func fitOf(fit map[TalkID]map[RoomID]float64, t TalkID, r RoomID) float64 {
	if fit == nil {
		return 0
	}
	return fit[t][r]
}

func coocOf(cooc map[TalkID]map[TalkID]float64, t1, t2 TalkID) float64 {
	if cooc == nil {
		return 0
	}
	if v, ok := cooc[t1][t2]; ok {
		return v
	}
	return cooc[t2][t1]
}
