package schedule

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/PioneersHub/pytanis-go/internal/wire"
)

// TimetableEntry is one talk's final placement.
type TimetableEntry struct {
	Talk TalkID
	Slot Slot
}

// Timetable is the reconstructed schedule: one entry per placed talk, in
// a deterministic order (sorted by talk ID) so two runs over identical
// inputs serialize identically.
type Timetable struct {
	Entries []TimetableEntry
}

// ParseSolution reads a solver solution file as a list of
// (variable_name, value) pairs, one per line, whitespace-separated.
// Blank lines and lines starting with '#' are ignored.
func ParseSolution(r io.Reader) (map[string]float64, error) {
	values := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("schedule: malformed solution line %q", line)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("schedule: parsing solution value for %s: %w", fields[0], err)
		}
		values[fields[0]] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("schedule: reading solution: %w", err)
	}
	return values, nil
}

// LoadTimetable validates values against m, then reconstructs a
// Timetable from every placement variable whose value rounds to 1. It
// rejects a solution that violates any constraint in m (invariant 3: no
// slot holds more than one talk, every talk's total slot length equals
// its duration) rather than silently trusting the solver's output.
func LoadTimetable(m *Model, values map[string]float64) (Timetable, error) {
	if err := m.Validate(values); err != nil {
		return Timetable{}, fmt.Errorf("schedule: solver output failed model validation: %w", err)
	}

	var entries []TimetableEntry
	for name, placement := range m.Placements {
		if round(values[name]) == 1 {
			entries = append(entries, TimetableEntry{Talk: placement.Talk, Slot: placement.Slot})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Talk < entries[j].Talk })
	return Timetable{Entries: entries}, nil
}

func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

// Lookup returns the slot a talk was placed into, if any.
func (t Timetable) Lookup(talk TalkID) (Slot, bool) {
	for _, e := range t.Entries {
		if e.Talk == talk {
			return e.Slot, true
		}
	}
	return Slot{}, false
}

// infeasible returns a wire.NoSchedule error, used when the solver
// reports an infeasible model or exhausts its time limit with no
// incumbent solution, per the solve contract.
func infeasible(reason string) error {
	return &wire.NoSchedule{Reason: reason}
}
