// Package export renders the engine outputs (assignments, timetables)
// into the upload artifact shapes this pipeline produces: the bulk-upload
// assignment JSON document and a human-inspectable timetable dump.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/PioneersHub/pytanis-go/internal/assignment"
)

// AssignmentRow is one reviewer's upload row.
type AssignmentRow struct {
	Email     string   `json:"email"`
	Proposals []string `json:"proposals"`
}

// WriteAssignmentJSON renders result to the documented upload shape:
// [{"email": str, "proposals": [code, ...]}, ...], sorted by email for
// byte-identical output across runs.
func WriteAssignmentJSON(w io.Writer, result assignment.Result) error {
	rows := result.Rows()
	out := make([]AssignmentRow, len(rows))
	for i, r := range rows {
		proposals := r.Proposals
		if proposals == nil {
			proposals = []string{}
		}
		out[i] = AssignmentRow{Email: r.Email, Proposals: proposals}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("export: encoding assignment JSON: %w", err)
	}
	return nil
}

// ReadAssignmentJSON parses the upload document shape back into rows, the
// inverse of WriteAssignmentJSON, used by the round-trip test and by
// callers re-ingesting a previously exported artifact.
func ReadAssignmentJSON(r io.Reader) ([]AssignmentRow, error) {
	var rows []AssignmentRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("export: decoding assignment JSON: %w", err)
	}
	return rows, nil
}
