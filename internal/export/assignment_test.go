package export_test

import (
	"bytes"
	"testing"

	"github.com/PioneersHub/pytanis-go/internal/assignment"
	"github.com/PioneersHub/pytanis-go/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Serialize an assignment to JSON, parse it back: equal to the original.
func TestAssignmentJSONRoundTrip(t *testing.T) {
	result := assignment.Result{Assignments: map[string][]string{
		"b@example.com": {"P3"},
		"a@example.com": {"P1", "P2"},
	}}

	var buf bytes.Buffer
	require.NoError(t, export.WriteAssignmentJSON(&buf, result))

	rows, err := export.ReadAssignmentJSON(&buf)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "a@example.com", rows[0].Email, "rows are sorted by email for deterministic output")
	assert.Equal(t, []string{"P1", "P2"}, rows[0].Proposals)
	assert.Equal(t, "b@example.com", rows[1].Email)
	assert.Equal(t, []string{"P3"}, rows[1].Proposals)
}

func TestAssignmentJSONOfEmptyResultIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteAssignmentJSON(&buf, assignment.Result{}))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestAssignmentJSONReviewerWithNoProposalsGetsEmptyArray(t *testing.T) {
	result := assignment.Result{Assignments: map[string][]string{"a@example.com": nil}}
	var buf bytes.Buffer
	require.NoError(t, export.WriteAssignmentJSON(&buf, result))
	assert.JSONEq(t, `[{"email":"a@example.com","proposals":[]}]`, buf.String())
}
