package schedule_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/PioneersHub/pytanis-go/internal/schedule"
	"github.com/PioneersHub/pytanis-go/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner stands in for an external solver binary: it reads the MPS
// file exists (sanity), then writes a canned solution file, mimicking a
// real solver's output contract without depending on one being installed.
type fakeRunner struct {
	solution string
	err      error
}

func (f fakeRunner) Run(ctx context.Context, mpsPath, solutionPath string) error {
	if f.err != nil {
		return f.err
	}
	if _, err := os.Stat(mpsPath); err != nil {
		return fmt.Errorf("mps file missing: %w", err)
	}
	return os.WriteFile(solutionPath, []byte(f.solution), 0o600)
}

func TestRunExecutesFullPipelineToEmitted(t *testing.T) {
	slot := schedule.Slot{Day: 1, Session: 1, Position: 1, Room: "R1", LengthMin: 30}
	in := schedule.Input{
		Talks: []schedule.Talk{{ID: "T1", DurationMin: 30}},
		Slots: []schedule.Slot{slot},
	}

	runner := fakeRunner{solution: "x_T1_1_1_1_R1 1\nmt_1_1_R1_ 1\nst_1_1_R1_ 1\n"}
	run := schedule.NewRun(runner, nil, nil)

	timetable, err := run.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, schedule.Emitted, run.State)
	require.Len(t, timetable.Entries, 1)
	assert.Equal(t, schedule.TalkID("T1"), timetable.Entries[0].Talk)

	placedSlot, ok := timetable.Lookup("T1")
	require.True(t, ok)
	assert.Equal(t, slot, placedSlot)
}

// The solver returning infeasible fails the run with NoSchedule.
func TestRunFailsWithNoScheduleWhenSolverReportsInfeasible(t *testing.T) {
	in := schedule.Input{
		Talks: []schedule.Talk{{ID: "T1", DurationMin: 30}},
		Slots: []schedule.Slot{{Day: 1, Session: 1, Position: 1, Room: "R1", LengthMin: 30}},
	}

	runner := fakeRunner{err: fmt.Errorf("solver exited 2: infeasible")}
	run := schedule.NewRun(runner, nil, nil)

	_, err := run.Execute(context.Background(), in)
	require.Error(t, err)
	var noSchedule *wire.NoSchedule
	require.ErrorAs(t, err, &noSchedule)
	assert.Equal(t, schedule.Failed, run.State)
}

func TestRunRejectsSolutionViolatingModelConstraints(t *testing.T) {
	in := schedule.Input{
		Talks: []schedule.Talk{{ID: "T1", DurationMin: 45}},
		Slots: []schedule.Slot{{Day: 1, Session: 1, Position: 1, Room: "R1", LengthMin: 30}},
	}

	// The only slot is 30 minutes but the talk needs 45; a solver
	// claiming to place it there violates the duration constraint.
	runner := fakeRunner{solution: "x_T1_1_1_1_R1 1\n"}
	run := schedule.NewRun(runner, nil, nil)

	_, err := run.Execute(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, schedule.Failed, run.State)
}
