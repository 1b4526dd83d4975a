package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PioneersHub/pytanis-go/pkg/logger"
	"github.com/PioneersHub/pytanis-go/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Run carries one scheduling attempt from collected inputs through to an
// emitted timetable, driving the Collecting -> Building -> Writing ->
// Solving -> Loading -> Emitting state machine. Each call to Execute
// performs the whole pipeline; State reflects the last stage reached.
type Run struct {
	runner Runner
	log    logger.Logger
	tracer trace.Tracer

	ID    string
	State RunState
}

// NewRun constructs a Run bound to the given Runner (typically an
// ExecRunner, or a fake in tests). tracer may be nil, in which case
// Execute falls back to the process-global OpenTelemetry provider.
func NewRun(runner Runner, log logger.Logger, tracer trace.Tracer) *Run {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	id := telemetry.NewCorrelationID()
	if cal, ok := log.(logger.ComponentAwareLogger); ok {
		log = cal.WithComponent("schedule.run").WithField("run_id", id)
	}
	return &Run{runner: runner, log: log, tracer: tracer, ID: id, State: Collecting}
}

// Execute builds the model from in, writes it to a temporary MPS file,
// invokes the solver, and loads the resulting Timetable. The temporary
// directory is removed on success and preserved on failure for
// inspection, per the solver exchange contract.
func (r *Run) Execute(ctx context.Context, in Input) (Timetable, error) {
	ctx, runSpan := telemetry.StartSpan(ctx, r.tracer, "schedule.run", attribute.String("run_id", r.ID))
	defer func() { telemetry.EndSpan(runSpan, nil) }()

	r.State = Building
	_, buildSpan := telemetry.StartSpan(ctx, r.tracer, "schedule.building", attribute.Int("talks", len(in.Talks)), attribute.Int("slots", len(in.Slots)))
	model, err := Build(in)
	telemetry.EndSpan(buildSpan, err)
	if err != nil {
		r.State = Failed
		return Timetable{}, fmt.Errorf("schedule: building model: %w", err)
	}

	dir, err := os.MkdirTemp("", "pytanis-schedule-*")
	if err != nil {
		r.State = Failed
		return Timetable{}, fmt.Errorf("schedule: creating run directory: %w", err)
	}

	r.State = Writing
	mpsPath := filepath.Join(dir, "model.mps")
	solutionPath := filepath.Join(dir, "solution.txt")
	if err := writeMPSFile(model, mpsPath); err != nil {
		r.State = Failed
		return Timetable{}, err
	}

	r.State = Solving
	_, solveSpan := telemetry.StartSpan(ctx, r.tracer, "schedule.solving", attribute.String("mps_path", mpsPath))
	runErr := r.runner.Run(ctx, mpsPath, solutionPath)
	telemetry.EndSpan(solveSpan, runErr)
	if runErr != nil {
		r.State = Failed
		r.log.Warn("solver run failed, preserving run directory", "dir", dir, "error", runErr)
		return Timetable{}, infeasible(runErr.Error())
	}

	r.State = Loading
	values, err := readSolutionFile(solutionPath)
	if err != nil {
		r.State = Failed
		return Timetable{}, err
	}

	timetable, err := LoadTimetable(model, values)
	if err != nil {
		r.State = Failed
		return Timetable{}, err
	}

	r.State = Emitting
	if err := os.RemoveAll(dir); err != nil {
		r.log.Warn("failed to clean up run directory after success", "dir", dir, "error", err)
	}
	r.State = Emitted
	return timetable, nil
}

func writeMPSFile(m *Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("schedule: creating MPS file: %w", err)
	}
	defer f.Close()
	if err := WriteMPS(f, m, "pytanis-schedule"); err != nil {
		return fmt.Errorf("schedule: writing MPS file: %w", err)
	}
	return nil
}

func readSolutionFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schedule: opening solution file: %w", err)
	}
	defer f.Close()
	return ParseSolution(f)
}
