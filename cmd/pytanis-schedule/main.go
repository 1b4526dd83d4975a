// Command pytanis-schedule runs the schedule optimization engine
// (internal/schedule) end to end: it reads a schedule.Input document,
// builds the MIP model, invokes an external solver binary, and writes the
// resulting timetable as YAML (internal/export).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PioneersHub/pytanis-go/internal/export"
	"github.com/PioneersHub/pytanis-go/internal/schedule"
	"github.com/PioneersHub/pytanis-go/pkg/logger"
	"github.com/PioneersHub/pytanis-go/pkg/telemetry"
)

func main() {
	inputPath := flag.String("input", "", "path to a JSON schedule.Input document (required)")
	outPath := flag.String("out", "", "output YAML file path; defaults to stdout")
	solverBin := flag.String("solver", "", "solver binary path (required)")
	solverArgs := flag.String("solver-args", "{input} {output}", "space-separated solver argument template; {input}/{output} are substituted")
	timeout := flag.Duration("timeout", 2*time.Hour, "solver wall-clock deadline; 0 disables")
	flag.Parse()

	if *inputPath == "" || *solverBin == "" {
		fmt.Fprintln(os.Stderr, "pytanis-schedule: -input and -solver are required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *inputPath, *outPath, *solverBin, *solverArgs, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "pytanis-schedule: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, inputPath, outPath, solverBin, solverArgs string, timeout time.Duration) error {
	var in schedule.Input
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&in); err != nil {
		return fmt.Errorf("decoding input: %w", err)
	}

	log := logger.NewDefaultLogger()
	runner := schedule.NewExecRunner(schedule.SolverConfig{
		BinaryPath:   solverBin,
		ArgsTemplate: strings.Fields(solverArgs),
		Timeout:      timeout,
		WaitDelay:    10 * time.Second,
	}, log)

	tracer := telemetry.Tracer(nil)
	r := schedule.NewRun(runner, log, tracer)
	log.Info("starting schedule run", "run_id", r.ID, "talks", len(in.Talks), "slots", len(in.Slots))

	timetable, err := r.Execute(ctx, in)
	if err != nil {
		return fmt.Errorf("run %s: %w", r.ID, err)
	}
	log.Info("schedule run complete", "run_id", r.ID, "placed", len(timetable.Entries))

	w := os.Stdout
	if outPath != "" {
		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer out.Close()
		w = out
	}
	return export.WriteTimetableYAML(w, timetable)
}
