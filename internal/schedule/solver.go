package schedule

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/PioneersHub/pytanis-go/pkg/logger"
)

// SolverConfig configures the external solver invocation.
type SolverConfig struct {
	// BinaryPath is the solver executable (e.g. a CBC or HiGHS binary).
	BinaryPath string
	// ArgsTemplate is the argument list passed to the binary; the
	// literal tokens "{input}" and "{output}" are substituted with the
	// MPS input path and the solution output path.
	ArgsTemplate []string
	// Timeout is the wall-clock deadline. SolverConfig applies no
	// default; zero means no additional deadline beyond ctx's own
	// (cmd/pytanis-schedule passes its -timeout flag here).
	Timeout time.Duration
	// WaitDelay bounds how long Run waits for the child to exit after
	// SIGTERM before escalating to an OS-level kill.
	WaitDelay time.Duration
}

// Runner invokes a solver against an MPS input file and produces a
// solution file. It exists as an interface so tests can substitute a
// fake binary without depending on a real MIP solver being installed.
type Runner interface {
	Run(ctx context.Context, mpsPath, solutionPath string) error
}

// ExecRunner is the production Runner: it shells out to an external
// solver process via os/exec, honoring a deadline and SIGTERM-on-cancel,
// matching the graceful-shutdown convention of the cmd/*/main.go
// entrypoints (signal.NotifyContext + context cancellation) generalized from "stop accepting work" to "SIGTERM the child".
type ExecRunner struct {
	cfg SolverConfig
	log logger.Logger
}

// NewExecRunner constructs an ExecRunner.
func NewExecRunner(cfg SolverConfig, log logger.Logger) *ExecRunner {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	if cal, ok := log.(logger.ComponentAwareLogger); ok {
		log = cal.WithComponent("schedule.solver")
	}
	return &ExecRunner{cfg: cfg, log: log}
}

// Run invokes the configured solver binary against mpsPath, expecting it
// to write its solution to solutionPath and exit 0 on success.
func (r *ExecRunner) Run(ctx context.Context, mpsPath, solutionPath string) error {
	runCtx := ctx
	var cancel context.CancelFunc
	if r.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	args := make([]string, len(r.cfg.ArgsTemplate))
	for i, a := range r.cfg.ArgsTemplate {
		switch a {
		case "{input}":
			args[i] = mpsPath
		case "{output}":
			args[i] = solutionPath
		default:
			args[i] = a
		}
	}

	cmd := exec.CommandContext(runCtx, r.cfg.BinaryPath, args...)
	cmd.Cancel = func() error {
		r.log.Warn("deadline exceeded or run cancelled, sending SIGTERM to solver", "pid", cmd.Process.Pid)
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	waitDelay := r.cfg.WaitDelay
	if waitDelay == 0 {
		waitDelay = 5 * time.Second
	}
	cmd.WaitDelay = waitDelay

	r.log.Info("invoking solver", "binary", r.cfg.BinaryPath, "input", mpsPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("schedule: solver run failed: %w: %s", err, string(out))
	}
	return nil
}
