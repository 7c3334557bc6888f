// Package suite runs the MineAI smoke probes in a fixed order and reports the outcome.
package suite

import (
	"context"
	"fmt"
	"io"

	"github.com/qmuntal/stateless"
	"github.com/sourcegraph/conc/panics"

	"github.com/comigor/mineai-smoke/internal/config"
	"github.com/comigor/mineai-smoke/internal/history"
	"github.com/comigor/mineai-smoke/internal/llm"
	"github.com/comigor/mineai-smoke/internal/logger"
	"github.com/comigor/mineai-smoke/internal/report"
)

// Run lifecycle states
var (
	StateIdle     stateless.State = "Idle"
	StateRunning  stateless.State = "Running"
	StateComplete stateless.State = "Complete"
)

// Run lifecycle triggers
var (
	TriggerStart  stateless.Trigger = "Start"
	TriggerFinish stateless.Trigger = "Finish"
)

// Factory builds a Service for a credential.
type Factory func(apiKey string) llm.Service

// Runner probes a chat-completion service once and prints a report.
type Runner struct {
	apiKey  string
	client  llm.Service
	async   *llm.AsyncService
	factory Factory

	llmCfg   config.LLMConfig
	suiteCfg config.SuiteConfig

	out    io.Writer
	report *report.Report
	fsm    *stateless.StateMachine

	store *history.Store
	runID string
}

// New creates a runner whose sync and async handles share apiKey.
func New(apiKey string, factory Factory, cfg config.Config, out io.Writer) *Runner {
	client := factory(apiKey)
	r := &Runner{
		apiKey:   apiKey,
		client:   client,
		async:    llm.NewAsyncService(factory(apiKey)),
		factory:  factory,
		llmCfg:   cfg.LLM,
		suiteCfg: cfg.Suite,
		out:      out,
		report:   report.New(out),
		runID:    history.NewRunID(),
	}
	if r.llmCfg.Model == "" {
		r.llmCfg.Model = config.ModelO1Free
	}

	r.fsm = stateless.NewStateMachine(StateIdle)
	r.fsm.Configure(StateIdle).
		Permit(TriggerStart, StateRunning)
	r.fsm.Configure(StateRunning).
		OnEntry(func(ctx context.Context, args ...any) error {
			r.runProbes(ctx)
			return nil
		}).
		Permit(TriggerFinish, StateComplete)
	r.fsm.Configure(StateComplete).
		OnEntry(func(ctx context.Context, args ...any) error {
			r.PrintSummary()
			return nil
		})

	return r
}

// WithHistory records every result in store under a fresh run ID.
func (r *Runner) WithHistory(store *history.Store) *Runner {
	r.store = store
	return r
}

// RunID identifies this run in the history store.
func (r *Runner) RunID() string { return r.runID }

// Results returns the results recorded so far, in execution order.
func (r *Runner) Results() []report.Result { return r.report.Results() }

// Complete reports whether RunAll has finished.
func (r *Runner) Complete() bool {
	return r.fsm.MustState() == StateComplete
}

// LogResult records and prints one probe outcome.
func (r *Runner) LogResult(name string, status report.Status, message string) {
	seq := len(r.report.Results())
	r.report.Log(name, status, message)
	if status != report.Pass {
		logger.L.Warn("probe did not pass", "probe", name, "status", status.String(), "message", message)
	}
	if r.store != nil {
		r.store.Save(context.Background(), history.Entry{
			RunID:   r.runID,
			Seq:     seq,
			Name:    name,
			Status:  status.String(),
			Message: message,
		})
	}
}

// PrintSummary prints totals, success rate and the failed probes.
func (r *Runner) PrintSummary() report.Summary {
	return r.report.PrintSummary()
}

// RunAll runs every probe once and prints the summary. A runner can only run once.
func (r *Runner) RunAll(ctx context.Context) error {
	fmt.Fprintln(r.out, report.Rule)
	fmt.Fprintln(r.out, "🚀 MineAI SDK Comprehensive Test Suite")
	fmt.Fprintln(r.out, report.Rule)

	if err := r.fsm.FireCtx(ctx, TriggerStart); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	if err := r.fsm.FireCtx(ctx, TriggerFinish); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func (r *Runner) runProbes(ctx context.Context) {
	logger.L.Info("smoke run started", "run_id", r.runID, "model", r.llmCfg.Model)

	for _, p := range syncProbes {
		r.guard(ctx, p)
	}

	fmt.Fprintln(r.out, "\n📝 Running Async Tests...")
	r.guard(ctx, asyncProbe)

	logger.L.Info("smoke run finished", "run_id", r.runID, "results", len(r.report.Results()))
}

// guard runs p and turns a panic into a FAIL so the remaining probes still run.
func (r *Runner) guard(ctx context.Context, p probe) {
	var pc panics.Catcher
	pc.Try(func() { p.run(r, ctx) })
	if rec := pc.Recovered(); rec != nil {
		logger.L.Error("probe panicked", "probe", p.name, "panic", fmt.Sprint(rec.Value))
		r.LogResult(p.name, report.Fail, fmt.Sprintf("panic: %v", rec.Value))
	}
}
