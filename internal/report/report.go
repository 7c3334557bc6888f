// Package report collects probe results in execution order and renders the
// console summary.
package report

import (
	"fmt"
	"io"
	"strings"
)

// Status is the outcome of one probe.
type Status int

const (
	Pass Status = iota
	Fail
	Warn
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Warn:
		return "WARN"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Emoji is the console marker for s.
func (s Status) Emoji() string {
	switch s {
	case Pass:
		return "✅"
	case Fail:
		return "❌"
	case Warn:
		return "⚠️"
	default:
		return "?"
	}
}

// Result is one recorded probe outcome.
type Result struct {
	Name    string
	Status  Status
	Message string
}

// Report is an append-only, ordered list of results that echoes each entry to out.
type Report struct {
	out     io.Writer
	results []Result
}

// New returns an empty Report writing to out.
func New(out io.Writer) *Report {
	return &Report{out: out}
}

// Log appends a result and prints it. Identical calls produce identical, separate entries.
func (r *Report) Log(name string, status Status, message string) Result {
	res := Result{Name: name, Status: status, Message: message}
	fmt.Fprintf(r.out, "%s %s: %s\n", status.Emoji(), name, status)
	if message != "" {
		fmt.Fprintf(r.out, "   %s\n", message)
	}
	r.results = append(r.results, res)
	return res
}

// Results returns a copy of the recorded results.
func (r *Report) Results() []Result {
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Summary aggregates a result list.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Warned   int
	Failures []Result
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, res := range results {
		switch res.Status {
		case Pass:
			s.Passed++
		case Fail:
			s.Failed++
			s.Failures = append(s.Failures, res)
		case Warn:
			s.Warned++
		}
	}
	return s
}

// SuccessRate is Passed/Total as a percentage, 0 for an empty run.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total) * 100
}

// Summary aggregates the results recorded so far.
func (r *Report) Summary() Summary {
	return Summarize(r.results)
}

// Rule is the banner line used around headings.
var Rule = strings.Repeat("=", 60)

// WriteSummary renders s.
func WriteSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\n%s\n", Rule)
	fmt.Fprintln(w, "📊 TEST SUMMARY")
	fmt.Fprintln(w, Rule)
	fmt.Fprintf(w, "Total Tests: %d\n", s.Total)
	fmt.Fprintf(w, "%s Passed: %d\n", Pass.Emoji(), s.Passed)
	fmt.Fprintf(w, "%s Failed: %d\n", Fail.Emoji(), s.Failed)
	fmt.Fprintf(w, "%s  Warnings: %d\n", Warn.Emoji(), s.Warned)
	fmt.Fprintf(w, "Success Rate: %.1f%%\n", s.SuccessRate())
	fmt.Fprintln(w, Rule)

	if s.Failed > 0 {
		fmt.Fprintln(w, "\nFailed Tests:")
		for _, res := range s.Failures {
			fmt.Fprintf(w, "  - %s: %s\n", res.Name, res.Message)
		}
	}
}

// PrintSummary renders the summary of the recorded results to the report's writer.
func (r *Report) PrintSummary() Summary {
	s := r.Summary()
	WriteSummary(r.out, s)
	return s
}
