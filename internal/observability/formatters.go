// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/product-forge/internal/pipeline"
	"github.com/jonathan/product-forge/internal/quality"
	"github.com/jonathan/product-forge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCycleSummary outputs per-stage results and failures for one cycle.
func (p *Printer) PrintCycleSummary(summary *pipeline.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Started:  %s\n", summary.Started.Format("15:04:05")))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", summary.Duration.Round(time.Millisecond)))
	sb.WriteString("\n")

	// Pipeline stages first in fixed order, then anything else alphabetically.
	order := []string{"discoverer", "creator", "lister"}
	known := map[string]bool{}
	for _, name := range order {
		known[name] = true
	}
	var extra []string
	for name := range summary.Results {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	for _, name := range append(order, extra...) {
		result, ok := summary.Results[name]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-11s", name+":"))
		if result.Skipped {
			sb.WriteString(" skipped (queue full)\n")
			continue
		}
		sb.WriteString(fmt.Sprintf(" %d attempted, %d produced", result.Attempted, result.Produced))
		if result.Failed > 0 {
			sb.WriteString(fmt.Sprintf(", %d failed", result.Failed))
		}
		if result.Filtered > 0 {
			sb.WriteString(fmt.Sprintf(", %d filtered", result.Filtered))
		}
		sb.WriteString("\n")
	}

	if len(summary.Errors) > 0 {
		sb.WriteString("\nStage failures:\n")
		for _, failure := range summary.Errors {
			msg := failure.Message
			if len(msg) > 40 {
				msg = msg[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("  ⚠ %s: %s\n", failure.Stage, msg))
		}
	}

	p.printBox("CYCLE SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQualityResult outputs the aggregated verdict of one gate evaluation.
func (p *Printer) PrintQualityResult(result *types.QualityResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:      %.1f / 100\n", result.OverallScore))
	sb.WriteString(fmt.Sprintf("Decision:   %s\n", result.Decision))
	sb.WriteString(fmt.Sprintf("Confidence: %s (%d/%d raters passed)\n", result.Confidence, result.PassCount, len(result.Reviews)))
	sb.WriteString("\n")

	for i, review := range result.Reviews {
		mark := "✗"
		if review.Passes {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("%s %-14s %d\n", mark, review.Reviewer, review.Score))
		if i == len(result.Reviews)-1 && len(result.Improvements) > 0 {
			sb.WriteString("\n")
		}
	}

	if len(result.Improvements) > 0 {
		sb.WriteString("Improvements:\n")
		count := min(len(result.Improvements), maxItemsToShow)
		for i := 0; i < count; i++ {
			item := result.Improvements[i]
			if len(item) > 50 {
				item = item[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", item))
		}
		if len(result.Improvements) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Improvements)-maxItemsToShow))
		}
	}

	p.printBox("QUALITY GATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutcome outputs the terminal result of an improve/retry run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintOutcome(outcome *quality.Outcome) {
	if outcome == nil {
		return
	}

	var sb strings.Builder
	if outcome.Approved {
		sb.WriteString("✅ APPROVED\n")
	} else {
		sb.WriteString("⚠ REJECTED\n")
	}
	sb.WriteString(fmt.Sprintf("Improvement cycles: %d\n", outcome.Retries))
	if outcome.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason: %s\n", outcome.Reason))
	}
	if outcome.Result != nil {
		sb.WriteString(fmt.Sprintf("Final score: %.1f (%s)", outcome.Result.OverallScore, outcome.Result.Confidence))
	}

	p.printBox("REVIEW OUTCOME", strings.TrimSuffix(sb.String(), "\n"))
}

// StatusCount is one status bucket in a status report.
type StatusCount struct {
	Status string
	Count  int
}

// StatusReport holds per-status counts across the factory tables.
type StatusReport struct {
	Opportunities []StatusCount
	Products      []StatusCount
	Listings      []StatusCount
}

// PrintStatusReport outputs the per-status counts for each stage's queue.
func (p *Printer) PrintStatusReport(report *StatusReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	writeSection := func(title string, counts []StatusCount) {
		sb.WriteString(title + ":\n")
		total := 0
		for _, c := range counts {
			sb.WriteString(fmt.Sprintf("  %-12s %d\n", c.Status, c.Count))
			total += c.Count
		}
		sb.WriteString(fmt.Sprintf("  %-12s %d\n", "total", total))
	}

	writeSection("Opportunities", report.Opportunities)
	sb.WriteString("\n")
	writeSection("Products", report.Products)
	sb.WriteString("\n")
	writeSection("Listings", report.Listings)

	p.printBox("FACTORY STATUS", sb.String())
}
