// Package output provides formatted output utilities for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/phpbuild/internal/testparser"
)

// Writer handles CLI output formatting.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	quiet bool
	p     palette
}

// New creates a new Writer with default settings.
// Colors follow fatih/color's terminal and NO_COLOR detection.
func New() *Writer {
	return NewWithWriters(os.Stdout, os.Stderr, !color.NoColor)
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, useColor bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: useColor,
		p:     newPalette(useColor),
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// Print writes to stdout.
func (w *Writer) Print(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Error writes to stderr.
func (w *Writer) Error(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format, args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Info prints an info message (skipped in quiet mode).
func (w *Writer) Info(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println(format, args...)
}

// Success prints a success message.
func (w *Writer) Success(format string, args ...interface{}) {
	w.Println("%s", w.p.green.Sprintf(format, args...))
}

// Section prints a section header.
func (w *Writer) Section(title string) {
	if w.quiet {
		return
	}
	w.Println("")
	w.Println("%s", w.p.bold.Sprintf("=== %s ===", title))
}

// List prints a list of items.
func (w *Writer) List(items []string) {
	for _, item := range items {
		w.Println("  - %s", item)
	}
}

// Table prints a simple table.
func (w *Writer) Table(headers []string, rows [][]string) {
	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var headerParts []string
	for i, h := range headers {
		headerParts = append(headerParts, fmt.Sprintf("%-*s", widths[i], h))
	}
	w.Println("%s", strings.TrimRight(strings.Join(headerParts, "  "), " "))

	var sepParts []string
	for _, width := range widths {
		sepParts = append(sepParts, strings.Repeat("-", width))
	}
	w.Println("%s", strings.Join(sepParts, "  "))

	for _, row := range rows {
		var rowParts []string
		for i, cell := range row {
			if i < len(widths) {
				rowParts = append(rowParts, fmt.Sprintf("%-*s", widths[i], cell))
			}
		}
		w.Println("%s", strings.TrimRight(strings.Join(rowParts, "  "), " "))
	}
}

// ErrorPrefix prints an error message with phpbuild prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	w.Errorln("%s %s", w.p.red.Sprint("phpbuild:"), fmt.Sprintf(format, args...))
}

// WarningSimple prints a warning message with a colored prefix only.
func (w *Writer) WarningSimple(format string, args ...interface{}) {
	w.Errorln("%s %s", w.p.yellow.Sprint("warning:"), fmt.Sprintf(format, args...))
}

// SummaryHeader prints a summary section header.
func (w *Writer) SummaryHeader(title string) {
	w.Println("")
	w.Println("%s", w.p.boldCyan.Sprintf("=== %s ===", title))
	w.Println("")
}

// SummaryItem prints a labeled summary item with value.
func (w *Writer) SummaryItem(label, value string) {
	w.Println("  %s %s", w.p.dim.Sprint(label+":"), value)
}

// SummaryPassed prints a passed/success items summary.
func (w *Writer) SummaryPassed(label, value string) {
	w.Println("  %s %s", w.p.dim.Sprint(label+":"), w.p.green.Sprint(value))
}

// SummaryFailed prints a failed items summary.
func (w *Writer) SummaryFailed(label, value string) {
	w.Println("  %s %s", w.p.dim.Sprint(label+":"), w.p.red.Sprint(value))
}

// SummarySectionLabel prints a label for a summary section (e.g., "Failed files:").
func (w *Writer) SummarySectionLabel(label string) {
	w.Println("  %s", w.p.dim.Sprint(label))
}

// SummaryAction prints an item with status indicator, name, detail, and optional error.
func (w *Writer) SummaryAction(name string, success bool, detail string, errMsg string) {
	if w.color {
		if success {
			w.Print("    %s %-12s %s", w.p.green.Sprint("✓"), name, w.p.dim.Sprint(detail))
		} else {
			w.Print("    %s %-12s %s", w.p.red.Sprint("✗"), name, w.p.dim.Sprint(detail))
			if errMsg != "" {
				w.Print("  %s", w.p.dim.Sprintf("(%s)", errMsg))
			}
		}
	} else {
		if success {
			w.Print("    + %-12s %s", name, detail)
		} else {
			w.Print("    x %-12s %s", name, detail)
			if errMsg != "" {
				w.Print("  (%s)", errMsg)
			}
		}
	}
	w.Print("\n")
}

// FinalSuccess prints a final success message.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.p.green.Sprintf(format, args...))
}

// FinalFailure prints a final failure message.
func (w *Writer) FinalFailure(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.p.red.Sprintf(format, args...))
}

// Hint prints a hint message for the user.
func (w *Writer) Hint(format string, args ...interface{}) {
	w.Println("%s", w.p.dim.Sprintf(format, args...))
}

const rule = "-------------------------------------------------------"

// TestsBanner prints the banner that opens a test run.
func (w *Writer) TestsBanner() {
	if w.quiet {
		return
	}
	w.Println("")
	w.Println(rule)
	w.Println("%s", w.p.bold.Sprint("T E S T S"))
	w.Println(rule)
}

// SuiteResult prints the block for one finished suite.
func (w *Writer) SuiteResult(r testparser.SurefireResult) {
	if w.quiet {
		return
	}
	if r.Failed() {
		w.Println("%s", w.p.red.Sprint(r.String()))
	} else {
		w.Println("%s", r.String())
	}
	w.Println("")
}

// TestResults prints the closing "Results :" block with failed tests and totals.
func (w *Writer) TestResults(counts testparser.TestCounts) {
	w.Println("")
	w.Println("Results :")
	w.Println("")
	if len(counts.FailedTests) > 0 {
		var failures, errs []testparser.FailedTest
		for _, ft := range counts.FailedTests {
			if ft.Error {
				errs = append(errs, ft)
			} else {
				failures = append(failures, ft)
			}
		}
		w.failedTests("Failed tests:", failures)
		w.failedTests("Tests in error:", errs)
	}
	totals := fmt.Sprintf("Tests run: %d, Failures: %d, Errors: %d", counts.Tests, counts.Failures, counts.Errors)
	if counts.Failed() {
		w.Println("%s", w.p.red.Sprint(totals))
	} else {
		w.Println("%s", w.p.green.Sprint(totals))
	}
	w.Println("")
}

func (w *Writer) failedTests(label string, tests []testparser.FailedTest) {
	if len(tests) == 0 {
		return
	}
	w.Println("%s", label)
	for _, ft := range tests {
		if ft.Reason != "" {
			w.Println("  %s(%s): %s", ft.Name, ft.Suite, ft.Reason)
		} else {
			w.Println("  %s(%s)", ft.Name, ft.Suite)
		}
	}
	w.Println("")
}

// Title title-cases a label such as a run kind ("validate" -> "Validate").
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

type palette struct {
	bold     *color.Color
	boldCyan *color.Color
	dim      *color.Color
	red      *color.Color
	green    *color.Color
	yellow   *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		bold:     mk(color.Bold),
		boldCyan: mk(color.Bold, color.FgCyan),
		dim:      mk(color.Faint),
		red:      mk(color.FgRed),
		green:    mk(color.FgGreen),
		yellow:   mk(color.FgYellow),
	}
}
