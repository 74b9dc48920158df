package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/matnoble/mdeditor/internal/hints"
)

// reporter shows export progress.
type reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// newReporter picks line output for CI logs, a progress bar for terminals,
// and nothing when quiet or verbose (verbose prints per-file lines instead).
func newReporter(w io.Writer, f commonFlags) reporter {
	switch {
	case f.quiet || f.verbose:
		return nopReporter{}
	case hints.InCI():
		return &lineReporter{w: w}
	default:
		return &barReporter{w: w}
	}
}

type nopReporter struct{}

func (nopReporter) Start(int)          {}
func (nopReporter) Update(int, string) {}
func (nopReporter) Finish()            {}

// barReporter displays a progress bar in the terminal.
type barReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (r *barReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription("Exporting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) Update(current int, message string) {
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Set(current)
	}
}

func (r *barReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// lineReporter prints line-by-line progress suitable for CI logs.
type lineReporter struct {
	w     io.Writer
	total int
}

func (r *lineReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(r.w, "Exporting %d files\n", total)
}

func (r *lineReporter) Update(current int, message string) {
	fmt.Fprintf(r.w, "[%d/%d] %s\n", current, r.total, message)
}

func (r *lineReporter) Finish() {
	fmt.Fprintln(r.w, "Export complete")
}
