package cmd

import (
	"fmt"
	"io"

	colorize "github.com/fatih/color"

	"github.com/arcanaland/snaplabel/internal/errors"
	"github.com/arcanaland/snaplabel/internal/pipeline"
)

// printReport writes a short run summary. Failures are listed only in debug
// mode; otherwise they stay silent and show up in the counts alone.
func printReport(w io.Writer, r pipeline.Report, debug bool) {
	label := colorize.New(colorize.FgCyan).SprintFunc()
	value := colorize.New(colorize.FgHiWhite).SprintFunc()
	bad := colorize.New(colorize.FgRed).SprintFunc()

	fmt.Fprintf(w, "%s %s cards, %s variants\n", label("Metadata:"), value(r.Cards), value(r.Variants))
	if r.ClassesPath != "" {
		fmt.Fprintf(w, "%s %s (%s classes)\n", label("Classes: "), value(r.ClassesPath), value(len(r.Classes)))
	}
	if r.DatasetPath != "" {
		fmt.Fprintf(w, "%s %s\n", label("Dataset: "), value(r.DatasetPath))
	}
	if len(r.Downloads) > 0 {
		failed := fmt.Sprint(r.Failed())
		if r.Failed() > 0 {
			failed = bad(failed)
		}
		fmt.Fprintf(w, "%s %s saved, %s failed across %s cards\n",
			label("Images:  "), value(r.Saved()), failed, value(len(r.Downloads)))
	}
	if len(r.Boxes) > 0 {
		fmt.Fprintf(w, "%s %s written across %s cards\n", label("Labels:  "), value(r.Labels()), value(len(r.Boxes)))
	}

	var failures []error
	failures = append(failures, r.Errors...)
	for _, d := range r.Downloads {
		for _, f := range d.Failed {
			failures = append(failures, f.Err)
		}
	}
	for _, b := range r.Boxes {
		failures = append(failures, b.Errors...)
	}
	if !debug || len(failures) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", bad(fmt.Sprintf("%d failures:", len(failures))))
	for i, err := range failures {
		fmt.Fprintf(w, "%d. [%s] %v\n", i+1, errors.CategoryOf(err), err)
	}
}
