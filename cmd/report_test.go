package cmd

import (
	"bytes"
	"testing"

	colorize "github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/arcanaland/snaplabel/internal/errors"
	"github.com/arcanaland/snaplabel/internal/pipeline"
)

func TestPrintReport(t *testing.T) {
	noColor := colorize.NoColor
	colorize.NoColor = true
	t.Cleanup(func() { colorize.NoColor = noColor })

	report := pipeline.Report{
		Cards: 4,
		Errors: []error{
			errors.Newf("%q is not recognized as a valid card name", "Nobody").
				Category(errors.CategoryUnknownCard).
				Build(),
		},
	}

	t.Run("debug off", func(t *testing.T) {
		var buf bytes.Buffer
		printReport(&buf, report, false)

		assert.Contains(t, buf.String(), "4 cards")
		assert.NotContains(t, buf.String(), "failures")
		assert.NotContains(t, buf.String(), "Nobody")
	})

	t.Run("debug on", func(t *testing.T) {
		var buf bytes.Buffer
		printReport(&buf, report, true)

		assert.Contains(t, buf.String(), "4 cards")
		assert.Contains(t, buf.String(), "1 failures:")
		assert.Contains(t, buf.String(), `1. [unknown-card] "Nobody" is not recognized as a valid card name`)
	})
}
