package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"reelforge/internal/types"
)

// renderSummary formats the per-reel batch report.
func renderSummary(outcomes []types.Outcome) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Reel", "Title", "Status", "Duration", "Output"})

	for _, o := range outcomes {
		status := "ok"
		switch {
		case o.Err != nil:
			status = fmt.Sprintf("failed: %v", summarizeErr(o.Err))
		case o.Cached:
			status = "cached"
		}
		dur := ""
		if o.Duration > 0 {
			dur = o.Duration.Round(100 * time.Millisecond).String()
		}
		tw.AppendRow(table.Row{o.ReelID, o.Title, status, dur, o.Path})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// summarizeErr keeps the table legible: stage failures already carry the reel
// id in their message, which the first column repeats.
func summarizeErr(err error) string {
	var sf *types.StageFailure
	if errors.As(err, &sf) {
		return fmt.Sprintf("%s: %v", sf.Stage, sf.Err)
	}
	return err.Error()
}
