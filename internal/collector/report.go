package collector

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Report renders a summary table of results to out.
func Report(out io.Writer, results []Result) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Entity", "Status", "Records", "Archived", "Duration", "Error"})
	for _, r := range results {
		status := "ok"
		errText := ""
		switch {
		case r.Err != nil:
			status = "failed"
			errText = r.Err.Error()
		case !r.Written:
			status = "skipped"
		}
		t.AppendRow(table.Row{
			r.Entity,
			status,
			r.Records,
			r.Archived,
			r.Duration.Round(time.Millisecond).String(),
			errText,
		})
	}
	t.AppendFooter(table.Row{"", "", total(results, func(r Result) int { return r.Records }), total(results, func(r Result) int { return r.Archived }), "", ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func total(results []Result, field func(Result) int) string {
	n := 0
	for _, r := range results {
		n += field(r)
	}
	return fmt.Sprint(n)
}
