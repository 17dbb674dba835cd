package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"jpltour/internal/models"
	"jpltour/pkg/notify"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render formats records as a table for the history command.
func Render(records []models.RunRecord) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Started", "Duration", "Trigger", "Outcome", "Changes", "Warnings", "Errors"})

	for _, r := range records {
		var (
			notes    []notify.Notification
			warnings []string
			errs     []string
		)
		_ = json.Unmarshal(r.Notifications, &notes)
		_ = json.Unmarshal(r.Warnings, &warnings)
		_ = json.Unmarshal(r.Errors, &errs)

		titles := make([]string, len(notes))
		for i, n := range notes {
			titles[i] = n.Title
		}

		t.AppendRow(table.Row{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			(time.Duration(r.Duration) * time.Millisecond).String(),
			r.Trigger,
			string(r.Outcome),
			strings.Join(titles, "\n"),
			len(warnings),
			strings.Join(errs, "\n"),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.SetCaption(fmt.Sprintf("%d run(s)", len(records)))
	return t.Render()
}
