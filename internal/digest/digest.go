// Package digest reports assignments whose due date has passed.
package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zulandar/hazstudy/internal/study"
)

// Item is one overdue assignment.
type Item struct {
	StudyID      string `json:"study_id"`
	Title        string `json:"title"`
	Installation string `json:"installation"`
	RowID        string `json:"row_id"`
	Responsible  string `json:"responsible"`
	DueDate      string `json:"due_date"`
	Status       string `json:"status"`
	DaysLate     int    `json:"days_late"`
}

// Report is the overdue list at a point in time.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Items       []Item    `json:"items"`
}

// Overdue lists the assignments that are not Done and whose due date is
// before today. Assignments without a parseable YYYY-MM-DD due date are
// skipped. The most overdue come first.
func Overdue(sessions []*study.Session, now time.Time) Report {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	report := Report{GeneratedAt: now, Items: []Item{}}

	for _, s := range sessions {
		for _, a := range s.Assignments {
			if strings.EqualFold(a.Status, study.StatusDone) {
				continue
			}
			due, err := time.Parse(time.DateOnly, strings.TrimSpace(a.DueDate))
			if err != nil || !due.Before(today) {
				continue
			}
			report.Items = append(report.Items, Item{
				StudyID:      s.ID,
				Title:        s.Meta.Title,
				Installation: s.Meta.Installation,
				RowID:        a.RowID,
				Responsible:  a.Responsible,
				DueDate:      a.DueDate,
				Status:       a.Status,
				DaysLate:     int(today.Sub(due).Hours() / 24),
			})
		}
	}

	sort.SliceStable(report.Items, func(i, j int) bool {
		a, b := report.Items[i], report.Items[j]
		if a.DaysLate != b.DaysLate {
			return a.DaysLate > b.DaysLate
		}
		if a.StudyID != b.StudyID {
			return a.StudyID < b.StudyID
		}
		return a.RowID < b.RowID
	})
	return report
}

// Format renders a report as a plain-text title and body.
func Format(r Report) (title, body string) {
	title = fmt.Sprintf("Overdue recommendations: %d", len(r.Items))
	if len(r.Items) == 0 {
		return title, "No overdue recommendations."
	}

	var b strings.Builder
	for _, it := range r.Items {
		who := it.Responsible
		if who == "" {
			who = "(unassigned)"
		}
		fmt.Fprintf(&b, "- %s %s: %s, due %s (%d %s late, %s)\n",
			it.StudyID, it.RowID, who, it.DueDate, it.DaysLate, plural(it.DaysLate, "day", "days"), it.Status)
	}
	return title, strings.TrimRight(b.String(), "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
