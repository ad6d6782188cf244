package study

import "github.com/zulandar/hazstudy/internal/worksheet"

// Assignment statuses.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In progress"
	StatusDone       = "Done"
)

// Assignment gives one recommended worksheet row a responsible and a due date.
type Assignment struct {
	RowID       string `json:"row_id"`
	Responsible string `json:"responsible"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
}

// AssignmentPatch carries the assignment fields to overwrite. Nil fields are
// left untouched.
type AssignmentPatch struct {
	Responsible *string `json:"responsible,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// syncAssignments rebuilds the assignment table when the set of rows with a
// recommendation no longer matches it. Entries for rows that survive keep
// their responsible, due date and status. Before the study reaches
// ASIGNADO the table is left alone.
func (s *Session) syncAssignments() bool {
	if s.State != Assigned {
		return false
	}
	rows := s.Worksheet.Recommended()
	if sameRowSet(s.Assignments, rows) {
		return false
	}

	prev := make(map[string]Assignment, len(s.Assignments))
	for _, a := range s.Assignments {
		prev[a.RowID] = a
	}
	next := make([]Assignment, 0, len(rows))
	for _, r := range rows {
		if a, ok := prev[r.ID]; ok {
			next = append(next, a)
			continue
		}
		next = append(next, Assignment{RowID: r.ID, Status: StatusPending})
	}
	s.Assignments = next
	s.logf("Assignment table rebuilt (%d recommendation(s)).", len(next))
	return true
}

func sameRowSet(assignments []Assignment, rows []worksheet.Row) bool {
	if len(assignments) != len(rows) {
		return false
	}
	ids := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		ids[a.RowID] = true
	}
	for _, r := range rows {
		if !ids[r.ID] {
			return false
		}
	}
	return true
}

// SetAssignment edits the assignment of a recommended row.
func (s *Session) SetAssignment(rowID string, p AssignmentPatch) Outcome {
	out := s.outcome()
	s.syncAssignments()
	for i := range s.Assignments {
		a := &s.Assignments[i]
		if a.RowID != rowID {
			continue
		}
		if p.Responsible != nil {
			a.Responsible = *p.Responsible
		}
		if p.DueDate != nil {
			a.DueDate = *p.DueDate
		}
		if p.Status != nil {
			a.Status = *p.Status
		}
		s.logf("Assignment for %s updated.", rowID)
		return out
	}
	out.warn("row %s has no assignment", rowID)
	return out
}

// SaveAssignments records that the assignment table was reviewed.
func (s *Session) SaveAssignments() Outcome {
	out := s.outcome()
	if s.State != Assigned {
		out.warn("study is %s, not %s", s.State, Assigned)
	}
	s.syncAssignments()
	if len(s.Assignments) == 0 {
		out.warn("no recommendations to assign")
	}
	s.logf("Assignments saved.")
	return out
}
