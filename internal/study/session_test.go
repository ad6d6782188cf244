package study

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/hazstudy/internal/matching"
	"github.com/zulandar/hazstudy/internal/models"
	"github.com/zulandar/hazstudy/internal/worksheet"
)

func testClock() func() time.Time {
	t0 := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func testResult() *matching.Result {
	return &matching.Result{
		Context: matching.Context{
			Installation: "Plant A",
			Unit:         "Reactor 1",
			Equipment:    "R-101",
			Situation:    matching.RecurringProblem,
			Phase:        matching.Operation,
		},
		Methodology: matching.SelectMethodology(matching.RecurringProblem, matching.Operation),
		Studies: []models.HistoricalStudy{
			{ID: "S-1", Type: "HAZOP", Year: 2019, Installation: "Plant A", Unit: "Reactor 1", Equipment: "R-101"},
		},
		Nodes: []matching.ScoredNode{
			{Node: models.ProcessNode{ID: "N-1", Installation: "Plant A", Unit: "Reactor 1", Equipment: "R-101",
				Description: "Overpressure in R-101."}, Score: 2},
			{Node: models.ProcessNode{ID: "N-2", Installation: "Plant A", Unit: "Reactor 1", Equipment: "E-102",
				Description: "Cooling water loss on E-102."}, Score: 2},
		},
	}
}

func newTestSession() *Session {
	return New("ST-2025-0001", Meta{Client: "ACME", Title: "R-101 review", Installation: "Plant A"}, testClock())
}

// curatedSession returns a session in CURATION with a generated worksheet.
func curatedSession(t *testing.T) *Session {
	t.Helper()
	s := newTestSession()
	s.ApplyRecommendation(testResult(), "narrative")
	s.CompletePreparation()
	s.GenerateWorksheet(nil)
	if s.State != Curation {
		t.Fatalf("state = %s, want %s", s.State, Curation)
	}
	return s
}

func recommend(s *Session, rowID, text string) {
	s.UpdateRow(rowID, worksheet.RowPatch{Recommendation: &text})
}

func lastLog(s *Session) string {
	if len(s.Log) == 0 {
		return ""
	}
	return s.Log[len(s.Log)-1].Message
}

func TestNew(t *testing.T) {
	s := newTestSession()
	if s.State != Recommended {
		t.Errorf("State = %s, want %s", s.State, Recommended)
	}
	if s.Context.Installation != "Plant A" || s.Context.Situation != matching.RecurringProblem || s.Context.Phase != matching.Operation {
		t.Errorf("default context = %+v", s.Context)
	}
	if s.Worksheet == nil || !s.Worksheet.Empty() {
		t.Error("new session should have an empty worksheet")
	}
	if len(s.Log) != 1 || !strings.Contains(s.Log[0].Message, "ST-2025-0001") {
		t.Errorf("Log = %+v", s.Log)
	}
}

func TestPreparationStep(t *testing.T) {
	s := newTestSession()
	s.ContinueToPreparation()
	if s.State != Preparation {
		t.Fatalf("State = %s, want %s", s.State, Preparation)
	}
	s.AddFiles([]FileRef{{Name: "pid.pdf", Size: 10}})
	s.SetTeam([]string{"Process", "Operations"}, "Ana")
	out := s.CompletePreparation()
	if s.State != Prefab || !out.Advanced {
		t.Errorf("State = %s, advanced = %v", s.State, out.Advanced)
	}
	want := PreparationRecord{
		Files:        []FileRef{{Name: "pid.pdf", Size: 10}},
		Disciplines:  []string{"Process", "Operations"},
		Participants: "Ana",
	}
	if !reflect.DeepEqual(s.Preparation, want) {
		t.Errorf("Preparation = %+v, want %+v", s.Preparation, want)
	}

	s.Reset()
	if len(s.Preparation.Files) != 0 || len(s.Preparation.Disciplines) != 0 || s.Preparation.Participants != "" {
		t.Errorf("Preparation after reset = %+v", s.Preparation)
	}
}

func TestEveryMutationLogs(t *testing.T) {
	s := curatedSession(t)
	steps := []func(){
		func() { s.SetMeta("T", "L") },
		func() { s.SetContext(s.Context) },
		func() { s.EditRecommendation("HAZOP", "why") },
		func() { s.AddFiles([]FileRef{{Name: "pid.pdf", Size: 10}}) },
		func() { s.SetTeam([]string{"Process"}, "Ana") },
		func() { s.SetNodeRecommendation("N-1", "x") },
		func() { recommend(s, "N-1-R-001", "y") },
		func() { s.AddRow("N-1") },
		func() { s.RemoveRow("N-1-R-003") },
		func() { s.AcceptSuggestion("N-1-R-002", worksheet.StaticSuggester{}.Suggest(worksheet.Row{})) },
		func() { s.MarkSuggestionForEdit("N-1-R-002") },
		func() { s.IgnoreSuggestion("N-1-R-002") },
		func() { s.FinishCuration() },
		func() { s.Approve(Approval{Approver: "QA", Date: "2025-03-20", Approved: true}) },
		func() { s.SaveAssignments() },
		func() { s.SendRecommendations() },
		func() { s.Reset() },
	}
	for i, step := range steps {
		before := len(s.Log)
		step()
		if len(s.Log) <= before {
			t.Errorf("step %d did not append a log entry", i)
		}
	}
	for i := 1; i < len(s.Log); i++ {
		if !s.Log[i].At.After(s.Log[i-1].At) {
			t.Fatalf("log timestamps not increasing at %d", i)
		}
	}
}

func TestApplyRecommendation(t *testing.T) {
	s := newTestSession()
	out := s.ApplyRecommendation(testResult(), "narrative text")

	if s.State != Preparation || !out.Advanced {
		t.Errorf("state = %s advanced = %v", s.State, out.Advanced)
	}
	if s.Recommendation.Methodology != matching.FocusedReviewWhatIf {
		t.Errorf("Methodology = %q", s.Recommendation.Methodology)
	}
	if s.Recommendation.Rationale != "narrative text" {
		t.Errorf("Rationale = %q", s.Recommendation.Rationale)
	}
	if len(s.Studies) != 1 || len(s.Nodes) != 2 {
		t.Errorf("studies = %d nodes = %d", len(s.Studies), len(s.Nodes))
	}
	if s.Context.Equipment != "R-101" {
		t.Errorf("Context not stored: %+v", s.Context)
	}
}

func TestApplyRecommendation_NoNodesWarns(t *testing.T) {
	s := newTestSession()
	r := testResult()
	r.Nodes = nil
	out := s.ApplyRecommendation(r, "")
	if len(out.Warnings) == 0 {
		t.Error("expected warning for empty node set")
	}
	if s.State != Preparation {
		t.Errorf("state = %s, want %s", s.State, Preparation)
	}
}

func TestGenerateWorksheet_TwoNodes(t *testing.T) {
	s := curatedSession(t)

	rows := s.Worksheet.Rows()
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	desc := map[string]string{"N-1": "Overpressure in R-101.", "N-2": "Cooling water loss on E-102."}
	for _, r := range rows {
		if r.Recommendation != "" {
			t.Errorf("row %s has recommendation %q", r.ID, r.Recommendation)
		}
		if r.Consequence != desc[r.NodeID] {
			t.Errorf("row %s consequence = %q", r.ID, r.Consequence)
		}
	}
	if !strings.Contains(s.Worksheet.Sheet("N-1").Recommendation, matching.FocusedReviewWhatIf) {
		t.Errorf("node recommendation = %q", s.Worksheet.Sheet("N-1").Recommendation)
	}
	if lastLog(s) != "HAZOP prefab generated for 2 node(s)." {
		t.Errorf("last log = %q", lastLog(s))
	}
}

func TestGenerateWorksheet_Subset(t *testing.T) {
	s := newTestSession()
	s.ApplyRecommendation(testResult(), "")
	out := s.GenerateWorksheet([]string{"N-2", "N-9"})

	if got := s.Worksheet.NodeIDs(); len(got) != 1 || got[0] != "N-2" {
		t.Errorf("NodeIDs() = %v, want [N-2]", got)
	}
	var unknown, skipped bool
	for _, w := range out.Warnings {
		unknown = unknown || strings.Contains(w, "N-9")
		skipped = skipped || strings.Contains(w, "skipping PREFAB")
	}
	if !unknown || !skipped {
		t.Errorf("warnings = %v", out.Warnings)
	}
	if s.State != Curation {
		t.Errorf("state = %s, want %s", s.State, Curation)
	}
}

func TestGenerateWorksheet_NoNodes(t *testing.T) {
	s := newTestSession()
	out := s.GenerateWorksheet(nil)
	if !s.Worksheet.Empty() {
		t.Error("worksheet should be empty without related nodes")
	}
	if len(out.Warnings) == 0 {
		t.Error("expected warnings")
	}
	if s.State != Curation {
		t.Errorf("state = %s, want %s", s.State, Curation)
	}
}

func TestGenerateWorksheet_BlankMethodologyDefaultsToHAZOP(t *testing.T) {
	s := newTestSession()
	s.ApplyRecommendation(testResult(), "")
	s.EditRecommendation("  ", "")
	s.GenerateWorksheet(nil)
	want := worksheet.NodeRecommendation(matching.DefaultWorksheetMethod)
	if got := s.Worksheet.Sheet("N-1").Recommendation; got != want {
		t.Errorf("node recommendation = %q, want %q", got, want)
	}
}

func TestCurationUnknownTargetsWarn(t *testing.T) {
	s := curatedSession(t)
	checks := map[string]Outcome{
		"node rec":  s.SetNodeRecommendation("N-9", "x"),
		"update":    s.UpdateRow("N-9-R-001", worksheet.RowPatch{}),
		"remove":    s.RemoveRow("N-9-R-001"),
		"accept":    s.AcceptSuggestion("N-9-R-001", worksheet.Suggestion{}),
		"mark edit": s.MarkSuggestionForEdit("N-9-R-001"),
		"ignore":    s.IgnoreSuggestion("N-9-R-001"),
	}
	for name, out := range checks {
		if len(out.Warnings) == 0 {
			t.Errorf("%s: expected warning", name)
		}
	}
	if _, out := s.AddRow("N-9"); len(out.Warnings) == 0 {
		t.Error("AddRow: expected warning")
	}
	if s.State != Curation {
		t.Errorf("state changed to %s", s.State)
	}
}

func TestAcceptSuggestion(t *testing.T) {
	s := curatedSession(t)
	sug := worksheet.StaticSuggester{}.Suggest(worksheet.Row{ID: "N-2-R-001"})
	s.AcceptSuggestion("N-2-R-001", sug)

	row, _ := s.Worksheet.Row("N-2-R-001")
	if row.Recommendation != worksheet.StaticRecommendation {
		t.Errorf("Recommendation = %q", row.Recommendation)
	}
	if lastLog(s) != "Suggestion accepted on N-2-R-001." {
		t.Errorf("last log = %q", lastLog(s))
	}
}

func TestMarkAndIgnoreOnlyLog(t *testing.T) {
	s := curatedSession(t)
	before := s.Worksheet.Rows()
	s.MarkSuggestionForEdit("N-1-R-001")
	s.IgnoreSuggestion("N-1-R-001")
	after := s.Worksheet.Rows()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("row %s changed", before[i].ID)
		}
	}
}

func TestFinishCuration(t *testing.T) {
	s := curatedSession(t)
	recommend(s, "N-1-R-001", "Add SIL-2 trip.")

	counts, out := s.FinishCuration()
	if counts.Total != 4 || counts.Empty != 3 {
		t.Errorf("counts = %+v", counts)
	}
	if s.State != Complete || !out.Advanced {
		t.Errorf("state = %s advanced = %v", s.State, out.Advanced)
	}
	if len(out.Warnings) != 1 || out.Warnings[0] != "3 of 4 rows have no recommendation" {
		t.Errorf("warnings = %v", out.Warnings)
	}
}

func TestFinishCuration_EmptyWorksheetStillAdvances(t *testing.T) {
	s := newTestSession()
	counts, out := s.FinishCuration()
	if counts.Total != 0 || s.State != Complete {
		t.Errorf("counts = %+v state = %s", counts, s.State)
	}
	if len(out.Warnings) < 2 {
		t.Errorf("expected skip and empty warnings, got %v", out.Warnings)
	}
}

func TestApprove_NotApprovedDoesNotAdvance(t *testing.T) {
	s := curatedSession(t)
	s.FinishCuration()

	out := s.Approve(Approval{Approver: "QA lead", Date: "2025-03-20", Approved: false})
	if s.State != Complete || out.Advanced {
		t.Errorf("state = %s advanced = %v, want %s", s.State, out.Advanced, Complete)
	}
	if s.Approval.Approver != "QA lead" {
		t.Errorf("approval not saved: %+v", s.Approval)
	}
	if len(s.Assignments) != 0 {
		t.Errorf("assignments = %v, want none", s.Assignments)
	}
	if lastLog(s) != "Approval saved (not approved yet)." {
		t.Errorf("last log = %q", lastLog(s))
	}
}

func TestApprove_ApprovedAssigns(t *testing.T) {
	s := curatedSession(t)
	recommend(s, "N-1-R-001", "Add SIL-2 trip.")
	recommend(s, "N-2-R-002", "Inspect cooling water pumps.")
	s.FinishCuration()

	out := s.Approve(Approval{Approver: "QA lead", Date: "2025-03-20", Approved: true})
	if s.State != Assigned || !out.Advanced {
		t.Errorf("state = %s advanced = %v, want %s", s.State, out.Advanced, Assigned)
	}
	if out.From != Complete || out.To != Assigned {
		t.Errorf("outcome = %s -> %s", out.From, out.To)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("warnings = %v", out.Warnings)
	}
	assertAssignmentsMatch(t, s)
	for _, a := range s.Assignments {
		if a.Status != StatusPending {
			t.Errorf("assignment %s status = %q, want %q", a.RowID, a.Status, StatusPending)
		}
	}
}

func TestApprove_Warnings(t *testing.T) {
	s := curatedSession(t)
	out := s.Approve(Approval{Date: "20/03/2025", Approved: false})
	if len(out.Warnings) != 2 {
		t.Errorf("warnings = %v, want approver and date warnings", out.Warnings)
	}
}

func assertAssignmentsMatch(t *testing.T, s *Session) {
	t.Helper()
	want := make(map[string]bool)
	for _, r := range s.Worksheet.Recommended() {
		want[r.ID] = true
	}
	if len(s.Assignments) != len(want) {
		t.Fatalf("assignments = %d, want %d", len(s.Assignments), len(want))
	}
	for _, a := range s.Assignments {
		if !want[a.RowID] {
			t.Errorf("assignment for %s has no recommendation", a.RowID)
		}
	}
}

func assignedSession(t *testing.T) *Session {
	t.Helper()
	s := curatedSession(t)
	recommend(s, "N-1-R-001", "Add SIL-2 trip.")
	recommend(s, "N-2-R-002", "Inspect cooling water pumps.")
	s.FinishCuration()
	s.Approve(Approval{Approver: "QA", Date: "2025-03-20", Approved: true})
	return s
}

func TestAssignmentsRebuildOnRecommendationChange(t *testing.T) {
	s := assignedSession(t)
	name, due := "Ana", "2025-04-30"
	s.SetAssignment("N-1-R-001", AssignmentPatch{Responsible: &name, DueDate: &due})

	recommend(s, "N-2-R-001", "New action.")
	assertAssignmentsMatch(t, s)

	s.RemoveRow("N-2-R-002")
	assertAssignmentsMatch(t, s)

	var kept *Assignment
	for i := range s.Assignments {
		if s.Assignments[i].RowID == "N-1-R-001" {
			kept = &s.Assignments[i]
		}
	}
	if kept == nil || kept.Responsible != "Ana" || kept.DueDate != "2025-04-30" {
		t.Errorf("surviving assignment lost its data: %+v", kept)
	}

	// Swapping one recommended row for another keeps the count but changes the set.
	empty := ""
	s.UpdateRow("N-2-R-001", worksheet.RowPatch{Recommendation: &empty})
	recommend(s, "N-1-R-002", "Swap.")
	assertAssignmentsMatch(t, s)
}

func TestSetAssignment(t *testing.T) {
	s := assignedSession(t)
	status := StatusDone
	out := s.SetAssignment("N-2-R-002", AssignmentPatch{Status: &status})
	if len(out.Warnings) != 0 {
		t.Errorf("warnings = %v", out.Warnings)
	}
	for _, a := range s.Assignments {
		if a.RowID == "N-2-R-002" && a.Status != StatusDone {
			t.Errorf("status = %q", a.Status)
		}
	}
	if out := s.SetAssignment("N-1-R-002", AssignmentPatch{Status: &status}); len(out.Warnings) == 0 {
		t.Error("expected warning for row without recommendation")
	}
}

func TestSaveAndSend(t *testing.T) {
	s := assignedSession(t)
	if out := s.SaveAssignments(); len(out.Warnings) != 0 {
		t.Errorf("SaveAssignments warnings = %v", out.Warnings)
	}
	if lastLog(s) != "Assignments saved." {
		t.Errorf("last log = %q", lastLog(s))
	}

	n, out := s.SendRecommendations()
	if n != 2 {
		t.Errorf("sent = %d, want 2", n)
	}
	if len(out.Warnings) != 2 {
		t.Errorf("warnings = %v, want one per missing responsible", out.Warnings)
	}
	if s.State != Assigned {
		t.Errorf("send changed state to %s", s.State)
	}
}

func TestSendBeforeAssignment(t *testing.T) {
	s := curatedSession(t)
	n, out := s.SendRecommendations()
	if n != 0 || len(out.Warnings) != 2 {
		t.Errorf("n = %d warnings = %v", n, out.Warnings)
	}
	if s.State != Curation {
		t.Errorf("state = %s", s.State)
	}
}

func TestReset(t *testing.T) {
	s := assignedSession(t)
	logLen := len(s.Log)

	out := s.Reset()
	if s.State != Recommended || out.To != Recommended || out.From != Assigned {
		t.Errorf("state = %s outcome = %+v", s.State, out)
	}
	if s.ID != "ST-2025-0001" {
		t.Errorf("ID = %q", s.ID)
	}
	if s.Meta.Client != "ACME" || s.Meta.Installation != "Plant A" || s.Meta.Title != "" {
		t.Errorf("Meta = %+v", s.Meta)
	}
	if !s.Worksheet.Empty() || len(s.Assignments) != 0 || len(s.Nodes) != 0 || len(s.Studies) != 0 {
		t.Error("reset should discard worksheet, assignments, nodes and studies")
	}
	if s.Approval != (Approval{}) || s.Recommendation != (Recommendation{}) {
		t.Error("reset should discard approval and recommendation")
	}
	if s.Context != matching.DefaultContext("Plant A") {
		t.Errorf("Context = %+v", s.Context)
	}
	if len(s.Log) != logLen+1 || lastLog(s) != "Study reset." {
		t.Errorf("log len = %d, last = %q", len(s.Log), lastLog(s))
	}
}

func TestAdvance(t *testing.T) {
	s := newTestSession()
	out := s.Advance(Prefab)
	if s.State != Prefab || !out.Advanced || len(out.Warnings) != 1 {
		t.Errorf("state = %s outcome = %+v", s.State, out)
	}
	out = s.Advance(Recommended)
	if s.State != Prefab || out.Advanced {
		t.Errorf("backward Advance moved to %s", s.State)
	}
}

func TestStatesAreMonotonicAcrossWorkflow(t *testing.T) {
	s := newTestSession()
	prev := s.State.Index()
	check := func(step string) {
		if s.State.Index() < prev {
			t.Fatalf("%s moved backwards to %s", step, s.State)
		}
		prev = s.State.Index()
	}
	s.ApplyRecommendation(testResult(), "")
	check("recommend")
	s.ContinueToPreparation()
	check("continue")
	s.CompletePreparation()
	check("prepare")
	s.GenerateWorksheet(nil)
	check("generate")
	s.FinishCuration()
	check("finish")
	s.Approve(Approval{Approved: true})
	check("approve")
	s.ApplyRecommendation(testResult(), "")
	check("recommend again")
	s.GenerateWorksheet(nil)
	check("generate again")
	if s.State != Assigned {
		t.Errorf("state = %s, want %s", s.State, Assigned)
	}
}
