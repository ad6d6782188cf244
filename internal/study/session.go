package study

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/hazstudy/internal/matching"
	"github.com/zulandar/hazstudy/internal/models"
	"github.com/zulandar/hazstudy/internal/worksheet"
)

// Meta is the descriptive header of a study.
type Meta struct {
	Client       string `json:"client"`
	Title        string `json:"title"`
	Leader       string `json:"leader"`
	Installation string `json:"installation"`
}

// Recommendation is the methodology proposed for the study. Both fields stay
// editable after generation.
type Recommendation struct {
	Methodology string `json:"methodology"`
	Rationale   string `json:"rationale"`
}

// FileRef is a manifest entry for an uploaded base document. Content is not kept.
type FileRef struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// PreparationRecord collects the inputs gathered before the worksheet is built.
type PreparationRecord struct {
	Files        []FileRef `json:"files"`
	Disciplines  []string  `json:"disciplines"`
	Participants string    `json:"participants"`
}

// Approval records the sign-off of a study.
type Approval struct {
	Approver string `json:"approver"`
	Date     string `json:"date"`
	Approved bool   `json:"approved"`
}

// LogEntry is one line of the activity log.
type LogEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Session is one hazard study moving through the workflow.
type Session struct {
	ID             string                   `json:"id"`
	Meta           Meta                     `json:"meta"`
	State          State                    `json:"state"`
	Context        matching.Context         `json:"context"`
	Recommendation Recommendation           `json:"recommendation"`
	Preparation    PreparationRecord        `json:"preparation"`
	Studies        []models.HistoricalStudy `json:"studies"`
	Nodes          []models.ProcessNode     `json:"nodes"`
	Worksheet      *worksheet.Worksheet     `json:"worksheet"`
	Approval       Approval                 `json:"approval"`
	Assignments    []Assignment             `json:"assignments"`
	Log            []LogEntry               `json:"log"`

	now func() time.Time
}

// New creates a study in the RECOMMENDED state with the default problem
// context for its installation. A nil clock means time.Now.
func New(id string, meta Meta, now func() time.Time) *Session {
	s := &Session{ID: id, Meta: meta, now: now}
	s.clear()
	s.logf("Study %s created.", id)
	return s
}

// SetClock replaces the clock used to timestamp log entries. Sessions read
// back from a store start with time.Now.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Session) clear() {
	s.State = Recommended
	s.Context = matching.DefaultContext(s.Meta.Installation)
	s.Recommendation = Recommendation{}
	s.Preparation = PreparationRecord{Files: []FileRef{}, Disciplines: []string{}}
	s.Studies = []models.HistoricalStudy{}
	s.Nodes = []models.ProcessNode{}
	s.Worksheet = &worksheet.Worksheet{Sheets: []worksheet.NodeSheet{}}
	s.Approval = Approval{}
	s.Assignments = []Assignment{}
}

func (s *Session) logf(format string, args ...any) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	s.Log = append(s.Log, LogEntry{At: now(), Message: fmt.Sprintf(format, args...)})
}

func (s *Session) outcome() Outcome {
	return Outcome{From: s.State, To: s.State}
}

// transition moves the study forward. Moving to the current or an earlier
// state leaves it in place; skipping states is allowed with a warning.
func (s *Session) transition(to State) Outcome {
	out := s.outcome()
	from := s.State
	switch {
	case !to.Valid():
		out.warn("unknown state %q", to)
		return out
	case to == from:
		return out
	case to.Index() < from.Index():
		out.warn("study is already at %s; use reset to go back to %s", from, to)
		return out
	case !isNextTransition(from, to):
		var skipped []string
		for _, st := range Order[from.Index()+1 : to.Index()] {
			skipped = append(skipped, string(st))
		}
		out.warn("skipping %s", strings.Join(skipped, ", "))
	}
	s.State = to
	out.To = to
	out.Advanced = true
	return out
}

// Advance moves the study to a later state without running any step.
func (s *Session) Advance(to State) Outcome {
	out := s.transition(to)
	if out.Advanced {
		s.logf("Moved manually from %s to %s.", out.From, out.To)
	}
	return out
}

// SetMeta updates the title and leader. The installation is fixed at
// creation and only changes through the problem context.
func (s *Session) SetMeta(title, leader string) Outcome {
	s.Meta.Title = title
	s.Meta.Leader = leader
	s.logf("Metadata updated.")
	return s.outcome()
}

// SetContext replaces the problem context.
func (s *Session) SetContext(c matching.Context) Outcome {
	s.Context = c
	s.logf("Problem context updated.")
	return s.outcome()
}

// ApplyRecommendation stores a matching result and moves to PREPARATION.
func (s *Session) ApplyRecommendation(r *matching.Result, rationale string) Outcome {
	s.Context = r.Context
	s.Recommendation = Recommendation{Methodology: r.Methodology.Name, Rationale: rationale}
	s.Studies = append([]models.HistoricalStudy{}, r.Studies...)
	s.Nodes = r.NodeList()

	out := s.outcome()
	if len(s.Nodes) == 0 {
		out.warn("no related nodes found; the worksheet will be empty")
	}
	out.merge(s.transition(Preparation))
	s.logf("Recommendation generated with %d historical studies and %d related nodes.", len(s.Studies), len(s.Nodes))
	return out
}

// EditRecommendation overwrites the methodology and rationale.
func (s *Session) EditRecommendation(methodology, rationale string) Outcome {
	s.Recommendation = Recommendation{Methodology: methodology, Rationale: rationale}
	s.logf("Recommendation edited.")
	return s.outcome()
}

// ContinueToPreparation closes the recommendation step.
func (s *Session) ContinueToPreparation() Outcome {
	out := s.transition(Preparation)
	if s.Recommendation.Methodology == "" {
		out.warn("no methodology has been recommended yet")
	}
	s.logf("Recommendation step closed, moving to preparation.")
	return out
}

// AddFiles appends base documents to the preparation manifest.
func (s *Session) AddFiles(files []FileRef) Outcome {
	out := s.outcome()
	if len(files) == 0 {
		out.warn("no documents given")
		return out
	}
	s.Preparation.Files = append(s.Preparation.Files, files...)
	s.logf("%d base document(s) uploaded.", len(files))
	return out
}

// SetTeam records the disciplines and the free-text participant list.
func (s *Session) SetTeam(disciplines []string, participants string) Outcome {
	s.Preparation.Disciplines = append([]string{}, disciplines...)
	s.Preparation.Participants = participants
	s.logf("Preparation team updated (%d discipline(s)).", len(disciplines))
	return s.outcome()
}

// CompletePreparation moves to PREFAB.
func (s *Session) CompletePreparation() Outcome {
	out := s.transition(Prefab)
	if len(s.Nodes) == 0 {
		out.warn("no related nodes; run the recommendation first")
	}
	s.logf("Preparation complete, ready for the prefabricated worksheet.")
	return out
}

// GenerateWorksheet builds the prefabricated worksheet for the related nodes
// whose ids are in include, or for all of them when include is empty, and
// moves to CURATION. A blank methodology falls back to HAZOP.
func (s *Session) GenerateWorksheet(include []string) Outcome {
	out := s.outcome()

	selected := s.Nodes
	if len(include) > 0 {
		want := make(map[string]bool, len(include))
		for _, id := range include {
			want[id] = true
		}
		selected = nil
		for _, n := range s.Nodes {
			if want[n.ID] {
				selected = append(selected, n)
				delete(want, n.ID)
			}
		}
		for _, id := range include {
			if want[id] {
				out.warn("node %s is not among the related nodes", id)
				delete(want, id)
			}
		}
	}
	if len(selected) == 0 {
		out.warn("no nodes selected; the worksheet is empty")
	}

	methodology := strings.TrimSpace(s.Recommendation.Methodology)
	if methodology == "" {
		methodology = matching.DefaultWorksheetMethod
	}
	s.Worksheet = worksheet.Generate(selected, methodology)
	s.syncAssignments()

	out.merge(s.transition(Curation))
	s.logf("HAZOP prefab generated for %d node(s).", len(selected))
	return out
}

// SetNodeRecommendation edits the node-level recommendation.
func (s *Session) SetNodeRecommendation(nodeID, text string) Outcome {
	out := s.outcome()
	if !s.Worksheet.SetNodeRecommendation(nodeID, text) {
		out.warn("node %s is not in the worksheet", nodeID)
		return out
	}
	s.logf("Node recommendation edited for %s.", nodeID)
	return out
}

// UpdateRow edits the fields of a worksheet row.
func (s *Session) UpdateRow(rowID string, p worksheet.RowPatch) Outcome {
	out := s.outcome()
	if _, ok := s.Worksheet.UpdateRow(rowID, p); !ok {
		out.warn("row %s is not in the worksheet", rowID)
		return out
	}
	s.logf("Row %s edited.", rowID)
	s.syncAssignments()
	return out
}

// AddRow appends a blank row to a node.
func (s *Session) AddRow(nodeID string) (worksheet.Row, Outcome) {
	out := s.outcome()
	row, ok := s.Worksheet.AddRow(nodeID)
	if !ok {
		out.warn("node %s is not in the worksheet", nodeID)
		return row, out
	}
	s.logf("Manual row %s added to %s.", row.ID, nodeID)
	return row, out
}

// RemoveRow deletes a worksheet row.
func (s *Session) RemoveRow(rowID string) Outcome {
	out := s.outcome()
	if !s.Worksheet.RemoveRow(rowID) {
		out.warn("row %s is not in the worksheet", rowID)
		return out
	}
	s.logf("Row %s removed.", rowID)
	s.syncAssignments()
	return out
}

// AcceptSuggestion writes the suggested recommendation into a row.
func (s *Session) AcceptSuggestion(rowID string, sug worksheet.Suggestion) Outcome {
	out := s.outcome()
	text := sug.Recommendation
	if _, ok := s.Worksheet.UpdateRow(rowID, worksheet.RowPatch{Recommendation: &text}); !ok {
		out.warn("row %s is not in the worksheet", rowID)
		return out
	}
	s.logf("Suggestion accepted on %s.", rowID)
	s.syncAssignments()
	return out
}

// MarkSuggestionForEdit only records that the user will edit the row by hand.
func (s *Session) MarkSuggestionForEdit(rowID string) Outcome {
	out := s.outcome()
	if _, ok := s.Worksheet.Row(rowID); !ok {
		out.warn("row %s is not in the worksheet", rowID)
	}
	s.logf("Suggestion marked for editing on %s.", rowID)
	return out
}

// IgnoreSuggestion only records that the suggestion was dismissed.
func (s *Session) IgnoreSuggestion(rowID string) Outcome {
	out := s.outcome()
	if _, ok := s.Worksheet.Row(rowID); !ok {
		out.warn("row %s is not in the worksheet", rowID)
	}
	s.logf("Suggestion ignored on %s.", rowID)
	return out
}

// FinishCuration moves to COMPLETAR and reports how many rows still lack a
// recommendation. It never blocks.
func (s *Session) FinishCuration() (worksheet.Counts, Outcome) {
	out := s.transition(Complete)
	counts := s.Worksheet.Counts()
	switch {
	case counts.Total == 0:
		out.warn("the worksheet has no rows")
	case counts.Empty > 0:
		out.warn("%d of %d rows have no recommendation", counts.Empty, counts.Total)
	}
	s.logf("Curation finished (%d rows, %d without recommendation).", counts.Total, counts.Empty)
	return counts, out
}

// Approve saves the approval record. When approved it moves through
// APROBADO to ASIGNADO and rebuilds the assignment table; otherwise the
// state is left unchanged.
func (s *Session) Approve(a Approval) Outcome {
	s.Approval = a
	out := s.outcome()
	if strings.TrimSpace(a.Approver) == "" {
		out.warn("no approver given")
	}
	if a.Date != "" {
		if _, err := time.Parse(time.DateOnly, a.Date); err != nil {
			out.warn("approval date %q is not YYYY-MM-DD", a.Date)
		}
	}
	if !a.Approved {
		s.logf("Approval saved (not approved yet).")
		return out
	}

	out.merge(s.transition(Approved))
	s.logf("Study approved by %s.", a.Approver)
	out.merge(s.transition(Assigned))
	s.syncAssignments()
	s.logf("Moved to assignment with %d recommendation(s) to assign.", len(s.Assignments))
	if len(s.Assignments) == 0 {
		out.warn("no rows carry a recommendation; nothing to assign")
	}
	return out
}

// SendRecommendations is the terminal step. Delivery is out of scope; it
// only records the action.
func (s *Session) SendRecommendations() (int, Outcome) {
	out := s.outcome()
	if s.State != Assigned {
		out.warn("study is %s, not %s", s.State, Assigned)
	}
	s.syncAssignments()
	if len(s.Assignments) == 0 {
		out.warn("no recommendations to send")
	}
	for _, a := range s.Assignments {
		if strings.TrimSpace(a.Responsible) == "" {
			out.warn("recommendation %s has no responsible", a.RowID)
		}
	}
	s.logf("Recommendations sent to responsibles (%d).", len(s.Assignments))
	return len(s.Assignments), out
}

// Reset returns the study to RECOMMENDED, keeping its id, client and
// installation. The activity log is kept.
func (s *Session) Reset() Outcome {
	out := s.outcome()
	s.Meta = Meta{Client: s.Meta.Client, Installation: s.Meta.Installation}
	s.clear()
	out.To = s.State
	s.logf("Study reset.")
	return out
}
