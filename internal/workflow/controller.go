// Package workflow drives hazard studies through their steps. It loads a
// session, applies one operation under a per-study lock, saves it and logs
// the outcome.
package workflow

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zulandar/hazstudy/internal/catalog"
	"github.com/zulandar/hazstudy/internal/matching"
	"github.com/zulandar/hazstudy/internal/models"
	"github.com/zulandar/hazstudy/internal/study"
	"github.com/zulandar/hazstudy/internal/worksheet"
)

// ControllerOpts holds the collaborators of a Controller.
type ControllerOpts struct {
	Catalog   catalog.Store
	Studies   study.Store
	Engine    *matching.Engine    // defaults to an engine over Catalog
	Suggester worksheet.Suggester // defaults to StaticSuggester
	Client    string              // client recorded on new studies
	Now       func() time.Time    // defaults to time.Now
}

// CreateOpts holds parameters for creating a study.
type CreateOpts struct {
	Installation string
	Title        string
	Leader       string
	Client       string // overrides ControllerOpts.Client
}

// Controller applies workflow operations to stored studies.
type Controller struct {
	catalog   catalog.Store
	studies   study.Store
	engine    *matching.Engine
	suggester worksheet.Suggester
	client    string
	now       func() time.Time

	createMu sync.Mutex
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
}

// NewController creates a Controller.
func NewController(opts ControllerOpts) (*Controller, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("workflow: catalog is required")
	}
	if opts.Studies == nil {
		return nil, fmt.Errorf("workflow: study store is required")
	}
	if opts.Engine == nil {
		opts.Engine = matching.NewEngine(opts.Catalog)
	}
	if opts.Suggester == nil {
		opts.Suggester = worksheet.StaticSuggester{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		catalog:   opts.Catalog,
		studies:   opts.Studies,
		engine:    opts.Engine,
		suggester: opts.Suggester,
		client:    opts.Client,
		now:       opts.Now,
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

// Catalog returns the catalog the controller reads from.
func (c *Controller) Catalog() catalog.Store { return c.catalog }

// Engine returns the matching engine.
func (c *Controller) Engine() *matching.Engine { return c.engine }

func (c *Controller) lock(id string) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// update runs fn on the stored session under its lock and saves the result.
func (c *Controller) update(id, op string, fn func(s *study.Session) (study.Outcome, error)) (*study.Session, study.Outcome, error) {
	unlock := c.lock(id)
	defer unlock()

	s, err := c.studies.Get(id)
	if err != nil {
		return nil, study.Outcome{}, fmt.Errorf("workflow: %s: %w", op, err)
	}
	s.SetClock(c.now)

	out, err := fn(s)
	if err != nil {
		return nil, study.Outcome{}, fmt.Errorf("workflow: %s %s: %w", op, id, err)
	}
	if err := c.studies.Save(s); err != nil {
		return nil, study.Outcome{}, fmt.Errorf("workflow: %s %s: %w", op, id, err)
	}
	log.Printf("workflow: %s %s: %s -> %s (%d warnings)", op, id, out.From, out.To, len(out.Warnings))
	return s, out, nil
}

func apply(fn func(s *study.Session) study.Outcome) func(*study.Session) (study.Outcome, error) {
	return func(s *study.Session) (study.Outcome, error) { return fn(s), nil }
}

// Create starts a new study in RECOMMENDED.
func (c *Controller) Create(opts CreateOpts) (*study.Session, error) {
	c.createMu.Lock()
	defer c.createMu.Unlock()

	id, err := c.studies.NextID()
	if err != nil {
		return nil, fmt.Errorf("workflow: create: %w", err)
	}
	client := opts.Client
	if client == "" {
		client = c.client
	}
	s := study.New(id, study.Meta{
		Client:       client,
		Title:        opts.Title,
		Leader:       opts.Leader,
		Installation: opts.Installation,
	}, c.now)
	if err := c.studies.Save(s); err != nil {
		return nil, fmt.Errorf("workflow: create: %w", err)
	}
	log.Printf("workflow: created %s at %q", id, opts.Installation)
	return s, nil
}

// Get returns a study by id.
func (c *Controller) Get(id string) (*study.Session, error) {
	s, err := c.studies.Get(id)
	if err != nil {
		return nil, fmt.Errorf("workflow: get: %w", err)
	}
	return s, nil
}

// List returns every study.
func (c *Controller) List() ([]*study.Session, error) {
	all, err := c.studies.List()
	if err != nil {
		return nil, fmt.Errorf("workflow: list: %w", err)
	}
	return all, nil
}

// History returns the catalog studies of the study's installation.
func (c *Controller) History(id string) ([]models.HistoricalStudy, error) {
	s, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	studies, err := c.catalog.Studies(s.Meta.Installation)
	if err != nil {
		return nil, fmt.Errorf("workflow: history %s: %w", id, err)
	}
	return studies, nil
}

// SetMeta edits the title and leader.
func (c *Controller) SetMeta(id, title, leader string) (*study.Session, study.Outcome, error) {
	return c.update(id, "set meta", apply(func(s *study.Session) study.Outcome {
		return s.SetMeta(title, leader)
	}))
}

// SetContext replaces the problem context without running the engine.
func (c *Controller) SetContext(id string, ctx matching.Context) (*study.Session, study.Outcome, error) {
	return c.update(id, "set context", apply(func(s *study.Session) study.Outcome {
		return s.SetContext(ctx)
	}))
}

// Recommend runs the matching engine and stores its result. A nil context
// reuses the one stored on the study.
func (c *Controller) Recommend(id string, ctx *matching.Context) (*study.Session, study.Outcome, error) {
	return c.update(id, "recommend", func(s *study.Session) (study.Outcome, error) {
		in := s.Context
		if ctx != nil {
			in = *ctx
		}
		res, err := c.engine.Recommend(in)
		if err != nil {
			return study.Outcome{}, err
		}
		return s.ApplyRecommendation(res, matching.Summary(res)), nil
	})
}

// EditRecommendation overwrites the methodology and rationale.
func (c *Controller) EditRecommendation(id, methodology, rationale string) (*study.Session, study.Outcome, error) {
	return c.update(id, "edit recommendation", apply(func(s *study.Session) study.Outcome {
		return s.EditRecommendation(methodology, rationale)
	}))
}

// ContinueToPreparation closes the recommendation step.
func (c *Controller) ContinueToPreparation(id string) (*study.Session, study.Outcome, error) {
	return c.update(id, "continue", apply((*study.Session).ContinueToPreparation))
}

// AddFiles appends base documents to the preparation manifest.
func (c *Controller) AddFiles(id string, files []study.FileRef) (*study.Session, study.Outcome, error) {
	return c.update(id, "add files", apply(func(s *study.Session) study.Outcome {
		return s.AddFiles(files)
	}))
}

// SetTeam records the preparation disciplines and participants.
func (c *Controller) SetTeam(id string, disciplines []string, participants string) (*study.Session, study.Outcome, error) {
	return c.update(id, "set team", apply(func(s *study.Session) study.Outcome {
		return s.SetTeam(disciplines, participants)
	}))
}

// CompletePreparation moves the study to PREFAB.
func (c *Controller) CompletePreparation(id string) (*study.Session, study.Outcome, error) {
	return c.update(id, "prepare", apply((*study.Session).CompletePreparation))
}

// Generate builds the prefabricated worksheet for the selected nodes, or for
// every related node when include is empty.
func (c *Controller) Generate(id string, include []string) (*study.Session, study.Outcome, error) {
	return c.update(id, "generate", apply(func(s *study.Session) study.Outcome {
		return s.GenerateWorksheet(include)
	}))
}

// SetNodeRecommendation edits a node-level recommendation.
func (c *Controller) SetNodeRecommendation(id, nodeID, text string) (*study.Session, study.Outcome, error) {
	return c.update(id, "node recommendation", apply(func(s *study.Session) study.Outcome {
		return s.SetNodeRecommendation(nodeID, text)
	}))
}

// UpdateRow edits a worksheet row.
func (c *Controller) UpdateRow(id, rowID string, p worksheet.RowPatch) (*study.Session, study.Outcome, error) {
	return c.update(id, "update row", apply(func(s *study.Session) study.Outcome {
		return s.UpdateRow(rowID, p)
	}))
}

// AddRow appends a blank row to a node and returns it.
func (c *Controller) AddRow(id, nodeID string) (worksheet.Row, *study.Session, study.Outcome, error) {
	var row worksheet.Row
	s, out, err := c.update(id, "add row", apply(func(s *study.Session) study.Outcome {
		var out study.Outcome
		row, out = s.AddRow(nodeID)
		return out
	}))
	return row, s, out, err
}

// RemoveRow deletes a worksheet row.
func (c *Controller) RemoveRow(id, rowID string) (*study.Session, study.Outcome, error) {
	return c.update(id, "remove row", apply(func(s *study.Session) study.Outcome {
		return s.RemoveRow(rowID)
	}))
}

// Suggest returns the curation suggestion for a row. It does not modify the
// study.
func (c *Controller) Suggest(id, rowID string) (worksheet.Suggestion, study.Outcome, error) {
	s, err := c.Get(id)
	if err != nil {
		return worksheet.Suggestion{}, study.Outcome{}, err
	}
	out := study.Outcome{From: s.State, To: s.State}
	row, ok := s.Worksheet.Row(rowID)
	if !ok {
		out.Warnings = append(out.Warnings, fmt.Sprintf("row %s is not in the worksheet", rowID))
		row.ID = rowID
	}
	return c.suggester.Suggest(row), out, nil
}

// AcceptSuggestion writes the row's suggestion into its recommendation.
func (c *Controller) AcceptSuggestion(id, rowID string) (*study.Session, study.Outcome, error) {
	return c.update(id, "accept suggestion", apply(func(s *study.Session) study.Outcome {
		row, _ := s.Worksheet.Row(rowID)
		row.ID = rowID
		return s.AcceptSuggestion(rowID, c.suggester.Suggest(row))
	}))
}

// MarkSuggestionForEdit records that the suggestion will be edited by hand.
func (c *Controller) MarkSuggestionForEdit(id, rowID string) (*study.Session, study.Outcome, error) {
	return c.update(id, "edit suggestion", apply(func(s *study.Session) study.Outcome {
		return s.MarkSuggestionForEdit(rowID)
	}))
}

// IgnoreSuggestion records that the suggestion was dismissed.
func (c *Controller) IgnoreSuggestion(id, rowID string) (*study.Session, study.Outcome, error) {
	return c.update(id, "ignore suggestion", apply(func(s *study.Session) study.Outcome {
		return s.IgnoreSuggestion(rowID)
	}))
}

// FinishCuration moves to COMPLETAR and returns the completion counters.
func (c *Controller) FinishCuration(id string) (worksheet.Counts, *study.Session, study.Outcome, error) {
	var counts worksheet.Counts
	s, out, err := c.update(id, "finish", apply(func(s *study.Session) study.Outcome {
		var out study.Outcome
		counts, out = s.FinishCuration()
		return out
	}))
	return counts, s, out, err
}

// Approve saves the approval and, when approved, moves to ASIGNADO.
func (c *Controller) Approve(id string, a study.Approval) (*study.Session, study.Outcome, error) {
	return c.update(id, "approve", apply(func(s *study.Session) study.Outcome {
		return s.Approve(a)
	}))
}

// SetAssignment edits the assignment of a recommended row.
func (c *Controller) SetAssignment(id, rowID string, p study.AssignmentPatch) (*study.Session, study.Outcome, error) {
	return c.update(id, "assign", apply(func(s *study.Session) study.Outcome {
		return s.SetAssignment(rowID, p)
	}))
}

// SaveAssignments records that the assignment table was reviewed.
func (c *Controller) SaveAssignments(id string) (*study.Session, study.Outcome, error) {
	return c.update(id, "save assignments", apply((*study.Session).SaveAssignments))
}

// Send records that the recommendations were sent and returns how many.
func (c *Controller) Send(id string) (int, *study.Session, study.Outcome, error) {
	var n int
	s, out, err := c.update(id, "send", apply(func(s *study.Session) study.Outcome {
		var out study.Outcome
		n, out = s.SendRecommendations()
		return out
	}))
	return n, s, out, err
}

// Advance moves a study forward without running a step.
func (c *Controller) Advance(id string, to study.State) (*study.Session, study.Outcome, error) {
	return c.update(id, "advance", apply(func(s *study.Session) study.Outcome {
		return s.Advance(to)
	}))
}

// Reset returns a study to RECOMMENDED, keeping its id.
func (c *Controller) Reset(id string) (*study.Session, study.Outcome, error) {
	return c.update(id, "reset", apply((*study.Session).Reset))
}
