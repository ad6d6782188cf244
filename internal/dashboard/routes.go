package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/hazstudy/internal/matching"
	"github.com/zulandar/hazstudy/internal/study"
	"github.com/zulandar/hazstudy/internal/workflow"
	"github.com/zulandar/hazstudy/internal/worksheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, ctrl *workflow.Controller) {
	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Catalog.
	api.GET("/catalog/installations", handleInstallations(ctrl))
	api.GET("/catalog/studies", handleCatalogStudies(ctrl))
	api.GET("/catalog/nodes", handleCatalogNodes(ctrl))
	api.POST("/recommend", handleRecommendOnce(ctrl))

	// Studies.
	api.GET("/studies", handleStudyList(ctrl))
	api.POST("/studies", handleStudyCreate(ctrl))
	api.GET("/studies/:id", handleStudyDetail(ctrl))
	api.GET("/studies/:id/history", handleStudyHistory(ctrl))
	api.GET("/studies/:id/worksheet", handleWorksheet(ctrl))
	api.GET("/studies/:id/export", handleExport(ctrl))
	api.GET("/studies/:id/events", handleStudyEvents(ctrl))

	// Step 1: recommendation.
	api.PUT("/studies/:id/meta", handleSetMeta(ctrl))
	api.PUT("/studies/:id/context", handleSetContext(ctrl))
	api.POST("/studies/:id/recommend", handleRecommend(ctrl))
	api.PUT("/studies/:id/recommendation", handleEditRecommendation(ctrl))
	api.POST("/studies/:id/continue", handleOp(ctrl.ContinueToPreparation))

	// Step 2: preparation.
	api.POST("/studies/:id/files", handleAddFiles(ctrl))
	api.PUT("/studies/:id/team", handleSetTeam(ctrl))
	api.POST("/studies/:id/prepare", handleOp(ctrl.CompletePreparation))

	// Steps 3-4: worksheet and curation.
	api.POST("/studies/:id/generate", handleGenerate(ctrl))
	api.PUT("/studies/:id/nodes/:node/recommendation", handleNodeRecommendation(ctrl))
	api.POST("/studies/:id/nodes/:node/rows", handleAddRow(ctrl))
	api.PATCH("/studies/:id/rows/:row", handleUpdateRow(ctrl))
	api.DELETE("/studies/:id/rows/:row", handleRemoveRow(ctrl))
	api.GET("/studies/:id/rows/:row/suggestion", handleSuggest(ctrl))
	api.POST("/studies/:id/rows/:row/suggestion/:action", handleSuggestionAction(ctrl))

	// Steps 5-7: completion, approval, assignment.
	api.POST("/studies/:id/finish", handleFinish(ctrl))
	api.POST("/studies/:id/approve", handleApprove(ctrl))
	api.PATCH("/studies/:id/assignments/:row", handleSetAssignment(ctrl))
	api.POST("/studies/:id/assignments/save", handleOp(ctrl.SaveAssignments))
	api.POST("/studies/:id/send", handleSend(ctrl))
	api.POST("/studies/:id/advance", handleAdvance(ctrl))
	api.POST("/studies/:id/reset", handleOp(ctrl.Reset))
}

// fail maps an error to a JSON response. Unknown studies are 404.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, study.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// respond writes the usual mutation response: the study and the outcome.
func respond(c *gin.Context, s *study.Session, out study.Outcome, err error, extra gin.H) {
	if err != nil {
		fail(c, err)
		return
	}
	body := gin.H{"study": s, "outcome": out}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// handleOp wraps a controller operation that only needs the study id.
func handleOp(op func(id string) (*study.Session, study.Outcome, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, out, err := op(c.Param("id"))
		respond(c, s, out, err, nil)
	}
}

// contextRequest is the problem context as typed by a user. Situation and
// phase are normalised, so "moc" or "basic feed" are accepted.
type contextRequest struct {
	Installation string `json:"installation"`
	Unit         string `json:"unit"`
	Equipment    string `json:"equipment"`
	Description  string `json:"description"`
	Situation    string `json:"situation"`
	Phase        string `json:"phase"`
}

func (r contextRequest) context() matching.Context {
	return matching.Context{
		Installation: r.Installation,
		Unit:         r.Unit,
		Equipment:    r.Equipment,
		Description:  r.Description,
		Situation:    matching.ParseSituation(r.Situation),
		Phase:        matching.ParsePhase(r.Phase),
	}
}

func handleInstallations(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := ctrl.Catalog().ListInstallations()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"installations": list})
	}
}

func handleCatalogStudies(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := ctrl.Catalog().Studies(c.Query("installation"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"studies": list})
	}
}

func handleCatalogNodes(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := ctrl.Catalog().Nodes(c.Query("installation"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"nodes": list})
	}
}

func handleRecommendOnce(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := ctrl.Engine().Recommend(req.context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"result":       res,
			"summary":      matching.Summary(res),
			"summary_html": matching.SummaryHTML(res),
		})
	}
}

// studySummary is one line of the study list.
type studySummary struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Installation string      `json:"installation"`
	State        study.State `json:"state"`
	Methodology  string      `json:"methodology"`
	Rows         int         `json:"rows"`
	Assignments  int         `json:"assignments"`
}

func handleStudyList(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := ctrl.List()
		if err != nil {
			fail(c, err)
			return
		}
		out := make([]studySummary, 0, len(all))
		for _, s := range all {
			out = append(out, studySummary{
				ID:           s.ID,
				Title:        s.Meta.Title,
				Installation: s.Meta.Installation,
				State:        s.State,
				Methodology:  s.Recommendation.Methodology,
				Rows:         len(s.Worksheet.Rows()),
				Assignments:  len(s.Assignments),
			})
		}
		c.JSON(http.StatusOK, gin.H{"studies": out})
	}
}

func handleStudyCreate(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Installation string `json:"installation"`
			Title        string `json:"title"`
			Leader       string `json:"leader"`
			Client       string `json:"client"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		s, err := ctrl.Create(workflow.CreateOpts{
			Installation: req.Installation,
			Title:        req.Title,
			Leader:       req.Leader,
			Client:       req.Client,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"study": s})
	}
}

func handleStudyDetail(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := ctrl.Get(c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"study":          s,
			"rationale_html": matching.MarkdownHTML(s.Recommendation.Rationale),
			"counts":         s.Worksheet.Counts(),
		})
	}
}

func handleStudyHistory(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := ctrl.History(c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"studies": list})
	}
}

func handleWorksheet(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := ctrl.Get(c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"rows":   s.Worksheet.Rows(),
			"sheets": s.Worksheet.Sheets,
			"counts": s.Worksheet.Counts(),
		})
	}
}

func handleExport(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := ctrl.Get(c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		var buf bytes.Buffer
		if err := worksheet.WriteXLSX(&buf, s.Worksheet, s.ID); err != nil {
			fail(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, s.ID))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

func handleSetMeta(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Title  string `json:"title"`
			Leader string `json:"leader"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.SetMeta(c.Param("id"), req.Title, req.Leader)
		respond(c, s, out, err, nil)
	}
}

func handleSetContext(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.SetContext(c.Param("id"), req.context())
		respond(c, s, out, err, nil)
	}
}

// handleRecommend runs the engine. An empty body reuses the stored context.
func handleRecommend(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ctx *matching.Context
		if c.Request.ContentLength != 0 {
			var req contextRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err)
				return
			}
			in := req.context()
			ctx = &in
		}
		s, out, err := ctrl.Recommend(c.Param("id"), ctx)
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, s, out, nil, gin.H{"rationale_html": matching.MarkdownHTML(s.Recommendation.Rationale)})
	}
}

func handleEditRecommendation(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req study.Recommendation
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.EditRecommendation(c.Param("id"), req.Methodology, req.Rationale)
		respond(c, s, out, err, nil)
	}
}

func handleAddFiles(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Files []study.FileRef `json:"files"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.AddFiles(c.Param("id"), req.Files)
		respond(c, s, out, err, nil)
	}
}

func handleSetTeam(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Disciplines  []string `json:"disciplines"`
			Participants string   `json:"participants"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.SetTeam(c.Param("id"), req.Disciplines, req.Participants)
		respond(c, s, out, err, nil)
	}
}

// handleGenerate builds the worksheet. An empty body selects every node.
func handleGenerate(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Include []string `json:"include"`
		}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err)
				return
			}
		}
		s, out, err := ctrl.Generate(c.Param("id"), req.Include)
		respond(c, s, out, err, nil)
	}
}

func handleNodeRecommendation(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.SetNodeRecommendation(c.Param("id"), c.Param("node"), req.Text)
		respond(c, s, out, err, nil)
	}
}

func handleAddRow(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, s, out, err := ctrl.AddRow(c.Param("id"), c.Param("node"))
		respond(c, s, out, err, gin.H{"row": row})
	}
}

func handleUpdateRow(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch worksheet.RowPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.UpdateRow(c.Param("id"), c.Param("row"), patch)
		respond(c, s, out, err, nil)
	}
}

func handleRemoveRow(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, out, err := ctrl.RemoveRow(c.Param("id"), c.Param("row"))
		respond(c, s, out, err, nil)
	}
}

func handleSuggest(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		sug, out, err := ctrl.Suggest(c.Param("id"), c.Param("row"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestion": sug, "outcome": out})
	}
}

func handleSuggestionAction(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, row := c.Param("id"), c.Param("row")
		var op func(id, rowID string) (*study.Session, study.Outcome, error)
		switch c.Param("action") {
		case "accept":
			op = ctrl.AcceptSuggestion
		case "edit":
			op = ctrl.MarkSuggestionForEdit
		case "ignore":
			op = ctrl.IgnoreSuggestion
		default:
			badRequest(c, fmt.Errorf("unknown suggestion action %q", c.Param("action")))
			return
		}
		s, out, err := op(id, row)
		respond(c, s, out, err, nil)
	}
}

func handleFinish(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, s, out, err := ctrl.FinishCuration(c.Param("id"))
		respond(c, s, out, err, gin.H{"counts": counts})
	}
}

func handleApprove(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req study.Approval
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.Approve(c.Param("id"), req)
		respond(c, s, out, err, nil)
	}
}

func handleSetAssignment(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch study.AssignmentPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.SetAssignment(c.Param("id"), c.Param("row"), patch)
		respond(c, s, out, err, nil)
	}
}

func handleSend(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, s, out, err := ctrl.Send(c.Param("id"))
		respond(c, s, out, err, gin.H{"sent": n})
	}
}

func handleAdvance(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			State string `json:"state" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		to, err := study.ParseState(req.State)
		if err != nil {
			badRequest(c, err)
			return
		}
		s, out, err := ctrl.Advance(c.Param("id"), to)
		respond(c, s, out, err, nil)
	}
}
