package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/zulandar/hazstudy/internal/matching"
	"github.com/zulandar/hazstudy/internal/models"
	"github.com/zulandar/hazstudy/internal/study"
	"github.com/zulandar/hazstudy/internal/workflow"
)

// Tools holds the references the tool handlers need.
type Tools struct {
	Controller *workflow.Controller
}

// --- Input types ---

type ListInstallationsInput struct{}

type ListNodesInput struct {
	Installation string `json:"installation,omitempty" jsonschema:"Installation name; empty or All lists every node"`
}

type RecommendStudyInput struct {
	Installation string `json:"installation" jsonschema:"Installation the problem occurs in"`
	Unit         string `json:"unit,omitempty" jsonschema:"Process unit"`
	Equipment    string `json:"equipment,omitempty" jsonschema:"Equipment tag, e.g. R-101"`
	Description  string `json:"description,omitempty" jsonschema:"Free-text description of the problem"`
	Situation    string `json:"situation,omitempty" jsonschema:"new project, change/MOC, recurring problem, incident or other"`
	Phase        string `json:"phase,omitempty" jsonschema:"conceptual, basic/FEED, detail, operation or decommissioning"`
}

type GetStudyInput struct {
	ID string `json:"id" jsonschema:"Study id, e.g. ST-2025-0001"`
}

// RecommendStudyOutput is the recommend_study result.
type RecommendStudyOutput struct {
	Methodology matching.Methodology     `json:"methodology"`
	Studies     []models.HistoricalStudy `json:"studies"`
	Nodes       []matching.ScoredNode    `json:"nodes"`
	Summary     string                   `json:"summary"`
}

// --- Handlers ---

func (t *Tools) ListInstallations(_ context.Context, _ *mcp.CallToolRequest, _ ListInstallationsInput) (*mcp.CallToolResult, any, error) {
	list, err := t.Controller.Catalog().ListInstallations()
	if err != nil {
		return toolError("Failed to list installations: %v", err), nil, nil
	}
	return toolJSON(list)
}

func (t *Tools) ListNodes(_ context.Context, _ *mcp.CallToolRequest, input ListNodesInput) (*mcp.CallToolResult, any, error) {
	nodes, err := t.Controller.Catalog().Nodes(input.Installation)
	if err != nil {
		return toolError("Failed to list nodes: %v", err), nil, nil
	}
	return toolJSON(nodes)
}

func (t *Tools) RecommendStudy(_ context.Context, _ *mcp.CallToolRequest, input RecommendStudyInput) (*mcp.CallToolResult, any, error) {
	res, err := t.Controller.Engine().Recommend(matching.Context{
		Installation: input.Installation,
		Unit:         input.Unit,
		Equipment:    input.Equipment,
		Description:  input.Description,
		Situation:    matching.ParseSituation(input.Situation),
		Phase:        matching.ParsePhase(input.Phase),
	})
	if err != nil {
		return toolError("Failed to compute recommendation: %v", err), nil, nil
	}
	return toolJSON(RecommendStudyOutput{
		Methodology: res.Methodology,
		Studies:     res.Studies,
		Nodes:       res.Nodes,
		Summary:     matching.Summary(res),
	})
}

func (t *Tools) GetStudy(_ context.Context, _ *mcp.CallToolRequest, input GetStudyInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return toolError("Study id is required"), nil, nil
	}
	s, err := t.Controller.Get(input.ID)
	if errors.Is(err, study.ErrNotFound) {
		return toolError("Study %q not found", input.ID), nil, nil
	}
	if err != nil {
		return toolError("Failed to load study: %v", err), nil, nil
	}
	return toolJSON(s)
}

// --- Helpers ---

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
