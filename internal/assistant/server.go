// Package assistant exposes the catalog and the recommendation engine to
// MCP clients.
package assistant

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/zulandar/hazstudy/internal/workflow"
)

// Version is reported to MCP clients during initialisation.
const Version = "0.1.0"

// New creates an MCP server with every tool registered.
func New(ctrl *workflow.Controller) *mcp.Server {
	t := &Tools{Controller: ctrl}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "hazstudy",
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_installations",
		Description: "List the installations in the historical catalog",
	}, t.ListInstallations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_nodes",
		Description: "List process nodes, optionally filtered by installation",
	}, t.ListNodes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "recommend_study",
		Description: "Recommend a study methodology with related historical studies and nodes for a problem context",
	}, t.RecommendStudy)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_study",
		Description: "Get a study session by id, including its state, worksheet and assignments",
	}, t.GetStudy)

	return srv
}

// Run serves the MCP tools over stdio until ctx is cancelled or the client
// disconnects.
func Run(ctx context.Context, ctrl *workflow.Controller) error {
	if ctrl == nil {
		return fmt.Errorf("assistant: controller is required")
	}
	if err := New(ctrl).Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("assistant: %w", err)
	}
	return nil
}
