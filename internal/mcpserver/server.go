// Package mcpserver exposes a metric source as MCP tools over stdio, so MCP
// clients can pull the same dimension-grouped data the analysis agent sees.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ybeven/4D-ARE/internal/metrics"
	"github.com/ybeven/4D-ARE/internal/sources"
)

const serverVersion = "0.1.0"

// customQuerier is implemented by sources that can run ad-hoc queries.
type customQuerier interface {
	QueryCustom(ctx context.Context, query string) ([]map[string]any, error)
}

// Server exposes one metric source as an MCP tool set. Every source gets the
// five metric tools; demo sources additionally get scenario management, and
// SQL-backed sources get query_custom.
type Server struct {
	mcp    *server.MCPServer
	source sources.Source
}

// New builds the tool surface for the given source.
func New(src sources.Source) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			"4d-are-metrics",
			serverVersion,
			server.WithToolCapabilities(false),
		),
		source: src,
	}
	s.register()
	return s
}

func (s *Server) register() {
	for _, d := range []struct {
		name string
		dim  metrics.Dimension
		desc string
	}{
		{"get_results_metrics", metrics.DimResults,
			"Get Results dimension metrics: outcomes like revenue, retention, and growth."},
		{"get_process_metrics", metrics.DimProcess,
			"Get Process dimension metrics: operational behavior like visit frequency and conversion."},
		{"get_support_metrics", metrics.DimSupport,
			"Get Support dimension metrics: resourcing like staffing, training, and system availability."},
		{"get_longterm_metrics", metrics.DimLongterm,
			"Get Long-term dimension metrics: environment like market trend and competition."},
	} {
		d := d
		s.mcp.AddTool(
			mcp.NewTool(d.name, mcp.WithDescription(d.desc)),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return s.dimensionResult(ctx, d.dim)
			},
		)
	}

	s.mcp.AddTool(
		mcp.NewTool("get_all_metrics",
			mcp.WithDescription("Get all metrics organized by dimension (results, process, support, longterm).")),
		s.handleAllMetrics,
	)

	if demo, ok := s.source.(*sources.Demo); ok {
		s.mcp.AddTool(
			mcp.NewTool("list_scenarios",
				mcp.WithDescription("List the available demo scenarios.")),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return s.handleListScenarios(demo)
			},
		)
		s.mcp.AddTool(
			mcp.NewTool("set_scenario",
				mcp.WithDescription("Switch the active demo scenario."),
				mcp.WithString("scenario_id",
					mcp.Required(),
					mcp.Description("Scenario ID, as returned by list_scenarios."))),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return s.handleSetScenario(demo, req)
			},
		)
	}

	if q, ok := s.source.(customQuerier); ok {
		s.mcp.AddTool(
			mcp.NewTool("query_custom",
				mcp.WithDescription("Run a custom SQL query against the metric database and return the rows."),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("SQL query to execute."))),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return s.handleQueryCustom(ctx, q, req)
			},
		)
	}
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) dimensionResult(ctx context.Context, dim metrics.Dimension) (*mcp.CallToolResult, error) {
	data, err := s.source.Fetch(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetching metrics: %v", err)), nil
	}
	return jsonResult(data.Group(dim))
}

func (s *Server) handleAllMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.source.Fetch(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetching metrics: %v", err)), nil
	}
	return jsonResult(data)
}

func (s *Server) handleListScenarios(demo *sources.Demo) (*mcp.CallToolResult, error) {
	type scenarioInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	scenarios := demo.ListScenarios()
	out := make([]scenarioInfo, 0, len(scenarios))
	for _, sc := range scenarios {
		out = append(out, scenarioInfo{ID: sc.ID, Name: sc.Name, Description: sc.Description})
	}
	return jsonResult(out)
}

func (s *Server) handleSetScenario(demo *sources.Demo, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("scenario_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := demo.SetScenario(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("active scenario: %s", id)), nil
}

func (s *Server) handleQueryCustom(ctx context.Context, q customQuerier, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := q.QueryCustom(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rows)
}

// jsonResult marshals v as an indented JSON text payload.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
