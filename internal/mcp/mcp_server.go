// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/loadcompare/core"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// filterOptions are the tool arguments that update the session filter before a tool runs.
func filterOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("scenario", mcp.Description("Scenario id to select. Switching scenarios resets the parameter filter.")),
		mcp.WithString("metric", mcp.Description("Metric id to select within the scenario.")),
		mcp.WithNumber(schema.Parameter1Key, mcp.Description("Keep only rows whose parameter_1 equals this value.")),
		mcp.WithNumber(schema.Parameter2Key, mcp.Description("Keep only rows whose parameter_2 equals this value.")),
		mcp.WithNumber(schema.Parameter3Key, mcp.Description("Keep only rows whose parameter_3 equals this value.")),
		mcp.WithBoolean("clear_parameters", mcp.Description("Drop every parameter filter before applying the given ones.")),
	}
}

// NewMCPServer initializes and configures the comparison MCP server without starting it.
// All tools share the given session. This is exposed for unit testing.
func NewMCPServer(session *core.Session) *server.MCPServer {
	s := server.NewMCPServer(
		"Load Test Comparison Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{session: session}

	// --- 1. Tool: list_scenarios ---
	s.AddTool(mcp.NewTool("list_scenarios",
		mcp.WithDescription("List the scenarios of the loaded document with the filters available for the selected one."),
	), h.handleListScenarios)

	// --- 2. Tool: get_filtered_rows ---
	s.AddTool(mcp.NewTool("get_filtered_rows",
		append([]mcp.ToolOption{
			mcp.WithDescription("Return the result rows matching the current filter for the selected metric."),
		}, filterOptions()...)...,
	), h.handleGetFilteredRows)

	// --- 3. Tool: compare_metric ---
	s.AddTool(mcp.NewTool("compare_metric",
		append([]mcp.ToolOption{
			mcp.WithDescription("Compare the average of target A and target B for a metric and report the improvement rate."),
			mcp.WithBoolean("all_metrics", mcp.Description("Compare every metric of the scenario instead of the selected one.")),
			mcp.WithBoolean("detail", mcp.Description("Include the per-record comparison table.")),
		}, filterOptions()...)...,
	), h.handleCompareMetric)

	// --- 4. Tool: get_chart_series ---
	s.AddTool(mcp.NewTool("get_chart_series",
		append([]mcp.ToolOption{
			mcp.WithDescription("Group the filtered rows along an axis and return the averaged values of both targets."),
			mcp.WithString("axis", mcp.Description("Grouping axis."),
				mcp.Enum(schema.TestConditionKey, schema.Parameter1Key, schema.Parameter2Key, schema.Parameter3Key)),
		}, filterOptions()...)...,
	), h.handleGetChartSeries)

	// --- 5. Tool: get_session_state ---
	s.AddTool(mcp.NewTool("get_session_state",
		mcp.WithDescription("Return the full session state: filter, filtered rows, chart, comparison and errors."),
	), h.handleGetSessionState)

	return s
}

// StartMCPServer opens a session from the runtime config and serves it over stdio.
func StartMCPServer(ctx context.Context, cfg *contract.Config) error {
	session, err := core.OpenSession(core.WithQuietLoad(ctx), cfg, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	return server.ServeStdio(NewMCPServer(session))
}
