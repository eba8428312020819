package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/loadcompare/core"
	"github.com/huangsam/loadcompare/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	session *core.Session
}

func (h *toolHandler) handleListScenarios(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(core.GetScenariosView(h.session))
}

func (h *toolHandler) handleGetFilteredRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.applyFilter(ctx, request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filter: %v", err)), nil
	}
	view := core.GetRowsView(h.session)
	return jsonResult(map[string]any{
		"scenario_id": view.Scenario.ID,
		"metric_id":   view.Metric.ID,
		"rows":        view.Rows,
	})
}

func (h *toolHandler) handleCompareMetric(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.applyFilter(ctx, request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filter: %v", err)), nil
	}
	report, err := core.GetComparisonReport(
		core.WithQuietLoad(ctx),
		h.session,
		request.GetBool("all_metrics", false),
		request.GetBool("detail", false),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleGetChartSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.applyFilter(ctx, request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filter: %v", err)), nil
	}
	series := core.GetChartSeries(h.session)
	return jsonResult(map[string]any{
		"scenario_id": series.ScenarioID,
		"metric_id":   series.MetricID,
		"unit":        series.Unit,
		"axis":        series.Axis,
		"points":      schema.EnrichChartPoints(series.Points),
	})
}

func (h *toolHandler) handleGetSessionState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.session.State())
}

// applyFilter turns the filter arguments of a request into a session update.
// A request without filter arguments leaves the session untouched.
func (h *toolHandler) applyFilter(ctx context.Context, request mcp.CallToolRequest) error {
	update := updateFromArgs(request.GetArguments(), h.session.State().Filter)
	if update.IsEmpty() {
		return nil
	}
	return h.session.UpdateFilter(core.WithQuietLoad(ctx), update)
}

// updateFromArgs builds a filter update from tool arguments.
// Given parameters are merged into the current selection unless clear_parameters is set.
func updateFromArgs(args map[string]any, current schema.Filter) schema.FilterUpdate {
	var update schema.FilterUpdate
	if v, ok := args["scenario"].(string); ok && v != "" {
		update.Scenario = schema.StringPtr(v)
	}
	if v, ok := args["metric"].(string); ok && v != "" {
		update.Metric = schema.StringPtr(v)
	}
	if v, ok := args["axis"].(string); ok && v != "" {
		update.ChartAxis = schema.StringPtr(v)
	}

	reset, _ := args["clear_parameters"].(bool)
	params := map[string]*float64{}
	if !reset && update.Scenario == nil {
		params = current.Clone().Parameters
		if params == nil {
			params = map[string]*float64{}
		}
	}
	given := false
	for _, key := range schema.ParameterKeys {
		if v, ok := args[key].(float64); ok {
			params[key] = schema.Float64Ptr(v)
			given = true
		}
	}
	if given || reset {
		update.Parameters = params
	}
	return update
}

// jsonResult encodes v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
