package schema

import "time"

// EngineStatus represents the status of the query table engine.
type EngineStatus struct {
	Backend     string `json:"backend"`
	Initialized bool   `json:"initialized"`
	Table       string `json:"table"`
	TableExists bool   `json:"table_exists"`
	RowCount    int    `json:"row_count"`
}

// ScenarioSummary is the load outcome of one scenario during validation.
type ScenarioSummary struct {
	ScenarioID     string        `json:"scenario_id"`
	Name           string        `json:"name"`
	File           string        `json:"file"`
	Rows           int           `json:"rows"`
	Metrics        int           `json:"metrics"`
	TestConditions int           `json:"test_conditions"`
	Duration       time.Duration `json:"duration"`
	Error          string        `json:"error,omitempty"`
}

// OK reports whether the scenario loaded without error.
func (s ScenarioSummary) OK() bool {
	return s.Error == ""
}
