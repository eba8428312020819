package schema

// SessionState is a snapshot of the interactive comparison session.
type SessionState struct {
	SessionID        string           `json:"session_id"`
	Config           *Configuration   `json:"config,omitempty"`
	Scenario         *Scenario        `json:"scenario,omitempty"`
	FilteredRows     []FlatRow        `json:"filtered_rows"`
	Chart            []ChartPoint     `json:"chart"`
	Comparison       *Comparison      `json:"comparison,omitempty"`
	Filter           Filter           `json:"filter"`
	AvailableFilters AvailableFilters `json:"available_filters"`
	Loading          bool             `json:"loading"`
	Error            string           `json:"error,omitempty"`
}

// FilterUpdate is a partial filter change. Nil fields are left untouched.
// A non-nil Parameters map replaces the whole parameter selection.
type FilterUpdate struct {
	Scenario   *string             `json:"scenario,omitempty"`
	Metric     *string             `json:"metric,omitempty"`
	Parameters map[string]*float64 `json:"parameters,omitempty"`
	ChartAxis  *string             `json:"chart_axis,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u FilterUpdate) IsEmpty() bool {
	return u.Scenario == nil && u.Metric == nil && u.Parameters == nil && u.ChartAxis == nil
}
