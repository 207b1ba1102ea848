package output

// RunEvent is one JSON line of generate --json output.
type RunEvent struct {
	Event     string `json:"event"` // row_complete or run_complete
	Timestamp string `json:"timestamp"`
	RunID     string `json:"run_id,omitempty"`

	// row_complete
	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
	Path    string `json:"path,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`

	// run_complete
	Generated  int   `json:"generated,omitempty"`
	Failed     int   `json:"failed,omitempty"`
	Cancelled  bool  `json:"cancelled,omitempty"`
	DurationMS int64 `json:"duration_ms,omitempty"`
}

// PlaceholderInfo describes one template placeholder.
type PlaceholderInfo struct {
	Name       string `json:"name"`
	Expression string `json:"expression,omitempty"`
	Mapped     bool   `json:"mapped"`
}

// SheetInfo describes one sheet or table of a row source.
type SheetInfo struct {
	Name    string              `json:"name"`
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows,omitempty"`
}

// RunInfo describes one recorded generation run.
type RunInfo struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Template    string `json:"template"`
	Source      string `json:"source"`
	OutputDir   string `json:"output_dir"`
	Total       int    `json:"total"`
	Generated   int    `json:"generated"`
	Failed      int    `json:"failed"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RunRowInfo describes the outcome of one row of a run.
type RunRowInfo struct {
	Index      int    `json:"index"`
	Position   int    `json:"source_row"`
	OutputPath string `json:"output_path"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// RunDetail is a run with its rows.
type RunDetail struct {
	RunInfo
	Rows []RunRowInfo `json:"rows"`
}
