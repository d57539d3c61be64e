package pipeline

// State is the derived task status of a warehouse.
type State string

const (
	StateQueued     State = "queued"
	StateAnalyzing  State = "analyzing"
	StateGenerating State = "generating"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Failure reasons, surfaced per run and per node.
const (
	ReasonIngestFailed     = "IngestFailed"
	ReasonTemplateRender   = "TemplateRenderError"
	ReasonGenerationFailed = "GenerationFailed"
	ReasonPersistence      = "PersistenceError"
)

// NodeFailure records one catalog node whose generation did not complete.
// Node failures never abort a run.
type NodeFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// Result is what a completed (or failed) run reports to its caller.
type Result struct {
	WarehouseID string        `json:"warehouseId"`
	RunID       string        `json:"runId"`
	State       State         `json:"state"`
	Taxonomy    string        `json:"taxonomy,omitempty"`
	CommitID    string        `json:"commitId,omitempty"`
	Error       string        `json:"error,omitempty"`
	Generated   int           `json:"generated"`
	Skipped     int           `json:"skipped"`
	Failures    []NodeFailure `json:"failures,omitempty"`
}
