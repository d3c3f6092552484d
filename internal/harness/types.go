package harness

// TraceEvent records the outcome of one executed step. Changeset steps
// record one event for the changeset plus one per operation that ran.
type TraceEvent struct {
	Step      int    `json:"step"`
	Op        string `json:"op"`
	Target    string `json:"target,omitempty"`
	Status    int    `json:"status"`
	Keys      []any  `json:"keys,omitempty"`
	Count     *int   `json:"count,omitempty"`
	Committed *bool  `json:"committed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final store content, {set: [fields...]}.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
