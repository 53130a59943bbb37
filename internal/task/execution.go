package task

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/model"
)

// Execution is a handler's view of the job it runs
type Execution struct {
	JobID  string
	Kind   model.JobKind
	Params json.RawMessage
	// Log writes to the job-scoped log sink.
	Log zerolog.Logger

	registry *Registry
}

// Report publishes stage progress for the job
func (e *Execution) Report(stage model.Stage, percent int, message string) {
	e.registry.ReportProgress(e.JobID, stage, percent, message)
}

// Record updates the job result in place
func (e *Execution) Record(fn func(*model.JobResult)) {
	e.registry.record(e.JobID, fn)
}

// DecodeParams unmarshals the job parameters into v
func (e *Execution) DecodeParams(v any) error {
	if err := json.Unmarshal(e.Params, v); err != nil {
		return fmt.Errorf("decode %s params: %w", e.Kind, err)
	}
	return nil
}
