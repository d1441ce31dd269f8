package model

import "time"

// Outcome is the terminal state of one generation request.
type Outcome string

const (
	OutcomeValidated       Outcome = "validated"
	OutcomeInputRejected   Outcome = "InputRejected"
	OutcomeSchemaViolation Outcome = "SchemaViolation"
	OutcomeUpstreamFailure Outcome = "UpstreamFailure"
	OutcomeAbandoned       Outcome = "abandoned"
)

// GenerationRecord is one row of the generation audit log.
// It carries metadata only; question content is never recorded.
type GenerationRecord struct {
	ID            string     `json:"id"`
	DocumentName  string     `json:"document_name"`
	DocumentBytes int64      `json:"document_bytes"`
	Difficulty    Difficulty `json:"difficulty"`
	Outcome       Outcome    `json:"outcome"`
	Detail        string     `json:"detail,omitempty"`
	Partials      int        `json:"partials"`
	Questions     int        `json:"questions"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
}

// Elapsed is the wall time the generation took.
func (r GenerationRecord) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// GenerationExport is the top-level JSON structure for the history export.
type GenerationExport struct {
	ExportedAt  time.Time          `json:"exported_at"`
	Settings    map[string]string  `json:"settings,omitempty"`
	Total       int                `json:"total"`
	ByOutcome   map[Outcome]int    `json:"by_outcome"`
	Generations []GenerationRecord `json:"generations"`
}
