package models

// Warning records a recovered, per-field or per-record problem encountered
// while normalizing one source record. Warnings never stop a load; they are
// logged and carried into the bundle's outcome.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SourceRef identifies the originating source record for logs and outcomes.
type SourceRef struct {
	Index     int    `json:"index"`
	MLSNumber string `json:"mls_number,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Bundle is the set of entity sub-records derived from one source record.
// Property is always present; everything else is optional. A bundle is
// loaded as a single transactional unit.
type Bundle struct {
	Source         SourceRef
	Location       *PropertyLocation
	Property       *Property
	Hoa            *HoaDetail
	Valuations     []PropertyValuation
	RehabEstimates []RehabEstimate
	Warnings       []Warning
}

// Warn appends a warning to the bundle.
func (b *Bundle) Warn(field, message string) {
	b.Warnings = append(b.Warnings, Warning{Field: field, Message: message})
}

// OutcomeStatus classifies how a bundle fared during the load phase.
type OutcomeStatus string

const (
	OutcomeLoaded       OutcomeStatus = "loaded"
	OutcomeWithWarnings OutcomeStatus = "loaded_with_warnings"
	OutcomeFailed       OutcomeStatus = "failed"
)

// Outcome is the per-bundle load result. The validator and the run summary
// are driven off this uniform stream rather than ad hoc error catching.
type Outcome struct {
	Source   SourceRef     `json:"source"`
	Status   OutcomeStatus `json:"status"`
	Rows     int           `json:"rows"`
	Warnings []Warning     `json:"warnings,omitempty"`
	Error    string        `json:"error,omitempty"`
}
