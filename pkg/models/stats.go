package models

// Outcome classifies what the reconciler did with one source record.
type Outcome string

const (
	OutcomeCreated     Outcome = "created"
	OutcomeUpdated     Outcome = "updated"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeErrorCreate Outcome = "error_create"
)

// Stats accumulates per-run reconciliation counters. The driver owns a
// single value and applies exactly one outcome per processed record.
type Stats struct {
	Total   int `json:"total"`
	Found   int `json:"found"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Apply folds one record outcome into the counters.
func (s *Stats) Apply(o Outcome) {
	switch o {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Found++
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeErrorCreate:
		s.Errors++
	}
}
