package impact

import "time"

// Status is a report's publication state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusPublished:
		return true
	}
	return false
}

// Metric is one measured outcome.
type Metric struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Report links a narrative and metrics to a grant and its program.
type Report struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	GrantID     string     `json:"grant_id"`
	EntityID    string     `json:"entity_id"`
	ProgramID   *string    `json:"program_id,omitempty"`
	Period      string     `json:"period"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      Status     `json:"status"`
	Narrative   string     `json:"narrative,omitempty"`
	Metrics     []Metric   `json:"metrics"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AggregatedMetric totals one metric key across reports.
type AggregatedMetric struct {
	Key     string  `json:"key"`
	Total   float64 `json:"total"`
	Unit    string  `json:"unit,omitempty"`
	Reports int     `json:"reports"`
}

// TargetComparison sets an aggregated metric against a program goal.
type TargetComparison struct {
	Key             string  `json:"key"`
	Actual          float64 `json:"actual"`
	Target          float64 `json:"target"`
	Unit            string  `json:"unit,omitempty"`
	PercentOfTarget float64 `json:"percent_of_target"`
	Met             bool    `json:"met"`
}

// ListOptions filters report listings.
type ListOptions struct {
	GrantID   *string
	ProgramID *string
	Statuses  []Status
}
