package compliance

import "time"

// CheckType identifies one of the verification gates a grant must pass.
type CheckType string

const (
	TypeSanctions CheckType = "sanctions"
	TypeKYC       CheckType = "kyc"
	TypeConflict  CheckType = "conflict"
	TypeBoard     CheckType = "board"
)

// Valid reports whether t is a known check type.
func (t CheckType) Valid() bool {
	switch t {
	case TypeSanctions, TypeKYC, TypeConflict, TypeBoard:
		return true
	}
	return false
}

// CheckStatus is the review state of a single check.
type CheckStatus string

const (
	StatusOpen    CheckStatus = "open"
	StatusCleared CheckStatus = "cleared"
	StatusFlagged CheckStatus = "flagged"
)

// Valid reports whether s is a known check status.
func (s CheckStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusCleared, StatusFlagged:
		return true
	}
	return false
}

// Check is one verification gate attached to a grant. Checks are never deleted.
type Check struct {
	ID             string      `json:"id"`
	GrantID        string      `json:"grant_id"`
	Type           CheckType   `json:"check_type"`
	Status         CheckStatus `json:"status"`
	ReviewedAt     *time.Time  `json:"reviewed_at,omitempty"`
	ReviewedBy     *string     `json:"reviewed_by,omitempty"`
	Findings       string      `json:"findings,omitempty"`
	EvidenceDocIDs []string    `json:"evidence_doc_ids,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Counts tallies checks by status.
type Counts struct {
	Total   int `json:"total"`
	Open    int `json:"open"`
	Cleared int `json:"cleared"`
	Flagged int `json:"flagged"`
}

func (c *Counts) add(status CheckStatus) {
	c.Total++
	switch status {
	case StatusOpen:
		c.Open++
	case StatusCleared:
		c.Cleared++
	case StatusFlagged:
		c.Flagged++
	}
}

// Summary is the dashboard view of a check list, overall and per check type.
type Summary struct {
	Counts
	ByType map[CheckType]Counts `json:"by_type"`
}

// GrantStatus is the cached compliance summary stored on a grant.
type GrantStatus string

const (
	GrantStatusNone    GrantStatus = "none"
	GrantStatusOpen    GrantStatus = "open"
	GrantStatusFlagged GrantStatus = "flagged"
	GrantStatusCleared GrantStatus = "cleared"
)

// ScreeningResult is the outcome of a sanctions screening call.
type ScreeningResult struct {
	Cleared bool     `json:"cleared"`
	Matches []string `json:"matches,omitempty"`
}

// Decision is a reviewer action on a check.
type Decision string

const (
	DecisionClear Decision = "clear"
	DecisionFlag  Decision = "flag"
)

func (d Decision) status() (CheckStatus, bool) {
	switch d {
	case DecisionClear:
		return StatusCleared, true
	case DecisionFlag:
		return StatusFlagged, true
	}
	return "", false
}
