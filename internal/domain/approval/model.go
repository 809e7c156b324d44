package approval

import "time"

// Status is the decision state of an approval record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known approval status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Approval is an external sign-off referenced by a grant.
type Approval struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	Status    Status     `json:"status"`
	Approver  string     `json:"approver,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Summary counts the referenced approvals of a grant by status.
type Summary struct {
	Required int `json:"required"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// Unanimous reports whether every required approval has been granted.
func (s Summary) Unanimous() bool {
	return s.Pending == 0 && s.Rejected == 0
}
