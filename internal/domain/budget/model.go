package budget

import (
	"time"

	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/shopspring/decimal"
)

// Budget is the annual ceiling for an entity. Amount is the only authored figure; committed,
// paid and remaining are always derived.
type Budget struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"client_id"`
	EntityID  string          `json:"entity_id"`
	Year      int             `json:"year"`
	Amount    decimal.Decimal `json:"budget_amount"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Status is the health classification of a budget.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// ProgramAllocation is committed and paid spend attributed to one program. An empty
// ProgramID collects grants without a program.
type ProgramAllocation struct {
	ProgramID   string          `json:"program_id"`
	ProgramName string          `json:"program_name,omitempty"`
	Committed   decimal.Decimal `json:"committed_amount"`
	Paid        decimal.Decimal `json:"paid_amount"`
}

// Summary is the derived view of a budget.
type Summary struct {
	EntityID           string              `json:"entity_id"`
	Year               int                 `json:"year"`
	Currency           string              `json:"currency"`
	BudgetAmount       decimal.Decimal     `json:"budget_amount"`
	Committed          decimal.Decimal     `json:"committed_amount"`
	Paid               decimal.Decimal     `json:"paid_amount"`
	Remaining          decimal.Decimal     `json:"remaining_amount"`
	UtilizationPercent int64               `json:"utilization_percent"`
	Status             Status              `json:"status"`
	Programs           []ProgramAllocation `json:"programs"`
}

// Forecast is the cash needed for scheduled payouts over a window.
type Forecast struct {
	EntityID string          `json:"entity_id"`
	Days     int             `json:"days"`
	Total    decimal.Decimal `json:"total"`
	Payouts  []payout.Payout `json:"payouts"`
}
