package program

import "time"

// Program groups grants under a philanthropic theme with optional KPI goals.
type Program struct {
	ID          string      `json:"id"`
	ClientID    string      `json:"client_id"`
	Name        string      `json:"name"`
	Theme       string      `json:"theme,omitempty"`
	Description string      `json:"description,omitempty"`
	KPITargets  []KPITarget `json:"kpi_targets,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// KPITarget is a goal for one impact metric.
type KPITarget struct {
	Key    string  `json:"key"`
	Target float64 `json:"target"`
	Unit   string  `json:"unit,omitempty"`
}

// Target returns the goal for key, if any.
func (p Program) Target(key string) (KPITarget, bool) {
	for _, t := range p.KPITargets {
		if t.Key == key {
			return t, true
		}
	}
	return KPITarget{}, false
}
