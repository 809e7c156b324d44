package impact

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ganot/grantflow/internal/domain/program"
)

// AggregateMetrics totals metrics by key across reports, ordered by key. The first unit seen
// for a key is kept.
func AggregateMetrics(reports []Report) []AggregatedMetric {
	byKey := make(map[string]*AggregatedMetric)
	for _, r := range reports {
		counted := make(map[string]bool, len(r.Metrics))
		for _, m := range r.Metrics {
			agg, ok := byKey[m.Key]
			if !ok {
				agg = &AggregatedMetric{Key: m.Key, Unit: m.Unit}
				byKey[m.Key] = agg
			}
			agg.Total += m.Value
			if !counted[m.Key] {
				agg.Reports++
				counted[m.Key] = true
			}
		}
	}

	out := make([]AggregatedMetric, 0, len(byKey))
	for _, agg := range byKey {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CompareWithTargets compares aggregated metrics with KPI targets, in target order. A target
// with no reported metric has an actual of zero.
func CompareWithTargets(aggregated []AggregatedMetric, targets []program.KPITarget) []TargetComparison {
	actual := make(map[string]float64, len(aggregated))
	for _, a := range aggregated {
		actual[a.Key] = a.Total
	}

	out := make([]TargetComparison, 0, len(targets))
	for _, t := range targets {
		c := TargetComparison{
			Key:    t.Key,
			Actual: actual[t.Key],
			Target: t.Target,
			Unit:   t.Unit,
		}
		if t.Target > 0 {
			c.PercentOfTarget = c.Actual / t.Target * 100
		}
		c.Met = c.Actual >= t.Target
		out = append(out, c)
	}
	return out
}

// ReportsDue returns unsubmitted reports due on or before now+days, overdue ones included,
// earliest first.
func ReportsDue(reports []Report, now time.Time, days int) []Report {
	cutoff := now.AddDate(0, 0, days)
	var due []Report
	for _, r := range reports {
		if r.Status != StatusDraft || r.DueDate == nil {
			continue
		}
		if !r.DueDate.After(cutoff) {
			due = append(due, r)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].DueDate.Before(*due[j].DueDate) })
	return due
}

// CanPublishToPortal reports whether r may be published and, if not, every reason why.
func CanPublishToPortal(r Report) (bool, []string) {
	reasons := []string{}
	if r.Status != StatusSubmitted {
		reasons = append(reasons, fmt.Sprintf("report must be submitted before publishing (status %s)", r.Status))
	}
	if strings.TrimSpace(r.Narrative) == "" {
		reasons = append(reasons, "narrative is required")
	}
	if len(r.Metrics) == 0 {
		reasons = append(reasons, "at least one metric is required")
	}
	return len(reasons) == 0, reasons
}
