package compliance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultChecks are the gates seeded for every grant at submission, in display order.
var DefaultChecks = []CheckType{TypeSanctions, TypeKYC, TypeConflict, TypeBoard}

// highRiskCountries is the static screening list used until a live provider is wired in.
var highRiskCountries = map[string]string{
	"BY": "Belarus",
	"CU": "Cuba",
	"IR": "Iran",
	"KP": "North Korea",
	"MM": "Myanmar",
	"RU": "Russia",
	"SY": "Syria",
	"VE": "Venezuela",
}

// CreateDefaultChecks returns one open check per default type for grantID.
func CreateDefaultChecks(grantID string, now time.Time) []Check {
	checks := make([]Check, 0, len(DefaultChecks))
	for _, typ := range DefaultChecks {
		checks = append(checks, Check{
			ID:        uuid.NewString(),
			GrantID:   grantID,
			Type:      typ,
			Status:    StatusOpen,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return checks
}

// RunSanctionsScreening is a deterministic stand-in for an external screening provider.
// It flags grantees domiciled in a high-risk country and clears everything else.
func RunSanctionsScreening(name, country string) ScreeningResult {
	code := strings.ToUpper(strings.TrimSpace(country))
	if label, ok := highRiskCountries[code]; ok {
		return ScreeningResult{
			Cleared: false,
			Matches: []string{fmt.Sprintf("%s: country %s (%s) is on the high-risk list", strings.TrimSpace(name), code, label)},
		}
	}
	return ScreeningResult{Cleared: true}
}

// ForGrant returns the checks belonging to grantID, preserving order.
func ForGrant(checks []Check, grantID string) []Check {
	var out []Check
	for _, c := range checks {
		if c.GrantID == grantID {
			out = append(out, c)
		}
	}
	return out
}

// CalculateSummary reduces checks into overall and per-type counts.
func CalculateSummary(checks []Check) Summary {
	summary := Summary{ByType: make(map[CheckType]Counts, len(DefaultChecks))}
	for _, typ := range DefaultChecks {
		summary.ByType[typ] = Counts{}
	}
	for _, c := range checks {
		summary.add(c.Status)
		counts := summary.ByType[c.Type]
		counts.add(c.Status)
		summary.ByType[c.Type] = counts
	}
	return summary
}

// IsCleared reports whether grantID has at least one check and every one is cleared.
func IsCleared(checks []Check, grantID string) bool {
	found := false
	for _, c := range checks {
		if c.GrantID != grantID {
			continue
		}
		found = true
		if c.Status != StatusCleared {
			return false
		}
	}
	return found
}

// HasFlags reports whether any check for grantID is flagged.
func HasFlags(checks []Check, grantID string) bool {
	for _, c := range checks {
		if c.GrantID == grantID && c.Status == StatusFlagged {
			return true
		}
	}
	return false
}

// StatusFor derives the cached grant-level compliance status.
func StatusFor(checks []Check, grantID string) GrantStatus {
	switch {
	case HasFlags(checks, grantID):
		return GrantStatusFlagged
	case IsCleared(checks, grantID):
		return GrantStatusCleared
	case len(ForGrant(checks, grantID)) == 0:
		return GrantStatusNone
	default:
		return GrantStatusOpen
	}
}
