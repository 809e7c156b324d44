package approval

// Summarize counts the approvals referenced by ids. A referenced id with no matching record
// counts as pending. Duplicate ids are counted once.
func Summarize(approvals []Approval, ids []string) Summary {
	byID := make(map[string]Status, len(approvals))
	for _, a := range approvals {
		byID[a.ID] = a.Status
	}

	var summary Summary
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		summary.Required++

		switch byID[id] {
		case StatusApproved:
			summary.Approved++
		case StatusRejected:
			summary.Rejected++
		default:
			summary.Pending++
		}
	}
	return summary
}
