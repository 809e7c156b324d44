package mcp

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func integer(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func number(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func enum(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func enumList(description string, values ...string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string", "enum": values},
	}
}

func strList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
	}
}

// amount accepts decimal strings ("1500.00") or JSON numbers.
func amount(description string) map[string]any {
	return map[string]any{"type": []string{"string", "number"}, "description": description}
}

var stages = []string{"draft", "submitted", "in_review", "approved", "rejected", "paid", "closed"}

func metricList() map[string]any {
	return map[string]any{
		"type":        "array",
		"description": "Reported metrics",
		"items": object(map[string]any{
			"key":   str("Metric key, matching a program KPI target key"),
			"value": number("Reported value"),
			"unit":  str("Unit of measure"),
		}, "key", "value"),
	}
}

// buildToolCatalog returns all available MCP tools.
func buildToolCatalog() []ToolDefinition {
	actor := str("Who performs the action (defaults to the calling client)")
	return []ToolDefinition{
		// Grants
		{
			Name:        "grant_create",
			Description: "Create a draft grant for a grantee",
			InputSchema: object(map[string]any{
				"entity_id":        str("Funding entity whose budget the grant draws on"),
				"program_id":       str("Program the grant belongs to"),
				"grantee_name":     str("Grantee organisation name"),
				"grantee_country":  str("Grantee country, ISO 3166 alpha-2"),
				"purpose":          str("What the grant funds"),
				"requested_amount": amount("Requested amount in currency units"),
				"currency":         str("ISO 4217 currency code"),
				"docs_status":      enum("Supporting document status", "complete", "incomplete", "pending"),
				"actor":            actor,
			}, "entity_id", "grantee_name", "requested_amount", "currency"),
		},
		{
			Name:        "grant_get",
			Description: "Get a grant by ID",
			InputSchema: object(map[string]any{"id": str("Grant ID")}, "id"),
		},
		{
			Name:        "grant_list",
			Description: "List grants, newest first, filtered by entity, program, stage or creation year",
			InputSchema: object(map[string]any{
				"entity_id":  str("Funding entity"),
				"program_id": str("Program"),
				"stages":     enumList("Stages to include", stages...),
				"year":       integer("Calendar year the grant was created in"),
				"limit":      integer("Maximum number of results"),
				"offset":     integer("Offset for pagination"),
			}),
		},
		{
			Name:        "grant_search",
			Description: "Full-text search over grantee names and purposes",
			InputSchema: object(map[string]any{
				"query":  str("Search terms"),
				"stages": enumList("Stages to include", stages...),
				"limit":  integer("Maximum number of results"),
				"offset": integer("Offset for pagination"),
			}, "query"),
		},
		{
			Name:        "grant_update",
			Description: "Edit a grant. Financial fields are editable only in draft; docs status and approvals until approval",
			InputSchema: object(map[string]any{
				"id":               str("Grant ID"),
				"program_id":       str("Program (empty string clears it)"),
				"grantee_name":     str("Grantee organisation name"),
				"grantee_country":  str("Grantee country"),
				"purpose":          str("What the grant funds"),
				"requested_amount": amount("Requested amount"),
				"currency":         str("ISO 4217 currency code"),
				"docs_status":      enum("Supporting document status", "complete", "incomplete", "pending"),
				"approval_ids":     strList("Approvals required before the grant can be approved"),
				"expected_version": integer("Fail with CONFLICT unless the grant is at this version"),
				"actor":            actor,
			}, "id"),
		},
		{
			Name:        "grant_blockers",
			Description: "Preview whether a grant can move to a stage and every reason it cannot, without changing it",
			InputSchema: object(map[string]any{
				"id":       str("Grant ID"),
				"to_stage": enum("Target stage", stages...),
			}, "id", "to_stage"),
		},
		{
			Name:        "grant_transition",
			Description: "Move a grant to a new stage. Refused moves return TRANSITION_BLOCKED with all blockers",
			InputSchema: object(map[string]any{
				"id":              str("Grant ID"),
				"to_stage":        enum("Target stage", stages...),
				"approved_amount": amount("Approved amount when moving to approved (defaults to the requested amount)"),
				"actor":           actor,
			}, "id", "to_stage"),
		},

		// Compliance
		{
			Name:        "compliance_list",
			Description: "List a grant's compliance checks with open, cleared and flagged counts",
			InputSchema: object(map[string]any{"grant_id": str("Grant ID")}, "grant_id"),
		},
		{
			Name:        "compliance_review",
			Description: "Clear or flag a compliance check",
			InputSchema: object(map[string]any{
				"check_id":         str("Check ID"),
				"decision":         enum("Review decision", "clear", "flag"),
				"reviewer":         str("Reviewer name"),
				"findings":         str("Review findings"),
				"evidence_doc_ids": strList("Supporting document IDs"),
			}, "check_id", "decision", "reviewer"),
		},
		{
			Name:        "compliance_screen",
			Description: "Screen the grantee against the sanctions list and record the outcome on the sanctions check",
			InputSchema: object(map[string]any{
				"grant_id": str("Grant ID"),
				"reviewer": str("Reviewer recorded on the check"),
			}, "grant_id"),
		},

		// Approvals
		{
			Name:        "approval_request",
			Description: "Request a sign-off and attach it to the grant's required approvals",
			InputSchema: object(map[string]any{
				"grant_id": str("Grant ID"),
				"approver": str("Who must sign off"),
				"notes":    str("Context for the approver"),
				"actor":    actor,
			}, "grant_id", "approver"),
		},
		{
			Name:        "approval_decide",
			Description: "Approve or reject a pending approval. Decisions are final",
			InputSchema: object(map[string]any{
				"id":       str("Approval ID"),
				"decision": enum("Decision", "approved", "rejected"),
				"approver": str("Who decided"),
				"notes":    str("Decision notes"),
			}, "id", "decision", "approver"),
		},

		// Budgets
		{
			Name:        "budget_upsert",
			Description: "Set an entity's annual grant ceiling",
			InputSchema: object(map[string]any{
				"entity_id": str("Funding entity"),
				"year":      integer("Budget year"),
				"amount":    amount("Annual ceiling"),
				"currency":  str("ISO 4217 currency code"),
				"actor":     actor,
			}, "entity_id", "year", "amount", "currency"),
		},
		{
			Name:        "budget_summary",
			Description: "Committed, paid and remaining amounts for an entity's year, with health status",
			InputSchema: object(map[string]any{
				"entity_id": str("Funding entity"),
				"year":      integer("Budget year (defaults to the current year)"),
			}, "entity_id"),
		},
		{
			Name:        "budget_forecast",
			Description: "Scheduled payout outflow for an entity over the coming days",
			InputSchema: object(map[string]any{
				"entity_id": str("Funding entity"),
				"days":      integer("Forecast horizon in days (default 90)"),
			}, "entity_id"),
		},

		// Payouts
		{
			Name:        "payout_create",
			Description: "Schedule a payout against an approved grant. Invalid payouts return PAYOUT_INVALID with every error",
			InputSchema: object(map[string]any{
				"grant_id":    str("Grant ID"),
				"request_id":  str("Idempotency key; repeating it returns the original payout"),
				"amount":      amount("Payout amount"),
				"method":      enum("Payment method", "check", "ach", "wire"),
				"payout_date": str("Payout date, YYYY-MM-DD"),
				"actor":       actor,
			}, "grant_id", "amount", "method", "payout_date"),
		},
		{
			Name:        "payout_get",
			Description: "Get a payout by ID",
			InputSchema: object(map[string]any{"id": str("Payout ID")}, "id"),
		},
		{
			Name:        "payout_submit",
			Description: "Send a scheduled payout to Bill-Pay and link the payment",
			InputSchema: object(map[string]any{
				"id":    str("Payout ID"),
				"actor": actor,
			}, "id"),
		},
		{
			Name:        "payout_status",
			Description: "Record a payout status change, or refresh it from Bill-Pay when status is omitted",
			InputSchema: object(map[string]any{
				"id":     str("Payout ID"),
				"status": enum("New status", "scheduled", "sent", "confirmed"),
				"actor":  actor,
			}, "id"),
		},
		{
			Name:        "payout_list",
			Description: "List a grant's payouts with paid, in-flight and remaining totals",
			InputSchema: object(map[string]any{"grant_id": str("Grant ID")}, "grant_id"),
		},
		{
			Name:        "payout_upcoming",
			Description: "Scheduled payouts due within the coming days, earliest first",
			InputSchema: object(map[string]any{"days": integer("Horizon in days (default 30)")}),
		},
		{
			Name:        "payout_overdue",
			Description: "Scheduled payouts whose date has passed",
			InputSchema: object(map[string]any{}),
		},

		// Programs
		{
			Name:        "program_create",
			Description: "Create a funding program with KPI targets",
			InputSchema: object(map[string]any{
				"id":          str("Program ID (generated when omitted)"),
				"name":        str("Program name"),
				"theme":       str("Program theme"),
				"description": str("Program description"),
				"kpi_targets": map[string]any{
					"type":        "array",
					"description": "KPI targets",
					"items": object(map[string]any{
						"key":    str("Metric key"),
						"target": number("Target value"),
						"unit":   str("Unit of measure"),
					}, "key", "target"),
				},
			}, "name"),
		},
		{
			Name:        "program_list",
			Description: "List programs",
			InputSchema: object(map[string]any{}),
		},

		// Impact
		{
			Name:        "impact_create",
			Description: "Start a draft impact report for an approved grant",
			InputSchema: object(map[string]any{
				"grant_id":  str("Grant ID"),
				"period":    str("Reporting period, e.g. 2026-Q1"),
				"due_date":  str("Due date, YYYY-MM-DD"),
				"narrative": str("Report narrative"),
				"metrics":   metricList(),
				"actor":     actor,
			}, "grant_id", "period"),
		},
		{
			Name:        "impact_update",
			Description: "Edit a draft impact report",
			InputSchema: object(map[string]any{
				"id":        str("Report ID"),
				"narrative": str("Report narrative"),
				"metrics":   metricList(),
				"due_date":  str("Due date, YYYY-MM-DD"),
			}, "id"),
		},
		{
			Name:        "impact_submit",
			Description: "Submit a draft impact report",
			InputSchema: object(map[string]any{"id": str("Report ID"), "actor": actor}, "id"),
		},
		{
			Name:        "impact_publish",
			Description: "Publish a submitted report to the public portal. Refusals return NOT_PUBLISHABLE with reasons",
			InputSchema: object(map[string]any{"id": str("Report ID"), "actor": actor}, "id"),
		},
		{
			Name:        "impact_list",
			Description: "List impact reports by grant, program or status",
			InputSchema: object(map[string]any{
				"grant_id":   str("Grant ID"),
				"program_id": str("Program ID"),
				"statuses":   enumList("Statuses to include", "draft", "submitted", "published"),
			}),
		},
		{
			Name:        "impact_due",
			Description: "Draft reports due within the coming days, overdue ones included",
			InputSchema: object(map[string]any{"days": integer("Horizon in days (default 30)")}),
		},
		{
			Name:        "impact_progress",
			Description: "Aggregate a program's reported metrics against its KPI targets",
			InputSchema: object(map[string]any{"program_id": str("Program ID")}, "program_id"),
		},
		{
			Name:        "impact_draft_narrative",
			Description: "Generate an advisory narrative draft for a report. Nothing is saved",
			InputSchema: object(map[string]any{"id": str("Report ID")}, "id"),
		},

		// Activity
		{
			Name:        "get_recent_activity",
			Description: "Recent audit log entries, newest first",
			InputSchema: object(map[string]any{
				"entity_id":     str("Funding entity"),
				"grant_id":      str("Grant ID"),
				"activity_type": str("Activity type, e.g. stage_transition"),
				"limit":         integer("Maximum number of entries"),
				"offset":        integer("Offset for pagination"),
			}),
		},
	}
}
