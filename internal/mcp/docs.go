package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `grantflow tracks philanthropic grants from draft to close.

Core concepts:
- Grant: moves draft -> submitted -> in_review -> approved -> paid -> closed. submitted, in_review
  and approved grants can be rejected, and a rejected grant can be reopened to draft.
- Compliance checks (sanctions, kyc, conflict, board) are created on first submission. Every check
  must be cleared and none flagged before approval.
- Approvals: sign-offs attached to a grant. All must be approved before the grant can be.
- Budget: an entity's annual ceiling. Committed is approved plus paid grants created that year.
- Payouts: scheduled -> sent -> confirmed. Confirmed payouts never exceed the approved amount.
- Impact reports: draft -> submitted -> published, with metrics rolled up against program KPIs.

Default workflow:
1) grant_create, then grant_transition to submitted.
2) compliance_screen / compliance_review each check; approval_request and approval_decide.
3) grant_blockers shows every remaining reason a move is refused; grant_transition to approved.
4) payout_create (pass request_id or an Idempotency-Key), payout_submit, payout_status.
5) impact_create, impact_submit, impact_publish; impact_progress per program.

Errors come back as {code, message, details, recovery_hint}. TRANSITION_BLOCKED and
PAYOUT_INVALID list every reason in details.

Docs:
- grantflow://docs/index
- grantflow://docs/lifecycle
- grantflow://docs/payouts-and-budgets
- grantflow://docs/impact
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "grantflow://docs/index",
		Name:        "docs_index",
		Title:       "grantflow docs index",
		Description: "Entry point: which tool to use for which step, and what to read next.",
		Content: `# grantflow: Agent Docs Index

## Quick start

1. ` + "`grant_search`" + ` / ` + "`grant_list`" + ` to find a grant, ` + "`grant_get`" + ` for details.
2. ` + "`grant_blockers`" + ` before any ` + "`grant_transition`" + `: it previews the decision without writing.
3. ` + "`budget_summary`" + ` before approving large grants.
4. ` + "`get_recent_activity`" + ` to see who did what.

## Docs

- ` + "`grantflow://docs/lifecycle`" + `: stages, blockers, compliance and approvals.
- ` + "`grantflow://docs/payouts-and-budgets`" + `: payout validation, idempotency, budget health.
- ` + "`grantflow://docs/impact`" + `: reports, publishing rules and KPI progress.

## Limitations

- ` + "`impact_draft_narrative`" + ` output is advisory and never saved; copy it into ` + "`impact_update`" + ` if wanted.
- Payout status is refreshed from Bill-Pay only when ` + "`payout_status`" + ` is called without a status.
`,
	},
	{
		URI:         "grantflow://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Grant lifecycle",
		Description: "Stage graph, transition blockers, compliance gate and approvals.",
		Content: `# Grant lifecycle

| From | Allowed next |
|---|---|
| draft | submitted |
| submitted | in_review, rejected |
| in_review | approved, rejected |
| approved | paid, rejected |
| rejected | draft |
| paid | closed |
| closed | (terminal) |

## Blockers

- submitted: requested amount must be positive.
- approved: no open checks, no flagged checks, no pending or rejected approvals, documents complete.
  Each failing condition is reported separately.
- paid: an approved amount must be set.

A refused transition changes nothing and is logged as ` + "`transition_blocked`" + `.

## Compliance

Checks are created the first time a grant is submitted and are kept if it is reopened.
` + "`compliance_screen`" + ` records the sanctions outcome; ` + "`compliance_review`" + ` clears or flags any check.
A grant with no checks cannot be approved.

## Approvals

` + "`approval_request`" + ` attaches a pending sign-off; ` + "`approval_decide`" + ` decides it once.
A referenced approval that no longer exists counts as pending.
`,
	},
	{
		URI:         "grantflow://docs/payouts-and-budgets",
		Name:        "docs_payouts_budgets",
		Title:       "Payouts and budgets",
		Description: "Payout validation and idempotency, budget health thresholds and forecasts.",
		Content: `# Payouts and budgets

## Payouts

A payout is valid when the grant is approved, the amount is positive, the currency matches the
grant, and the amount fits both the remaining amount (approved minus confirmed) and what is left
after other scheduled and sent payouts. Invalid payouts return every error at once.

Creation is idempotent per grant: repeat ` + "`request_id`" + ` (or the HTTP ` + "`Idempotency-Key`" + ` header) and the
first payout is returned.

Status moves scheduled -> sent -> confirmed. A failed Bill-Pay payment moves a sent payout back to
scheduled.

## Budgets

` + "`budget_summary`" + ` reports ceiling, committed, paid, remaining and per-program allocation, with status:
- ok: under 80% committed
- warning: 80% to under 100%
- critical: 100% or more; a zero ceiling always reports 100% and critical

` + "`budget_forecast`" + ` totals the scheduled payouts due within a horizon and lists them.
`,
	},
	{
		URI:         "grantflow://docs/impact",
		Name:        "docs_impact",
		Title:       "Impact reporting",
		Description: "Report lifecycle, publishing rules and KPI progress.",
		Content: `# Impact reporting

Reports belong to approved, paid or closed grants. Drafts are editable; submitted reports are not.

Publishing requires a submitted report with a narrative and at least one metric. Refusals list
every reason.

` + "`impact_progress`" + ` sums submitted and published metrics per key and compares them to the
program's KPI targets. A target with no reported metric counts as zero.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
