package grant_test

import (
	"context"
	"testing"

	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/repository"
	"github.com/ganot/grantflow/internal/repository/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	grants     *mocks.GrantRepository
	checks     *mocks.CheckRepository
	approvals  *mocks.ApprovalRepository
	payouts    *mocks.PayoutLedger
	activities *mocks.ActivityRepository
	svc        *grant.Service
}

func newFixture() *fixture {
	return newFixtureWithPayouts(grant.PayoutTotals{})
}

func newFixtureWithPayouts(totals grant.PayoutTotals) *fixture {
	f := &fixture{
		grants:     &mocks.GrantRepository{},
		checks:     &mocks.CheckRepository{},
		approvals:  &mocks.ApprovalRepository{},
		payouts:    &mocks.PayoutLedger{},
		activities: &mocks.ActivityRepository{},
	}
	f.activities.On("Log", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.payouts.On("PayoutTotals", mock.Anything, mock.Anything, mock.Anything).Return(totals, nil).Maybe()
	f.svc = grant.NewService(f.grants, f.checks, f.approvals, f.payouts, f.activities, nil, nil)
	return f
}

func TestGrantService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.grants.On("Create", mock.Anything, "client1", mock.Anything).Return(nil)

	g, err := f.svc.Create(ctx, "client1", grant.CreateRequest{
		EntityID:        "ent1",
		GranteeName:     "  Clean Water Trust ",
		GranteeCountry:  "us",
		RequestedAmount: decimal.NewFromInt(10000),
		Currency:        "usd",
		ApprovalIDs:     []string{"a1", "a1", ""},
	})
	require.NoError(t, err)
	require.Equal(t, grant.StageDraft, g.Stage)
	require.Equal(t, "Clean Water Trust", g.GranteeName)
	require.Equal(t, "US", g.GranteeCountry)
	require.Equal(t, "USD", g.Currency)
	require.Equal(t, grant.DocsPending, g.DocsStatus)
	require.Equal(t, []string{"a1"}, g.ApprovalIDs)
	require.Nil(t, g.ApprovedAmount)
	require.Equal(t, int64(1), g.Version)
}

func TestGrantService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.Create(ctx, "client1", grant.CreateRequest{GranteeName: "x", Currency: "USD"})
	require.ErrorIs(t, err, grant.ErrInvalidInput)

	_, err = f.svc.Create(ctx, "client1", grant.CreateRequest{EntityID: "e", GranteeName: "x", Currency: "XYZ"})
	require.ErrorIs(t, err, grant.ErrInvalidInput)

	_, err = f.svc.Create(ctx, "client1", grant.CreateRequest{EntityID: "e", GranteeName: "x", Currency: "USD", RequestedAmount: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, grant.ErrInvalidAmount)
}

func TestGrantService_SubmitSeedsChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	g := newGrant(grant.StageDraft)
	g.Version = 3

	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)
	f.checks.On("ListByGrant", mock.Anything, "client1", "g1").Return([]compliance.Check{}, nil)
	f.checks.On("CreateBatch", mock.Anything, "client1", mock.MatchedBy(func(checks []compliance.Check) bool {
		return len(checks) == 4
	})).Return(nil)
	f.grants.On("Update", mock.Anything, "client1", mock.MatchedBy(func(next *grant.Grant) bool {
		return next.Stage == grant.StageSubmitted && next.Version == 4 && next.ComplianceStatus == compliance.GrantStatusOpen
	}), grant.StageDraft, int64(3)).Return(nil)

	next, result, err := f.svc.Transition(ctx, "client1", grant.TransitionRequest{ID: "g1", ToStage: grant.StageSubmitted})
	require.NoError(t, err)
	require.True(t, result.Allowed)
	require.Equal(t, grant.StageSubmitted, next.Stage)
	f.checks.AssertExpectations(t)
	f.grants.AssertExpectations(t)
}

func TestGrantService_ResubmitKeepsExistingChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	g := newGrant(grant.StageDraft)
	existing := checksFor("g1", compliance.StatusCleared)

	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)
	f.checks.On("ListByGrant", mock.Anything, "client1", "g1").Return(existing, nil)
	f.grants.On("Update", mock.Anything, "client1", mock.Anything, grant.StageDraft, int64(0)).Return(nil)

	_, _, err := f.svc.Transition(ctx, "client1", grant.TransitionRequest{ID: "g1", ToStage: grant.StageSubmitted})
	require.NoError(t, err)
	f.checks.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestGrantService_TransitionBlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	g := newGrant(grant.StageInReview)
	g.ApprovalIDs = []string{"a1"}

	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)
	f.checks.On("ListByGrant", mock.Anything, "client1", "g1").Return(checksFor("g1"), nil)
	f.approvals.On("ListByIDs", mock.Anything, "client1", []string{"a1"}).Return([]approval.Approval{{ID: "a1", Status: approval.StatusPending}}, nil)

	current, result, err := f.svc.Transition(ctx, "client1", grant.TransitionRequest{ID: "g1", ToStage: grant.StageApproved})
	require.ErrorIs(t, err, grant.ErrTransitionBlocked)
	var blocked *grant.BlockedError
	require.ErrorAs(t, err, &blocked)
	require.Equal(t, []string{"4 compliance checks not completed", "1 approvals pending"}, blocked.Blockers)
	require.False(t, result.Allowed)
	require.Equal(t, grant.StageInReview, current.Stage)
	f.grants.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGrantService_TransitionConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	g := newGrant(grant.StageSubmitted)

	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)
	f.checks.On("ListByGrant", mock.Anything, "client1", "g1").Return(checksFor("g1"), nil)
	f.grants.On("Update", mock.Anything, "client1", mock.Anything, grant.StageSubmitted, int64(0)).Return(repository.ErrConflict)

	_, _, err := f.svc.Transition(ctx, "client1", grant.TransitionRequest{ID: "g1", ToStage: grant.StageInReview})
	require.ErrorIs(t, err, grant.ErrConflict)
}

func TestGrantService_TransitionNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.grants.On("Get", mock.Anything, "client1", "missing").Return((*grant.Grant)(nil), repository.ErrNotFound)

	_, _, err := f.svc.Transition(ctx, "client1", grant.TransitionRequest{ID: "missing", ToStage: grant.StageSubmitted})
	require.ErrorIs(t, err, grant.ErrGrantNotFound)

	_, _, err = f.svc.Transition(ctx, "client1", grant.TransitionRequest{ID: "g1", ToStage: "archived"})
	require.ErrorIs(t, err, grant.ErrInvalidInput)
}

func TestGrantService_ApproveWithAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	g := newGrant(grant.StageInReview)
	amount := decimal.NewFromInt(18000)

	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)
	f.checks.On("ListByGrant", mock.Anything, "client1", "g1").Return(allCleared("g1"), nil)
	f.grants.On("Update", mock.Anything, "client1", mock.MatchedBy(func(next *grant.Grant) bool {
		return next.ApprovedAmount != nil && next.ApprovedAmount.Equal(amount) && next.ComplianceStatus == compliance.GrantStatusCleared
	}), grant.StageInReview, int64(0)).Return(nil)

	next, _, err := f.svc.Transition(ctx, "client1", grant.TransitionRequest{ID: "g1", ToStage: grant.StageApproved, ApprovedAmount: &amount})
	require.NoError(t, err)
	require.Equal(t, grant.StageApproved, next.Stage)
}

func TestGrantService_RejectBlockedByPayouts(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWithPayouts(grant.PayoutTotals{
		Confirmed:      decimal.NewFromInt(10000),
		ConfirmedCount: 1,
		InFlight:       decimal.NewFromInt(5000),
		InFlightCount:  2,
	})
	g := newGrant(grant.StageApproved)
	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)
	f.checks.On("ListByGrant", mock.Anything, "client1", "g1").Return(allCleared("g1"), nil)

	_, result, err := f.svc.Transition(ctx, "client1", grant.TransitionRequest{ID: "g1", ToStage: grant.StageRejected})
	require.ErrorIs(t, err, grant.ErrTransitionBlocked)
	require.False(t, result.Allowed)
	require.Equal(t, grant.StageApproved, result.Stage)
	require.Equal(t, []string{"1 payouts already confirmed", "2 payouts scheduled or sent"}, result.Blockers)
	f.grants.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGrantService_ReapproveBelowConfirmedBlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWithPayouts(grant.PayoutTotals{Confirmed: decimal.NewFromInt(10000), ConfirmedCount: 1})
	g := newGrant(grant.StageInReview)
	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)
	f.checks.On("ListByGrant", mock.Anything, "client1", "g1").Return(allCleared("g1"), nil)

	low := decimal.NewFromInt(5000)
	_, result, err := f.svc.Transition(ctx, "client1", grant.TransitionRequest{ID: "g1", ToStage: grant.StageApproved, ApprovedAmount: &low})
	require.ErrorIs(t, err, grant.ErrTransitionBlocked)
	require.Equal(t, []string{"approved amount 5000.00 is below confirmed payouts 10000.00"}, result.Blockers)

	preview, err := f.svc.Blockers(ctx, "client1", "g1", grant.StageApproved)
	require.NoError(t, err)
	require.True(t, preview.Allowed, "the requested amount covers the confirmed total")
	f.grants.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGrantService_UpdateRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	g := newGrant(grant.StageInReview)
	g.Version = 2
	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)

	amount := decimal.NewFromInt(1)
	_, err := f.svc.Update(ctx, "client1", grant.UpdateRequest{ID: "g1", RequestedAmount: &amount})
	require.ErrorIs(t, err, grant.ErrNotEditable)

	stale := int64(1)
	docs := grant.DocsComplete
	_, err = f.svc.Update(ctx, "client1", grant.UpdateRequest{ID: "g1", DocsStatus: &docs, ExpectedVersion: &stale})
	require.ErrorIs(t, err, grant.ErrConflict)

	f.grants.On("Update", mock.Anything, "client1", mock.Anything, grant.StageInReview, int64(2)).Return(nil)
	updated, err := f.svc.Update(ctx, "client1", grant.UpdateRequest{ID: "g1", DocsStatus: &docs, ApprovalIDs: []string{"a1", "a2"}})
	require.NoError(t, err)
	require.Equal(t, grant.DocsComplete, updated.DocsStatus)
	require.Equal(t, []string{"a1", "a2"}, updated.ApprovalIDs)
	require.Equal(t, int64(3), updated.Version)
}

func TestGrantService_RefreshComplianceStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	g := newGrant(grant.StageInReview)
	g.ComplianceStatus = compliance.GrantStatusOpen

	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)
	f.checks.On("ListByGrant", mock.Anything, "client1", "g1").Return(checksFor("g1", compliance.StatusFlagged), nil)
	f.grants.On("Update", mock.Anything, "client1", mock.MatchedBy(func(next *grant.Grant) bool {
		return next.ComplianceStatus == compliance.GrantStatusFlagged
	}), grant.StageInReview, int64(0)).Return(nil).Once()

	require.NoError(t, f.svc.RefreshComplianceStatus(ctx, "client1", "g1"))
	f.grants.AssertExpectations(t)
}

func TestGrantService_RefreshComplianceStatusGivesUpAfterConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	g := newGrant(grant.StageInReview)
	g.ComplianceStatus = compliance.GrantStatusOpen

	f.grants.On("Get", mock.Anything, "client1", "g1").Return(&g, nil)
	f.checks.On("ListByGrant", mock.Anything, "client1", "g1").Return(allCleared("g1"), nil)
	f.grants.On("Update", mock.Anything, "client1", mock.Anything, grant.StageInReview, int64(0)).Return(repository.ErrConflict)

	err := f.svc.RefreshComplianceStatus(ctx, "client1", "g1")
	require.ErrorIs(t, err, grant.ErrConflict)
	f.grants.AssertNumberOfCalls(t, "Update", 3)
}

func TestGrantService_SearchRequiresRepository(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Search(context.Background(), "client1", "water", grant.SearchOptions{})
	require.Error(t, err)
}
