package requesthandler_test

import (
	"context"
	"testing"
	"time"

	requesthandler "org-portal-backend/lib/request"
	"org-portal-backend/lib/request/requesttest"
	"org-portal-backend/lib/querycache"
	"org-portal-backend/lib/session"
	"org-portal-backend/models"
	requestapimodels "org-portal-backend/models/api/request"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestIsCurrentApprover(t *testing.T) {
	step := &requestapimodels.StepView{ID: "s1", ApproverID: strPtr("approver")}
	details := func(approvals ...requestapimodels.ApprovalView) *requestapimodels.RequestDetails {
		return &requestapimodels.RequestDetails{CurrentStep: step, Approvals: approvals}
	}
	employee := func(id string) *session.User {
		return &session.User{ID: id, Role: models.EmployeeRole}
	}

	tests := []struct {
		name    string
		details *requestapimodels.RequestDetails
		user    *session.User
		want    bool
	}{
		{"no user", details(), nil, false},
		{"no current step", &requestapimodels.RequestDetails{}, employee("approver"), false},
		{"step approver", details(), employee("approver"), true},
		{"admin", details(), &session.User{ID: "boss", IsAdmin: true, Role: models.AdminRole}, true},
		{"pending approval on current step", details(requestapimodels.ApprovalView{StepID: "s1", ApproverID: "u2", Status: models.ApprovalStatusPending}), employee("u2"), true},
		{"decided approval", details(requestapimodels.ApprovalView{StepID: "s1", ApproverID: "u2", Status: models.ApprovalStatusApproved}), employee("u2"), false},
		{"pending approval on other step", details(requestapimodels.ApprovalView{StepID: "s0", ApproverID: "u2", Status: models.ApprovalStatusPending}), employee("u2"), false},
		{"stranger", details(), employee("u3"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, requesthandler.IsCurrentApprover(tt.details, tt.user))
		})
	}
}

func TestGuardAction(t *testing.T) {
	details := &requestapimodels.RequestDetails{
		Request:     requestapimodels.RequestView{Status: models.RequestStatusInProgress},
		CurrentStep: &requestapimodels.StepView{ID: "s1", ApproverID: strPtr("approver")},
	}
	approver := &session.User{ID: "approver"}
	stranger := &session.User{ID: "stranger"}

	require.Empty(t, requesthandler.GuardAction(details, approver, models.RequestActionApprove))
	require.NotEmpty(t, requesthandler.GuardAction(details, stranger, models.RequestActionApprove))
	require.NotEmpty(t, requesthandler.GuardAction(details, stranger, models.RequestActionReject))

	details.Request.Status = models.RequestStatusCompleted
	require.NotEmpty(t, requesthandler.GuardAction(details, approver, models.RequestActionApprove))
}

func newHandler(mem *requesttest.Memory, notifier *requesttest.Notifier) (requesthandler.Provider, querycache.Provider) {
	cache := querycache.New(time.Minute)
	return requesthandler.New(mem.Stores(), mem.Tx(), cache, notifier), cache
}

func TestCreateAndFetchDetails(t *testing.T) {
	ctx := context.Background()
	mem := requesttest.NewMemory()
	mem.AddUser("requester", models.EmployeeRole)
	mem.AddUser("approver", models.ManagerRole)
	mem.AddWorkflow("wf", "approver")
	notifier := &requesttest.Notifier{}
	h, cache := newHandler(mem, notifier)
	requester := &session.User{ID: "requester", Role: models.EmployeeRole}
	approver := &session.User{ID: "approver", Role: models.ManagerRole}

	_, hMsg, err := h.Create(ctx, requester, requestapimodels.RequestCreateData{Title: "Leave", WorkflowID: "missing"})
	require.NoError(t, err)
	require.NotEmpty(t, hMsg)

	incoming, err := h.ListIncoming(ctx, approver)
	require.NoError(t, err)
	require.Empty(t, incoming)

	id, hMsg, err := h.Create(ctx, requester, requestapimodels.RequestCreateData{Title: "Leave", WorkflowID: "wf"})
	require.NoError(t, err)
	require.Empty(t, hMsg)
	require.True(t, cache.IsStale(querycache.IncomingKey("approver")))
	require.Equal(t, []models.NotificationType{models.NotificationRequestAssigned}, notifier.Types("approver"))

	incoming, err = h.ListIncoming(ctx, approver)
	require.NoError(t, err)
	require.Len(t, incoming, 1)

	details, err := h.GetForUser(ctx, id, approver)
	require.NoError(t, err)
	require.True(t, details.IsCurrentApprover)
	require.Equal(t, models.RequestStatusInProgress, details.Request.Status)
	require.NotNil(t, details.CurrentStep)
	require.Equal(t, "wf-s1", details.CurrentStep.ID)
	require.Len(t, details.Approvals, 1)
	require.Equal(t, models.ApprovalStatusPending, details.Approvals[0].Status)

	details, err = h.GetForUser(ctx, id, requester)
	require.NoError(t, err)
	require.False(t, details.IsCurrentApprover)
}

func TestFetchDetailsIsCachedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	mem := requesttest.NewMemory()
	mem.AddUser("requester", models.EmployeeRole)
	mem.AddWorkflow("wf", "approver")
	h, cache := newHandler(mem, &requesttest.Notifier{})

	id, _, err := h.Create(ctx, &session.User{ID: "requester"}, requestapimodels.RequestCreateData{Title: "Trip", WorkflowID: "wf"})
	require.NoError(t, err)

	details, err := h.FetchDetails(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Trip", details.Request.Title)

	mem.Requests[id].Title = "Changed"
	details, err = h.FetchDetails(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Trip", details.Request.Title)

	cache.Invalidate(querycache.RequestKey(id))
	details, err = h.FetchDetails(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Changed", details.Request.Title)
}

func TestFetchDetailsNotFound(t *testing.T) {
	h, _ := newHandler(requesttest.NewMemory(), &requesttest.Notifier{})
	_, err := h.FetchDetails(context.Background(), "missing")
	require.ErrorIs(t, err, requesthandler.ErrNotFound)
}

func TestListRequestsScopedToRequester(t *testing.T) {
	ctx := context.Background()
	mem := requesttest.NewMemory()
	mem.AddWorkflow("wf", "approver")
	h, _ := newHandler(mem, &requesttest.Notifier{})

	for _, user := range []string{"u1", "u2"} {
		_, _, err := h.Create(ctx, &session.User{ID: user}, requestapimodels.RequestCreateData{Title: "R " + user, WorkflowID: "wf"})
		require.NoError(t, err)
	}

	list, rowCount, err := h.ListRequests(ctx, &session.User{ID: "u1"}, requestapimodels.RequestFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, rowCount)
	require.Equal(t, "R u1", list[0].Title)

	_, rowCount, err = h.ListRequests(ctx, &session.User{ID: "admin", IsAdmin: true}, requestapimodels.RequestFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 2, rowCount)
}

func TestLogViewRunsInBackground(t *testing.T) {
	mem := requesttest.NewMemory()
	h, _ := newHandler(mem, &requesttest.Notifier{})

	h.LogView(context.Background(), "r1", "u1", requestapimodels.ViewMeta{Locale: "ar"})
	require.Eventually(t, func() bool { return mem.ViewCount() == 1 }, time.Second, 10*time.Millisecond)
}
