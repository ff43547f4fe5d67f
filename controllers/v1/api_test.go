package apiv1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	approvalhandler "org-portal-backend/lib/approval"
	notificationhandler "org-portal-backend/lib/notification"
	requesthandler "org-portal-backend/lib/request"
	"org-portal-backend/lib/session"
	taskhandler "org-portal-backend/lib/task"
	workspacehandler "org-portal-backend/lib/workspace"
	"org-portal-backend/models"
	apimodels "org-portal-backend/models/api"
	requestapimodels "org-portal-backend/models/api/request"
	taskapimodels "org-portal-backend/models/api/task"
	workspaceapimodels "org-portal-backend/models/api/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const (
	requestID   = "7f1b3c52-7d0e-4a55-9a43-2f5ad1c3b0a1"
	workspaceID = "0a8f1c6e-5b43-4d2e-8c77-91f0b2a6d4e3"
	taskID      = "c3d2e1f0-1a2b-4c3d-8e9f-0a1b2c3d4e5f"
)

var testUser = &session.User{ID: "u1", Name: "أحمد", Role: models.EmployeeRole}

func newTestApp(init func(app *fiber.App)) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		session.SetFiberCtx(c, session.NewContext("s1", testUser))
		return c.Next()
	})
	init(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) (int, apimodels.Response) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	result := apimodels.Response{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(data, &result))
	}
	return resp.StatusCode, result
}

type fakeRequests struct {
	requesthandler.Provider
	details   *requestapimodels.RequestDetailsWithAccess
	viewed    []requestapimodels.ViewMeta
	viewedIDs []string
}

func (f *fakeRequests) GetForUser(ctx context.Context, id string, user *session.User) (*requestapimodels.RequestDetailsWithAccess, error) {
	if f.details == nil {
		return nil, requesthandler.ErrNotFound
	}
	return f.details, nil
}

func (f *fakeRequests) LogView(ctx context.Context, id, userID string, meta requestapimodels.ViewMeta) {
	f.viewed = append(f.viewed, meta)
	f.viewedIDs = append(f.viewedIDs, id)
}

type fakeApproval struct {
	approvalhandler.Provider
	decisions []requestapimodels.Decision
	hMsg      string
}

func (f *fakeApproval) Decide(ctx context.Context, user *session.User, id string, decision requestapimodels.Decision) (requestapimodels.DecisionResult, string, error) {
	f.decisions = append(f.decisions, decision)
	if f.hMsg != "" {
		return requestapimodels.DecisionResult{}, f.hMsg, nil
	}
	return requestapimodels.DecisionResult{Success: true, Status: models.RequestStatusApproved}, "", nil
}

func (f *fakeApproval) ExportHistory(ctx context.Context, id string) (*bytes.Buffer, error) {
	return bytes.NewBufferString("xlsx"), nil
}

func TestRequestDetails(t *testing.T) {
	requests := &fakeRequests{}
	requesthandler.Instance = requests
	app := newTestApp(InitRequestsApiRouters)

	status, resp := doJSON(t, app, http.MethodGet, "/requests/"+requestID, nil, nil)
	require.Equal(t, fiber.StatusNotFound, status)
	require.Equal(t, requesthandler.ErrNotFound.Error(), resp.Message)
	require.Empty(t, requests.viewed)

	requests.details = &requestapimodels.RequestDetailsWithAccess{IsCurrentApprover: true}
	status, _ = doJSON(t, app, http.MethodGet, "/requests/"+requestID, nil, map[string]string{
		fiber.HeaderUserAgent:      "test-agent",
		fiber.HeaderAcceptLanguage: "ar",
		"X-Timezone":               "Asia/Riyadh",
	})
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, requests.viewed, 1)
	require.Equal(t, requestapimodels.ViewMeta{UserAgent: "test-agent", Locale: "ar", TimeZone: "Asia/Riyadh"}, requests.viewed[0])

	status, _ = doJSON(t, app, http.MethodGet, "/requests/not-a-uuid", nil, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestRequestViewsKeepTheirOwnValues(t *testing.T) {
	requests := &fakeRequests{details: &requestapimodels.RequestDetailsWithAccess{}}
	requesthandler.Instance = requests
	app := newTestApp(InitRequestsApiRouters)
	otherID := "11111111-2222-4333-8444-555555555555"

	status, _ := doJSON(t, app, http.MethodGet, "/requests/"+requestID, nil, map[string]string{fiber.HeaderUserAgent: "agent-AAAAAAAA"})
	require.Equal(t, fiber.StatusOK, status)
	status, _ = doJSON(t, app, http.MethodGet, "/requests/"+otherID, nil, map[string]string{fiber.HeaderUserAgent: "agent-BBBBBBBB"})
	require.Equal(t, fiber.StatusOK, status)

	require.Equal(t, []string{requestID, otherID}, requests.viewedIDs)
	require.Equal(t, "agent-AAAAAAAA", requests.viewed[0].UserAgent)
	require.Equal(t, "agent-BBBBBBBB", requests.viewed[1].UserAgent)
}

func TestRequestDecision(t *testing.T) {
	approval := &fakeApproval{}
	approvalhandler.Instance = approval
	app := newTestApp(InitRequestsApiRouters)
	path := "/requests/" + requestID + "/decision"

	t.Run(`rejection without comment`, func(t *testing.T) {
		status, resp := doJSON(t, app, http.MethodPost, path, requestapimodels.Decision{Kind: models.DecisionRejection, StepID: "s1"}, nil)
		require.Equal(t, fiber.StatusBadRequest, status)
		require.Equal(t, requestapimodels.ErrCommentRequired.Error(), resp.Message)
		require.Empty(t, approval.decisions)
	})

	t.Run(`user agent taken from header`, func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodPost, path, requestapimodels.Decision{Kind: models.DecisionApproval, StepID: "s1"},
			map[string]string{fiber.HeaderUserAgent: "test-agent"})
		require.Equal(t, fiber.StatusOK, status)
		require.Len(t, approval.decisions, 1)
		require.Equal(t, "test-agent", approval.decisions[0].UserAgent)
	})

	t.Run(`human message is a bad request`, func(t *testing.T) {
		approval.hMsg = "لست المعتمد الحالي لهذا الطلب"
		defer func() { approval.hMsg = "" }()
		status, resp := doJSON(t, app, http.MethodPost, path, requestapimodels.Decision{Kind: models.DecisionApproval, StepID: "s1"}, nil)
		require.Equal(t, fiber.StatusBadRequest, status)
		require.Equal(t, approval.hMsg, resp.Message)
	})
}

func TestRequestHistoryExport(t *testing.T) {
	approvalhandler.Instance = &fakeApproval{}
	app := newTestApp(InitRequestsApiRouters)

	req := httptest.NewRequest(http.MethodGet, "/requests/"+requestID+"/history/export", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".xlsx")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "xlsx", string(body))
}

type fakeWorkspaces struct {
	workspacehandler.Provider
	confirmations []string
}

func (f *fakeWorkspaces) Delete(ctx context.Context, user *session.User, id, confirmation string) (workspaceapimodels.DeleteResult, string, error) {
	f.confirmations = append(f.confirmations, confirmation)
	if confirmation != "فريق المبيعات" {
		return workspaceapimodels.DeleteResult{}, "اسم مساحة العمل غير مطابق", nil
	}
	return workspaceapimodels.DeleteResult{Deleted: true, Fallback: true}, "", nil
}

func (f *fakeWorkspaces) Get(ctx context.Context, id string) (*workspaceapimodels.WorkspaceView, error) {
	return nil, workspacehandler.ErrNotFound
}

func TestWorkspaceDelete(t *testing.T) {
	workspaces := &fakeWorkspaces{}
	workspacehandler.Instance = workspaces
	app := newTestApp(InitWorkspacesApiRouters)
	path := "/workspaces/" + workspaceID

	status, _ := doJSON(t, app, http.MethodDelete, path, workspaceapimodels.DeleteRequest{}, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Empty(t, workspaces.confirmations)

	status, resp := doJSON(t, app, http.MethodDelete, path, workspaceapimodels.DeleteRequest{Confirmation: "خطأ"}, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "اسم مساحة العمل غير مطابق", resp.Message)

	status, resp = doJSON(t, app, http.MethodDelete, path, workspaceapimodels.DeleteRequest{Confirmation: "فريق المبيعات"}, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, map[string]interface{}{"deleted": true, "fallback": true}, resp.Data)

	status, _ = doJSON(t, app, http.MethodGet, path, nil, nil)
	require.Equal(t, fiber.StatusNotFound, status)
}

type fakeTasks struct {
	taskhandler.Provider
	uploaded []string
}

func (f *fakeTasks) UploadAttachment(ctx context.Context, id, fileName, contentType string, size int64, file io.Reader) (taskapimodels.AttachmentView, string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return taskapimodels.AttachmentView{}, "", err
	}
	f.uploaded = append(f.uploaded, fileName+":"+string(data))
	return taskapimodels.AttachmentView{FileName: fileName}, "", nil
}

func TestTaskAttachmentUpload(t *testing.T) {
	tasks := &fakeTasks{}
	taskhandler.Instance = tasks
	app := newTestApp(InitTasksApiRouters)
	path := "/tasks/" + taskID + "/attachments"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"report.pdf:content"}, tasks.uploaded)

	status, _ := doJSON(t, app, http.MethodPost, path, nil, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
}

type fakeNotifications struct {
	notificationhandler.Provider
	read []string
}

func (f *fakeNotifications) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	f.read = append(f.read, ids...)
	return int64(len(ids)), nil
}

func TestNotificationsRead(t *testing.T) {
	notifications := &fakeNotifications{}
	notificationhandler.Instance = notifications
	app := newTestApp(InitNotificationsApiRouters)

	status, _ := doJSON(t, app, http.MethodPut, "/notifications/read", map[string]interface{}{"ids": []string{}}, nil)
	require.Equal(t, fiber.StatusBadRequest, status)

	status, resp := doJSON(t, app, http.MethodPut, "/notifications/read", map[string]interface{}{"ids": []string{"n1", "n2"}}, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, float64(2), resp.Data)
	require.Equal(t, []string{"n1", "n2"}, notifications.read)
}
