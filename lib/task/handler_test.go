package taskhandler

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"org-portal-backend/lib/session"
	"org-portal-backend/models"
	taskapimodels "org-portal-backend/models/api/task"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	tasks       map[string]*dbmodels.Task
	attachments []dbmodels.TaskAttachment
	failSteps   map[string]error
	calls       []string
}

func (f *fakeStore) step(name string) error {
	f.calls = append(f.calls, name)
	return f.failSteps[name]
}

func (f *fakeStore) Create(rec dbmodels.Task) (string, error) {
	rec.ID = "t" + string(rune('0'+len(f.tasks)+1))
	f.tasks[rec.ID] = &rec
	return rec.ID, nil
}

func (f *fakeStore) GetByID(id string) (*dbmodels.Task, error) {
	return f.tasks[id], nil
}

func (f *fakeStore) List(workspaceID string) ([]dbmodels.Task, error) {
	list := []dbmodels.Task{}
	for _, rec := range f.tasks {
		if rec.WorkspaceID == workspaceID {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (f *fakeStore) ListWithDeadline() ([]dbmodels.Task, error) {
	return nil, nil
}

func (f *fakeStore) DeleteSubtasks(taskID string) error {
	return f.step("subtasks")
}

func (f *fakeStore) AddAttachment(rec dbmodels.TaskAttachment) (string, error) {
	if err := f.step("add attachment"); err != nil {
		return "", err
	}
	rec.ID = "a1"
	f.attachments = append(f.attachments, rec)
	return rec.ID, nil
}

func (f *fakeStore) ListAttachments(taskID string) ([]dbmodels.TaskAttachment, error) {
	return f.attachments, f.step("list attachments")
}

func (f *fakeStore) DeleteAttachments(taskID string) error {
	return f.step("attachments")
}

func (f *fakeStore) DeleteComments(taskID string) error {
	return f.step("comments")
}

func (f *fakeStore) Delete(id string) error {
	if err := f.step("task"); err != nil {
		return err
	}
	delete(f.tasks, id)
	return nil
}

type fakeFiles struct {
	objects   map[string][]byte
	deleteErr error
}

func (f *fakeFiles) Upload(ctx context.Context, objectKey string, fileReader io.Reader, fileSize int64, contentType string) error {
	body, err := io.ReadAll(fileReader)
	if err != nil {
		return err
	}
	f.objects[objectKey] = body
	return nil
}

func (f *fakeFiles) Get(ctx context.Context, objectKey string) ([]byte, error) {
	return f.objects[objectKey], nil
}

func (f *fakeFiles) Delete(ctx context.Context, objectKey string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, objectKey)
	return nil
}

func (f *fakeFiles) MakeBucket(ctx context.Context) error {
	return nil
}

func newFixture() (Provider, *fakeStore, *fakeFiles) {
	store := &fakeStore{tasks: map[string]*dbmodels.Task{}, failSteps: map[string]error{}}
	files := &fakeFiles{objects: map[string][]byte{}}
	return New(store, files), store, files
}

func TestDeleteSwallowsSubStepErrors(t *testing.T) {
	h, store, files := newFixture()
	ctx := context.Background()
	id, err := h.Create(ctx, &session.User{ID: "u1"}, taskapimodels.CreateRequest{WorkspaceID: "w1", Title: "Draft"})
	require.NoError(t, err)
	_, hMsg, err := h.UploadAttachment(ctx, id, "spec.pdf", "application/pdf", 3, bytes.NewBufferString("pdf"))
	require.NoError(t, err)
	require.Empty(t, hMsg)
	require.Len(t, files.objects, 1)

	store.failSteps["subtasks"] = errors.New("timeout")
	store.failSteps["comments"] = errors.New("permission denied for table task_comments")
	files.deleteErr = errors.New("s3 unavailable")

	hMsg, err = h.Delete(ctx, id)
	require.NoError(t, err)
	require.Empty(t, hMsg)
	require.Equal(t, []string{"add attachment", "subtasks", "list attachments", "attachments", "comments", "task"}, store.calls)
	require.NotContains(t, store.tasks, id)
}

func TestDeleteFinalStepIsAuthoritative(t *testing.T) {
	h, store, _ := newFixture()
	ctx := context.Background()
	id, err := h.Create(ctx, &session.User{ID: "u1"}, taskapimodels.CreateRequest{WorkspaceID: "w1", Title: "Draft"})
	require.NoError(t, err)

	store.failSteps["task"] = errors.New(`update or delete on table "tasks" violates foreign key constraint`)
	_, err = h.Delete(ctx, id)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "foreign key"))
	require.Contains(t, store.tasks, id)
}

func TestDeleteMissingTask(t *testing.T) {
	h, store, _ := newFixture()
	hMsg, err := h.Delete(context.Background(), "missing")
	require.NoError(t, err)
	require.Equal(t, notFoundMsg, hMsg)
	require.Empty(t, store.calls)
}

func TestUploadAttachmentCleansUpOrphanObject(t *testing.T) {
	h, store, files := newFixture()
	ctx := context.Background()
	id, err := h.Create(ctx, &session.User{ID: "u1"}, taskapimodels.CreateRequest{WorkspaceID: "w1", Title: "Draft"})
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusTodo, store.tasks[id].Status)

	store.failSteps["add attachment"] = errors.New("db down")
	_, _, err = h.UploadAttachment(ctx, id, "a.txt", "text/plain", 1, bytes.NewBufferString("a"))
	require.Error(t, err)
	require.Empty(t, files.objects)
}
