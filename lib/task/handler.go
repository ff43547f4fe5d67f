package taskhandler

import (
	"context"
	"fmt"
	"io"
	"path"

	"org-portal-backend/db"
	filestorage "org-portal-backend/lib/file-storage"
	"org-portal-backend/lib/session"
	taskstore "org-portal-backend/lib/task/store"
	"org-portal-backend/models"
	taskapimodels "org-portal-backend/models/api/task"
	dbmodels "org-portal-backend/models/db"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const notFoundMsg = "المهمة غير موجودة"

type Provider interface {
	Create(ctx context.Context, user *session.User, data taskapimodels.CreateRequest) (id string, err error)
	List(ctx context.Context, workspaceID string) ([]taskapimodels.TaskView, error)
	// Delete removes subtasks, attachments and comments best effort, then the task itself.
	// Only the final task delete decides the outcome
	Delete(ctx context.Context, taskID string) (hMsg string, err error)
	UploadAttachment(ctx context.Context, taskID, fileName, contentType string, size int64, file io.Reader) (view taskapimodels.AttachmentView, hMsg string, err error)
	ListAttachments(ctx context.Context, taskID string) ([]taskapimodels.AttachmentView, error)
}

var Instance Provider

func NewHandler() {
	Instance = New(taskstore.NewInstance(db.DB), filestorage.Instance)
}

func New(store taskstore.Provider, files filestorage.Provider) Provider {
	return impl{
		store: store,
		files: files,
	}
}

type impl struct {
	store taskstore.Provider
	files filestorage.Provider
}

func (i impl) Create(ctx context.Context, user *session.User, data taskapimodels.CreateRequest) (string, error) {
	rec := dbmodels.Task{
		WorkspaceID:  data.WorkspaceID,
		ProjectID:    data.ProjectID,
		Title:        data.Title,
		Description:  data.Description,
		Status:       models.TaskStatusTodo,
		AssigneeID:   data.AssigneeID,
		DeadlineDate: data.DeadlineDate,
	}
	id, err := i.store.Create(rec)
	if err != nil {
		return "", errors.Wrap(err, "task create failed")
	}
	log.
		WithField("task_id", id).
		WithField("user_id", user.ID).
		Info("task created")
	return id, nil
}

func (i impl) List(ctx context.Context, workspaceID string) ([]taskapimodels.TaskView, error) {
	list, err := i.store.List(workspaceID)
	if err != nil {
		return nil, errors.Wrap(err, "task list failed")
	}
	result := make([]taskapimodels.TaskView, 0, len(list))
	for _, rec := range list {
		result = append(result, taskapimodels.TaskConvert(rec))
	}
	return result, nil
}

func (i impl) Delete(ctx context.Context, taskID string) (string, error) {
	logger := log.WithField("task_id", taskID)
	rec, err := i.store.GetByID(taskID)
	if err != nil {
		return "", errors.Wrap(err, "task lookup failed")
	}
	if rec == nil {
		return notFoundMsg, nil
	}

	if err = i.store.DeleteSubtasks(taskID); err != nil {
		logger.WithError(err).Warn("subtasks delete failed")
	}
	attachments, err := i.store.ListAttachments(taskID)
	if err != nil {
		logger.WithError(err).Warn("attachments lookup failed")
	}
	for _, attachment := range attachments {
		if err = i.files.Delete(ctx, attachment.ObjectKey); err != nil {
			logger.WithField("object_key", attachment.ObjectKey).WithError(err).Warn("attachment object delete failed")
		}
	}
	if err = i.store.DeleteAttachments(taskID); err != nil {
		logger.WithError(err).Warn("attachments delete failed")
	}
	if err = i.store.DeleteComments(taskID); err != nil {
		logger.WithError(err).Warn("comments delete failed")
	}

	if err = i.store.Delete(taskID); err != nil {
		logger.WithError(err).Error("task delete failed")
		return "", errors.Wrap(err, "task delete failed")
	}
	logger.Info("task deleted")
	return "", nil
}

func (i impl) UploadAttachment(ctx context.Context, taskID, fileName, contentType string, size int64, file io.Reader) (taskapimodels.AttachmentView, string, error) {
	rec, err := i.store.GetByID(taskID)
	if err != nil {
		return taskapimodels.AttachmentView{}, "", errors.Wrap(err, "task lookup failed")
	}
	if rec == nil {
		return taskapimodels.AttachmentView{}, notFoundMsg, nil
	}
	objectKey := fmt.Sprintf("tasks/%v/%v%v", taskID, uuid.New().String(), path.Ext(fileName))
	if err = i.files.Upload(ctx, objectKey, file, size, contentType); err != nil {
		return taskapimodels.AttachmentView{}, "", err
	}
	attachment := dbmodels.TaskAttachment{
		TaskID:      taskID,
		FileName:    fileName,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Size:        size,
	}
	attachment.ID, err = i.store.AddAttachment(attachment)
	if err != nil {
		if delErr := i.files.Delete(ctx, objectKey); delErr != nil {
			log.WithField("object_key", objectKey).WithError(delErr).Warn("orphan object delete failed")
		}
		return taskapimodels.AttachmentView{}, "", errors.Wrap(err, "attachment save failed")
	}
	return taskapimodels.AttachmentConvert(attachment), "", nil
}

func (i impl) ListAttachments(ctx context.Context, taskID string) ([]taskapimodels.AttachmentView, error) {
	list, err := i.store.ListAttachments(taskID)
	if err != nil {
		return nil, errors.Wrap(err, "attachment list failed")
	}
	result := make([]taskapimodels.AttachmentView, 0, len(list))
	for _, rec := range list {
		result = append(result, taskapimodels.AttachmentConvert(rec))
	}
	return result, nil
}
