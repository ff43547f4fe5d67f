package workspacehandler

import (
	"context"
	"strings"

	"org-portal-backend/db"
	filestorage "org-portal-backend/lib/file-storage"
	functionsclient "org-portal-backend/lib/functions/client"
	"org-portal-backend/lib/querycache"
	"org-portal-backend/lib/session"
	usersstore "org-portal-backend/lib/users/store"
	"org-portal-backend/lib/utils/errmsg"
	memberstore "org-portal-backend/lib/workspace/member-store"
	workspacestore "org-portal-backend/lib/workspace/store"
	"org-portal-backend/models"
	workspaceapimodels "org-portal-backend/models/api/workspace"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("مساحة العمل غير موجودة")

const (
	deleteFailedMsg = "تعذر حذف مساحة العمل، يرجى المحاولة مرة أخرى"
	noAccessMsg     = "ليست لديك صلاحية إدارة مساحة العمل"
)

type Notifier interface {
	Notify(ctx context.Context, userID string, data models.NotificationData, entityID string, entityType models.EntityType) error
}

type Provider interface {
	Create(ctx context.Context, user *session.User, data workspaceapimodels.CreateRequest) (id string, err error)
	Get(ctx context.Context, workspaceID string) (*workspaceapimodels.WorkspaceView, error)
	List(ctx context.Context, user *session.User) ([]workspaceapimodels.WorkspaceView, error)
	// Delete runs the transactional delete and falls back to the delete-workspace function once
	Delete(ctx context.Context, user *session.User, workspaceID, confirmation string) (result workspaceapimodels.DeleteResult, hMsg string, err error)
	// DeleteAsService is the delete-workspace function body, statements run one by one
	DeleteAsService(ctx context.Context, workspaceID, userID string) (hMsg string, err error)
	AddMember(ctx context.Context, user *session.User, workspaceID string, data workspaceapimodels.MemberAddRequest) (hMsg string, err error)
	UpdateMembersCount(ctx context.Context, workspaceID string) (int, error)
}

// TxFunc runs fn with a workspace store bound to one transaction
type TxFunc func(fn func(store workspacestore.Provider) error) error

func GormTx(DB *gorm.DB) TxFunc {
	return func(fn func(store workspacestore.Provider) error) error {
		return DB.Transaction(func(tx *gorm.DB) error {
			return fn(workspacestore.NewInstance(tx))
		})
	}
}

var Instance Provider

func NewHandler(notifier Notifier) {
	Instance = impl{
		store:    workspacestore.NewInstance(db.DB),
		members:  memberstore.NewInstance(db.DB),
		users:    usersstore.NewInstance(db.DB),
		tx:       GormTx(db.DB),
		fallback: functionsclient.Instance,
		files:    filestorage.Instance,
		cache:    querycache.Instance,
		notifier: notifier,
	}
}

func New(store workspacestore.Provider, members memberstore.Provider, users usersstore.Provider, tx TxFunc,
	fallback functionsclient.Provider, files filestorage.Provider, cache querycache.Provider, notifier Notifier) Provider {
	return impl{
		store:    store,
		members:  members,
		users:    users,
		tx:       tx,
		fallback: fallback,
		files:    files,
		cache:    cache,
		notifier: notifier,
	}
}

type impl struct {
	store    workspacestore.Provider
	members  memberstore.Provider
	users    usersstore.Provider
	tx       TxFunc
	fallback functionsclient.Provider
	files    filestorage.Provider
	cache    querycache.Provider
	notifier Notifier
}

func (i impl) getLogger(workspaceID, userID string) *log.Entry {
	return log.
		WithField("workspace_id", workspaceID).
		WithField("user_id", userID)
}

func canManage(ws *dbmodels.Workspace, userID string, isAdmin bool) bool {
	return isAdmin || ws.OwnerID == userID
}

func (i impl) Create(ctx context.Context, user *session.User, data workspaceapimodels.CreateRequest) (string, error) {
	rec := dbmodels.Workspace{
		Name:        strings.TrimSpace(data.Name),
		Description: data.Description,
		OwnerID:     user.ID,
	}
	id, err := i.store.Create(rec)
	if err != nil {
		return "", errors.Wrap(err, "workspace create failed")
	}
	_, err = i.members.Add(dbmodels.WorkspaceMember{WorkspaceID: id, UserID: user.ID, Role: "owner"})
	if err != nil {
		return "", errors.Wrap(err, "owner member add failed")
	}
	if _, err = i.UpdateMembersCount(ctx, id); err != nil {
		i.getLogger(id, user.ID).WithError(err).Warn("members count update failed")
	}
	i.cache.Invalidate(querycache.WorkspacesKey(user.ID))
	return id, nil
}

func (i impl) Get(ctx context.Context, workspaceID string) (*workspaceapimodels.WorkspaceView, error) {
	rec, err := i.store.GetByID(workspaceID)
	if err != nil {
		return nil, errors.Wrap(err, "workspace lookup failed")
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	view := workspaceapimodels.WorkspaceConvert(*rec)
	return &view, nil
}

func (i impl) List(ctx context.Context, user *session.User) ([]workspaceapimodels.WorkspaceView, error) {
	return querycache.Fetch(i.cache, querycache.WorkspacesKey(user.ID), func() ([]workspaceapimodels.WorkspaceView, error) {
		list, err := i.store.ListForUser(user.ID)
		if err != nil {
			return nil, errors.Wrap(err, "workspace list failed")
		}
		result := make([]workspaceapimodels.WorkspaceView, 0, len(list))
		for _, rec := range list {
			result = append(result, workspaceapimodels.WorkspaceConvert(rec))
		}
		return result, nil
	})
}

func (i impl) Delete(ctx context.Context, user *session.User, workspaceID, confirmation string) (workspaceapimodels.DeleteResult, string, error) {
	logger := i.getLogger(workspaceID, user.ID)
	ws, err := i.store.GetByID(workspaceID)
	if err != nil {
		return workspaceapimodels.DeleteResult{}, "", errors.Wrap(err, "workspace lookup failed")
	}
	if ws == nil {
		return workspaceapimodels.DeleteResult{}, ErrNotFound.Error(), nil
	}
	if strings.TrimSpace(confirmation) != ws.Name {
		return workspaceapimodels.DeleteResult{}, "اسم مساحة العمل المدخل غير مطابق", nil
	}
	if !canManage(ws, user.ID, user.IsAdmin) {
		return workspaceapimodels.DeleteResult{}, noAccessMsg, nil
	}
	memberIDs, err := i.members.ListUserIDs(workspaceID)
	if err != nil {
		logger.WithError(err).Warn("member list failed")
	}

	var objectKeys []string
	primaryErr := i.tx(func(store workspacestore.Provider) error {
		var err error
		objectKeys, err = store.DeleteCascade(workspaceID)
		return err
	})
	result := workspaceapimodels.DeleteResult{Deleted: true}
	if primaryErr != nil {
		logger.WithError(primaryErr).Warn("workspace delete failed, calling delete-workspace function")
		fallbackErr := i.fallback.DeleteWorkspace(ctx, workspaceapimodels.DeleteFunctionRequest{
			WorkspaceID: workspaceID,
			UserID:      user.ID,
		})
		if fallbackErr != nil {
			logger.WithError(fallbackErr).Error("delete-workspace function failed")
			return workspaceapimodels.DeleteResult{}, deleteErrorMessage(primaryErr, fallbackErr), nil
		}
		result.Fallback = true
	}
	i.removeObjects(ctx, logger, objectKeys)
	i.afterDelete(ctx, logger, ws, append(memberIDs, user.ID), user.ID)
	logger.WithField("fallback", result.Fallback).Info("workspace deleted")
	return result, "", nil
}

// deleteErrorMessage prefers the function message, then a known provider message
func deleteErrorMessage(primaryErr, fallbackErr error) string {
	fnErr := &functionsclient.Error{}
	if errors.As(fallbackErr, &fnErr) && strings.TrimSpace(fnErr.Message) != "" {
		return fnErr.Message
	}
	return errmsg.ToHuman(primaryErr, deleteFailedMsg)
}

func (i impl) DeleteAsService(ctx context.Context, workspaceID, userID string) (string, error) {
	logger := i.getLogger(workspaceID, userID)
	ws, err := i.store.GetByID(workspaceID)
	if err != nil {
		return "", errors.Wrap(err, "workspace lookup failed")
	}
	if ws == nil {
		return ErrNotFound.Error(), nil
	}
	user, err := i.users.GetByID(userID)
	if err != nil {
		return "", errors.Wrap(err, "user lookup failed")
	}
	if user == nil || !canManage(ws, userID, user.Role.IsAdmin()) {
		return noAccessMsg, nil
	}
	memberIDs, err := i.members.ListUserIDs(workspaceID)
	if err != nil {
		logger.WithError(err).Warn("member list failed")
	}
	objectKeys, err := i.store.DeleteCascade(workspaceID)
	if err != nil {
		return "", err
	}
	i.removeObjects(ctx, logger, objectKeys)
	i.afterDelete(ctx, logger, ws, append(memberIDs, userID), userID)
	logger.Info("workspace deleted by function")
	return "", nil
}

func (i impl) removeObjects(ctx context.Context, logger *log.Entry, objectKeys []string) {
	for _, key := range objectKeys {
		if err := i.files.Delete(ctx, key); err != nil {
			logger.WithField("object_key", key).WithError(err).Warn("attachment object delete failed")
		}
	}
}

func (i impl) afterDelete(ctx context.Context, logger *log.Entry, ws *dbmodels.Workspace, userIDs []string, actorID string) {
	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, querycache.WorkspacesKey(userID))
	}
	i.cache.Invalidate(keys...)
	notified := map[string]bool{actorID: true}
	for _, userID := range userIDs {
		if notified[userID] {
			continue
		}
		notified[userID] = true
		err := i.notifier.Notify(ctx, userID, models.GetWorkspaceDeleted(ws.Name), ws.ID, models.EntityWorkspace)
		if err != nil {
			logger.WithField("to_user_id", userID).WithError(err).Warn("notification failed")
		}
	}
}

func (i impl) AddMember(ctx context.Context, user *session.User, workspaceID string, data workspaceapimodels.MemberAddRequest) (string, error) {
	logger := i.getLogger(workspaceID, user.ID).WithField("member_id", data.UserID)
	ws, err := i.store.GetByID(workspaceID)
	if err != nil {
		return "", errors.Wrap(err, "workspace lookup failed")
	}
	if ws == nil {
		return ErrNotFound.Error(), nil
	}
	if !canManage(ws, user.ID, user.IsAdmin) {
		return noAccessMsg, nil
	}
	member, err := i.users.GetByID(data.UserID)
	if err != nil {
		return "", errors.Wrap(err, "user lookup failed")
	}
	if member == nil || !member.IsActive {
		return "المستخدم غير موجود", nil
	}
	role := data.Role
	if role == "" {
		role = "member"
	}
	_, err = i.members.Add(dbmodels.WorkspaceMember{WorkspaceID: workspaceID, UserID: data.UserID, Role: role})
	if err != nil {
		if errmsg.IsDuplicate(err) {
			return "العضو موجود بالفعل", nil
		}
		return "", errors.Wrap(err, "member add failed")
	}
	if _, err = i.UpdateMembersCount(ctx, workspaceID); err != nil {
		logger.WithError(err).Warn("members count update failed")
	}
	i.cache.Invalidate(querycache.WorkspacesKey(user.ID), querycache.WorkspacesKey(data.UserID))
	logger.Info("member added")
	return "", nil
}

func (i impl) UpdateMembersCount(ctx context.Context, workspaceID string) (int, error) {
	count, err := i.members.Count(workspaceID)
	if err != nil {
		return 0, errors.Wrap(err, "members count failed")
	}
	err = i.store.Update(workspaceID, map[string]interface{}{"members_count": count})
	if err != nil {
		return 0, errors.Wrap(err, "members count update failed")
	}
	return int(count), nil
}
