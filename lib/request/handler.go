package requesthandler

import (
	"context"
	"fmt"

	"org-portal-backend/db"
	"org-portal-backend/lib/querycache"
	"org-portal-backend/lib/session"
	"org-portal-backend/models"
	requestapimodels "org-portal-backend/models/api/request"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("الطلب غير موجود")

type Notifier interface {
	Notify(ctx context.Context, userID string, data models.NotificationData, entityID string, entityType models.EntityType) error
}

type Provider interface {
	FetchDetails(ctx context.Context, requestID string) (*requestapimodels.RequestDetails, error)
	GetForUser(ctx context.Context, requestID string, user *session.User) (*requestapimodels.RequestDetailsWithAccess, error)
	LogView(ctx context.Context, requestID, userID string, meta requestapimodels.ViewMeta)
	ListRequests(ctx context.Context, user *session.User, filter requestapimodels.RequestFilter) ([]requestapimodels.RequestView, int64, error)
	ListIncoming(ctx context.Context, user *session.User) ([]requestapimodels.RequestView, error)
	Create(ctx context.Context, user *session.User, data requestapimodels.RequestCreateData) (id, hMsg string, err error)
	ListWorkflows(ctx context.Context) ([]requestapimodels.WorkflowView, error)
}

var Instance Provider

func NewHandler(notifier Notifier) {
	Instance = New(NewStores(db.DB), GormTx(db.DB), querycache.Instance, notifier)
}

func New(stores Stores, tx TxFunc, cache querycache.Provider, notifier Notifier) Provider {
	return &impl{
		stores:   stores,
		tx:       tx,
		cache:    cache,
		notifier: notifier,
	}
}

type impl struct {
	stores   Stores
	tx       TxFunc
	cache    querycache.Provider
	notifier Notifier
}

func (i impl) getLogger(requestID string) *log.Entry {
	return log.WithField("request_id", requestID)
}

func (i impl) FetchDetails(ctx context.Context, requestID string) (*requestapimodels.RequestDetails, error) {
	return querycache.Fetch(i.cache, querycache.RequestKey(requestID), func() (*requestapimodels.RequestDetails, error) {
		return LoadDetails(i.stores, requestID)
	})
}

func (i impl) GetForUser(ctx context.Context, requestID string, user *session.User) (*requestapimodels.RequestDetailsWithAccess, error) {
	details, err := i.FetchDetails(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &requestapimodels.RequestDetailsWithAccess{
		RequestDetails:    *details,
		IsCurrentApprover: IsCurrentApprover(details, user),
	}, nil
}

// LogView records the view in background, failures are only logged
func (i impl) LogView(ctx context.Context, requestID, userID string, meta requestapimodels.ViewMeta) {
	rec := dbmodels.RequestView{
		RequestID:  requestID,
		UserID:     userID,
		UserAgent:  meta.UserAgent,
		Locale:     meta.Locale,
		TimeZone:   meta.TimeZone,
		ScreenSize: meta.ScreenSize,
	}
	go func() {
		if err := i.stores.Views.Create(rec); err != nil {
			i.getLogger(requestID).
				WithField("user_id", userID).
				WithError(err).
				Warn("request view log failed")
		}
	}()
}

type requestPage struct {
	list     []requestapimodels.RequestView
	rowCount int64
}

func (i impl) ListRequests(ctx context.Context, user *session.User, filter requestapimodels.RequestFilter) ([]requestapimodels.RequestView, int64, error) {
	if user == nil {
		return nil, 0, errors.New("unauthenticated")
	}
	if !user.IsAdmin {
		filter.RequesterID = user.ID
	}
	page, limit := filter.GetPage()
	params := fmt.Sprintf("requester=%v&status=%v&search=%v&page=%v&limit=%v", filter.RequesterID, filter.Status, filter.Search, page, limit)
	result, err := querycache.Fetch(i.cache, querycache.WithParams(querycache.RequestsKey, params), func() (requestPage, error) {
		list, rowCount, err := i.stores.Requests.List(filter)
		if err != nil {
			return requestPage{}, errors.Wrap(err, "request list failed")
		}
		views := make([]requestapimodels.RequestView, 0, len(list))
		for _, rec := range list {
			views = append(views, requestapimodels.RequestConvert(rec))
		}
		return requestPage{list: views, rowCount: rowCount}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result.list, result.rowCount, nil
}

func (i impl) ListIncoming(ctx context.Context, user *session.User) ([]requestapimodels.RequestView, error) {
	if user == nil {
		return nil, errors.New("unauthenticated")
	}
	return querycache.Fetch(i.cache, querycache.IncomingKey(user.ID), func() ([]requestapimodels.RequestView, error) {
		list, err := i.stores.Requests.ListIncoming(user.ID)
		if err != nil {
			return nil, errors.Wrap(err, "incoming request list failed")
		}
		views := make([]requestapimodels.RequestView, 0, len(list))
		for _, rec := range list {
			views = append(views, requestapimodels.RequestConvert(rec))
		}
		return views, nil
	})
}

func (i impl) Create(ctx context.Context, user *session.User, data requestapimodels.RequestCreateData) (id, hMsg string, err error) {
	if user == nil {
		return "", "", errors.New("unauthenticated")
	}
	logger := log.WithField("user_id", user.ID)
	workflow, err := i.stores.Workflows.GetByID(data.WorkflowID)
	if err != nil {
		return "", "", errors.Wrap(err, "workflow lookup failed")
	}
	if workflow == nil || !workflow.IsActive {
		return "", "مسار الاعتماد غير موجود", nil
	}
	firstStep := workflow.FirstStep()
	if firstStep == nil {
		return "", "مسار الاعتماد لا يحتوي على مراحل", nil
	}
	var approvers []string
	err = i.tx(func(tx Stores) error {
		rec := dbmodels.Request{
			Title:         data.Title,
			Description:   data.Description,
			RequestType:   data.RequestType,
			RequesterID:   user.ID,
			WorkflowID:    workflow.ID,
			CurrentStepID: &firstStep.ID,
			Status:        models.RequestStatusInProgress,
			FormData:      data.FormData,
			DeadlineDate:  data.DeadlineDate,
		}
		id, err = tx.Requests.Create(rec)
		if err != nil {
			return errors.Wrap(err, "request create failed")
		}
		approvers, err = ResolveApprovers(tx, firstStep)
		if err != nil {
			return err
		}
		if err = tx.Approvals.CreatePending(id, firstStep.ID, approvers); err != nil {
			return errors.Wrap(err, "pending approvals create failed")
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	keys := []string{querycache.RequestsKey}
	for _, approverID := range approvers {
		keys = append(keys, querycache.IncomingKey(approverID))
	}
	i.cache.Invalidate(keys...)
	for _, approverID := range approvers {
		notifyErr := i.notifier.Notify(ctx, approverID, models.GetRequestAssigned(data.Title, firstStep.Name), id, models.EntityRequest)
		if notifyErr != nil {
			logger.WithError(notifyErr).Warn("approver notification failed")
		}
	}
	logger.WithField("request_id", id).Info("request created")
	return id, "", nil
}

func (i impl) ListWorkflows(ctx context.Context) ([]requestapimodels.WorkflowView, error) {
	list, err := i.stores.Workflows.List()
	if err != nil {
		return nil, errors.Wrap(err, "workflow list failed")
	}
	result := make([]requestapimodels.WorkflowView, 0, len(list))
	for idx := range list {
		result = append(result, *requestapimodels.WorkflowConvert(&list[idx]))
	}
	return result, nil
}

// LoadDetails reads the request composite without the cache
func LoadDetails(stores Stores, requestID string) (*requestapimodels.RequestDetails, error) {
	rec, err := stores.Requests.GetByID(requestID)
	if err != nil {
		return nil, errors.Wrap(err, "request lookup failed")
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	approvals, err := stores.Approvals.List(requestID)
	if err != nil {
		return nil, errors.Wrap(err, "approval list failed")
	}
	opinions, err := stores.Opinions.List(requestID)
	if err != nil {
		return nil, errors.Wrap(err, "opinion list failed")
	}
	details := BuildDetails(*rec, approvals, opinions)
	return &details, nil
}

func BuildDetails(rec dbmodels.Request, approvals []dbmodels.Approval, opinions []dbmodels.RequestOpinion) requestapimodels.RequestDetails {
	details := requestapimodels.RequestDetails{
		Request:     requestapimodels.RequestConvert(rec),
		Workflow:    requestapimodels.WorkflowConvert(rec.Workflow),
		CurrentStep: requestapimodels.StepConvert(rec.CurrentStep),
		Requester:   requestapimodels.UserConvert(rec.Requester),
		Approvals:   make([]requestapimodels.ApprovalView, 0, len(approvals)),
		Opinions:    make([]requestapimodels.OpinionView, 0, len(opinions)),
	}
	if details.CurrentStep == nil && rec.CurrentStepID != nil && rec.Workflow != nil {
		details.CurrentStep = requestapimodels.StepConvert(rec.Workflow.StepByID(*rec.CurrentStepID))
	}
	for _, approval := range approvals {
		details.Approvals = append(details.Approvals, requestapimodels.ApprovalConvert(approval))
	}
	for _, opinion := range opinions {
		details.Opinions = append(details.Opinions, requestapimodels.OpinionConvert(opinion))
	}
	return details
}

// ResolveApprovers returns who must decide on step: the named approver or every active user of the approver role
func ResolveApprovers(stores Stores, step *dbmodels.WorkflowStep) ([]string, error) {
	if step == nil {
		return nil, nil
	}
	if step.ApproverID != nil && *step.ApproverID != "" {
		return []string{*step.ApproverID}, nil
	}
	if step.ApproverRole == nil {
		return nil, nil
	}
	users, err := stores.Users.ListByRole(*step.ApproverRole)
	if err != nil {
		return nil, errors.Wrap(err, "role approvers lookup failed")
	}
	result := make([]string, 0, len(users))
	for _, user := range users {
		result = append(result, user.ID)
	}
	return result, nil
}

