package approvalhandler

import (
	"bytes"
	"context"
	"sort"
	"time"

	"org-portal-backend/db"
	xlsexport "org-portal-backend/lib/export/xls"
	"org-portal-backend/lib/querycache"
	requesthandler "org-portal-backend/lib/request"
	"org-portal-backend/lib/session"
	"org-portal-backend/models"
	requestapimodels "org-portal-backend/models/api/request"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const notCurrentStepMsg = "المرحلة المحددة ليست المرحلة الحالية للطلب"

type Provider interface {
	Decide(ctx context.Context, user *session.User, requestID string, decision requestapimodels.Decision) (result requestapimodels.DecisionResult, hMsg string, err error)
	FixStatus(ctx context.Context, requestID string) (result requestapimodels.FixStatusResult, hMsg string, err error)
	History(ctx context.Context, requestID string) ([]requestapimodels.HistoryItem, error)
	ExportHistory(ctx context.Context, requestID string) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler(notifier requesthandler.Notifier) {
	Instance = New(requesthandler.NewStores(db.DB), requesthandler.GormTx(db.DB), querycache.Instance, notifier, xlsexport.Instance)
}

func New(stores requesthandler.Stores, tx requesthandler.TxFunc, cache querycache.Provider, notifier requesthandler.Notifier, exporter xlsexport.Provider) Provider {
	return &impl{
		stores:   stores,
		tx:       tx,
		cache:    cache,
		notifier: notifier,
		exporter: exporter,
		now:      time.Now,
	}
}

type impl struct {
	stores   requesthandler.Stores
	tx       requesthandler.TxFunc
	cache    querycache.Provider
	notifier requesthandler.Notifier
	exporter xlsexport.Provider
	now      func() time.Time
}

func (i impl) getLogger(requestID string, user *session.User) *log.Entry {
	logger := log.WithField("request_id", requestID)
	if user != nil {
		logger = logger.WithField("user_id", user.ID)
	}
	return logger
}

// outcome is what a committed decision changed, used for notifications after commit
type outcome struct {
	request     dbmodels.Request
	status      models.RequestStatus
	nextStep    *dbmodels.WorkflowStep
	nextUserIDs []string
	// approvers of the decided step, their incoming lists change too
	stepUserIDs []string
}

func (i impl) Decide(ctx context.Context, user *session.User, requestID string, decision requestapimodels.Decision) (requestapimodels.DecisionResult, string, error) {
	if user == nil {
		return requestapimodels.DecisionResult{}, "", errors.New("unauthenticated")
	}
	if err := decision.Validate(); err != nil {
		return requestapimodels.DecisionResult{}, err.Error(), nil
	}
	logger := i.getLogger(requestID, user).WithField("kind", decision.Kind)

	var (
		res  outcome
		hMsg string
	)
	err := i.tx(func(tx requesthandler.Stores) error {
		var err error
		if decision.Kind == models.DecisionOpinion {
			res, hMsg, err = i.recordOpinion(tx, user, requestID, decision)
		} else {
			res, hMsg, err = i.decideStep(tx, user, requestID, decision)
		}
		if err == nil && hMsg != "" {
			// nothing was written, the message goes back to the user
			return nil
		}
		return err
	})
	if err != nil {
		logger.WithError(err).Error("decision failed")
		return requestapimodels.DecisionResult{Success: false, Message: err.Error()}, "", err
	}
	if hMsg != "" {
		return requestapimodels.DecisionResult{Success: false, Message: hMsg}, hMsg, nil
	}

	keys := []string{querycache.RequestsKey, querycache.IncomingKey(user.ID), querycache.RequestKey(requestID)}
	for _, userID := range res.stepUserIDs {
		keys = append(keys, querycache.IncomingKey(userID))
	}
	for _, userID := range res.nextUserIDs {
		keys = append(keys, querycache.IncomingKey(userID))
	}
	i.cache.Invalidate(keys...)
	i.notify(ctx, logger, user, decision.Kind, res)
	logger.Info("decision recorded")

	return requestapimodels.DecisionResult{
		Success: true,
		Message: resultMessage(decision.Kind),
		Status:  res.status,
	}, "", nil
}

func resultMessage(kind models.DecisionKind) string {
	switch kind {
	case models.DecisionApproval:
		return "تمت الموافقة على الطلب بنجاح"
	case models.DecisionRejection:
		return "تم رفض الطلب"
	default:
		return "تم إرسال الرأي بنجاح"
	}
}

func (i impl) recordOpinion(tx requesthandler.Stores, user *session.User, requestID string, decision requestapimodels.Decision) (outcome, string, error) {
	rec, err := tx.Requests.GetForUpdate(requestID)
	if err != nil {
		return outcome{}, "", errors.Wrap(err, "request lookup failed")
	}
	if rec == nil {
		return outcome{}, requesthandler.ErrNotFound.Error(), nil
	}
	// an opinion belongs to the step the request is waiting on
	if rec.Status.IsTerminal() || rec.CurrentStepID == nil {
		return outcome{}, requestapimodels.ErrStepRequired.Error(), nil
	}
	if *rec.CurrentStepID != decision.StepID {
		return outcome{}, notCurrentStepMsg, nil
	}
	opinion := dbmodels.RequestOpinion{
		RequestID: requestID,
		StepID:    decision.StepID,
		UserID:    user.ID,
		Comments:  decision.Comments,
		UserRole:  user.Role,
		IsAdmin:   user.IsAdmin,
		UserAgent: decision.UserAgent,
	}
	if _, err = tx.Opinions.Create(opinion); err != nil {
		return outcome{}, "", errors.Wrap(err, "opinion create failed")
	}
	return outcome{request: *rec, status: rec.Status}, "", nil
}

func (i impl) decideStep(tx requesthandler.Stores, user *session.User, requestID string, decision requestapimodels.Decision) (outcome, string, error) {
	rec, err := tx.Requests.GetForUpdate(requestID)
	if err != nil {
		return outcome{}, "", errors.Wrap(err, "request lookup failed")
	}
	if rec == nil {
		return outcome{}, requesthandler.ErrNotFound.Error(), nil
	}
	if rec.Status.IsTerminal() {
		return outcome{}, "لا يمكن اتخاذ قرار على طلب مغلق", nil
	}
	if rec.CurrentStepID == nil || *rec.CurrentStepID != decision.StepID {
		return outcome{}, notCurrentStepMsg, nil
	}
	approvals, err := tx.Approvals.List(requestID)
	if err != nil {
		return outcome{}, "", errors.Wrap(err, "approval list failed")
	}
	details := requesthandler.BuildDetails(*rec, approvals, nil)
	action := models.RequestActionApprove
	if decision.Kind == models.DecisionRejection {
		action = models.RequestActionReject
	}
	if hMsg := requesthandler.GuardAction(&details, user, action); hMsg != "" {
		return outcome{}, hMsg, nil
	}

	status := models.ApprovalStatusApproved
	if decision.Kind == models.DecisionRejection {
		status = models.ApprovalStatusRejected
	}
	now := i.now()
	approval, err := tx.Approvals.Get(requestID, decision.StepID, user.ID)
	if err != nil {
		return outcome{}, "", errors.Wrap(err, "approval lookup failed")
	}
	if approval != nil {
		decided, err := tx.Approvals.Decide(approval.ID, status, decision.Comments, now)
		if err != nil {
			return outcome{}, "", errors.Wrap(err, "approval update failed")
		}
		if !decided {
			return outcome{}, "تم اتخاذ القرار في هذه المرحلة مسبقاً", nil
		}
	} else {
		_, err = tx.Approvals.Create(dbmodels.Approval{
			RequestID:  requestID,
			StepID:     decision.StepID,
			ApproverID: user.ID,
			Status:     status,
			Comments:   decision.Comments,
			ApprovedAt: &now,
		})
		if err != nil {
			return outcome{}, "", errors.Wrap(err, "approval create failed")
		}
	}

	res := outcome{request: *rec}
	for _, other := range approvals {
		if other.StepID == decision.StepID && other.ApproverID != user.ID {
			res.stepUserIDs = append(res.stepUserIDs, other.ApproverID)
		}
	}
	updMap := map[string]interface{}{}
	switch decision.Kind {
	case models.DecisionRejection:
		res.status = models.RequestStatusRejected
		updMap["status"] = res.status
		updMap["current_step_id"] = nil
	default:
		var next *dbmodels.WorkflowStep
		if rec.Workflow != nil {
			next = rec.Workflow.NextStep(decision.StepID)
		}
		if next == nil {
			res.status = models.RequestStatusCompleted
			updMap["status"] = res.status
			updMap["current_step_id"] = nil
			updMap["completed_at"] = now
		} else {
			res.status = models.RequestStatusInProgress
			res.nextStep = next
			updMap["status"] = res.status
			updMap["current_step_id"] = next.ID
			res.nextUserIDs, err = requesthandler.ResolveApprovers(tx, next)
			if err != nil {
				return outcome{}, "", err
			}
			if err = tx.Approvals.CreatePending(requestID, next.ID, res.nextUserIDs); err != nil {
				return outcome{}, "", errors.Wrap(err, "pending approvals create failed")
			}
		}
	}
	if err = tx.Requests.Update(requestID, updMap); err != nil {
		return outcome{}, "", errors.Wrap(err, "request update failed")
	}
	return res, "", nil
}

func (i impl) notify(ctx context.Context, logger *log.Entry, user *session.User, kind models.DecisionKind, res outcome) {
	send := func(userID string, data models.NotificationData) {
		if userID == "" || userID == user.ID {
			return
		}
		if err := i.notifier.Notify(ctx, userID, data, res.request.ID, models.EntityRequest); err != nil {
			logger.WithField("to_user_id", userID).WithError(err).Warn("notification failed")
		}
	}
	title := res.request.Title
	requesterID := res.request.RequesterID
	switch kind {
	case models.DecisionOpinion:
		send(requesterID, models.GetRequestOpinion(title, user.Name))
	case models.DecisionRejection:
		send(requesterID, models.GetRequestRejected(title, user.Name))
	case models.DecisionApproval:
		if res.status == models.RequestStatusCompleted {
			send(requesterID, models.GetRequestCompleted(title))
			return
		}
		send(requesterID, models.GetRequestApproved(title, user.Name))
		for _, userID := range res.nextUserIDs {
			send(userID, models.GetRequestAssigned(title, res.nextStep.Name))
		}
	}
}

func (i impl) FixStatus(ctx context.Context, requestID string) (requestapimodels.FixStatusResult, string, error) {
	logger := i.getLogger(requestID, nil)
	var result requestapimodels.FixStatusResult
	var nextUserIDs []string
	hMsg := ""
	err := i.tx(func(tx requesthandler.Stores) error {
		rec, err := tx.Requests.GetForUpdate(requestID)
		if err != nil {
			return errors.Wrap(err, "request lookup failed")
		}
		if rec == nil {
			hMsg = requesthandler.ErrNotFound.Error()
			return nil
		}
		approvals, err := tx.Approvals.List(requestID)
		if err != nil {
			return errors.Wrap(err, "approval list failed")
		}
		result = requestapimodels.FixStatusResult{
			RequestID:     requestID,
			OldStatus:     rec.Status,
			NewStatus:     rec.Status,
			CurrentStepID: rec.CurrentStepID,
		}
		if rec.Status == models.RequestStatusCancelled {
			return nil
		}
		status, step := recomputeStatus(rec, approvals)
		updMap := map[string]interface{}{}
		if status != rec.Status {
			updMap["status"] = status
		}
		switch {
		case step == nil && rec.CurrentStepID != nil:
			updMap["current_step_id"] = nil
		case step != nil && (rec.CurrentStepID == nil || *rec.CurrentStepID != step.ID):
			updMap["current_step_id"] = step.ID
		}
		if status == models.RequestStatusCompleted && rec.CompletedAt == nil {
			updMap["completed_at"] = i.now()
		}
		if step != nil {
			nextUserIDs, err = requesthandler.ResolveApprovers(tx, step)
			if err != nil {
				return err
			}
			if err = tx.Approvals.CreatePending(requestID, step.ID, nextUserIDs); err != nil {
				return errors.Wrap(err, "pending approvals create failed")
			}
		}
		if len(updMap) == 0 {
			return nil
		}
		if err = tx.Requests.Update(requestID, updMap); err != nil {
			return errors.Wrap(err, "request update failed")
		}
		result.NewStatus = status
		result.CurrentStepID = nil
		if step != nil {
			result.CurrentStepID = &step.ID
		}
		result.Changed = true
		return nil
	})
	if err != nil {
		logger.WithError(err).Error("status fix failed")
		return requestapimodels.FixStatusResult{}, "", err
	}
	if hMsg != "" {
		return requestapimodels.FixStatusResult{}, hMsg, nil
	}
	if result.Changed {
		keys := []string{querycache.RequestsKey, querycache.RequestKey(requestID)}
		for _, userID := range nextUserIDs {
			keys = append(keys, querycache.IncomingKey(userID))
		}
		i.cache.Invalidate(keys...)
		i.cache.InvalidatePrefix(querycache.IncomingPrefix())
		logger.
			WithField("old_status", result.OldStatus).
			WithField("new_status", result.NewStatus).
			Info("request status fixed")
	}
	return result, "", nil
}

// recomputeStatus derives status and current step from recorded approvals.
// Any rejection rejects the request, otherwise the first required step
// without an approval becomes current, no such step completes the request
func recomputeStatus(rec *dbmodels.Request, approvals []dbmodels.Approval) (models.RequestStatus, *dbmodels.WorkflowStep) {
	approved := map[string]bool{}
	for _, approval := range approvals {
		switch approval.Status {
		case models.ApprovalStatusRejected:
			return models.RequestStatusRejected, nil
		case models.ApprovalStatusApproved:
			approved[approval.StepID] = true
		}
	}
	if rec.Workflow == nil {
		return rec.Status, nil
	}
	for idx := range rec.Workflow.Steps {
		step := &rec.Workflow.Steps[idx]
		if step.IsRequired && !approved[step.ID] {
			return models.RequestStatusInProgress, step
		}
	}
	return models.RequestStatusCompleted, nil
}

func (i impl) History(ctx context.Context, requestID string) ([]requestapimodels.HistoryItem, error) {
	details, err := requesthandler.LoadDetails(i.stores, requestID)
	if err != nil {
		return nil, err
	}
	return buildHistory(details), nil
}

func buildHistory(details *requestapimodels.RequestDetails) []requestapimodels.HistoryItem {
	result := make([]requestapimodels.HistoryItem, 0, len(details.Approvals)+len(details.Opinions))
	for _, approval := range details.Approvals {
		item := requestapimodels.HistoryItem{
			Time:     approval.CreatedAt,
			Kind:     "approval",
			StepID:   approval.StepID,
			UserID:   approval.ApproverID,
			UserName: approval.ApproverName,
			Status:   approval.Status.ToHuman(),
			Comments: approval.Comments,
		}
		if approval.ApprovedAt != nil {
			item.Time = *approval.ApprovedAt
		}
		result = append(result, item)
	}
	for _, opinion := range details.Opinions {
		result = append(result, requestapimodels.HistoryItem{
			Time:     opinion.CreatedAt,
			Kind:     "opinion",
			StepID:   opinion.StepID,
			UserID:   opinion.UserID,
			UserName: opinion.UserName,
			Status:   "رأي",
			Comments: opinion.Comments,
		})
	}
	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Time.Before(result[b].Time)
	})
	return result
}

func (i impl) ExportHistory(ctx context.Context, requestID string) (*bytes.Buffer, error) {
	details, err := requesthandler.LoadDetails(i.stores, requestID)
	if err != nil {
		return nil, err
	}
	stepNames := map[string]string{}
	if details.Workflow != nil {
		for _, step := range details.Workflow.Steps {
			stepNames[step.ID] = step.Name
		}
	}
	return i.exporter.ExportRequestHistory(details.Request.Title, buildHistory(details), stepNames)
}
