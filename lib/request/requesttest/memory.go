// Package requesttest provides in-memory request workflow stores for tests.
package requesttest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	requesthandler "org-portal-backend/lib/request"
	"org-portal-backend/models"
	requestapimodels "org-portal-backend/models/api/request"
	dbmodels "org-portal-backend/models/db"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Memory holds every table behind the fake stores
type Memory struct {
	mu        sync.Mutex
	Requests  map[string]*dbmodels.Request
	Approvals []*dbmodels.Approval
	Opinions  []dbmodels.RequestOpinion
	Views     []dbmodels.RequestView
	Workflows map[string]*dbmodels.Workflow
	Users     map[string]*dbmodels.User
	// FailUpdate makes request updates fail, used to test rollbacks
	FailUpdate error
}

func NewMemory() *Memory {
	return &Memory{
		Requests:  map[string]*dbmodels.Request{},
		Workflows: map[string]*dbmodels.Workflow{},
		Users:     map[string]*dbmodels.User{},
	}
}

func (m *Memory) Stores() requesthandler.Stores {
	return requesthandler.Stores{
		Requests:  requests{m},
		Approvals: approvals{m},
		Opinions:  opinions{m},
		Views:     views{m},
		Workflows: workflows{m},
		Users:     users{m},
	}
}

// Tx runs fn on a snapshot and keeps the changes only when fn succeeds
func (m *Memory) Tx() requesthandler.TxFunc {
	return func(fn func(tx requesthandler.Stores) error) error {
		snapshot := m.snapshot()
		err := fn(m.Stores())
		if err != nil {
			m.restore(snapshot)
		}
		return err
	}
}

func (m *Memory) AddUser(id string, role models.UserRole) *dbmodels.User {
	rec := &dbmodels.User{Email: id + "@example.com", FullName: "User " + id, Role: role, IsActive: true}
	rec.ID = id
	m.Users[id] = rec
	return rec
}

// AddWorkflow creates a workflow with one decision step per approver id
func (m *Memory) AddWorkflow(id string, approverIDs ...string) *dbmodels.Workflow {
	rec := &dbmodels.Workflow{Name: "Workflow " + id, IsActive: true}
	rec.ID = id
	for idx, approverID := range approverIDs {
		step := dbmodels.WorkflowStep{
			WorkflowID: id,
			StepOrder:  idx + 1,
			Name:       "Step " + approverID,
			StepType:   models.StepTypeDecision,
			IsRequired: true,
		}
		step.ID = id + "-s" + string(rune('1'+idx))
		approver := approverID
		step.ApproverID = &approver
		rec.Steps = append(rec.Steps, step)
	}
	m.Workflows[id] = rec
	return rec
}

func (m *Memory) Approval(requestID, stepID, approverID string) *dbmodels.Approval {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.Approvals {
		if rec.RequestID == requestID && rec.StepID == stepID && rec.ApproverID == approverID {
			copied := *rec
			return &copied
		}
	}
	return nil
}

func (m *Memory) ViewCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Views)
}

type snapshot struct {
	requests  map[string]dbmodels.Request
	approvals []dbmodels.Approval
	opinions  []dbmodels.RequestOpinion
}

func (m *Memory) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := snapshot{requests: map[string]dbmodels.Request{}}
	for id, rec := range m.Requests {
		s.requests[id] = *rec
	}
	for _, rec := range m.Approvals {
		s.approvals = append(s.approvals, *rec)
	}
	s.opinions = append(s.opinions, m.Opinions...)
	return s
}

func (m *Memory) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = map[string]*dbmodels.Request{}
	for id, rec := range s.requests {
		copied := rec
		m.Requests[id] = &copied
	}
	m.Approvals = nil
	for idx := range s.approvals {
		copied := s.approvals[idx]
		m.Approvals = append(m.Approvals, &copied)
	}
	m.Opinions = s.opinions
}

func newID() string {
	return uuid.New().String()
}

type requests struct{ m *Memory }

func (r requests) Create(rec dbmodels.Request) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = newID()
	}
	rec.CreatedAt = time.Now()
	r.m.Requests[rec.ID] = &rec
	return rec.ID, nil
}

func (r requests) GetByID(id string) (*dbmodels.Request, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.Requests[id]
	if !ok {
		return nil, nil
	}
	copied := r.hydrate(*rec)
	return &copied, nil
}

func (r requests) GetForUpdate(id string) (*dbmodels.Request, error) {
	return r.GetByID(id)
}

func (r requests) hydrate(rec dbmodels.Request) dbmodels.Request {
	rec.Requester = r.m.Users[rec.RequesterID]
	rec.Workflow = nil
	rec.CurrentStep = nil
	if workflow, ok := r.m.Workflows[rec.WorkflowID]; ok {
		copied := *workflow
		rec.Workflow = &copied
		if rec.CurrentStepID != nil {
			rec.CurrentStep = copied.StepByID(*rec.CurrentStepID)
		}
	}
	return rec
}

func (r requests) Update(id string, updMap map[string]interface{}) error {
	if r.m.FailUpdate != nil {
		return r.m.FailUpdate
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.Requests[id]
	if !ok {
		return errors.New("request not found")
	}
	for key, value := range updMap {
		switch key {
		case "status":
			rec.Status = value.(models.RequestStatus)
		case "current_step_id":
			switch v := value.(type) {
			case nil:
				rec.CurrentStepID = nil
			case string:
				rec.CurrentStepID = &v
			case *string:
				rec.CurrentStepID = v
			}
		case "completed_at":
			switch v := value.(type) {
			case nil:
				rec.CompletedAt = nil
			case time.Time:
				rec.CompletedAt = &v
			case *time.Time:
				rec.CompletedAt = v
			}
		}
	}
	return nil
}

func (r requests) List(filter requestapimodels.RequestFilter) ([]dbmodels.Request, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	list := []dbmodels.Request{}
	for _, rec := range r.m.Requests {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.RequesterID != "" && rec.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Search != "" && !strings.Contains(rec.Title, filter.Search) {
			continue
		}
		list = append(list, r.hydrate(*rec))
	}
	sort.Slice(list, func(a, b int) bool { return list[a].CreatedAt.After(list[b].CreatedAt) })
	return list, int64(len(list)), nil
}

func (r requests) ListIncoming(userID string) ([]dbmodels.Request, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	list := []dbmodels.Request{}
	for _, rec := range r.m.Requests {
		if rec.Status.IsTerminal() || rec.CurrentStepID == nil {
			continue
		}
		hydrated := r.hydrate(*rec)
		waiting := hydrated.CurrentStep != nil && hydrated.CurrentStep.ApproverID != nil && *hydrated.CurrentStep.ApproverID == userID
		for _, approval := range r.m.Approvals {
			if approval.RequestID == rec.ID && approval.StepID == *rec.CurrentStepID &&
				approval.ApproverID == userID && approval.Status == models.ApprovalStatusPending {
				waiting = true
			}
		}
		if waiting {
			list = append(list, hydrated)
		}
	}
	return list, nil
}

func (r requests) ListWithDeadline() ([]dbmodels.Request, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	list := []dbmodels.Request{}
	for _, rec := range r.m.Requests {
		if rec.Status.IsTerminal() || rec.DeadlineDate == nil {
			continue
		}
		list = append(list, *rec)
	}
	return list, nil
}

type approvals struct{ m *Memory }

func (a approvals) find(requestID, stepID, approverID string) *dbmodels.Approval {
	for _, rec := range a.m.Approvals {
		if rec.RequestID == requestID && rec.StepID == stepID && rec.ApproverID == approverID {
			return rec
		}
	}
	return nil
}

func (a approvals) CreatePending(requestID, stepID string, approverIDs []string) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	for _, approverID := range approverIDs {
		if a.find(requestID, stepID, approverID) != nil {
			continue
		}
		rec := &dbmodels.Approval{RequestID: requestID, StepID: stepID, ApproverID: approverID, Status: models.ApprovalStatusPending}
		rec.ID = newID()
		rec.CreatedAt = time.Now()
		a.m.Approvals = append(a.m.Approvals, rec)
	}
	return nil
}

func (a approvals) Create(rec dbmodels.Approval) (string, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if a.find(rec.RequestID, rec.StepID, rec.ApproverID) != nil {
		return "", errors.New(`ERROR: duplicate key value violates unique constraint "idx_approval_step_approver"`)
	}
	rec.ID = newID()
	rec.CreatedAt = time.Now()
	a.m.Approvals = append(a.m.Approvals, &rec)
	return rec.ID, nil
}

func (a approvals) Get(requestID, stepID, approverID string) (*dbmodels.Approval, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	rec := a.find(requestID, stepID, approverID)
	if rec == nil {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (a approvals) Decide(id string, status models.ApprovalStatus, comments string, at time.Time) (bool, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	for _, rec := range a.m.Approvals {
		if rec.ID == id {
			if rec.Status != models.ApprovalStatusPending {
				return false, nil
			}
			rec.Status = status
			rec.Comments = comments
			rec.ApprovedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (a approvals) List(requestID string) ([]dbmodels.Approval, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	list := []dbmodels.Approval{}
	for _, rec := range a.m.Approvals {
		if rec.RequestID == requestID {
			copied := *rec
			copied.Approver = a.m.Users[rec.ApproverID]
			list = append(list, copied)
		}
	}
	return list, nil
}

type opinions struct{ m *Memory }

func (o opinions) Create(rec dbmodels.RequestOpinion) (string, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	rec.ID = newID()
	rec.CreatedAt = time.Now()
	o.m.Opinions = append(o.m.Opinions, rec)
	return rec.ID, nil
}

func (o opinions) List(requestID string) ([]dbmodels.RequestOpinion, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	list := []dbmodels.RequestOpinion{}
	for _, rec := range o.m.Opinions {
		if rec.RequestID == requestID {
			rec.User = o.m.Users[rec.UserID]
			list = append(list, rec)
		}
	}
	return list, nil
}

type views struct{ m *Memory }

func (v views) Create(rec dbmodels.RequestView) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.m.Views = append(v.m.Views, rec)
	return nil
}

type workflows struct{ m *Memory }

func (w workflows) GetByID(id string) (*dbmodels.Workflow, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	rec, ok := w.m.Workflows[id]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (w workflows) List() ([]dbmodels.Workflow, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	list := []dbmodels.Workflow{}
	for _, rec := range w.m.Workflows {
		list = append(list, *rec)
	}
	return list, nil
}

type users struct{ m *Memory }

func (u users) Create(rec dbmodels.User) (string, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = newID()
	}
	u.m.Users[rec.ID] = &rec
	return rec.ID, nil
}

func (u users) Update(userID string, updMap map[string]interface{}) error {
	return nil
}

func (u users) GetByID(userID string) (*dbmodels.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	return u.m.Users[userID], nil
}

func (u users) FindByEmail(email string) (*dbmodels.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	for _, rec := range u.m.Users {
		if rec.Email == email {
			return rec, nil
		}
	}
	return nil, nil
}

func (u users) SoftDelete(userID string) error {
	return nil
}

func (u users) ListByRole(role models.UserRole) ([]dbmodels.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	list := []dbmodels.User{}
	for _, rec := range u.m.Users {
		if rec.Role == role && rec.IsActive {
			list = append(list, *rec)
		}
	}
	return list, nil
}

// Notification is one call captured by Notifier
type Notification struct {
	UserID   string
	Type     models.NotificationType
	EntityID string
}

type Notifier struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error
}

func (n *Notifier) Notify(_ context.Context, userID string, data models.NotificationData, entityID string, _ models.EntityType) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{UserID: userID, Type: data.Type, EntityID: entityID})
	return n.Err
}

func (n *Notifier) Types(userID string) []models.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := []models.NotificationType{}
	for _, item := range n.Sent {
		if item.UserID == userID {
			result = append(result, item.Type)
		}
	}
	return result
}
