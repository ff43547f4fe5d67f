package requestapimodels

import (
	"time"

	"org-portal-backend/lib/utils/helpers"
	"org-portal-backend/models"
	apimodels "org-portal-backend/models/api"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
)

type RequestCreateData struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	RequestType  string         `json:"request_type"`
	WorkflowID   string         `json:"workflow_id"`
	FormData     map[string]any `json:"form_data"`
	DeadlineDate *time.Time     `json:"deadline_date"`
}

func (r RequestCreateData) Validate() error {
	if helpers.IsBlank(r.Title) {
		return errors.New("عنوان الطلب مطلوب")
	}
	if r.WorkflowID == "" {
		return errors.New("يجب اختيار مسار الاعتماد")
	}
	return nil
}

type RequestFilter struct {
	apimodels.Pagination
	Status      models.RequestStatus `json:"status"`
	RequesterID string               `json:"requester_id"`
	Search      string               `json:"search"`
}

type UserView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func UserConvert(rec *dbmodels.User) *UserView {
	if rec == nil {
		return nil
	}
	return &UserView{
		ID:       rec.ID,
		Email:    rec.Email,
		FullName: rec.GetFullName(),
		Role:     string(rec.Role),
	}
}

type StepView struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	StepOrder    int             `json:"step_order"`
	StepType     models.StepType `json:"step_type"`
	ApproverID   *string         `json:"approver_id"`
	ApproverName string          `json:"approver_name,omitempty"`
	IsRequired   bool            `json:"is_required"`
}

func StepConvert(rec *dbmodels.WorkflowStep) *StepView {
	if rec == nil {
		return nil
	}
	view := StepView{
		ID:         rec.ID,
		Name:       rec.Name,
		StepOrder:  rec.StepOrder,
		StepType:   rec.StepType,
		ApproverID: rec.ApproverID,
		IsRequired: rec.IsRequired,
	}
	if rec.Approver != nil {
		view.ApproverName = rec.Approver.GetFullName()
	}
	return &view
}

type WorkflowView struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Steps []StepView `json:"steps"`
}

func WorkflowConvert(rec *dbmodels.Workflow) *WorkflowView {
	if rec == nil {
		return nil
	}
	view := WorkflowView{
		ID:    rec.ID,
		Name:  rec.Name,
		Steps: make([]StepView, 0, len(rec.Steps)),
	}
	for idx := range rec.Steps {
		view.Steps = append(view.Steps, *StepConvert(&rec.Steps[idx]))
	}
	return &view
}

type ApprovalView struct {
	ID           string                `json:"id"`
	StepID       string                `json:"step_id"`
	ApproverID   string                `json:"approver_id"`
	ApproverName string                `json:"approver_name"`
	Status       models.ApprovalStatus `json:"status"`
	Comments     string                `json:"comments"`
	ApprovedAt   *time.Time            `json:"approved_at"`
	CreatedAt    time.Time             `json:"created_at"`
}

func ApprovalConvert(rec dbmodels.Approval) ApprovalView {
	view := ApprovalView{
		ID:         rec.ID,
		StepID:     rec.StepID,
		ApproverID: rec.ApproverID,
		Status:     rec.Status,
		Comments:   rec.Comments,
		ApprovedAt: rec.ApprovedAt,
		CreatedAt:  rec.CreatedAt,
	}
	if rec.Approver != nil {
		view.ApproverName = rec.Approver.GetFullName()
	}
	return view
}

type OpinionView struct {
	ID        string    `json:"id"`
	StepID    string    `json:"step_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Comments  string    `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

func OpinionConvert(rec dbmodels.RequestOpinion) OpinionView {
	view := OpinionView{
		ID:        rec.ID,
		StepID:    rec.StepID,
		UserID:    rec.UserID,
		Comments:  rec.Comments,
		CreatedAt: rec.CreatedAt,
	}
	if rec.User != nil {
		view.UserName = rec.User.GetFullName()
	}
	return view
}

type RequestView struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	RequestType   string               `json:"request_type"`
	RequesterID   string               `json:"requester_id"`
	WorkflowID    string               `json:"workflow_id"`
	CurrentStepID *string              `json:"current_step_id"`
	Status        models.RequestStatus `json:"status"`
	StatusName    string               `json:"status_name"`
	FormData      map[string]any       `json:"form_data"`
	DeadlineDate  *time.Time           `json:"deadline_date"`
	CompletedAt   *time.Time           `json:"completed_at"`
	CreatedAt     time.Time            `json:"created_at"`
}

func RequestConvert(rec dbmodels.Request) RequestView {
	return RequestView{
		ID:            rec.ID,
		Title:         rec.Title,
		Description:   rec.Description,
		RequestType:   rec.RequestType,
		RequesterID:   rec.RequesterID,
		WorkflowID:    rec.WorkflowID,
		CurrentStepID: rec.CurrentStepID,
		Status:        rec.Status,
		StatusName:    rec.Status.ToHuman(),
		FormData:      rec.FormData,
		DeadlineDate:  rec.DeadlineDate,
		CompletedAt:   rec.CompletedAt,
		CreatedAt:     rec.CreatedAt,
	}
}

// RequestDetails is the composite returned by get_request_details
type RequestDetails struct {
	Request     RequestView    `json:"request"`
	Workflow    *WorkflowView  `json:"workflow"`
	CurrentStep *StepView      `json:"current_step"`
	Requester   *UserView      `json:"requester"`
	Approvals   []ApprovalView `json:"approvals"`
	Opinions    []OpinionView  `json:"opinions"`
}

// RequestDetailsWithAccess adds what the session user may do right now
type RequestDetailsWithAccess struct {
	RequestDetails
	IsCurrentApprover bool `json:"is_current_approver"`
}

// ViewMeta is the client metadata sent with log_request_view
type ViewMeta struct {
	UserAgent  string `json:"user_agent"`
	Locale     string `json:"locale"`
	TimeZone   string `json:"timezone"`
	ScreenSize string `json:"screen_size"`
}

type FixStatusResult struct {
	RequestID     string               `json:"request_id"`
	OldStatus     models.RequestStatus `json:"old_status"`
	NewStatus     models.RequestStatus `json:"new_status"`
	CurrentStepID *string              `json:"current_step_id"`
	Changed       bool                 `json:"changed"`
}

type HistoryItem struct {
	Time     time.Time `json:"time"`
	Kind     string    `json:"kind"` // approval/opinion
	StepID   string    `json:"step_id"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Status   string    `json:"status"`
	Comments string    `json:"comments"`
}
