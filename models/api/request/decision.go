package requestapimodels

import (
	"time"

	"org-portal-backend/lib/utils/helpers"
	"org-portal-backend/models"

	"github.com/pkg/errors"
)

var (
	ErrStepRequired    = errors.New("لا توجد مرحلة حالية لهذا الطلب")
	ErrCommentRequired = errors.New("يرجى كتابة الرأي قبل الإرسال")
	ErrUnknownDecision = errors.New("نوع القرار غير معروف")
)

// DecisionMeta carries the caller context recorded with a decision
type DecisionMeta struct {
	UserID    string          `json:"user_id"`
	UserRole  models.UserRole `json:"user_role"`
	IsAdmin   bool            `json:"is_admin"`
	Timestamp time.Time       `json:"timestamp"`
	UserAgent string          `json:"user_agent"`
}

// Decision is the approve_request payload. Kind selects the variant,
// opinion never moves the workflow
type Decision struct {
	Kind      models.DecisionKind `json:"kind"`
	StepID    string              `json:"step_id"`
	Comments  string              `json:"comments"`
	UserAgent string              `json:"user_agent"`
}

func (d Decision) Validate() error {
	if !d.Kind.IsValid() {
		return ErrUnknownDecision
	}
	if d.StepID == "" {
		return ErrStepRequired
	}
	switch d.Kind {
	case models.DecisionOpinion, models.DecisionRejection:
		if helpers.IsBlank(d.Comments) {
			return ErrCommentRequired
		}
	}
	return nil
}

func NewOpinion(stepID, comments, userAgent string) Decision {
	return Decision{
		Kind:      models.DecisionOpinion,
		StepID:    stepID,
		Comments:  comments,
		UserAgent: userAgent,
	}
}

// DecisionResult mirrors the {success, message} contract of approve_request
type DecisionResult struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Status  models.RequestStatus `json:"status,omitempty"`
}
