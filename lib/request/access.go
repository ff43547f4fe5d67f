package requesthandler

import (
	"org-portal-backend/lib/session"
	"org-portal-backend/models"
	requestapimodels "org-portal-backend/models/api/request"
)

// IsCurrentApprover reports whether user may approve or reject the current step
func IsCurrentApprover(details *requestapimodels.RequestDetails, user *session.User) bool {
	if details == nil || user == nil || details.CurrentStep == nil {
		return false
	}
	step := details.CurrentStep
	if step.ApproverID != nil && *step.ApproverID == user.ID {
		return true
	}
	if user.IsAdmin {
		return true
	}
	for _, approval := range details.Approvals {
		if approval.StepID == step.ID &&
			approval.ApproverID == user.ID &&
			approval.Status == models.ApprovalStatusPending {
			return true
		}
	}
	return false
}

// GuardAction returns a message for the user when the action must not start
func GuardAction(details *requestapimodels.RequestDetails, user *session.User, action models.RequestAction) (hMsg string) {
	if details == nil {
		return "الطلب غير موجود"
	}
	if details.Request.Status.IsTerminal() {
		return "لا يمكن تنفيذ الإجراء على طلب مغلق"
	}
	if !IsCurrentApprover(details, user) {
		switch action {
		case models.RequestActionReject:
			return "ليست لديك صلاحية رفض هذا الطلب"
		default:
			return "ليست لديك صلاحية الموافقة على هذا الطلب"
		}
	}
	return ""
}
