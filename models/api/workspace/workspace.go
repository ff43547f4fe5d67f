package workspaceapimodels

import (
	"time"

	"org-portal-backend/lib/utils/helpers"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
)

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r CreateRequest) Validate() error {
	if helpers.IsBlank(r.Name) {
		return errors.New("اسم مساحة العمل مطلوب")
	}
	return nil
}

type DeleteRequest struct {
	Confirmation string `json:"confirmation"` // workspace name typed by the user
}

func (r DeleteRequest) Validate() error {
	if helpers.IsBlank(r.Confirmation) {
		return errors.New("يرجى كتابة اسم مساحة العمل لتأكيد الحذف")
	}
	return nil
}

// DeleteFunctionRequest is the body of the delete-workspace function
type DeleteFunctionRequest struct {
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId"`
}

func (r DeleteFunctionRequest) Validate() error {
	if r.WorkspaceID == "" || r.UserID == "" {
		return errors.New("workspaceId and userId are required")
	}
	return nil
}

type DeleteFunctionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type MemberAddRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (r MemberAddRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("يجب اختيار المستخدم")
	}
	return nil
}

type WorkspaceView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	OwnerID      string    `json:"owner_id"`
	MembersCount int       `json:"members_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func WorkspaceConvert(rec dbmodels.Workspace) WorkspaceView {
	return WorkspaceView{
		ID:           rec.ID,
		Name:         rec.Name,
		Description:  rec.Description,
		OwnerID:      rec.OwnerID,
		MembersCount: rec.MembersCount,
		CreatedAt:    rec.CreatedAt,
	}
}

type DeleteResult struct {
	Deleted bool `json:"deleted"`
	// Fallback is true when the primary path failed and the function did the work
	Fallback bool `json:"fallback"`
}
