package userapimodels

import (
	"github.com/pkg/errors"
)

type ManageAction string

const (
	ManageAssignRole ManageAction = "assign_role"
	ManageSoftDelete ManageAction = "soft_delete"
)

// ManageRequest is the body of the manage-users function
type ManageRequest struct {
	Action ManageAction `json:"action"`
	UserID string       `json:"user_id"`
	RoleID string       `json:"role_id"`
}

func (r ManageRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	switch r.Action {
	case ManageAssignRole:
		if r.RoleID == "" {
			return errors.New("role_id is required")
		}
	case ManageSoftDelete:
	default:
		return errors.Errorf("unknown action %v", r.Action)
	}
	return nil
}

type AssignRoleRequest struct {
	RoleID string `json:"role_id"`
}

func (r AssignRoleRequest) Validate() error {
	if r.RoleID == "" {
		return errors.New("يجب اختيار الدور")
	}
	return nil
}
