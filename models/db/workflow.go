package dbmodels

import "org-portal-backend/models"

type Workflow struct {
	BaseModel
	Name        string `gorm:"type:varchar(255)"`
	Description string
	IsActive    bool            `gorm:"default:true"`
	Steps       []WorkflowStep `gorm:"foreignKey:WorkflowID"`
}

type WorkflowStep struct {
	BaseModel
	WorkflowID   string           `gorm:"type:varchar(36);index"`
	StepOrder    int
	Name         string           `gorm:"type:varchar(255)"`
	StepType     models.StepType  `gorm:"type:varchar(30);default:decision"`
	ApproverID   *string          `gorm:"type:varchar(36)"`
	Approver     *User            `gorm:"foreignKey:ApproverID"`
	ApproverRole *models.UserRole `gorm:"type:varchar(50)"`
	IsRequired   bool             `gorm:"default:true"`
}

// NextStep returns the step that follows current in step order, nil for the last one
func (r Workflow) NextStep(currentID string) *WorkflowStep {
	found := false
	for idx := range r.Steps {
		if found {
			return &r.Steps[idx]
		}
		if r.Steps[idx].ID == currentID {
			found = true
		}
	}
	return nil
}

func (r Workflow) FirstStep() *WorkflowStep {
	if len(r.Steps) == 0 {
		return nil
	}
	return &r.Steps[0]
}

func (r Workflow) StepByID(id string) *WorkflowStep {
	for idx := range r.Steps {
		if r.Steps[idx].ID == id {
			return &r.Steps[idx]
		}
	}
	return nil
}
