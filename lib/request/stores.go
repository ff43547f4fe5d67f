package requesthandler

import (
	approvalstore "org-portal-backend/lib/request/approval-store"
	opinionstore "org-portal-backend/lib/request/opinion-store"
	requeststore "org-portal-backend/lib/request/store"
	viewstore "org-portal-backend/lib/request/view-store"
	workflowstore "org-portal-backend/lib/request/workflow-store"
	usersstore "org-portal-backend/lib/users/store"

	"gorm.io/gorm"
)

// Stores groups the stores of the request workflow bound to one connection or transaction
type Stores struct {
	Requests  requeststore.Provider
	Approvals approvalstore.Provider
	Opinions  opinionstore.Provider
	Views     viewstore.Provider
	Workflows workflowstore.Provider
	Users     usersstore.Provider
}

func NewStores(DB *gorm.DB) Stores {
	return Stores{
		Requests:  requeststore.NewInstance(DB),
		Approvals: approvalstore.NewInstance(DB),
		Opinions:  opinionstore.NewInstance(DB),
		Views:     viewstore.NewInstance(DB),
		Workflows: workflowstore.NewInstance(DB),
		Users:     usersstore.NewInstance(DB),
	}
}

// TxFunc runs fn with stores bound to a single transaction
type TxFunc func(fn func(tx Stores) error) error

func GormTx(DB *gorm.DB) TxFunc {
	return func(fn func(tx Stores) error) error {
		return DB.Transaction(func(tx *gorm.DB) error {
			return fn(NewStores(tx))
		})
	}
}
