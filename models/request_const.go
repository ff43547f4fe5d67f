package models

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusApproved   RequestStatus = "approved"
	RequestStatusRejected   RequestStatus = "rejected"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

var requestStatusHumanName = map[RequestStatus]string{
	RequestStatusPending:    "قيد الانتظار",
	RequestStatusInProgress: "قيد المعالجة",
	RequestStatusApproved:   "معتمد",
	RequestStatusRejected:   "مرفوض",
	RequestStatusCompleted:  "مكتمل",
	RequestStatusCancelled:  "ملغى",
}

func (s RequestStatus) ToHuman() string {
	if human, exist := requestStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

// IsTerminal - no further workflow action is possible
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusApproved, RequestStatusRejected, RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

var RequestTerminalStatuses = []RequestStatus{
	RequestStatusApproved,
	RequestStatusRejected,
	RequestStatusCompleted,
	RequestStatusCancelled,
}

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

var approvalStatusHumanName = map[ApprovalStatus]string{
	ApprovalStatusPending:  "بانتظار الاعتماد",
	ApprovalStatusApproved: "تمت الموافقة",
	ApprovalStatusRejected: "تم الرفض",
}

func (s ApprovalStatus) ToHuman() string {
	if human, exist := approvalStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

func (s ApprovalStatus) IsDecided() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

type StepType string

const (
	StepTypeDecision StepType = "decision"
	StepTypeOpinion  StepType = "opinion"
	StepTypeNotify   StepType = "notify"
)

// DecisionKind discriminates the payload of an approve_request call
type DecisionKind string

const (
	DecisionApproval  DecisionKind = "approval"
	DecisionRejection DecisionKind = "rejection"
	DecisionOpinion   DecisionKind = "opinion"
)

func (k DecisionKind) IsValid() bool {
	switch k {
	case DecisionApproval, DecisionRejection, DecisionOpinion:
		return true
	}
	return false
}

// IsBinding - the decision moves the workflow
func (k DecisionKind) IsBinding() bool {
	return k == DecisionApproval || k == DecisionRejection
}

type RequestAction string

const (
	RequestActionApprove RequestAction = "approve"
	RequestActionReject  RequestAction = "reject"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

var TaskTerminalStatuses = []TaskStatus{
	TaskStatusCompleted,
	TaskStatusCancelled,
}
