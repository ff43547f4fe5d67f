package models

import "fmt"

type NotificationType string

const (
	NotificationDeadlineReminder NotificationType = "deadline_reminder"
	NotificationRequestApproved  NotificationType = "request_approved"
	NotificationRequestRejected  NotificationType = "request_rejected"
	NotificationRequestCompleted NotificationType = "request_completed"
	NotificationRequestAssigned  NotificationType = "request_assigned"
	NotificationRequestOpinion   NotificationType = "request_opinion"
	NotificationWorkspaceDeleted NotificationType = "workspace_deleted"
	NotificationGeneral          NotificationType = "general"
)

type EntityType string

const (
	EntityRequest   EntityType = "request"
	EntityTask      EntityType = "task"
	EntityWorkspace EntityType = "workspace"
)

type NotificationChannel string

const (
	ChannelWhatsApp NotificationChannel = "whatsapp"
	ChannelEmail    NotificationChannel = "email"
	ChannelSms      NotificationChannel = "sms"
)

type NotificationTpl struct {
	Title string
	Msg   string
}

var NotificationTplMap = map[NotificationType]NotificationTpl{
	NotificationRequestApproved:  {Title: "تمت الموافقة على الطلب", Msg: "تمت الموافقة على الطلب «%v» من قبل %v."},
	NotificationRequestRejected:  {Title: "تم رفض الطلب", Msg: "تم رفض الطلب «%v» من قبل %v."},
	NotificationRequestCompleted: {Title: "اكتمل الطلب", Msg: "اكتملت جميع مراحل اعتماد الطلب «%v»."},
	NotificationRequestAssigned:  {Title: "طلب بانتظار اعتمادك", Msg: "الطلب «%v» بانتظار اعتمادك في مرحلة «%v»."},
	NotificationRequestOpinion:   {Title: "رأي جديد على الطلب", Msg: "أضاف %v رأياً على الطلب «%v»."},
	NotificationWorkspaceDeleted: {Title: "تم حذف مساحة العمل", Msg: "تم حذف مساحة العمل «%v»."},
}

type NotificationData struct {
	Type  NotificationType
	Title string
	Msg   string
}

func GetRequestApproved(requestTitle, userName string) NotificationData {
	code := NotificationRequestApproved
	return NotificationData{
		Type:  code,
		Title: NotificationTplMap[code].Title,
		Msg:   fmt.Sprintf(NotificationTplMap[code].Msg, requestTitle, userName),
	}
}

func GetRequestRejected(requestTitle, userName string) NotificationData {
	code := NotificationRequestRejected
	return NotificationData{
		Type:  code,
		Title: NotificationTplMap[code].Title,
		Msg:   fmt.Sprintf(NotificationTplMap[code].Msg, requestTitle, userName),
	}
}

func GetRequestCompleted(requestTitle string) NotificationData {
	code := NotificationRequestCompleted
	return NotificationData{
		Type:  code,
		Title: NotificationTplMap[code].Title,
		Msg:   fmt.Sprintf(NotificationTplMap[code].Msg, requestTitle),
	}
}

func GetRequestAssigned(requestTitle, stepName string) NotificationData {
	code := NotificationRequestAssigned
	return NotificationData{
		Type:  code,
		Title: NotificationTplMap[code].Title,
		Msg:   fmt.Sprintf(NotificationTplMap[code].Msg, requestTitle, stepName),
	}
}

func GetRequestOpinion(requestTitle, userName string) NotificationData {
	code := NotificationRequestOpinion
	return NotificationData{
		Type:  code,
		Title: NotificationTplMap[code].Title,
		Msg:   fmt.Sprintf(NotificationTplMap[code].Msg, userName, requestTitle),
	}
}

func GetWorkspaceDeleted(workspaceName string) NotificationData {
	code := NotificationWorkspaceDeleted
	return NotificationData{
		Type:  code,
		Title: NotificationTplMap[code].Title,
		Msg:   fmt.Sprintf(NotificationTplMap[code].Msg, workspaceName),
	}
}

func GetDeadlineReminder(title string, daysLeft int) NotificationData {
	data := NotificationData{
		Type:  NotificationDeadlineReminder,
		Title: "تذكير بموعد نهائي",
	}
	switch {
	case daysLeft < 0:
		data.Msg = fmt.Sprintf("تجاوز «%v» الموعد النهائي بـ %d يوم.", title, -daysLeft)
	case daysLeft == 0:
		data.Msg = fmt.Sprintf("الموعد النهائي لـ «%v» اليوم.", title)
	default:
		data.Msg = fmt.Sprintf("تبقى %d يوم على الموعد النهائي لـ «%v».", daysLeft, title)
	}
	return data
}
