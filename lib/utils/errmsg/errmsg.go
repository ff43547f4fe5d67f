// Package errmsg maps provider error texts to messages shown to the user.
package errmsg

import (
	"strings"
)

const (
	DefaultMsg   = "حدث خطأ غير متوقع، يرجى المحاولة مرة أخرى"
	recursionMsg = "تعذر تنفيذ العملية بسبب خطأ في سياسات الوصول، يرجى التواصل مع مدير النظام"
	rlsMsg       = "ليست لديك صلاحية لتنفيذ هذه العملية"
	duplicateMsg = "السجل موجود بالفعل"
	fkMsg        = "لا يمكن تنفيذ العملية لوجود بيانات مرتبطة"
)

// matched in order, first hit wins
var patterns = []struct {
	substr string
	msg    string
}{
	{"recursion", recursionMsg},
	{"violates row-level security policy", rlsMsg},
	{"duplicate key", duplicateMsg},
	{"violates foreign key constraint", fkMsg},
}

// ToHuman returns a specific translated message when err matches a known
// provider message, fallback otherwise
func ToHuman(err error, fallback string) string {
	if err == nil {
		return ""
	}
	text := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(text, p.substr) {
			return p.msg
		}
	}
	if fallback == "" {
		return DefaultMsg
	}
	return fallback
}

func IsDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}
