package models

type UserRole string

const (
	AdminRole    UserRole = "admin"
	ManagerRole  UserRole = "manager"
	EmployeeRole UserRole = "employee"
)

var roleHumanName = map[UserRole]string{
	AdminRole:    "مدير النظام",
	ManagerRole:  "مدير",
	EmployeeRole: "موظف",
}

func (r UserRole) ToHuman() string {
	if human, exist := roleHumanName[r]; exist {
		return human
	}
	return string(r)
}

func (r UserRole) IsAdmin() bool {
	return r == AdminRole
}

func (r UserRole) IsValid() bool {
	_, ok := roleHumanName[r]
	return ok
}

const SystemUser = "النظام"
