package domain

import "strings"

// Role is the closed set of login categories.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleTeacher  Role = "teacher"
	RoleStudent  Role = "student"
	RoleDeptHead Role = "dept_head"
)

// Roles lists every known role in directory scan order.
var Roles = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleDeptHead}

// ParseRole normalises s and reports whether it names a known role.
// "department-head" and "depthead" are accepted as aliases.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, true
	case "teacher":
		return RoleTeacher, true
	case "student":
		return RoleStudent, true
	case "dept_head", "department-head", "department_head", "depthead":
		return RoleDeptHead, true
	default:
		return Role(s), false
	}
}

// Known reports whether r is one of the declared roles.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleDeptHead:
		return true
	default:
		return false
	}
}

// Collection returns the directory collection holding records for r.
// Department heads are teacher records flagged as heads.
func (r Role) Collection() Collection {
	switch r {
	case RoleAdmin:
		return CollectionAdmins
	case RoleTeacher, RoleDeptHead:
		return CollectionTeachers
	case RoleStudent:
		return CollectionStudents
	default:
		return ""
	}
}

func (r Role) String() string { return string(r) }

// Collection names a per-role table in the directory.
type Collection string

const (
	CollectionAdmins   Collection = "admins"
	CollectionTeachers Collection = "teachers"
	CollectionStudents Collection = "students"
)

// EmailScanOrder is the order collections are searched when a reset is
// requested by email alone.
var EmailScanOrder = []Role{RoleAdmin, RoleTeacher, RoleStudent}
