package constants

import "fmt"

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Template pesan error role
const (
	ErrOnlyTeachersCanAccess = "Only teachers can access %s"
	ErrOnlyStudentsCanAccess = "Only students can access %s"
)

func RoleErrorTeacher(feature string) string {
	return fmt.Sprintf(ErrOnlyTeachersCanAccess, feature)
}

func RoleErrorStudent(feature string) string {
	return fmt.Sprintf(ErrOnlyStudentsCanAccess, feature)
}

var (
	AllRoles    = []string{RoleTeacher, RoleStudent}
	TeacherOnly = []string{RoleTeacher}
	StudentOnly = []string{RoleStudent}
)

// IsValidRole: role yang boleh dipilih saat register.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
