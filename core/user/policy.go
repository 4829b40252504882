package user

// Action names a protected operation checked against the policy table.
type Action string

const (
	ActionAttendanceMark   Action = "attendance:mark"
	ActionAttendanceView   Action = "attendance:view"
	ActionAttendanceUpdate Action = "attendance:update"
	ActionAttendanceDelete Action = "attendance:delete"

	ActionClassroomCreate   Action = "classroom:create"
	ActionClassroomView     Action = "classroom:view"
	ActionClassroomUpdate   Action = "classroom:update"
	ActionClassroomDelete   Action = "classroom:delete"
	ActionClassroomStudents Action = "classroom:students"

	ActionSchoolManage Action = "school:manage"

	ActionUserBlock         Action = "user:block"
	ActionUserDelete        Action = "user:delete"
	ActionUserResetPassword Action = "user:resetpassword"
)

// Scope qualifies how far a role's permission on an action reaches.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeSchool
	ScopeAny
)

func (s Scope) String() string {
	switch s {
	case ScopeOwn:
		return "own"
	case ScopeSchool:
		return "school"
	case ScopeAny:
		return "any"
	}
	return "none"
}

// policy is the single (action, role) -> scope table consulted by all
// services. An absent entry means the action is denied for that role.
var policy = map[Action]map[string]Scope{
	ActionAttendanceMark: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
		RoleTeacher:     ScopeOwn,
	},
	ActionAttendanceView: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
		RoleTeacher:     ScopeOwn,
		RoleStudent:     ScopeOwn,
	},
	ActionAttendanceUpdate: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
		RoleTeacher:     ScopeOwn,
	},
	ActionAttendanceDelete: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
	},
	ActionClassroomCreate: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeAny, // legacy quirk: school admins may create in any school
		RoleTeacher:     ScopeSchool,
	},
	ActionClassroomView: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
		RoleTeacher:     ScopeOwn,
		RoleStudent:     ScopeOwn,
	},
	ActionClassroomUpdate: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
		RoleTeacher:     ScopeOwn,
	},
	ActionClassroomDelete: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
	},
	ActionClassroomStudents: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
		RoleTeacher:     ScopeOwn,
	},
	ActionSchoolManage: {
		RoleSuperadmin: ScopeAny,
	},
	ActionUserBlock: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
	},
	ActionUserDelete: {
		RoleSuperadmin: ScopeAny,
	},
	ActionUserResetPassword: {
		RoleSuperadmin:  ScopeAny,
		RoleSchooladmin: ScopeSchool,
	},
}

// Allowed returns the scope granted to role for action, ScopeNone when denied.
func Allowed(role string, action Action) Scope {
	return policy[action][role]
}

// onboardMatrix lists which roles each creator role may onboard.
var onboardMatrix = map[string][]string{
	RoleSuperadmin:  {RoleSchooladmin, RoleTeacher, RoleStudent},
	RoleSchooladmin: {RoleTeacher, RoleStudent},
	RoleTeacher:     {RoleStudent},
}

// CanOnboard reports whether creatorRole may onboard newRole.
func CanOnboard(creatorRole, newRole string) bool {
	for _, role := range onboardMatrix[creatorRole] {
		if role == newRole {
			return true
		}
	}
	return false
}
