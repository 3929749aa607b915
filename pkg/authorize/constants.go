package authorize

type Action string
type Resource string
type Role string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// Verification workflow
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"

	// Account moderation
	ActionBlock Action = "block"

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionApprove: {}, ActionReject: {}, ActionBlock: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceSession       Resource = "session"
	ResourceDoctor        Resource = "doctor"
	ResourceDoctorProfile Resource = "doctor_profile"
	ResourcePatient       Resource = "patient"
	ResourceAppointment   Resource = "appointment"
	ResourcePrescription  Resource = "prescription"
	ResourceDashboard     Resource = "dashboard"
)

var KnownResources = map[Resource]struct{}{
	ResourceSession: {}, ResourceDoctor: {}, ResourceDoctorProfile: {}, ResourcePatient: {},
	ResourceAppointment: {}, ResourcePrescription: {}, ResourceDashboard: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Policy subjects. Account roles map onto them with RoleFor.

const (
	RoleAdmin   Role = "role:admin"
	RoleDoctor  Role = "role:doctor"
	RolePatient Role = "role:patient"
)

var KnownRoles = map[Role]struct{}{
	RoleAdmin:   {},
	RoleDoctor:  {},
	RolePatient: {},
}

// RoleFor maps an account role ("admin", "doctor", "patient") to its policy subject.
func RoleFor(accountRole string) Role {
	return Role("role:" + accountRole)
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// Permission rows: p, role, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}

// casbinModel: allow unless an explicit deny matches.
const casbinModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act, eft

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = (r.sub == p.sub || g(r.sub, p.sub)) && (p.obj == "*" || p.obj == r.obj) && (p.act == "*" || p.act == r.act)
`
