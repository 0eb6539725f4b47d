package entities

// Record is one canonical entity record keyed by canonical field name.
// Adapter parse output only carries string values; records read back from
// the store or handed to an export may carry native values as well.
type Record map[string]any

// String returns the field as a string, or "" when it is absent or not a string.
func (r Record) String(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Entity type names used as keys throughout the import/export subsystem.
const (
	EntityInstitutions    = "institutions"
	EntityPrograms        = "programs"
	EntityUsers           = "users"
	EntityUserPrograms    = "user_programs"
	EntityCourses         = "courses"
	EntityCoursePrograms  = "course_programs"
	EntityTerms           = "terms"
	EntityCourseOfferings = "course_offerings"
	EntityCourseSections  = "course_sections"
	EntityCourseOutcomes  = "course_outcomes"
	EntityUserInvitations = "user_invitations"
)

// EntityOrder lists every entity in dependency order: reading the list top to
// bottom never references a record that has not been defined yet.
var EntityOrder = []string{
	EntityInstitutions,
	EntityPrograms,
	EntityUsers,
	EntityUserPrograms,
	EntityCourses,
	EntityCoursePrograms,
	EntityTerms,
	EntityCourseOfferings,
	EntityCourseSections,
	EntityCourseOutcomes,
	EntityUserInvitations,
}

// CSVColumns is the exported column order for each entity.
// Sensitive fields never appear here.
var CSVColumns = map[string][]string{
	EntityInstitutions: {
		"id", "name", "short_name", "website_url", "admin_email",
		"allow_self_registration", "require_email_verification", "is_active",
		"created_at", "updated_at",
	},
	EntityPrograms: {
		"id", "name", "short_name", "description", "institution_id",
		"is_default", "is_active", "created_at", "updated_at",
	},
	EntityUsers: {
		"id", "email", "first_name", "last_name", "display_name", "role",
		"institution_id", "account_status", "invited_by", "invited_at",
		"oauth_provider", "created_at", "updated_at",
	},
	EntityUserPrograms: {"user_id", "program_id"},
	EntityCourses: {
		"id", "course_number", "course_title", "department", "credit_hours",
		"institution_id", "active", "created_at", "updated_at",
	},
	EntityCoursePrograms: {"course_id", "program_id"},
	EntityTerms: {
		"id", "term_name", "start_date", "end_date", "assessment_due_date",
		"active", "institution_id", "created_at", "updated_at",
	},
	EntityCourseOfferings: {
		"id", "course_id", "term_id", "institution_id", "status", "capacity",
		"total_enrollment", "section_count", "created_at", "updated_at",
	},
	EntityCourseSections: {
		"id", "offering_id", "instructor_id", "section_number", "enrollment",
		"status", "grade_distribution", "assigned_date", "completed_date",
		"created_at", "updated_at",
	},
	EntityCourseOutcomes: {
		"id", "course_id", "clo_number", "description", "assessment_method",
		"active", "assessment_data", "narrative", "created_at", "updated_at",
	},
	EntityUserInvitations: {
		"id", "email", "role", "institution_id", "invited_by", "status",
		"accepted_at", "personal_message", "created_at", "updated_at",
	},
}

// NaturalKeys are the business-meaningful fields used to detect whether an
// incoming record already exists.
var NaturalKeys = map[string][]string{
	EntityInstitutions:    {"short_name"},
	EntityPrograms:        {"name", "institution_id"},
	EntityUsers:           {"email", "institution_id"},
	EntityUserPrograms:    {"user_id", "program_id"},
	EntityCourses:         {"course_number", "institution_id"},
	EntityCoursePrograms:  {"course_id", "program_id"},
	EntityTerms:           {"term_name", "institution_id"},
	EntityCourseOfferings: {"course_id", "term_id"},
	EntityCourseSections:  {"offering_id", "section_number"},
	EntityCourseOutcomes:  {"course_id", "clo_number"},
	EntityUserInvitations: {"email", "institution_id"},
}

// References maps foreign-key fields of each entity to the entity they point at.
var References = map[string]map[string]string{
	EntityPrograms:        {"institution_id": EntityInstitutions},
	EntityUsers:           {"institution_id": EntityInstitutions, "invited_by": EntityUsers},
	EntityUserPrograms:    {"user_id": EntityUsers, "program_id": EntityPrograms},
	EntityCourses:         {"institution_id": EntityInstitutions},
	EntityCoursePrograms:  {"course_id": EntityCourses, "program_id": EntityPrograms},
	EntityTerms:           {"institution_id": EntityInstitutions},
	EntityCourseOfferings: {"course_id": EntityCourses, "term_id": EntityTerms, "institution_id": EntityInstitutions},
	EntityCourseSections:  {"offering_id": EntityCourseOfferings, "instructor_id": EntityUsers},
	EntityCourseOutcomes:  {"course_id": EntityCourses},
	EntityUserInvitations: {"institution_id": EntityInstitutions, "invited_by": EntityUsers},
}

// HasOwnID reports whether records of the entity carry an "id" field.
// Join entities are identified by their natural key only.
func HasOwnID(entity string) bool {
	return entity != EntityUserPrograms && entity != EntityCoursePrograms
}

// SensitiveFields are never exported and are stripped from every incoming record.
var SensitiveFields = []string{
	"password_hash",
	"password_reset_token",
	"password_reset_expires",
	"email_verification_token",
	"api_token",
}

// IsSensitiveField reports whether the field is credential material.
func IsSensitiveField(field string) bool {
	for _, f := range SensitiveFields {
		if f == field {
			return true
		}
	}
	return false
}

// FieldKind describes how a string field is coerced before persistence.
type FieldKind string

const (
	KindString   FieldKind = "string"
	KindBool     FieldKind = "bool"
	KindInt      FieldKind = "int"
	KindDate     FieldKind = "date"
	KindDateTime FieldKind = "datetime"
	KindJSON     FieldKind = "json"
)

var fieldKinds = map[string]FieldKind{
	"allow_self_registration":    KindBool,
	"require_email_verification": KindBool,
	"is_active":                  KindBool,
	"is_default":                 KindBool,
	"active":                     KindBool,
	"credit_hours":               KindInt,
	"capacity":                   KindInt,
	"total_enrollment":           KindInt,
	"section_count":              KindInt,
	"enrollment":                 KindInt,
	"clo_number":                 KindInt,
	"start_date":                 KindDate,
	"end_date":                   KindDate,
	"assessment_due_date":        KindDate,
	"assigned_date":              KindDateTime,
	"completed_date":             KindDateTime,
	"invited_at":                 KindDateTime,
	"accepted_at":                KindDateTime,
	"created_at":                 KindDateTime,
	"updated_at":                 KindDateTime,
	"grade_distribution":         KindJSON,
	"assessment_data":            KindJSON,
}

// KindOf returns the coercion kind of a canonical field. Unknown fields are strings.
func KindOf(field string) FieldKind {
	if k, ok := fieldKinds[field]; ok {
		return k
	}
	return KindString
}

// User roles.
const (
	RoleSiteAdmin        = "site_admin"
	RoleInstitutionAdmin = "institution_admin"
	RoleProgramAdmin     = "program_admin"
	RoleInstructor       = "instructor"
)

// ValidRoles lists every accepted user role.
var ValidRoles = map[string]bool{
	RoleSiteAdmin:        true,
	RoleInstitutionAdmin: true,
	RoleProgramAdmin:     true,
	RoleInstructor:       true,
}

// AccountStatusPending marks users that still have to complete registration.
const AccountStatusPending = "pending"

// GradeLetters are the letters accepted in a grade distribution, in display order.
var GradeLetters = []string{"A", "B", "C", "D", "F"}
