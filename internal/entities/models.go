package entities

import (
	"time"

	"gorm.io/datatypes"
)

// The persisted models below use the canonical field names as JSON tags, which
// is how the store bridges between Record maps and rows.

type Institution struct {
	ID                       string    `gorm:"primaryKey;size:36" json:"id"`
	Name                     string    `gorm:"size:255" json:"name"`
	ShortName                string    `gorm:"uniqueIndex;size:64" json:"short_name"`
	WebsiteURL               string    `gorm:"size:512" json:"website_url,omitempty"`
	AdminEmail               string    `gorm:"size:255" json:"admin_email,omitempty"`
	AllowSelfRegistration    bool      `json:"allow_self_registration"`
	RequireEmailVerification bool      `json:"require_email_verification"`
	IsActive                 bool      `json:"is_active"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

type Program struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"index;size:255" json:"name"`
	ShortName     string    `gorm:"size:64" json:"short_name,omitempty"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	InstitutionID string    `gorm:"index;size:36" json:"institution_id"`
	IsDefault     bool      `json:"is_default"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type User struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Email         string     `gorm:"index;size:255" json:"email"`
	FirstName     string     `gorm:"size:100" json:"first_name,omitempty"`
	LastName      string     `gorm:"size:100" json:"last_name,omitempty"`
	DisplayName   string     `gorm:"size:200" json:"display_name,omitempty"`
	Role          string     `gorm:"size:32" json:"role"`
	InstitutionID string     `gorm:"index;size:36" json:"institution_id"`
	AccountStatus string     `gorm:"size:32;default:'pending'" json:"account_status"`
	InvitedBy     string     `gorm:"size:36" json:"invited_by,omitempty"`
	InvitedAt     *time.Time `json:"invited_at,omitempty"`
	OAuthProvider string     `gorm:"column:oauth_provider;size:50" json:"oauth_provider,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Credential material stays out of every JSON/record representation.
	PasswordHash           string     `gorm:"size:255" json:"-"`
	PasswordResetToken     string     `gorm:"size:128" json:"-"`
	PasswordResetExpires   *time.Time `json:"-"`
	EmailVerificationToken string     `gorm:"size:128" json:"-"`
}

type UserProgram struct {
	UserID    string `gorm:"primaryKey;size:36" json:"user_id"`
	ProgramID string `gorm:"primaryKey;size:36" json:"program_id"`
}

type Course struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	CourseNumber  string    `gorm:"index;size:32" json:"course_number"`
	CourseTitle   string    `gorm:"size:255" json:"course_title"`
	Department    string    `gorm:"size:100" json:"department,omitempty"`
	CreditHours   int       `json:"credit_hours"`
	InstitutionID string    `gorm:"index;size:36" json:"institution_id"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CourseProgram struct {
	CourseID  string `gorm:"primaryKey;size:36" json:"course_id"`
	ProgramID string `gorm:"primaryKey;size:36" json:"program_id"`
}

type Term struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	TermName          string     `gorm:"index;size:100" json:"term_name"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	AssessmentDueDate *time.Time `json:"assessment_due_date,omitempty"`
	Active            bool       `json:"active"`
	InstitutionID     string     `gorm:"index;size:36" json:"institution_id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type CourseOffering struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID        string    `gorm:"index;size:36" json:"course_id"`
	TermID          string    `gorm:"index;size:36" json:"term_id"`
	InstitutionID   string    `gorm:"index;size:36" json:"institution_id"`
	Status          string    `gorm:"size:32" json:"status,omitempty"`
	Capacity        int       `json:"capacity"`
	TotalEnrollment int       `json:"total_enrollment"`
	SectionCount    int       `json:"section_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CourseSection struct {
	ID                string         `gorm:"primaryKey;size:36" json:"id"`
	OfferingID        string         `gorm:"index;size:36" json:"offering_id"`
	InstructorID      string         `gorm:"index;size:36" json:"instructor_id,omitempty"`
	SectionNumber     string         `gorm:"size:16" json:"section_number"`
	Enrollment        int            `json:"enrollment"`
	Status            string         `gorm:"size:32" json:"status,omitempty"`
	GradeDistribution datatypes.JSON `json:"grade_distribution,omitempty"`
	AssignedDate      *time.Time     `json:"assigned_date,omitempty"`
	CompletedDate     *time.Time     `json:"completed_date,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type CourseOutcome struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	CourseID         string         `gorm:"index;size:36" json:"course_id"`
	CLONumber        int            `gorm:"column:clo_number" json:"clo_number"`
	Description      string         `gorm:"type:text" json:"description"`
	AssessmentMethod string         `gorm:"size:255" json:"assessment_method,omitempty"`
	Active           bool           `json:"active"`
	AssessmentData   datatypes.JSON `json:"assessment_data,omitempty"`
	Narrative        string         `gorm:"type:text" json:"narrative,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type UserInvitation struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Email           string     `gorm:"index;size:255" json:"email"`
	Role            string     `gorm:"size:32" json:"role"`
	InstitutionID   string     `gorm:"index;size:36" json:"institution_id"`
	InvitedBy       string     `gorm:"size:36" json:"invited_by,omitempty"`
	Status          string     `gorm:"size:32;default:'pending'" json:"status"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	PersonalMessage string     `gorm:"type:text" json:"personal_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AllModels returns one zero value per persisted model, for migrations.
func AllModels() []any {
	return []any{
		&Institution{},
		&Program{},
		&User{},
		&UserProgram{},
		&Course{},
		&CourseProgram{},
		&Term{},
		&CourseOffering{},
		&CourseSection{},
		&CourseOutcome{},
		&UserInvitation{},
	}
}

// NewModel returns a fresh model pointer for the entity, or nil if unknown.
func NewModel(entity string) any {
	switch entity {
	case EntityInstitutions:
		return &Institution{}
	case EntityPrograms:
		return &Program{}
	case EntityUsers:
		return &User{}
	case EntityUserPrograms:
		return &UserProgram{}
	case EntityCourses:
		return &Course{}
	case EntityCoursePrograms:
		return &CourseProgram{}
	case EntityTerms:
		return &Term{}
	case EntityCourseOfferings:
		return &CourseOffering{}
	case EntityCourseSections:
		return &CourseSection{}
	case EntityCourseOutcomes:
		return &CourseOutcome{}
	case EntityUserInvitations:
		return &UserInvitation{}
	}
	return nil
}

// NewModelSlice returns a pointer to an empty slice of the entity's model, for Find.
func NewModelSlice(entity string) any {
	switch entity {
	case EntityInstitutions:
		return &[]Institution{}
	case EntityPrograms:
		return &[]Program{}
	case EntityUsers:
		return &[]User{}
	case EntityUserPrograms:
		return &[]UserProgram{}
	case EntityCourses:
		return &[]Course{}
	case EntityCoursePrograms:
		return &[]CourseProgram{}
	case EntityTerms:
		return &[]Term{}
	case EntityCourseOfferings:
		return &[]CourseOffering{}
	case EntityCourseSections:
		return &[]CourseSection{}
	case EntityCourseOutcomes:
		return &[]CourseOutcome{}
	case EntityUserInvitations:
		return &[]UserInvitation{}
	}
	return nil
}
