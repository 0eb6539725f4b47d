package adapters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mrlokans/courserecords/internal/entities"
)

// Flat course-record fields produced by the document and spreadsheet adapters.
// One flat record describes one section of one course taught in one term.
const (
	FieldCourseNumber    = "course_number"
	FieldCourseTitle     = "course_title"
	FieldDepartment      = "department"
	FieldCreditHours     = "credit_hours"
	FieldTermName        = "term_name"
	FieldSectionNumber   = "section_number"
	FieldInstructorName  = "instructor_name"
	FieldInstructorEmail = "instructor_email"
	FieldEnrollment      = "enrollment"
	FieldStatus          = "status"
	FieldGrades          = "grades"
)

// DefaultSectionNumber is used when a source does not name the section.
const DefaultSectionNumber = "001"

var idNamespace = uuid.MustParse("8d4b6c52-3f0e-4c55-9a43-2d1f0e7b9a11")

// StableID derives a deterministic record id from an entity type and its
// natural key, so that parsing the same file twice yields the same ids.
func StableID(entity string, key ...string) string {
	name := entity + "|" + strings.Join(key, "|")
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

type offeringAccumulator struct {
	rec        entities.Record
	enrollment int
	sections   int
}

// NormalizeCourseRecords decomposes flat course records into canonical
// courses, terms, users, course_offerings and course_sections, adding them
// to result. Records without a course number are skipped with a warning.
func NormalizeCourseRecords(source string, flat []entities.Record, opts Options, result *ParseResult) {
	inst := opts.InstitutionID
	seen := make(map[string]bool)
	offerings := make(map[string]*offeringAccumulator)
	var offeringOrder []string

	addOnce := func(entity, id string, rec entities.Record) {
		key := entity + "|" + id
		if seen[key] {
			return
		}
		seen[key] = true
		result.Add(entity, rec)
	}

	for i, row := range flat {
		number := strings.TrimSpace(row.String(FieldCourseNumber))
		if number == "" {
			result.Warn(Warning{Entity: source, Line: i + 1, Message: "record has no course number, skipped"})
			continue
		}

		courseID := StableID(entities.EntityCourses, inst, number)
		course := scoped(entities.Record{
			"id":            courseID,
			"course_number": number,
		}, inst)
		copyNonEmpty(row, course, FieldCourseTitle, FieldDepartment, FieldCreditHours)
		addOnce(entities.EntityCourses, courseID, course)

		termName := strings.TrimSpace(row.String(FieldTermName))
		if termName == "" {
			result.Warn(Warning{Entity: source, Line: i + 1, Field: FieldTermName,
				Message: fmt.Sprintf("course %s has no term; offering and section not created", number)})
			continue
		}
		termID := StableID(entities.EntityTerms, inst, termName)
		addOnce(entities.EntityTerms, termID, scoped(entities.Record{
			"id":        termID,
			"term_name": termName,
		}, inst))

		instructorID := ""
		if email := strings.ToLower(strings.TrimSpace(row.String(FieldInstructorEmail))); email != "" {
			instructorID = StableID(entities.EntityUsers, inst, email)
			user := scoped(entities.Record{
				"id":    instructorID,
				"email": email,
				"role":  entities.RoleInstructor,
			}, inst)
			if name := strings.TrimSpace(row.String(FieldInstructorName)); name != "" {
				first, last := SplitName(name)
				user["display_name"] = name
				user["first_name"] = first
				if last != "" {
					user["last_name"] = last
				}
			}
			addOnce(entities.EntityUsers, instructorID, user)
		} else if row.String(FieldInstructorName) != "" {
			result.Warn(Warning{Entity: source, Line: i + 1, Field: FieldInstructorEmail,
				Message: fmt.Sprintf("instructor %q has no email; section left unassigned", row.String(FieldInstructorName))})
		}

		offeringID := StableID(entities.EntityCourseOfferings, courseID, termID)
		acc, ok := offerings[offeringID]
		if !ok {
			acc = &offeringAccumulator{rec: scoped(entities.Record{
				"id":        offeringID,
				"course_id": courseID,
				"term_id":   termID,
				"status":    "active",
			}, inst)}
			offerings[offeringID] = acc
			offeringOrder = append(offeringOrder, offeringID)
		}

		sectionNumber := strings.TrimSpace(row.String(FieldSectionNumber))
		if sectionNumber == "" {
			sectionNumber = DefaultSectionNumber
		}
		sectionID := StableID(entities.EntityCourseSections, offeringID, sectionNumber)
		if seen[entities.EntityCourseSections+"|"+sectionID] {
			result.Warn(Warning{Entity: source, Line: i + 1, Field: FieldSectionNumber,
				Message: fmt.Sprintf("duplicate section %s for %s in %s, skipped", sectionNumber, number, termName)})
			continue
		}
		section := entities.Record{
			"id":             sectionID,
			"offering_id":    offeringID,
			"section_number": sectionNumber,
		}
		if instructorID != "" {
			section["instructor_id"] = instructorID
			section["status"] = "assigned"
		}
		copyNonEmpty(row, section, FieldEnrollment, FieldStatus)
		if dist := GradeDistributionJSON(row); dist != "" {
			section["grade_distribution"] = dist
		}
		addOnce(entities.EntityCourseSections, sectionID, section)

		acc.sections++
		if n, err := strconv.Atoi(row.String(FieldEnrollment)); err == nil {
			acc.enrollment += n
		}
	}

	for _, id := range offeringOrder {
		acc := offerings[id]
		acc.rec["section_count"] = strconv.Itoa(acc.sections)
		acc.rec["total_enrollment"] = strconv.Itoa(acc.enrollment)
		result.Add(entities.EntityCourseOfferings, acc.rec)
	}
}

// SplitName splits "First Last Name" into first name and the remainder.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// scoped sets institution_id when one is known. Without it the field stays
// absent so the importer can fill or reject it.
func scoped(rec entities.Record, inst string) entities.Record {
	if inst != "" {
		rec["institution_id"] = inst
	}
	return rec
}

func copyNonEmpty(from, to entities.Record, fields ...string) {
	for _, f := range fields {
		if v := strings.TrimSpace(from.String(f)); v != "" {
			to[f] = v
		}
	}
}
