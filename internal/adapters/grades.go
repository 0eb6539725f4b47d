package adapters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrlokans/courserecords/internal/entities"
)

// GradeField returns the flat record field holding the count for a letter grade.
func GradeField(letter string) string {
	return "grade_" + strings.ToLower(letter)
}

func isGradeLetter(letter string) bool {
	for _, l := range entities.GradeLetters {
		if l == letter {
			return true
		}
	}
	return false
}

// ParseGrades parses a grades string such as "A=5, B=15, C=8, D=1, F=1" into
// grade_a..grade_f fields. "N/A" and empty input yield no fields. Unknown
// letters and malformed pairs are skipped with a warning; they never discard
// the rest of the string.
func ParseGrades(raw string) (map[string]string, []Warning) {
	fields := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "n/a") {
		return fields, nil
	}

	var warnings []Warning
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			warnings = append(warnings, Warning{Field: "grades", Message: fmt.Sprintf("malformed grade pair %q", pair)})
			continue
		}
		letter := strings.ToUpper(strings.TrimSpace(parts[0]))
		count, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || count < 0 {
			warnings = append(warnings, Warning{Field: "grades", Message: fmt.Sprintf("invalid count in grade pair %q", pair)})
			continue
		}
		if !isGradeLetter(letter) {
			warnings = append(warnings, Warning{Field: "grades", Message: fmt.Sprintf("unknown grade letter %q", letter)})
			continue
		}
		fields[GradeField(letter)] = strconv.Itoa(count)
	}
	return fields, warnings
}

// GradeDistributionJSON builds the serialized letter -> count map from the
// grade_* fields of a flat record. It returns "" when the record has no grades.
func GradeDistributionJSON(rec entities.Record) string {
	dist := make(map[string]int)
	for _, letter := range entities.GradeLetters {
		raw := rec.String(GradeField(letter))
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil {
			dist[letter] = n
		}
	}
	if len(dist) == 0 {
		return ""
	}
	data, _ := json.Marshal(dist)
	return string(data)
}
