package importers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/courserecords/internal/entities"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts the string fields of an adapter record into the native
// values the store persists, following entities.KindOf. Values that are
// already native pass through, and empty strings are dropped. Every field
// that fails to convert is reported in the joined error.
func Coerce(rec entities.Record) (entities.Record, error) {
	out := make(entities.Record, len(rec))
	var errs []error

	for field, value := range rec {
		s, ok := value.(string)
		if !ok {
			out[field] = value
			continue
		}
		kind := entities.KindOf(field)
		s = strings.TrimSpace(s)
		if s == "" && kind != entities.KindString {
			continue
		}

		v, err := coerceString(kind, s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			continue
		}
		out[field] = v
	}

	return out, errors.Join(errs...)
}

func coerceString(kind entities.FieldKind, s string) (any, error) {
	switch kind {
	case entities.KindBool:
		return parseBool(s)
	case entities.KindInt:
		return parseInt(s)
	case entities.KindDate:
		return parseTime(s, dateLayouts)
	case entities.KindDateTime:
		return parseTime(s, dateTimeLayouts)
	case entities.KindJSON:
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("invalid JSON")
		}
		return v, nil
	default:
		return s, nil
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes", "y":
		return true, nil
	case "false", "f", "0", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// parseInt accepts integral decimals such as "3.0", which spreadsheets produce.
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}

func parseTime(s string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
