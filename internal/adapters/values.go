package adapters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mrlokans/courserecords/internal/entities"
)

// FormatValue renders a record value as cell text: bools as true/false, times
// in RFC 3339 (dates as YYYY-MM-DD), maps, slices and raw JSON as a JSON string.
func FormatValue(field string, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return formatTime(field, v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return formatTime(field, *v)
	case []byte:
		return string(v)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	if string(data) == "null" {
		return ""
	}
	return string(data)
}

func formatTime(field string, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if entities.KindOf(field) == entities.KindDate {
		return t.Format("2006-01-02")
	}
	return t.UTC().Format(time.RFC3339)
}

// DecodeObject returns a JSON-object-shaped value (a JSON string, raw bytes
// or an already decoded map) as a map. It returns nil for anything else.
func DecodeObject(value any) map[string]any {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		raw = data
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
