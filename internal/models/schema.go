package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"heartbridge/internal/docstore"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrMalformedDocument marks a stored document that does not match its schema.
var ErrMalformedDocument = errors.New("malformed document")

// SchemaError lists the problems found while decoding one stored document.
type SchemaError struct {
	Collection string
	ID         string
	Problems   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Collection, e.ID, strings.Join(e.Problems, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrMalformedDocument }

// fieldReader pulls typed values out of an untrusted field map and records
// every mismatch instead of stopping at the first one.
type fieldReader struct {
	collection string
	id         string
	fields     docstore.Fields
	problems   []string
	parent     *fieldReader
	prefix     string
}

func newFieldReader(collection string, doc docstore.Document) *fieldReader {
	return &fieldReader{collection: collection, id: doc.ID, fields: doc.Fields}
}

// nested reads an embedded object; its problems are reported on r.
func (r *fieldReader) nested(key string, m map[string]any) *fieldReader {
	return &fieldReader{collection: r.collection, id: r.id, fields: m, parent: r, prefix: key + "."}
}

func (r *fieldReader) fail(key, format string, args ...any) {
	if r.parent != nil {
		r.parent.fail(r.prefix+key, format, args...)
		return
	}
	r.problems = append(r.problems, key+": "+fmt.Sprintf(format, args...))
}

func (r *fieldReader) str(key string, required bool) string {
	v, ok := r.fields[key]
	if !ok || v == nil {
		if required {
			r.fail(key, "missing")
		}
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, "expected string, got %T", v)
	}
	return s
}

func (r *fieldReader) integer(key string) int64 {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return 0
	}
	n, ok := toInt64(v)
	if !ok {
		r.fail(key, "expected integer, got %T", v)
	}
	return n
}

func (r *fieldReader) time(key string, required bool) time.Time {
	v, ok := r.fields[key]
	if !ok || v == nil {
		if required {
			r.fail(key, "missing")
		}
		return time.Time{}
	}
	t, err := toTime(v)
	if err != nil {
		r.fail(key, "%v", err)
	}
	return t
}

func (r *fieldReader) strings(key string) []string {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return nil
	}
	out, err := toStrings(v)
	if err != nil {
		r.fail(key, "%v", err)
	}
	return out
}

func (r *fieldReader) object(key string) (map[string]any, bool) {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return nil, false
	}
	m, ok := toMap(v)
	if !ok {
		r.fail(key, "expected object, got %T", v)
	}
	return m, ok
}

func (r *fieldReader) objects(key string) []map[string]any {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return nil
	}
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []map[string]any:
		for _, m := range t {
			items = append(items, m)
		}
	default:
		r.fail(key, "expected list, got %T", v)
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := toMap(item)
		if !ok {
			r.fail(fmt.Sprintf("%s[%d]", key, i), "expected object, got %T", item)
			continue
		}
		out = append(out, m)
	}
	return out
}

// finish merges read problems with field-rule failures into one error.
func (r *fieldReader) finish(ruleErr error) error {
	problems := r.problems
	if ruleErr != nil {
		problems = append(problems, flattenRuleError(ruleErr)...)
	}
	if len(problems) == 0 {
		return nil
	}
	return &SchemaError{Collection: r.collection, ID: r.id, Problems: problems}
}

func flattenRuleError(err error) []string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return []string{err.Error()}
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+": "+errs[k].Error())
	}
	return out
}

// trimmedRuneLength checks the character count of a string after trimming.
func trimmedRuneLength(min, max int) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		n := utf8.RuneCountInString(strings.TrimSpace(s))
		if n < min || n > max {
			return validation.NewError("validation_length_out_of_range",
				fmt.Sprintf("the length must be between %d and %d", min, max))
		}
		return nil
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case float32:
		if float64(n) != math.Trunc(float64(n)) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, errors.New("nil time")
		}
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", t)
		}
		return parsed.UTC(), nil
	case map[string]any:
		// exported timestamp objects: {"seconds": ..., "nanoseconds": ...}
		sec, okSec := toInt64(t["seconds"])
		nsec, _ := toInt64(t["nanoseconds"])
		if !okSec {
			return time.Time{}, errors.New("timestamp object without seconds")
		}
		return time.Unix(sec, nsec).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("expected timestamp, got %T", v)
}

func toStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("element %d: expected string, got %T", i, e)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected list of strings, got %T", v)
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case docstore.Fields:
		return m, true
	}
	return nil, false
}
