package generator

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tordrt/schemagen/internal/schema"
)

type defaultKind int

const (
	defaultNone defaultKind = iota
	defaultNow
	defaultNumber
	defaultBool
	defaultString
)

// defaultValue is a classified field default. Text holds the literal as the
// user wrote it (trimmed) for strings and sentinels, and the canonical form
// for numbers and booleans.
type defaultValue struct {
	Kind defaultKind
	Text string
	Bool bool
}

// classifyDefault sorts a raw default into now-sentinel, number, boolean or
// string, checked in that order.
func classifyDefault(v any) defaultValue {
	switch val := v.(type) {
	case nil:
		return defaultValue{}
	case bool:
		return defaultValue{Kind: defaultBool, Text: strconv.FormatBool(val), Bool: val}
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return defaultValue{}
		}
		return defaultValue{Kind: defaultNumber, Text: strconv.FormatFloat(val, 'f', -1, 64)}
	case int:
		return defaultValue{Kind: defaultNumber, Text: strconv.Itoa(val)}
	case int64:
		return defaultValue{Kind: defaultNumber, Text: strconv.FormatInt(val, 10)}
	case json.Number:
		return classifyDefault(string(val))
	}

	raw := strings.TrimSpace(toString(v))
	if raw == "" {
		return defaultValue{}
	}
	switch strings.ToLower(raw) {
	case "current_timestamp", "now()", "now":
		return defaultValue{Kind: defaultNow, Text: raw}
	}
	if isNumber(raw) {
		return defaultValue{Kind: defaultNumber, Text: raw}
	}
	switch strings.ToLower(raw) {
	case "true":
		return defaultValue{Kind: defaultBool, Text: "true", Bool: true}
	case "false":
		return defaultValue{Kind: defaultBool, Text: "false"}
	}
	return defaultValue{Kind: defaultString, Text: raw}
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// isNumber reports whether s is a finite decimal number literal
func isNumber(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	// ParseFloat also takes hex floats and underscores, which no target does
	for _, r := range s {
		if !strings.ContainsRune("0123456789+-.eE", r) {
			return false
		}
	}
	return true
}

// jsString quotes s as a JavaScript/JSON double-quoted string literal
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// singleQuoted quotes s with single quotes, escaping quotes with a backslash
func singleQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// sqlString quotes s as a SQL string literal
func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// number formats a Numeric for code, false when unset or not a number
func number(n schema.Numeric) (string, bool) {
	f, ok := n.Float()
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// upperType returns the field type upper-cased and trimmed
func upperType(f *schema.Field) string {
	return strings.ToUpper(strings.TrimSpace(f.Type))
}

// typeParams splits "10, 2" into its integer parts; unparsable parts are -1
func typeParams(f *schema.Field) []int {
	raw := strings.TrimSpace(f.TypeParams)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			n = -1
		}
		out[i] = n
	}
	return out
}

// length returns the first positive type parameter or def
func length(f *schema.Field, def int) int {
	if p := typeParams(f); len(p) > 0 && p[0] > 0 {
		return p[0]
	}
	return def
}

// precisionScale returns the DECIMAL parameters; -1 marks a missing part
func precisionScale(f *schema.Field) (int, int) {
	p := typeParams(f)
	precision, scale := -1, -1
	if len(p) > 0 && p[0] > 0 {
		precision = p[0]
	}
	if len(p) > 1 && p[1] >= 0 {
		scale = p[1]
	}
	return precision, scale
}

// enumValues returns the trimmed, non-empty enum values of a field
func enumValues(f *schema.Field) []string {
	var out []string
	for _, v := range f.EnumValues {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func indent(level int) string {
	return strings.Repeat("  ", level)
}
