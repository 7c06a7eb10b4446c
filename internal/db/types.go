package db

import (
	"regexp"
	"strings"
)

// ColumnType is a raw database type split into the IR type vocabulary
type ColumnType struct {
	Type       string
	Params     string
	Unsigned   bool
	EnumValues []string
}

// canonicalTypes maps lower-cased base type names of every supported
// database onto the relational field types
var canonicalTypes = map[string]string{
	"int": "INT", "integer": "INT", "int4": "INT", "mediumint": "INT",
	"bigint": "BIGINT", "int8": "BIGINT",
	"smallint": "SMALLINT", "int2": "SMALLINT",
	"tinyint": "TINYINT",
	"serial": "SERIAL", "serial4": "SERIAL", "bigserial": "BIGSERIAL", "serial8": "BIGSERIAL",
	"decimal": "DECIMAL", "numeric": "NUMERIC",
	"float": "FLOAT", "real": "REAL", "float4": "REAL",
	"double": "DOUBLE", "double precision": "DOUBLE PRECISION", "float8": "DOUBLE PRECISION",
	"varchar": "VARCHAR", "character varying": "VARCHAR", "nvarchar": "VARCHAR",
	"char": "CHAR", "character": "CHAR", "bpchar": "CHAR", "nchar": "CHAR",
	"text": "TEXT", "tinytext": "TEXT", "mediumtext": "TEXT", "clob": "TEXT", "citext": "TEXT",
	"longtext": "LONGTEXT",
	"boolean": "BOOLEAN", "bool": "BOOLEAN", "bit": "BOOLEAN",
	"date": "DATE", "datetime": "DATETIME",
	"timestamp": "TIMESTAMP", "timestamptz": "TIMESTAMP",
	"timestamp with time zone": "TIMESTAMP", "timestamp without time zone": "TIMESTAMP",
	"time": "TIME", "timetz": "TIME", "time with time zone": "TIME", "time without time zone": "TIME",
	"year": "YEAR", "interval": "INTERVAL",
	"json": "JSON", "jsonb": "JSONB", "uuid": "UUID", "xml": "XML",
	"blob": "BLOB", "tinyblob": "BLOB", "mediumblob": "BLOB", "longblob": "BLOB",
	"binary": "BLOB", "varbinary": "BLOB",
	"bytea": "BYTEA",
	"enum": "ENUM", "set": "ENUM",
}

// types whose parameters carry meaning; integer display widths are dropped
var parameterized = map[string]bool{
	"VARCHAR": true, "CHAR": true, "DECIMAL": true, "NUMERIC": true,
}

// ParseColumnType splits a reported type such as "varchar(120)",
// "int(10) unsigned" or "enum('a','b')". Empty types (SQLite allows them)
// become TEXT, arrays become ARRAY and unknown types are kept upper-cased.
func ParseColumnType(raw string) ColumnType {
	s := strings.ToLower(strings.TrimSpace(raw))
	var ct ColumnType
	if s == "" {
		ct.Type = "TEXT"
		return ct
	}
	if strings.HasSuffix(s, "[]") || s == "array" {
		ct.Type = "ARRAY"
		return ct
	}

	for _, mod := range []string{" zerofill", " unsigned"} {
		if strings.Contains(s, mod) {
			ct.Unsigned = ct.Unsigned || mod == " unsigned"
			s = strings.ReplaceAll(s, mod, "")
		}
	}

	base, params := s, ""
	if open := strings.IndexByte(s, '('); open >= 0 {
		if end := strings.LastIndexByte(s, ')'); end > open {
			base = strings.TrimSpace(s[:open])
			params = strings.TrimSpace(raw[strings.IndexByte(raw, '(')+1 : strings.LastIndexByte(raw, ')')])
			base = strings.TrimSpace(base + " " + strings.TrimSpace(s[end+1:]))
		}
	}

	typ, ok := canonicalTypes[base]
	if !ok {
		typ = strings.ToUpper(base)
	}
	ct.Type = typ

	switch {
	case typ == "ENUM":
		ct.EnumValues = parseEnumList(params)
	case typ == "TINYINT" && params == "1":
		ct.Type = "BOOLEAN"
	case parameterized[typ]:
		ct.Params = strings.ReplaceAll(params, " ", "")
	}
	return ct
}

// parseEnumList parses the quoted list of a MySQL enum or set type
func parseEnumList(list string) []string {
	var values []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(list); i++ {
		c := list[i]
		switch {
		case c == '\'' && inQuote && i+1 < len(list) && list[i+1] == '\'':
			cur.WriteByte('\'')
			i++
		case c == '\'':
			inQuote = !inQuote
		case c == ',' && !inQuote:
			values = append(values, cur.String())
			cur.Reset()
		case inQuote:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 || len(values) > 0 {
		values = append(values, cur.String())
	}
	return values
}

var (
	castSuffix   = regexp.MustCompile(`::[a-z_ ]+(\[\])?(\(\d+(,\s*\d+)?\))?$`)
	nowFunctions = map[string]bool{
		"current_timestamp": true, "current_timestamp()": true, "now()": true,
		"localtimestamp": true, "localtimestamp()": true, "getdate()": true,
	}
)

// ParseDefault converts a reported column default into an IR default value.
// The second result reports a sequence-backed default (PostgreSQL serial
// columns), which is not a default in the IR.
func ParseDefault(raw *string) (any, bool) {
	if raw == nil {
		return nil, false
	}
	s := strings.TrimSpace(*raw)
	lower := strings.ToLower(s)
	switch {
	case s == "" || lower == "null" || strings.HasPrefix(lower, "null::"):
		return nil, false
	case strings.HasPrefix(lower, "nextval("):
		return nil, true
	}

	s = castSuffix.ReplaceAllString(s, "")
	for len(s) > 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	lower = strings.ToLower(s)

	switch {
	case nowFunctions[lower]:
		return "CURRENT_TIMESTAMP", false
	case lower == "true" || lower == "false":
		return lower == "true", false
	case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), false
	}
	return s, false
}
