package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		raw  string
		want ColumnType
	}{
		{raw: "varchar(120)", want: ColumnType{Type: "VARCHAR", Params: "120"}},
		{raw: "character varying(64)", want: ColumnType{Type: "VARCHAR", Params: "64"}},
		{raw: "decimal(10, 2)", want: ColumnType{Type: "DECIMAL", Params: "10,2"}},
		{raw: "int(10) unsigned", want: ColumnType{Type: "INT", Unsigned: true}},
		{raw: "bigint(20) unsigned zerofill", want: ColumnType{Type: "BIGINT", Unsigned: true}},
		{raw: "tinyint(1)", want: ColumnType{Type: "BOOLEAN"}},
		{raw: "tinyint(4)", want: ColumnType{Type: "TINYINT"}},
		{raw: "enum('active','it''s')", want: ColumnType{Type: "ENUM", EnumValues: []string{"active", "it's"}}},
		{raw: "timestamptz", want: ColumnType{Type: "TIMESTAMP"}},
		{raw: "timestamp(6) with time zone", want: ColumnType{Type: "TIMESTAMP"}},
		{raw: "double precision", want: ColumnType{Type: "DOUBLE PRECISION"}},
		{raw: "integer[]", want: ColumnType{Type: "ARRAY"}},
		{raw: "INTEGER", want: ColumnType{Type: "INT"}},
		{raw: "", want: ColumnType{Type: "TEXT"}},
		{raw: "geometry", want: ColumnType{Type: "GEOMETRY"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseColumnType(tt.raw))
		})
	}
}

func TestParseDefault(t *testing.T) {
	str := func(s string) *string { return &s }
	tests := []struct {
		name   string
		raw    *string
		want   any
		serial bool
	}{
		{name: "absent", raw: nil},
		{name: "null", raw: str("NULL")},
		{name: "typed null", raw: str("NULL::character varying")},
		{name: "sequence", raw: str("nextval('users_id_seq'::regclass)"), serial: true},
		{name: "cast string", raw: str("'draft'::character varying"), want: "draft"},
		{name: "quoted", raw: str("'it''s'"), want: "it's"},
		{name: "bare string", raw: str("active"), want: "active"},
		{name: "number", raw: str("0"), want: "0"},
		{name: "parenthesized", raw: str("(42)"), want: "42"},
		{name: "boolean", raw: str("true"), want: true},
		{name: "now", raw: str("now()"), want: "CURRENT_TIMESTAMP"},
		{name: "current timestamp", raw: str("CURRENT_TIMESTAMP"), want: "CURRENT_TIMESTAMP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, serial := ParseDefault(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.serial, serial)
		})
	}
}
