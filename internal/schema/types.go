package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Family identifies a database family the project is modelled for
type Family string

const (
	MongoDB    Family = "MongoDB"
	MySQL      Family = "MySQL"
	PostgreSQL Family = "PostgreSQL"
)

// Families lists the supported families in display order
var Families = []Family{MongoDB, MySQL, PostgreSQL}

// ParseFamily matches a family name case-insensitively, accepting the usual short forms
func ParseFamily(s string) (Family, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mongodb", "mongo":
		return MongoDB, true
	case "mysql", "sqlite":
		return MySQL, true
	case "postgresql", "postgres", "pg":
		return PostgreSQL, true
	}
	return "", false
}

// Project is the complete IR: every database with its entities and edges
type Project struct {
	Databases        []Database `json:"databases"`
	ActiveDatabaseID string     `json:"activeDatabaseId"`
	Collections      []*Entity  `json:"collections"`
	Edges            []Edge     `json:"edges"`
}

// Database groups entities and edges
type Database struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Position is the canvas location of an entity
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Entity represents a table or a collection
type Entity struct {
	ID         string     `json:"id"`
	DatabaseID string     `json:"databaseId"`
	Type       string     `json:"type,omitempty"`
	Position   Position   `json:"position"`
	Data       EntityData `json:"data"`
}

// EntityData holds the user-editable part of an entity. Everything except
// Label and Fields is a document-model schema option.
type EntityData struct {
	Label  string   `json:"label"`
	Fields []*Field `json:"fields"`

	TimestampsEnabled bool   `json:"timestampsEnabled,omitempty"`
	CreatedAtName     string `json:"createdAtName,omitempty"`
	UpdatedAtName     string `json:"updatedAtName,omitempty"`

	SchemaCollectionName            string `json:"schemaCollectionName,omitempty"`
	SchemaStrictMode                Mode   `json:"schemaStrictMode,omitempty"`
	SchemaStrictQueryMode           Mode   `json:"schemaStrictQueryMode,omitempty"`
	SchemaAutoIndexMode             Mode   `json:"schemaAutoIndexMode,omitempty"`
	SchemaAutoCreateMode            Mode   `json:"schemaAutoCreateMode,omitempty"`
	SchemaIDVirtualMode             Mode   `json:"schemaIdVirtualMode,omitempty"`
	SchemaUnderscoreIDMode          Mode   `json:"schemaUnderscoreIdMode,omitempty"`
	SchemaMinimizeMode              Mode   `json:"schemaMinimizeMode,omitempty"`
	SchemaSkipVersioningMode        Mode   `json:"schemaSkipVersioningMode,omitempty"`
	SchemaOptimisticConcurrencyMode Mode   `json:"schemaOptimisticConcurrencyMode,omitempty"`
	SchemaVersionKeyMode            string `json:"schemaVersionKeyMode,omitempty"`
	SchemaVersionKeyName            string `json:"schemaVersionKeyName,omitempty"`

	SchemaCappedEnabled         bool    `json:"schemaCappedEnabled,omitempty"`
	SchemaCappedSize            Numeric `json:"schemaCappedSize,omitempty"`
	SchemaCappedMax             Numeric `json:"schemaCappedMax,omitempty"`
	SchemaCappedAutoIndexIDMode Mode    `json:"schemaCappedAutoIndexIdMode,omitempty"`

	SchemaReadPreference       string  `json:"schemaReadPreference,omitempty"`
	SchemaWriteConcernW        string  `json:"schemaWriteConcernW,omitempty"`
	SchemaWriteConcernJMode    Mode    `json:"schemaWriteConcernJMode,omitempty"`
	SchemaWriteConcernWtimeout Numeric `json:"schemaWriteConcernWtimeout,omitempty"`

	SchemaCollationLocale              string  `json:"schemaCollationLocale,omitempty"`
	SchemaCollationStrength            Numeric `json:"schemaCollationStrength,omitempty"`
	SchemaCollationCaseLevelMode       Mode    `json:"schemaCollationCaseLevelMode,omitempty"`
	SchemaCollationCaseFirst           string  `json:"schemaCollationCaseFirst,omitempty"`
	SchemaCollationNumericOrderingMode Mode    `json:"schemaCollationNumericOrderingMode,omitempty"`
}

// Field represents a column or a document attribute. Children are only
// meaningful for document shapes (nested objects and arrays of subdocuments).
type Field struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Children []*Field `json:"children,omitempty"`

	Key           bool     `json:"key,omitempty"`
	PrimaryKey    bool     `json:"primaryKey,omitempty"`
	AutoIncrement bool     `json:"autoIncrement,omitempty"`
	Nullable      bool     `json:"nullable,omitempty"`
	Required      bool     `json:"required,omitempty"`
	Unique        bool     `json:"unique,omitempty"`
	Index         bool     `json:"index,omitempty"`
	Unsigned      bool     `json:"unsigned,omitempty"`
	TypeParams    string   `json:"typeParams,omitempty"`
	DefaultValue  any      `json:"defaultValue,omitempty"`
	EnumValues    []string `json:"enumValues,omitempty"`

	// document-model options
	Ref                string  `json:"ref,omitempty"`
	Sparse             bool    `json:"sparse,omitempty"`
	Immutable          bool    `json:"immutable,omitempty"`
	Alias              string  `json:"alias,omitempty"`
	SelectMode         Mode    `json:"selectMode,omitempty"`
	Trim               bool    `json:"trim,omitempty"`
	Lowercase          bool    `json:"lowercase,omitempty"`
	Uppercase          bool    `json:"uppercase,omitempty"`
	MinLength          Numeric `json:"minLength,omitempty"`
	MaxLength          Numeric `json:"maxLength,omitempty"`
	MatchPattern       string  `json:"matchPattern,omitempty"`
	MatchFlags         string  `json:"matchFlags,omitempty"`
	DefaultString      string  `json:"defaultString,omitempty"`
	Min                Numeric `json:"min,omitempty"`
	Max                Numeric `json:"max,omitempty"`
	DefaultNumber      Numeric `json:"defaultNumber,omitempty"`
	DefaultBooleanMode Mode    `json:"defaultBooleanMode,omitempty"`
	DefaultDateMode    string  `json:"defaultDateMode,omitempty"`
	DefaultDateValue   string  `json:"defaultDateValue,omitempty"`
	MinDate            string  `json:"minDate,omitempty"`
	MaxDate            string  `json:"maxDate,omitempty"`
	ExpiresSeconds     Numeric `json:"expiresSeconds,omitempty"`
	DefaultObjectID    string  `json:"defaultObjectId,omitempty"`
	MapOfType          string  `json:"mapOfType,omitempty"`
	ArrayOfType        string  `json:"arrayOfType,omitempty"`

	// relational options
	ForeignKey          bool   `json:"foreignKey,omitempty"`
	ReferencesTable     string `json:"referencesTable,omitempty"`
	ReferencesColumn    string `json:"referencesColumn,omitempty"`
	ReferencesColumnID  string `json:"referencesColumnId,omitempty"`
	FKConstraintName    string `json:"fkConstraintName,omitempty"`
	OnDelete            string `json:"onDelete,omitempty"`
	OnUpdate            string `json:"onUpdate,omitempty"`
	CheckExpression     string `json:"checkExpression,omitempty"`
	CheckConstraintName string `json:"checkConstraintName,omitempty"`
	IndexName           string `json:"indexName,omitempty"`
}

// IsPrimary reports whether the field is a primary key. The document-model
// key field counts as one.
func (f *Field) IsPrimary() bool {
	return f.PrimaryKey || f.Key
}

// HasDefault reports whether DefaultValue carries a usable value
func (f *Field) HasDefault() bool {
	switch v := f.DefaultValue.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	}
	return true
}

// Edge is a visual relation between two entity fields
type Edge struct {
	ID           string            `json:"id"`
	DatabaseID   string            `json:"databaseId"`
	Source       string            `json:"source"`
	Target       string            `json:"target"`
	SourceHandle string            `json:"sourceHandle,omitempty"`
	TargetHandle string            `json:"targetHandle,omitempty"`
	Animated     bool              `json:"animated,omitempty"`
	Style        map[string]string `json:"style,omitempty"`
}

// Mode is a tri-state option: "true", "false", unset, or a
// family-specific keyword such as "throw".
type Mode string

// UnmarshalJSON accepts both booleans and strings
func (m *Mode) UnmarshalJSON(b []byte) error {
	switch s := strings.TrimSpace(string(b)); s {
	case "true", "false":
		*m = Mode(s)
		return nil
	case "null":
		*m = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid mode %s: %w", b, err)
	}
	*m = Mode(s)
	return nil
}

// Bool returns the boolean value and whether the mode is set to one
func (m Mode) Bool() (bool, bool) {
	switch m {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Numeric is an optional number that may arrive as a JSON number or a numeric string
type Numeric string

// UnmarshalJSON accepts numbers, strings and null
func (n *Numeric) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("invalid number %s: %w", b, err)
		}
		*n = Numeric(strings.TrimSpace(str))
		return nil
	}
	*n = Numeric(s)
	return nil
}

// MarshalJSON writes parseable values as JSON numbers
func (n Numeric) MarshalJSON() ([]byte, error) {
	if _, ok := n.Float(); ok {
		return []byte(strings.TrimSpace(string(n))), nil
	}
	return json.Marshal(string(n))
}

// Float returns the parsed value; false when unset or not a finite number
func (n Numeric) Float() (float64, bool) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ItemType is the kind of the selected item
type ItemType string

const (
	ItemCollection ItemType = "collection"
	ItemField      ItemType = "field"
	ItemEdge       ItemType = "edge"
)

// Selection is the UI selection state; it is not part of history snapshots
type Selection struct {
	ItemID       string   `json:"selectedItemId,omitempty"`
	ItemType     ItemType `json:"selectedItemType,omitempty"`
	CollectionID string   `json:"selectedCollectionId,omitempty"`
	Selected     []string `json:"selectedCollections,omitempty"`
}

// Workspace is the persisted state: the project plus selection and clipboard
type Workspace struct {
	Project
	Selection
	Clipboard *Entity `json:"clipboard,omitempty"`
}

// DocumentVersion is the version written by project exports
const DocumentVersion = 1

// Document is the export/import file format
type Document struct {
	Version    int    `json:"version"`
	ExportedAt string `json:"exportedAt,omitempty"`
	Project
}
