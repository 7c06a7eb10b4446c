// Package adapter bundles the per-family defaults and supported targets.
package adapter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/tordrt/schemagen/internal/generator"
	"github.com/tordrt/schemagen/internal/schema"
)

// Terms are the words the UI uses for an entity
type Terms struct {
	Singular      string `json:"singular"`
	Plural        string `json:"plural"`
	SingularLower string `json:"singularLower"`
	PluralLower   string `json:"pluralLower"`
}

// Adapter describes one database family
type Adapter struct {
	family        schema.Family
	language      string
	singular      string
	defaultField  schema.Field
	fieldTypes    []string
	newFieldType  string
	targets       []generator.Target
	defaultTarget generator.Target
}

var adapters = map[schema.Family]*Adapter{
	schema.MongoDB: {
		family:       schema.MongoDB,
		language:     "javascript",
		singular:     "Collection",
		defaultField: schema.Field{Name: "_id", Type: "ObjectId", Key: true},
		fieldTypes: []string{
			"String", "Number", "ObjectId", "Date", "Boolean", "Array", "Object", "Map", "Buffer", "Mixed",
		},
		newFieldType: "String",
		targets: []generator.Target{
			generator.TargetMongoose, generator.TargetPrisma, generator.TargetText, generator.TargetMarkdown,
		},
		defaultTarget: generator.TargetMongoose,
	},
	schema.MySQL: {
		family:       schema.MySQL,
		language:     "sql",
		singular:     "Table",
		defaultField: schema.Field{Name: "id", Type: "INT", PrimaryKey: true, AutoIncrement: true},
		fieldTypes: []string{
			"INT", "BIGINT", "TINYINT", "SMALLINT", "DECIMAL", "FLOAT", "DOUBLE",
			"VARCHAR", "TEXT", "CHAR", "LONGTEXT",
			"DATE", "DATETIME", "TIMESTAMP", "TIME", "YEAR",
			"BOOLEAN", "JSON", "ENUM", "BLOB",
		},
		newFieldType:  "VARCHAR",
		targets:       relationalTargets,
		defaultTarget: generator.TargetSQL,
	},
	schema.PostgreSQL: {
		family:       schema.PostgreSQL,
		language:     "sql",
		singular:     "Table",
		defaultField: schema.Field{Name: "id", Type: "SERIAL", PrimaryKey: true},
		fieldTypes: []string{
			"INT", "BIGINT", "SMALLINT", "DECIMAL", "REAL", "DOUBLE PRECISION", "SERIAL", "BIGSERIAL",
			"VARCHAR", "TEXT", "CHAR",
			"DATE", "TIMESTAMP", "TIME", "INTERVAL",
			"BOOLEAN", "JSON", "JSONB", "UUID", "BYTEA", "XML",
		},
		newFieldType:  "VARCHAR",
		targets:       relationalTargets,
		defaultTarget: generator.TargetSQL,
	},
}

var relationalTargets = []generator.Target{
	generator.TargetSQL, generator.TargetPrisma, generator.TargetTypeORM, generator.TargetSequelize,
	generator.TargetLaravel, generator.TargetGORM, generator.TargetText, generator.TargetMarkdown,
}

// For returns the adapter of a family; unknown families get the MongoDB adapter
func For(family schema.Family) *Adapter {
	if a, ok := adapters[family]; ok {
		return a
	}
	return adapters[schema.MongoDB]
}

// Family is the family the adapter serves
func (a *Adapter) Family() schema.Family { return a.family }

// Language is the highlighting language of the default target
func (a *Adapter) Language() string { return a.language }

// DefaultField returns a fresh copy of the field new entities start with
func (a *Adapter) DefaultField() *schema.Field {
	f := a.defaultField
	return &f
}

// FieldTypes lists the types offered for new fields
func (a *Adapter) FieldTypes() []string {
	return slices.Clone(a.fieldTypes)
}

// DefaultNewFieldType is the type of a freshly added field
func (a *Adapter) DefaultNewFieldType() string { return a.newFieldType }

// EntityTerms returns the singular and plural entity words
func (a *Adapter) EntityTerms() Terms {
	plural := inflect.Pluralize(a.singular)
	return Terms{
		Singular:      a.singular,
		Plural:        plural,
		SingularLower: strings.ToLower(a.singular),
		PluralLower:   strings.ToLower(plural),
	}
}

// NextDefaultEntityName returns the first new_<entity>_<n> not among existing,
// compared case-insensitively after trimming
func (a *Adapter) NextDefaultEntityName(existing []string) string {
	used := make(map[string]bool, len(existing))
	for _, name := range existing {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			used[name] = true
		}
	}
	base := "new_" + a.EntityTerms().SingularLower
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !used[candidate] {
			return candidate
		}
	}
}

// Targets lists the generators the family supports
func (a *Adapter) Targets() []generator.Target {
	return slices.Clone(a.targets)
}

// DefaultTarget is the generator shown first
func (a *Adapter) DefaultTarget() generator.Target { return a.defaultTarget }

// Supports reports whether target is one of the family's generators
func (a *Adapter) Supports(target generator.Target) bool {
	return slices.Contains(a.targets, target)
}

// Generate renders req with the family set to the adapter's
func (a *Adapter) Generate(target generator.Target, req generator.Request) (string, error) {
	if !a.Supports(target) {
		return "", fmt.Errorf("target %s is not supported for %s", target, a.family)
	}
	req.Family = a.family
	return generator.Generate(target, req)
}
