// Package generator renders the schema IR as code for each supported target.
//
// Every generator is a pure function of its Request: it writes a complete
// document or nothing at all (for an empty entity list), and malformed or
// missing optional attributes are omitted rather than reported.
package generator

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

// Target names one output dialect
type Target string

const (
	TargetSQL       Target = "sql"
	TargetMongoose  Target = "mongoose"
	TargetPrisma    Target = "prisma"
	TargetTypeORM   Target = "typeorm"
	TargetSequelize Target = "sequelize"
	TargetLaravel   Target = "laravel"
	TargetGORM      Target = "gorm"
	TargetText      Target = "text"
	TargetMarkdown  Target = "markdown"
)

// SequelizeMode selects how Sequelize models are laid out
type SequelizeMode string

const (
	// SequelizeInit renders one init function defining every model
	SequelizeInit SequelizeMode = "init"
	// SequelizePerModel renders one module per model plus an index module
	SequelizePerModel SequelizeMode = "per_model"
)

// Options carries target-specific settings
type Options struct {
	SequelizeMode SequelizeMode
	// Timestamp dates Laravel migration file names; zero means the Unix epoch
	Timestamp time.Time
	// Package is the Go package name of GORM output, "models" when empty
	Package string
}

// Request is the input of every generator
type Request struct {
	Family schema.Family
	// Entities are emitted in this order
	Entities []*schema.Entity
	// Catalog resolves relations; it may cover more entities than are emitted.
	// When nil it is built from Entities.
	Catalog *relation.Catalog
	Options Options
}

func (r *Request) catalog() *relation.Catalog {
	if r.Catalog == nil {
		r.Catalog = relation.NewCatalog(r.Entities)
	}
	return r.Catalog
}

// entries returns the catalog entries of the emitted entities in emission order
func (r *Request) entries() []*relation.Entry {
	c := r.catalog()
	out := make([]*relation.Entry, 0, len(r.Entities))
	for _, e := range r.Entities {
		if e == nil {
			continue
		}
		if entry := c.EntryFor(e); entry != nil {
			out = append(out, entry)
		}
	}
	return out
}

// emitted reports whether the entry is part of the emitted set
func (r *Request) emitted(entry *relation.Entry) bool {
	for _, e := range r.Entities {
		if e == entry.Entity {
			return true
		}
	}
	return false
}

// Generator writes one target's rendering of a request
type Generator interface {
	Generate(req *Request) error
}

var factories = map[Target]func(w io.Writer) Generator{
	TargetSQL:       func(w io.Writer) Generator { return NewSQLGenerator(w) },
	TargetMongoose:  func(w io.Writer) Generator { return NewMongooseGenerator(w) },
	TargetPrisma:    func(w io.Writer) Generator { return NewPrismaGenerator(w) },
	TargetTypeORM:   func(w io.Writer) Generator { return NewTypeORMGenerator(w) },
	TargetSequelize: func(w io.Writer) Generator { return NewSequelizeGenerator(w) },
	TargetLaravel:   func(w io.Writer) Generator { return NewLaravelGenerator(w) },
	TargetGORM:      func(w io.Writer) Generator { return NewGORMGenerator(w) },
	TargetText:      func(w io.Writer) Generator { return NewTextGenerator(w) },
	TargetMarkdown:  func(w io.Writer) Generator { return NewMarkdownGenerator(w) },
}

// Targets lists every known target in a stable order
func Targets() []Target {
	return []Target{
		TargetSQL, TargetMongoose, TargetPrisma, TargetTypeORM, TargetSequelize,
		TargetLaravel, TargetGORM, TargetText, TargetMarkdown,
	}
}

// ParseTarget matches a target name case-insensitively
func ParseTarget(s string) (Target, bool) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	_, ok := factories[t]
	return t, ok
}

// New returns the generator for target writing to w
func New(target Target, w io.Writer) (Generator, error) {
	factory, ok := factories[target]
	if !ok {
		return nil, fmt.Errorf("unknown target: %s", target)
	}
	return factory(w), nil
}

// Generate renders req for target. The only error is an unknown target.
func Generate(target Target, req Request) (string, error) {
	var b strings.Builder
	g, err := New(target, &b)
	if err != nil {
		return "", err
	}
	if len(req.Entities) == 0 {
		return "", nil
	}
	if err := g.Generate(&req); err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", target, err)
	}
	return b.String(), nil
}
