package db

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tordrt/schemagen/internal/schema"
)

// Kind identifies the database engine behind a connection URL
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindSQLite   Kind = "sqlite"
	KindMongo    Kind = "mongodb"
)

// Family returns the database family projects of this engine are modelled in.
// SQLite has no family of its own and uses MySQL.
func (k Kind) Family() schema.Family {
	switch k {
	case KindPostgres:
		return schema.PostgreSQL
	case KindMongo:
		return schema.MongoDB
	}
	return schema.MySQL
}

// Options configures introspection. All fields are optional.
type Options struct {
	// Tables limits extraction to the named tables or collections
	Tables []string
	// ExcludeTables drops the named tables or collections
	ExcludeTables []string
	// SchemaName is the PostgreSQL schema (default public), the MySQL
	// database (default: from the DSN) or the MongoDB database (default:
	// from the URI). SQLite ignores it.
	SchemaName string
	// SampleSize is the number of documents sampled per MongoDB collection
	SampleSize int
}

// Result is an introspected database
type Result struct {
	Kind    Kind
	Family  schema.Family
	Project *schema.Project
}

// ParseURL detects the engine of a connection URL and returns the
// connection string its driver expects
func ParseURL(url string) (Kind, string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", "", fmt.Errorf("database URL is required")
	}

	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return KindPostgres, url, nil
	case strings.HasPrefix(url, "mysql://"):
		// the MySQL driver takes a bare DSN
		return KindMySQL, strings.TrimPrefix(url, "mysql://"), nil
	case strings.HasPrefix(url, "sqlite://"):
		return KindSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return KindMongo, url, nil
	}

	return "", "", fmt.Errorf("invalid database URL scheme (must start with postgres://, mysql://, sqlite:// or mongodb://)")
}

// Introspect connects to the database behind url and converts its tables or
// collections into a single-database project
func Introspect(ctx context.Context, url string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}

	kind, connStr, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	var p *schema.Project
	switch kind {
	case KindPostgres:
		p, err = introspectPostgres(ctx, connStr, opts)
	case KindMySQL:
		p, err = introspectMySQL(ctx, connStr, opts)
	case KindSQLite:
		p, err = introspectSQLite(ctx, connStr, opts)
	case KindMongo:
		p, err = introspectMongo(ctx, connStr, opts)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Kind: kind, Family: kind.Family(), Project: p}, nil
}

func introspectPostgres(ctx context.Context, connStr string, opts *Options) (*schema.Project, error) {
	client, err := NewPostgresClient(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer func() { _ = client.Close(ctx) }()

	tables, err := NewPostgresExtractor(client, opts.SchemaName).ExtractTables(ctx, opts.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}
	return ToProject(client.Database(), FilterTables(tables, opts.ExcludeTables)), nil
}

func introspectMySQL(ctx context.Context, connStr string, opts *Options) (*schema.Project, error) {
	schemaName := opts.SchemaName
	if schemaName == "" {
		var err error
		schemaName, err = ParseDatabaseName(connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to determine database name: %w (please specify the schema name)", err)
		}
	}

	client, err := NewMySQLClient(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	defer func() { _ = client.Close() }()

	tables, err := NewMySQLExtractor(client, schemaName).ExtractTables(ctx, opts.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}
	return ToProject(schemaName, FilterTables(tables, opts.ExcludeTables)), nil
}

func introspectSQLite(ctx context.Context, path string, opts *Options) (*schema.Project, error) {
	client, err := NewSQLiteClient(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	defer func() { _ = client.Close() }()

	tables, err := NewSQLiteExtractor(client).ExtractTables(ctx, opts.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ToProject(name, FilterTables(tables, opts.ExcludeTables)), nil
}

func introspectMongo(ctx context.Context, uri string, opts *Options) (*schema.Project, error) {
	client, err := NewMongoClient(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() { _ = client.Close(ctx) }()

	extractor := NewMongoExtractor(client, opts.SchemaName, opts.SampleSize)
	entities, err := extractor.ExtractCollections(ctx, opts.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}
	return newProject(extractor.database, FilterEntities(entities, opts.ExcludeTables), nil), nil
}

// FilterTables drops the excluded tables
func FilterTables(tables []Table, exclude []string) []Table {
	if len(exclude) == 0 {
		return tables
	}
	excluded := toSet(exclude)
	kept := make([]Table, 0, len(tables))
	for _, t := range tables {
		if !excluded[t.Name] {
			kept = append(kept, t)
		}
	}
	return kept
}

// FilterEntities drops the entities whose label is excluded
func FilterEntities(entities []*schema.Entity, exclude []string) []*schema.Entity {
	if len(exclude) == 0 {
		return entities
	}
	excluded := toSet(exclude)
	kept := make([]*schema.Entity, 0, len(entities))
	for _, e := range entities {
		if !excluded[e.Data.Label] {
			kept = append(kept, e)
		}
	}
	return kept
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.TrimSpace(n)] = true
	}
	return set
}
