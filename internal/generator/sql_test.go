package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tordrt/schemagen/internal/schema"
)

func TestSQLImplicitReference(t *testing.T) {
	out := generate(t, TargetSQL, Request{Family: schema.MySQL, Entities: blogEntities()})

	assert.Contains(t, out, "CREATE TABLE users (")
	assert.Contains(t, out, "CREATE TABLE posts (")
	assert.Equal(t, 1, strings.Count(out, "FOREIGN KEY"))
	assert.Contains(t, out, "ALTER TABLE posts ADD CONSTRAINT fk_posts_author_id_1 FOREIGN KEY (author_id) REFERENCES users (id);")
	assert.Contains(t, out, "  id VARCHAR(24),\n")
	assert.Contains(t, out, "PRIMARY KEY (id)")
}

func TestSQLStatementOrder(t *testing.T) {
	out := generate(t, TargetSQL, Request{Family: schema.MySQL, Entities: shopEntities()})

	users := strings.Index(out, "CREATE TABLE users")
	orders := strings.Index(out, "CREATE TABLE orders")
	index := strings.Index(out, "CREATE INDEX idx_orders_note ON orders (note);")
	fk := strings.Index(out, "ALTER TABLE orders")
	assert.True(t, users >= 0 && users < orders, "tables in display order")
	assert.True(t, orders < index, "indexes after tables")
	assert.True(t, index < fk, "foreign keys last")
}

func TestSQLColumns(t *testing.T) {
	tests := []struct {
		name   string
		family schema.Family
		want   []string
		absent []string
	}{
		{
			name:   "mysql",
			family: schema.MySQL,
			want: []string{
				"id INT AUTO_INCREMENT",
				"email VARCHAR(120) NOT NULL UNIQUE",
				"status ENUM('active', 'banned') NOT NULL",
				"created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
				"total DECIMAL(10, 2) NOT NULL DEFAULT 0",
				"note TEXT,",
				"FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE;",
			},
			absent: []string{"CHECK"},
		},
		{
			name:   "postgres",
			family: schema.PostgreSQL,
			want: []string{
				"id INT GENERATED BY DEFAULT AS IDENTITY",
				"status TEXT NOT NULL",
				"CHECK (status IN ('active', 'banned'))",
			},
			absent: []string{"ENUM(", "AUTO_INCREMENT"},
		},
		{
			name:   "document family falls back to mysql",
			family: schema.MongoDB,
			want:   []string{"id INT AUTO_INCREMENT"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := generate(t, TargetSQL, Request{Family: tt.family, Entities: shopEntities()})
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			for _, absent := range tt.absent {
				assert.NotContains(t, out, absent)
			}
		})
	}
}

func TestSQLConstraintNamesUnique(t *testing.T) {
	entities := []*schema.Entity{
		{ID: "a", Data: schema.EntityData{Label: "a", Fields: []*schema.Field{
			{ID: "a1", Name: "x", Type: "INT", Index: true, IndexName: "shared"},
			{ID: "a2", Name: "y", Type: "INT", CheckExpression: "y > 0", CheckConstraintName: "shared"},
		}}},
		{ID: "b", Data: schema.EntityData{Label: "b", Fields: []*schema.Field{
			{ID: "b1", Name: "x", Type: "INT", Index: true, IndexName: "shared"},
		}}},
	}
	out := generate(t, TargetSQL, Request{Family: schema.MySQL, Entities: entities})

	assert.Contains(t, out, "CREATE INDEX shared ON a (x);")
	assert.Contains(t, out, "CONSTRAINT shared_2 CHECK (y > 0)")
	assert.Contains(t, out, "CREATE INDEX shared_3 ON b (x);")
}

func TestSQLEmptyTable(t *testing.T) {
	entities := []*schema.Entity{{ID: "e", Data: schema.EntityData{Label: "Empty"}}}
	out := generate(t, TargetSQL, Request{Family: schema.MySQL, Entities: entities})
	assert.Equal(t, "-- Table empty has no fields\n", out)
}

func TestSQLDanglingReferenceSkipped(t *testing.T) {
	entities := []*schema.Entity{
		{ID: "p", Data: schema.EntityData{Label: "Posts", Fields: []*schema.Field{
			{ID: "p1", Name: "author_id", Type: "INT", ForeignKey: true, ReferencesTable: "Ghosts", ReferencesColumn: "id"},
		}}},
	}
	out := generate(t, TargetSQL, Request{Family: schema.MySQL, Entities: entities})
	assert.NotContains(t, out, "FOREIGN KEY")
}

func TestSQLDefaults(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"  ", ""},
		{"CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP"},
		{"now", "CURRENT_TIMESTAMP"},
		{"42", "42"},
		{3.5, "3.5"},
		{true, "TRUE"},
		{"false", "FALSE"},
		{"it's", "'it''s'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqlDefault(tt.in), "%v", tt.in)
	}
}
