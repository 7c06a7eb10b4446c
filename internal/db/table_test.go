package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagen/internal/schema"
)

func blogTables() []Table {
	serial := "nextval('users_id_seq'::regclass)"
	draft := "'draft'::character varying"
	return []Table{
		{
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: "integer", DefaultValue: &serial},
				{Name: "email", Type: "varchar(120)", IsUnique: true},
				{Name: "role", Type: "user_role", EnumValues: []string{"admin", "member"}},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "posts",
			Columns: []Column{
				{Name: "id", Type: "bigint", AutoIncrement: true},
				{Name: "author_id", Type: "integer", Nullable: true},
				{Name: "status", Type: "varchar(16)", DefaultValue: &draft},
				{Name: "title", Type: "text"},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []ForeignKey{
				{Name: "posts_author_id_fkey", Column: "author_id", TargetTable: "users", TargetColumn: "id", OnDelete: "CASCADE", OnUpdate: "NO ACTION"},
			},
			Indexes: []Index{
				{Name: "idx_posts_title", Columns: []string{"title"}},
				{Name: "idx_posts_author_status", Columns: []string{"author_id", "status"}},
			},
		},
	}
}

func fieldNamed(t *testing.T, e *schema.Entity, name string) *schema.Field {
	t.Helper()
	for _, f := range e.Data.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %s not found in %s", name, e.Data.Label)
	return nil
}

func TestToProject(t *testing.T) {
	p := ToProject("blog", blogTables())

	require.Len(t, p.Databases, 1)
	assert.Equal(t, "blog", p.Databases[0].Name)
	require.Len(t, p.Collections, 2)

	users := p.Entity(EntityID("users"))
	posts := p.Entity(EntityID("posts"))
	require.NotNil(t, users)
	require.NotNil(t, posts)
	assert.Equal(t, schema.Position{X: 0, Y: 0}, users.Position)
	assert.Equal(t, schema.Position{X: gridSpacing, Y: 0}, posts.Position)

	t.Run("serial primary key", func(t *testing.T) {
		id := fieldNamed(t, users, "id")
		assert.Equal(t, "SERIAL", id.Type)
		assert.True(t, id.PrimaryKey)
		assert.True(t, id.AutoIncrement)
		assert.Nil(t, id.DefaultValue)
	})

	t.Run("columns", func(t *testing.T) {
		email := fieldNamed(t, users, "email")
		assert.Equal(t, "VARCHAR", email.Type)
		assert.Equal(t, "120", email.TypeParams)
		assert.True(t, email.Unique)

		role := fieldNamed(t, users, "role")
		assert.Equal(t, "ENUM", role.Type)
		assert.Equal(t, []string{"admin", "member"}, role.EnumValues)

		status := fieldNamed(t, posts, "status")
		assert.Equal(t, "draft", status.DefaultValue)
		assert.False(t, status.Index, "composite indexes are not expressible per field")

		title := fieldNamed(t, posts, "title")
		assert.True(t, title.Index)
		assert.Equal(t, "idx_posts_title", title.IndexName)
	})

	t.Run("foreign key", func(t *testing.T) {
		author := fieldNamed(t, posts, "author_id")
		assert.True(t, author.Nullable)
		assert.True(t, author.ForeignKey)
		assert.Equal(t, "users", author.ReferencesTable)
		assert.Equal(t, "id", author.ReferencesColumn)
		assert.Equal(t, FieldID("users", "id"), author.ReferencesColumnID)
		assert.Equal(t, "posts_author_id_fkey", author.FKConstraintName)
		assert.Equal(t, "CASCADE", author.OnDelete)
		assert.Empty(t, author.OnUpdate)

		require.Len(t, p.Edges, 1)
		edge := p.Edges[0]
		assert.Equal(t, users.ID, edge.Source)
		assert.Equal(t, posts.ID, edge.Target)
		assert.Equal(t, FieldID("users", "id"), edge.SourceHandle)
		assert.Equal(t, author.ID, edge.TargetHandle)
		assert.True(t, p.ValidEdge(edge))
	})
}

func TestToProjectImplicitTargetColumn(t *testing.T) {
	tables := []Table{
		{Name: "users", Columns: []Column{{Name: "uid", Type: "INTEGER"}}, PrimaryKey: []string{"uid"}},
		{
			Name:        "posts",
			Columns:     []Column{{Name: "user_id", Type: "INTEGER"}},
			ForeignKeys: []ForeignKey{{Column: "user_id", TargetTable: "users"}},
		},
	}
	p := ToProject("", tables)

	assert.Equal(t, schema.DefaultDatabaseName, p.Databases[0].Name)
	ref := fieldNamed(t, p.Entity(EntityID("posts")), "user_id")
	assert.Equal(t, "uid", ref.ReferencesColumn)
	assert.Len(t, p.Edges, 1)
	assert.Empty(t, tables[1].ForeignKeys[0].TargetColumn, "input is not modified")
}

func TestToProjectSkipsUnknownTargets(t *testing.T) {
	tables := []Table{{
		Name:        "posts",
		Columns:     []Column{{Name: "user_id", Type: "int"}},
		ForeignKeys: []ForeignKey{{Column: "user_id", TargetTable: "users", TargetColumn: "id"}},
	}}
	p := ToProject("blog", tables)

	assert.Empty(t, p.Edges)
	ref := fieldNamed(t, p.Collections[0], "user_id")
	assert.True(t, ref.ForeignKey, "the reference is kept for generators to resolve")
}
