package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagen/internal/schema"
)

func blogEntities() []*schema.Entity {
	return []*schema.Entity{
		{ID: "1", Data: schema.EntityData{Label: "Users", Fields: []*schema.Field{
			{ID: "u1", Name: "_id", Type: "ObjectId", Key: true},
			{ID: "u2", Name: "username", Type: "String"},
			{ID: "u3", Name: "user name", Type: "String"},
		}}},
		{ID: "2", Data: schema.EntityData{Label: "Posts", Fields: []*schema.Field{
			{ID: "p1", Name: "id", Type: "INT", PrimaryKey: true},
			{ID: "p2", Name: "author_id", Type: "ObjectId", Ref: "users"},
			{ID: "p3", Name: "editor_id", Type: "INT", ForeignKey: true, ReferencesTable: " USERS ", ReferencesColumn: "username", ReferencesColumnID: "stale", OnDelete: "set_null"},
			{ID: "p4", Name: "ghost_id", Type: "INT", ForeignKey: true, ReferencesTable: "Ghosts", ReferencesColumn: "id"},
		}}},
		{ID: "3", Data: schema.EntityData{Label: "users"}},
	}
}

func TestNewCatalogNames(t *testing.T) {
	c := NewCatalog(blogEntities())
	require.Len(t, c.Entries(), 3)

	users := c.Entry("1")
	assert.Equal(t, "users", users.Table)
	assert.Equal(t, "Users", users.Model)
	assert.Equal(t, "id", users.ColumnByID("u1"))
	assert.Equal(t, "username", users.ColumnByID("u2"))
	assert.Equal(t, "user_name", users.ColumnByID("u3"))
	assert.Equal(t, []string{"id"}, users.PrimaryKeys)

	dup := c.Entry("3")
	assert.Equal(t, "users_2", dup.Table)
	assert.Equal(t, "Users2", dup.Model)
}

func TestCatalogKeysByPointer(t *testing.T) {
	email := &schema.Field{Name: "email", Type: "String"}
	users := &schema.Entity{ID: "c1", Data: schema.EntityData{Label: "Users", Fields: []*schema.Field{email}}}
	orders := &schema.Entity{ID: "c1", Data: schema.EntityData{Label: "Orders"}}
	c := NewCatalog([]*schema.Entity{users, orders})

	assert.Equal(t, "email", c.EntryFor(users).Column(email))
	assert.Equal(t, "orders", c.EntryFor(orders).Table)
	assert.Same(t, c.EntryFor(users), c.Entry("c1"))
	assert.Empty(t, c.EntryFor(users).ColumnByID(""))
}

func TestLookupFirstMatchWins(t *testing.T) {
	c := NewCatalog(blogEntities())
	assert.Same(t, c.Entry("1"), c.Lookup("  USERS "))
	assert.Nil(t, c.Lookup(""))
	assert.Nil(t, c.Lookup("comments"))
}

func TestResolve(t *testing.T) {
	entities := blogEntities()
	c := NewCatalog(entities)
	posts := entities[1]

	tests := []struct {
		name       string
		field      *schema.Field
		wantOK     bool
		wantTable  string
		wantColumn string
		implicit   bool
		onDelete   string
	}{
		{name: "implicit ref uses primary key", field: posts.Data.Fields[1], wantOK: true, wantTable: "users", wantColumn: "id", implicit: true},
		{name: "stale id falls back to name", field: posts.Data.Fields[2], wantOK: true, wantTable: "users", wantColumn: "username", onDelete: "SET NULL"},
		{name: "missing table is skipped", field: posts.Data.Fields[3], wantOK: false},
		{name: "plain field", field: posts.Data.Fields[0], wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := c.Resolve(posts, tt.field)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantTable, ref.Target.Table)
			assert.Equal(t, tt.wantColumn, ref.TargetColumn)
			assert.Equal(t, tt.implicit, ref.Implicit)
			assert.Equal(t, tt.onDelete, ref.OnDelete)
			assert.NotNil(t, ref.TargetField)
		})
	}
}

func TestTargetColumnFallbacks(t *testing.T) {
	target := NewCatalog([]*schema.Entity{{ID: "t", Data: schema.EntityData{Label: "T", Fields: []*schema.Field{
		{ID: "a", Name: "Account Code", Type: "VARCHAR"},
	}}}}).Entry("t")

	tests := []struct {
		name  string
		field schema.Field
		want  string
	}{
		{"by id", schema.Field{ReferencesColumnID: "a", ReferencesColumn: "other"}, "account_code"},
		{"by normalized name", schema.Field{ReferencesColumn: "accountCode"}, "account_code"},
		{"normalized declared name", schema.Field{ReferencesColumn: "Legacy Key"}, "legacy_key"},
		{"default", schema.Field{}, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, targetColumn(target, &tt.field))
		})
	}
}

func TestNormalizeAction(t *testing.T) {
	assert.Equal(t, "CASCADE", NormalizeAction("cascade"))
	assert.Equal(t, "NO ACTION", NormalizeAction(" no_action "))
	assert.Equal(t, "", NormalizeAction("explode"))
	assert.Equal(t, "", NormalizeAction(""))
}

func TestIncoming(t *testing.T) {
	c := NewCatalog(blogEntities())
	in := c.Incoming(c.Entry("1"))
	require.Len(t, in, 2)
	assert.Equal(t, "author_id", in[0].Column)
	assert.Equal(t, "editor_id", in[1].Column)
	assert.Empty(t, c.Incoming(c.Entry("3")))
}
