package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagen/internal/schema"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		kind    Kind
		conn    string
		wantErr bool
	}{
		{name: "postgres", url: "postgres://u:p@localhost/shop", kind: KindPostgres, conn: "postgres://u:p@localhost/shop"},
		{name: "postgresql", url: "postgresql://localhost/shop", kind: KindPostgres, conn: "postgresql://localhost/shop"},
		{name: "mysql", url: "mysql://u:p@tcp(localhost:3306)/shop", kind: KindMySQL, conn: "u:p@tcp(localhost:3306)/shop"},
		{name: "sqlite", url: "sqlite://data/app.db", kind: KindSQLite, conn: "data/app.db"},
		{name: "mongo", url: "mongodb://localhost:27017/shop", kind: KindMongo, conn: "mongodb://localhost:27017/shop"},
		{name: "mongo srv", url: "mongodb+srv://cluster.example.com/shop", kind: KindMongo, conn: "mongodb+srv://cluster.example.com/shop"},
		{name: "empty", url: "  ", wantErr: true},
		{name: "unknown scheme", url: "oracle://localhost", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, conn, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.conn, conn)
		})
	}
}

func TestKindFamily(t *testing.T) {
	assert.Equal(t, schema.PostgreSQL, KindPostgres.Family())
	assert.Equal(t, schema.MySQL, KindMySQL.Family())
	assert.Equal(t, schema.MySQL, KindSQLite.Family())
	assert.Equal(t, schema.MongoDB, KindMongo.Family())
}

func TestIntrospectRejectsUnknownScheme(t *testing.T) {
	_, err := Introspect(context.Background(), "ftp://example.com", nil)
	assert.ErrorContains(t, err, "invalid database URL scheme")
}

func TestFilters(t *testing.T) {
	tables := []Table{{Name: "users"}, {Name: "schema_migrations"}, {Name: "posts"}}
	kept := FilterTables(tables, []string{" schema_migrations "})
	require.Len(t, kept, 2)
	assert.Equal(t, "posts", kept[1].Name)
	assert.Len(t, FilterTables(tables, nil), 3)

	entities := []*schema.Entity{{Data: schema.EntityData{Label: "users"}}, {Data: schema.EntityData{Label: "audit"}}}
	assert.Len(t, FilterEntities(entities, []string{"audit"}), 1)
}
