package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockMySQL(t *testing.T) (*MySQLExtractor, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewMySQLExtractor(&MySQLClient{db: conn}, "shop"), mock
}

func expectMySQLTable(mock sqlmock.Sqlmock, table string, columns, pk, fks, indexes *sqlmock.Rows) {
	mock.ExpectQuery("FROM information_schema.columns c").
		WithArgs("shop", table, "shop", table).WillReturnRows(columns)
	mock.ExpectQuery("constraint_name = 'PRIMARY'").
		WithArgs("shop", table).WillReturnRows(pk)
	mock.ExpectQuery("JOIN information_schema.referential_constraints rc").
		WithArgs("shop", table).WillReturnRows(fks)
	mock.ExpectQuery("FROM information_schema.statistics s").
		WithArgs("shop", table).WillReturnRows(indexes)
}

var (
	mysqlColumnHeader = []string{"column_name", "column_type", "is_nullable", "column_default", "is_unique", "extra"}
	mysqlFKHeader     = []string{"constraint_name", "column_name", "referenced_table_name", "referenced_column_name", "delete_rule", "update_rule"}
	mysqlIndexHeader  = []string{"index_name", "is_unique", "column_names"}
)

func TestMySQLExtractTables(t *testing.T) {
	e, mock := newMockMySQL(t)

	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("users"))

	expectMySQLTable(mock, "orders",
		sqlmock.NewRows(mysqlColumnHeader).
			AddRow("id", "int(11)", "NO", nil, false, "auto_increment").
			AddRow("user_id", "int(10) unsigned", "YES", nil, false, "").
			AddRow("status", "enum('open','paid')", "NO", "open", false, "").
			AddRow("note", "varchar(200)", "YES", nil, false, ""),
		sqlmock.NewRows([]string{"column_name"}).AddRow("id"),
		sqlmock.NewRows(mysqlFKHeader).AddRow("fk_orders_user", "user_id", "users", "id", "CASCADE", "RESTRICT"),
		sqlmock.NewRows(mysqlIndexHeader).AddRow("idx_orders_note", 0, "note").AddRow("uq_orders_user_status", 1, "user_id,status"),
	)
	expectMySQLTable(mock, "users",
		sqlmock.NewRows(mysqlColumnHeader).
			AddRow("id", "int(10) unsigned", "NO", nil, false, "auto_increment").
			AddRow("email", "varchar(120)", "NO", nil, true, "").
			AddRow("created_at", "timestamp", "NO", "CURRENT_TIMESTAMP", false, "DEFAULT_GENERATED"),
		sqlmock.NewRows([]string{"column_name"}).AddRow("id"),
		sqlmock.NewRows(mysqlFKHeader),
		sqlmock.NewRows(mysqlIndexHeader),
	)

	tables, err := e.ExtractTables(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, tables, 2)

	orders := tables[0]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, []string{"id"}, orders.PrimaryKey)
	assert.True(t, orders.Columns[0].AutoIncrement)
	assert.True(t, orders.Columns[1].Nullable)
	require.NotNil(t, orders.Columns[2].DefaultValue)
	assert.Equal(t, "open", *orders.Columns[2].DefaultValue)
	assert.Equal(t, []ForeignKey{{
		Name: "fk_orders_user", Column: "user_id", TargetTable: "users", TargetColumn: "id",
		OnDelete: "CASCADE", OnUpdate: "RESTRICT",
	}}, orders.ForeignKeys)
	assert.Equal(t, []Index{
		{Name: "idx_orders_note", Columns: []string{"note"}},
		{Name: "uq_orders_user_status", Columns: []string{"user_id", "status"}, IsUnique: true},
	}, orders.Indexes)

	p := ToProject("shop", tables)
	order := p.Entity(EntityID("orders"))
	require.NotNil(t, order)

	status := fieldNamed(t, order, "status")
	assert.Equal(t, "ENUM", status.Type)
	assert.Equal(t, []string{"open", "paid"}, status.EnumValues)
	assert.Equal(t, "open", status.DefaultValue)

	userID := fieldNamed(t, order, "user_id")
	assert.True(t, userID.Unsigned)
	assert.Equal(t, "RESTRICT", userID.OnUpdate)

	created := fieldNamed(t, p.Entity(EntityID("users")), "created_at")
	assert.Equal(t, "CURRENT_TIMESTAMP", created.DefaultValue)
	assert.Len(t, p.Edges, 1)
}

func TestMySQLExtractRequestedTables(t *testing.T) {
	e, mock := newMockMySQL(t)

	expectMySQLTable(mock, "users",
		sqlmock.NewRows(mysqlColumnHeader).AddRow("id", "int", "NO", nil, false, "auto_increment"),
		sqlmock.NewRows([]string{"column_name"}).AddRow("id"),
		sqlmock.NewRows(mysqlFKHeader),
		sqlmock.NewRows(mysqlIndexHeader),
	)

	tables, err := e.ExtractTables(context.Background(), []string{"users"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet(), "the table list is not queried")
	assert.Len(t, tables, 1)
}

func TestMySQLExtractError(t *testing.T) {
	e, mock := newMockMySQL(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM information_schema.columns c").WillReturnError(boom)

	_, err := e.ExtractTables(context.Background(), []string{"users"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to extract table users: failed to extract columns")
}

func TestParseDatabaseName(t *testing.T) {
	name, err := ParseDatabaseName("root:secret@tcp(localhost:3306)/shop?parseTime=true")
	require.NoError(t, err)
	assert.Equal(t, "shop", name)

	_, err = ParseDatabaseName("root:secret@tcp(localhost:3306)/")
	assert.Error(t, err)
}
