package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient holds a read-only handle on a database file
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient opens path read-only. A missing file is an error rather
// than a new empty database.
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLiteClient{db: db}, nil
}

func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// sqliteDSN turns a file path into a read-only URI. Paths that already are
// URIs are passed through.
func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?mode=ro"
}

// SQLiteExtractor handles table extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractTables extracts the catalog of the specified tables.
// If tables is empty, extracts all tables in the database
func (e *SQLiteExtractor) ExtractTables(ctx context.Context, tables []string) ([]Table, error) {
	var extractedTables []Table

	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	for _, tableName := range tableNames {
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		extractedTables = append(extractedTables, *table)
	}

	return extractedTables, nil
}

// getTableNames returns the list of tables to extract
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// extractTable extracts all information for a single table
func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*Table, error) {
	table := &Table{Name: tableName}

	// Extract columns and primary key
	columns, pk, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns
	table.PrimaryKey = pk

	// Extract foreign keys
	foreignKeys, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	table.ForeignKeys = foreignKeys

	// Extract indexes
	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

// extractColumns extracts column information and the primary key of a table
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]Column, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLiteIdent(tableName))

	rows, err := e.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []Column
	var pkColumns []string
	pkOrder := make(map[string]int)

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
		}

		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}

		// Track primary key columns
		if pk > 0 {
			pkColumns = append(pkColumns, name)
			pkOrder[name] = pk
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	rows.Close()

	// table_info lists columns in table order; the key order is the pk value
	sort.SliceStable(pkColumns, func(i, j int) bool { return pkOrder[pkColumns[i]] < pkOrder[pkColumns[j]] })

	// An INTEGER PRIMARY KEY aliases the rowid
	if len(pkColumns) == 1 {
		for i := range columns {
			if columns[i].Name == pkColumns[0] && strings.EqualFold(strings.TrimSpace(columns[i].Type), "INTEGER") {
				columns[i].AutoIncrement = true
			}
		}
	}

	unique, err := e.uniqueColumns(ctx, tableName)
	if err != nil {
		return nil, nil, err
	}
	for i := range columns {
		if _, isPK := pkOrder[columns[i].Name]; !isPK {
			columns[i].IsUnique = unique[columns[i].Name]
		}
	}

	return columns, pkColumns, nil
}

// uniqueColumns returns the columns covered by a single-column unique index
func (e *SQLiteExtractor) uniqueColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	indexes, err := e.indexList(ctx, tableName)
	if err != nil {
		return nil, err
	}

	unique := make(map[string]bool)
	for _, idx := range indexes {
		if !idx.IsUnique {
			continue
		}
		columns, err := e.indexColumns(ctx, idx.Name)
		if err != nil {
			return nil, err
		}
		if len(columns) == 1 {
			unique[columns[0]] = true
		}
	}
	return unique, nil
}

// indexList reads PRAGMA index_list without the index columns
func (e *SQLiteExtractor) indexList(ctx context.Context, tableName string) ([]Index, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteSQLiteIdent(tableName))
	rows, err := e.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		indexes = append(indexes, Index{Name: name, IsUnique: unique == 1})
	}

	return indexes, rows.Err()
}

// indexColumns reads PRAGMA index_info; expression columns have no name
func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", quoteSQLiteIdent(indexName))
	rows, err := e.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}

// extractForeignKeys extracts foreign key constraints with their actions.
// Multi-column keys are reduced to their first column.
func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteSQLiteIdent(tableName))

	rows, err := e.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foreignKeys []ForeignKey

	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		if seq > 0 {
			continue
		}

		foreignKeys = append(foreignKeys, ForeignKey{
			Column:       fromCol,
			TargetTable:  targetTable,
			TargetColumn: toCol.String,
			OnDelete:     onDelete,
			OnUpdate:     onUpdate,
		})
	}

	return foreignKeys, rows.Err()
}

// extractIndexes extracts index information
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]Index, error) {
	list, err := e.indexList(ctx, tableName)
	if err != nil {
		return nil, err
	}

	var indexes []Index
	for _, idx := range list {
		// Skip auto-generated primary key and unique constraint indexes
		if strings.HasPrefix(idx.Name, "sqlite_autoindex") {
			continue
		}

		columns, err := e.indexColumns(ctx, idx.Name)
		if err != nil {
			return nil, err
		}
		if len(columns) > 0 {
			idx.Columns = columns
			indexes = append(indexes, idx)
		}
	}

	return indexes, nil
}

// quoteSQLiteIdent quotes a name for use in a PRAGMA argument
func quoteSQLiteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
