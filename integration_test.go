//go:build integration
// +build integration

package schemagen

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/schemagen/internal/generator"
	"github.com/tordrt/schemagen/internal/schema"
)

func seedShop(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shop.db")
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	defer conn.Close()

	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL UNIQUE, email TEXT NOT NULL)`,
		`CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price DECIMAL(10,2))`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users (id), total DECIMAL(10,2))`,
		`CREATE TABLE order_items (
			order_id INTEGER NOT NULL REFERENCES orders (id),
			product_id INTEGER NOT NULL REFERENCES products (id),
			PRIMARY KEY (order_id, product_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("Failed to seed SQLite: %v", err)
		}
	}
	return "sqlite://" + path
}

func TestExtract(t *testing.T) {
	ctx := context.Background()
	url := seedShop(t)

	tests := []struct {
		name       string
		opts       *Options
		wantTables []string
	}{
		{name: "all tables", wantTables: []string{"users", "products", "orders", "order_items"}},
		{name: "specific tables", opts: &Options{Tables: []string{"users", "products"}}, wantTables: []string{"users", "products"}},
		{name: "with exclusions", opts: &Options{ExcludeTables: []string{"orders", "order_items"}}, wantTables: []string{"users", "products"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, family, err := Extract(ctx, url, tt.opts)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if family != schema.MySQL {
				t.Errorf("Expected SQLite to use the MySQL family, got %s", family)
			}
			if len(doc.Collections) != len(tt.wantTables) {
				t.Errorf("Expected %d tables, got %d", len(tt.wantTables), len(doc.Collections))
			}
			labels := make(map[string]bool)
			for _, e := range doc.Collections {
				labels[e.Data.Label] = true
			}
			for _, name := range tt.wantTables {
				if !labels[name] {
					t.Errorf("Expected table %s not found", name)
				}
			}
		})
	}
}

func TestExtractAndGenerate(t *testing.T) {
	ctx := context.Background()
	url := seedShop(t)

	t.Run("single file", func(t *testing.T) {
		var buf bytes.Buffer
		err := ExtractAndGenerate(ctx, url, &Options{Tables: []string{"users", "orders"}}, nil, &OutputOptions{Writer: &buf})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "username") {
			t.Error("Expected output to contain 'username'")
		}
		if !strings.Contains(output, "FOREIGN KEY") {
			t.Error("Expected output to contain the orders foreign key")
		}
	})

	t.Run("multi file", func(t *testing.T) {
		dir := t.TempDir()
		err := ExtractAndGenerate(ctx, url, nil, &GenerateOptions{Target: generator.TargetMarkdown}, &OutputOptions{OutputDir: dir})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for _, name := range []string{"_overview.md", "users.md", "products.md"} {
			if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
				t.Errorf("Expected %s to be created", name)
			}
		}
	})
}
