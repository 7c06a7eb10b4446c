package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagen/internal/schema"
)

func TestMultiFileWriter(t *testing.T) {
	tests := []struct {
		name     string
		target   Target
		overview string
		files    []string
	}{
		{name: "sql", target: TargetSQL, overview: "_overview.md", files: []string{"users.sql", "orders.sql"}},
		{name: "text", target: TargetText, overview: "_overview.txt", files: []string{"users.txt", "orders.txt"}},
		{
			name: "laravel", target: TargetLaravel, overview: "_overview.md",
			files: []string{"1970_01_01_000001_create_users_table.php", "1970_01_01_000002_create_orders_table.php"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			w := NewMultiFileWriter(dir, tt.target)

			paths, err := w.Write(context.Background(), Request{Family: schema.MySQL, Entities: shopEntities()})
			require.NoError(t, err)

			want := []string{filepath.Join(dir, tt.overview)}
			for _, f := range tt.files {
				want = append(want, filepath.Join(dir, f))
			}
			assert.Equal(t, want, paths)
			for _, p := range paths {
				_, err := os.Stat(p)
				assert.NoError(t, err)
			}
		})
	}
}

func TestMultiFileWriterResolvesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewMultiFileWriter(dir, TargetSQL).Write(context.Background(), Request{Family: schema.MySQL, Entities: shopEntities()})
	require.NoError(t, err)

	orders, err := os.ReadFile(filepath.Join(dir, "orders.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(orders), "REFERENCES users (id) ON DELETE CASCADE;")
	assert.NotContains(t, string(orders), "CREATE TABLE users")

	overview, err := os.ReadFile(filepath.Join(dir, "_overview.md"))
	require.NoError(t, err)
	assert.Contains(t, string(overview), "- **orders** (references: users)\n- **users**\n")
}

func TestMultiFileWriterUnknownTarget(t *testing.T) {
	_, err := NewMultiFileWriter(t.TempDir(), "cobol").Write(context.Background(), Request{Entities: shopEntities()})
	require.Error(t, err)
}

func TestMultiFileWriterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMultiFileWriter(t.TempDir(), TargetSQL).Write(ctx, Request{Family: schema.MySQL, Entities: shopEntities()})
	assert.ErrorIs(t, err, context.Canceled)
}
