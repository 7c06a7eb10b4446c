package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagen/internal/schema"
)

var shopProject = filepath.Join("..", "..", "testdata", "shop.json")

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// execute runs the CLI with fresh flag values and captures its output
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	resetFlags(rootCmd)
	cfg, logger = nil, nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestParseTableList(t *testing.T) {
	tests := []struct {
		name       string
		tablesStr  string
		wantTables []string
	}{
		{
			name:       "single table",
			tablesStr:  "users",
			wantTables: []string{"users"},
		},
		{
			name:       "multiple tables",
			tablesStr:  "users,posts,comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "tables with spaces",
			tablesStr:  "users, posts, comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "blank entries",
			tablesStr:  "users,, ,posts",
			wantTables: []string{"users", "posts"},
		},
		{
			name:       "empty string",
			tablesStr:  "",
			wantTables: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTables := parseTableList(tt.tablesStr)

			if len(gotTables) != len(tt.wantTables) {
				t.Errorf("parseTableList() returned %d tables, want %d", len(gotTables), len(tt.wantTables))
				return
			}

			for i, table := range gotTables {
				if table != tt.wantTables[i] {
					t.Errorf("parseTableList() table[%d] = %s, want %s", i, table, tt.wantTables[i])
				}
			}
		})
	}
}

func TestResolveFamily(t *testing.T) {
	cfg = nil
	tests := []struct {
		flag    string
		want    schema.Family
		wantErr bool
	}{
		{flag: "", want: schema.MongoDB},
		{flag: "postgres", want: schema.PostgreSQL},
		{flag: "MySQL", want: schema.MySQL},
		{flag: "oracle", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			got, err := resolveFamily(tt.flag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetsCommand(t *testing.T) {
	out, _, err := execute(t, "targets", "--family", "mongodb")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "mongoose (default)", lines[0])
	assert.Contains(t, lines, "prisma")
	assert.NotContains(t, out, "gorm")

	out, _, err = execute(t, "targets", "-f", "postgresql")
	require.NoError(t, err)
	assert.Contains(t, out, "sql (default)")
	assert.Contains(t, out, "gorm")
}

func TestGenerateCommand(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		out, _, err := execute(t, "generate", "--project", shopProject, "--family", "postgresql", "--target", "sql")
		require.NoError(t, err)
		assert.Contains(t, out, "users")
		assert.NotContains(t, out, "events")
	})

	t.Run("single entity to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "users.prisma")
		_, _, err := execute(t, "generate", "-p", shopProject, "-f", "mysql", "-t", "prisma", "-e", "users", "-o", path)
		require.NoError(t, err)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "model")
	})

	t.Run("output directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		_, stderr, err := execute(t, "generate", "-p", shopProject, "-f", "postgresql", "-d", dir, "--database", "db-audit")
		require.NoError(t, err)
		assert.Contains(t, stderr, dir)
		_, err = os.Stat(filepath.Join(dir, "events.sql"))
		assert.NoError(t, err)
	})

	errorCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing project", args: []string{"generate"}, want: "project"},
		{name: "both outputs", args: []string{"generate", "-p", shopProject, "-o", "x", "-d", "y"}, want: "cannot use both"},
		{name: "invalid target", args: []string{"generate", "-p", shopProject, "-t", "cobol"}, want: "invalid target"},
		{name: "invalid mode", args: []string{"generate", "-p", shopProject, "--mode", "bulk"}, want: "invalid mode"},
		{name: "invalid family", args: []string{"generate", "-p", shopProject, "-f", "oracle"}, want: "invalid family"},
		{name: "unsupported target", args: []string{"generate", "-p", shopProject, "-f", "mongodb", "-t", "gorm"}, want: "not supported"},
		{name: "missing file", args: []string{"generate", "-p", "nope.json"}, want: "failed to read project"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIntrospectCommandValidation(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "schemagen.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("connections:\n  shop: ftp://nowhere\n"), 0o644))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no source", args: []string{"introspect"}, want: "one of --url or --connection"},
		{name: "both sources", args: []string{"introspect", "--url", "sqlite://a.db", "--connection", "shop"}, want: "only one of"},
		{name: "bad scheme", args: []string{"introspect", "--url", "oracle://db"}, want: "invalid database URL scheme"},
		{name: "unknown connection", args: []string{"introspect", "--config", configFile, "--connection", "legacy"}, want: "unknown connection"},
		{name: "configured connection", args: []string{"introspect", "--config", configFile, "--connection", "shop"}, want: "invalid database URL scheme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWarnNotifier(t *testing.T) {
	var buf bytes.Buffer
	warnNotifier{w: &buf}.Warn("Storage Full", "export your project")
	assert.Equal(t, "Storage Full: export your project\n", buf.String())
}
