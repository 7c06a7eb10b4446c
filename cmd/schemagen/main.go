package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/schemagen/internal/adapter"
	"github.com/tordrt/schemagen/internal/config"
	"github.com/tordrt/schemagen/internal/logging"
	"github.com/tordrt/schemagen/internal/schema"
)

var (
	configPath string
	debug      bool

	cfg    *config.Config
	logger *zap.SugaredLogger
)

var (
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "schemagen",
	Short: "Generate database and ORM code from schema projects",
	Long: `schemagen renders schema projects (MongoDB collections or SQL tables with nested fields and relationships)
as SQL DDL, Mongoose, Prisma, TypeORM, Sequelize, Laravel migrations, GORM models, text or markdown.
It can also read the schema of a live PostgreSQL, MySQL, SQLite or MongoDB database into a project.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var targetsFamily string

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the generation targets of a database family",
	Args:  cobra.NoArgs,
	RunE:  runTargets,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./schemagen.yaml or ~/.config/schemagen/schemagen.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	targetsCmd.Flags().StringVarP(&targetsFamily, "family", "f", "", "Database family: MongoDB, MySQL or PostgreSQL (default: from config)")

	rootCmd.AddCommand(generateCmd, introspectCmd, targetsCmd, serveCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if debug {
		cfg.Debug = true
	}
	logger, err = logging.New(cfg.Debug)
	if err != nil {
		return err
	}
	return nil
}

func runTargets(cmd *cobra.Command, args []string) error {
	family, err := resolveFamily(targetsFamily)
	if err != nil {
		return err
	}
	a := adapter.For(family)
	out := cmd.OutOrStdout()
	for _, t := range a.Targets() {
		if t == a.DefaultTarget() {
			fmt.Fprintf(out, "%s %s\n", t, green("(default)"))
			continue
		}
		fmt.Fprintln(out, t)
	}
	return nil
}

// resolveFamily parses a --family flag, falling back to the configured family
func resolveFamily(flag string) (schema.Family, error) {
	if strings.TrimSpace(flag) == "" {
		if cfg != nil {
			return cfg.Family, nil
		}
		return config.DefaultFamily, nil
	}
	family, ok := schema.ParseFamily(flag)
	if !ok {
		return "", fmt.Errorf("invalid family: %s (must be MongoDB, MySQL or PostgreSQL)", flag)
	}
	return family, nil
}

// parseTableList splits a comma-separated flag value, dropping blanks
func parseTableList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// createOutput opens path for writing, or returns stdout when path is empty
func createOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			warnf(cmd, "failed to close output file: %v", err)
		}
	}, nil
}

func warnf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", yellow("warning:"), fmt.Sprintf(format, args...))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
