package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemagen"
	"github.com/tordrt/schemagen/internal/generator"
)

var (
	projectFile   string
	target        string
	entities      []string
	family        string
	databaseID    string
	outputFile    string
	outputDir     string
	sequelizeMode string
	goPackage     string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate code from a project file",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&projectFile, "project", "p", "", "Project file (.json, .yaml or .yml)")
	generateCmd.Flags().StringVarP(&target, "target", "t", "", "Target: sql, mongoose, prisma, typeorm, sequelize, laravel, gorm, text or markdown (default: the family's default)")
	generateCmd.Flags().StringSliceVarP(&entities, "entity", "e", nil, "Entity ids to generate (repeatable, default: the whole database)")
	generateCmd.Flags().StringVarP(&family, "family", "f", "", "Database family: MongoDB, MySQL or PostgreSQL (default: from config)")
	generateCmd.Flags().StringVar(&databaseID, "database", "", "Project database id (default: the active database)")
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	generateCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for one file per entity")
	generateCmd.Flags().StringVar(&sequelizeMode, "mode", string(generator.SequelizeInit), "Sequelize layout: init or per_model")
	generateCmd.Flags().StringVar(&goPackage, "package", "", "Go package of GORM output (default: models)")
	_ = generateCmd.MarkFlagRequired("project")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	fam, err := resolveFamily(family)
	if err != nil {
		return err
	}
	var t generator.Target
	if target != "" {
		var ok bool
		if t, ok = generator.ParseTarget(target); !ok {
			return fmt.Errorf("invalid target: %s", target)
		}
	}
	mode := generator.SequelizeMode(sequelizeMode)
	if mode != generator.SequelizeInit && mode != generator.SequelizePerModel {
		return fmt.Errorf("invalid mode: %s (must be 'init' or 'per_model')", sequelizeMode)
	}

	doc, err := schemagen.LoadProject(projectFile)
	if err != nil {
		return err
	}
	logger.Debugw("loaded project", "file", projectFile, "entities", len(doc.Collections), "family", fam)

	opts := &schemagen.GenerateOptions{
		Family:        fam,
		Target:        t,
		DatabaseID:    databaseID,
		Entities:      entities,
		SequelizeMode: mode,
		Package:       goPackage,
	}

	// Multi-file output
	if outputDir != "" {
		if err := schemagen.Generate(context.Background(), doc, opts, &schemagen.OutputOptions{OutputDir: outputDir}); err != nil {
			return fmt.Errorf("failed to generate: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s output to %s\n", fam, cyan(outputDir))
		return nil
	}

	// Single-file output
	w, done, err := createOutput(cmd, outputFile)
	if err != nil {
		return err
	}
	defer done()
	if err := schemagen.Generate(context.Background(), doc, opts, &schemagen.OutputOptions{Writer: w}); err != nil {
		return fmt.Errorf("failed to generate: %w", err)
	}
	return nil
}
