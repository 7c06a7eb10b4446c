package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemagen"
)

var (
	dbURL         string
	connection    string
	tables        string
	excludeTables string
	schemaName    string
	sampleSize    int
	projectOut    string
)

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Read the schema of a live database into a project file",
	Args:  cobra.NoArgs,
	RunE:  runIntrospect,
}

func init() {
	introspectCmd.Flags().StringVarP(&dbURL, "url", "u", "", "Database URL (postgres://, mysql://, sqlite:// or mongodb://)")
	introspectCmd.Flags().StringVar(&connection, "connection", "", "Name of a connection from the config file")
	introspectCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables or collections (comma-separated, optional)")
	introspectCmd.Flags().StringVarP(&excludeTables, "exclude", "x", "", "Tables or collections to skip (comma-separated, optional)")
	introspectCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema name (default: public for PostgreSQL, the URL's database otherwise)")
	introspectCmd.Flags().IntVar(&sampleSize, "sample-size", 0, "Documents sampled per MongoDB collection (default: 100)")
	introspectCmd.Flags().StringVarP(&projectOut, "output", "o", "", "Project file to write, YAML for .yaml/.yml (default: JSON to stdout)")
}

func runIntrospect(cmd *cobra.Command, args []string) error {
	url, err := resolveURL()
	if err != nil {
		return err
	}

	doc, fam, err := schemagen.Extract(context.Background(), url, &schemagen.Options{
		Tables:        parseTableList(tables),
		ExcludeTables: parseTableList(excludeTables),
		SchemaName:    schemaName,
		SampleSize:    sampleSize,
	})
	if err != nil {
		return fmt.Errorf("failed to introspect: %w", err)
	}
	if len(doc.Collections) == 0 {
		warnf(cmd, "no tables or collections found")
	}

	if projectOut != "" {
		if err := schemagen.SaveProject(projectOut, doc); err != nil {
			return err
		}
	} else {
		buf, err := schemagen.EncodeProject(doc, schemagen.FormatJSON)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(append(buf, '\n')); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Extracted %d entities (generate with --family %s)\n", len(doc.Collections), cyan(string(fam)))
	return nil
}

// resolveURL picks --url, or the URL of the configured --connection
func resolveURL() (string, error) {
	switch {
	case dbURL != "" && connection != "":
		return "", fmt.Errorf("only one of --url or --connection can be specified")
	case dbURL != "":
		return dbURL, nil
	case connection != "":
		if cfg != nil {
			if url, ok := cfg.Connections[connection]; ok {
				return url, nil
			}
		}
		return "", fmt.Errorf("unknown connection: %s", connection)
	default:
		return "", fmt.Errorf("one of --url or --connection must be specified")
	}
}
