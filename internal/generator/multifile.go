package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tordrt/schemagen/internal/relation"
	"github.com/tordrt/schemagen/internal/schema"
)

var extensions = map[Target]string{
	TargetSQL:       ".sql",
	TargetMongoose:  ".js",
	TargetPrisma:    ".prisma",
	TargetTypeORM:   ".ts",
	TargetSequelize: ".js",
	TargetLaravel:   ".php",
	TargetGORM:      ".go",
	TargetText:      ".txt",
	TargetMarkdown:  ".md",
}

// Extension returns the file extension of a target's output
func Extension(target Target) string {
	return extensions[target]
}

// MultiFileWriter writes one file per entity plus an overview into a directory.
// Relations between entities are resolved against the whole catalog, but
// targets that only emit relations between emitted models render each file
// without them.
type MultiFileWriter struct {
	OutputDir string
	Target    Target
	// Concurrency bounds parallel file writes; zero means unbounded
	Concurrency int
}

// NewMultiFileWriter creates a new multi-file writer
func NewMultiFileWriter(outputDir string, target Target) *MultiFileWriter {
	return &MultiFileWriter{OutputDir: outputDir, Target: target, Concurrency: 4}
}

// Write renders req and returns the written paths in emission order, overview first
func (m *MultiFileWriter) Write(ctx context.Context, req Request) ([]string, error) {
	if _, ok := factories[m.Target]; !ok {
		return nil, fmt.Errorf("unknown target: %s", m.Target)
	}
	if err := os.MkdirAll(m.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	c := req.catalog()
	entries := req.entries()

	overview, err := m.writeOverview(c, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to write overview: %w", err)
	}

	paths := make([]string, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	if m.Concurrency > 0 {
		g.SetLimit(m.Concurrency)
	}
	for i, entry := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := m.writeEntryFile(req, entry, i)
			if err != nil {
				return fmt.Errorf("failed to write file for %s: %w", entry.Table, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append([]string{overview}, paths...), nil
}

func (m *MultiFileWriter) fileName(entry *relation.Entry, index int, opts Options) string {
	if m.Target == TargetLaravel {
		return MigrationFileName(opts, index, entry.Table)
	}
	return entry.Table + Extension(m.Target)
}

func (m *MultiFileWriter) writeEntryFile(req Request, entry *relation.Entry, index int) (string, error) {
	var content string
	if m.Target == TargetLaravel {
		content = NewLaravelGenerator(nil).migration(&req, entry, index, sqlFamily(req.Family))
	} else {
		single := Request{
			Family:   req.Family,
			Entities: []*schema.Entity{entry.Entity},
			Catalog:  req.Catalog,
			Options:  req.Options,
		}
		var err error
		content, err = Generate(m.Target, single)
		if err != nil {
			return "", err
		}
	}

	path := filepath.Join(m.OutputDir, m.fileName(entry, index, req.Options))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (m *MultiFileWriter) writeOverview(c *relation.Catalog, entries []*relation.Entry) (string, error) {
	markdown := m.Target != TargetText
	name := "_overview.md"
	if !markdown {
		name = "_overview.txt"
	}
	path := filepath.Join(m.OutputDir, name)

	sorted := append([]*relation.Entry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Table < sorted[j].Table
	})

	var b strings.Builder
	if markdown {
		_, _ = fmt.Fprintf(&b, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(&b, "Each table has a corresponding file: `<table_name>%s`\n\n", Extension(m.Target))
		_, _ = fmt.Fprintf(&b, "## Tables\n\n")
	} else {
		_, _ = fmt.Fprintf(&b, "SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(&b, "Each table has a file: <table_name>%s\n\n", Extension(m.Target))
	}

	for _, entry := range sorted {
		if markdown {
			_, _ = fmt.Fprintf(&b, "- **%s**", entry.Table)
		} else {
			_, _ = fmt.Fprintf(&b, "%s", entry.Table)
		}
		if refs := outgoing(c, entry); len(refs) > 0 {
			targets := make([]string, 0, len(refs))
			for _, ref := range refs {
				targets = append(targets, ref.Target.Table)
			}
			_, _ = fmt.Fprintf(&b, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintf(&b, "\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}
