package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	js "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tordrt/schemagen/internal/schema"
)

//go:embed project.schema.json
var projectSchemaJSON []byte

const projectSchemaURL = "schemagen://project.schema.json"

const (
	msgInvalidJSON      = "Invalid JSON format."
	msgInvalidStructure = "Invalid project file structure."
)

var (
	projectSchemaOnce sync.Once
	projectSchema     *js.Schema
	projectSchemaErr  error
)

func compiledProjectSchema() (*js.Schema, error) {
	projectSchemaOnce.Do(func() {
		compiler := js.NewCompiler()
		if err := compiler.AddResource(projectSchemaURL, bytes.NewReader(projectSchemaJSON)); err != nil {
			projectSchemaErr = fmt.Errorf("failed to add project schema: %w", err)
			return
		}
		projectSchema, projectSchemaErr = compiler.Compile(projectSchemaURL)
	})
	return projectSchema, projectSchemaErr
}

// ValidateDocument checks raw against the project file schema
func ValidateDocument(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse project: %w", err)
	}
	sch, err := compiledProjectSchema()
	if err != nil {
		return err
	}
	return sch.Validate(doc)
}

// ExportProject renders the project as an indented, versioned JSON document
func (s *Store) ExportProject() ([]byte, error) {
	doc := schema.Document{
		Version:    schema.DocumentVersion,
		ExportedAt: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Project:    *s.ws.Project.Clone(),
	}
	buf, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export project: %w", err)
	}
	return buf, nil
}

// ImportProject replaces the project with a document. Payloads that are not
// JSON, or lack array-typed collections and edges, are rejected before
// anything changes. Databases are replaced only when the document has some.
func (s *Store) ImportProject(raw []byte) Result {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Result{Message: msgInvalidJSON}
	}
	sch, err := compiledProjectSchema()
	if err != nil {
		s.logger.Errorw("project schema unavailable", "error", err)
		return Result{Message: msgInvalidStructure}
	}
	if err := sch.Validate(doc); err != nil {
		s.logger.Debugw("rejected project import", "error", err)
		return Result{Message: msgInvalidStructure}
	}
	var parsed schema.Document
	if err := json.Unmarshal(raw, &parsed); err != nil {
		s.logger.Debugw("rejected project import", "error", err)
		return Result{Message: msgInvalidStructure}
	}

	s.record("import_project")
	if len(parsed.Databases) > 0 {
		s.ws.Databases = parsed.Databases
	}
	s.ws.Collections = parsed.Collections
	s.ws.Edges = parsed.Edges
	s.ws.ActiveDatabaseID = parsed.ActiveDatabaseID
	if s.ws.ActiveDatabaseID == "" && len(s.ws.Databases) > 0 {
		s.ws.ActiveDatabaseID = s.ws.Databases[0].ID
	}
	s.ws.RepairDatabases()
	s.ws.Selection = schema.Selection{}
	s.ws.Clipboard = nil
	s.commit()
	return Result{Success: true}
}
