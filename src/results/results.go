// Package results persists the outcome of a collection run as a JSON document, the only
// artifact shared between collection and reporting.
package results

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/infra-integrations-sdk/v3/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/taqo-project/taqo/src/models"
)

const extension = ".json"

//go:embed schema.json
var schema []byte

var ErrInvalidDocument = errors.New("results document does not match schema")

// Settings records the collection parameters that affect how timings may be compared.
type Settings struct {
	NumRetries        int                `json:"num_retries"`
	NumWarmup         int                `json:"num_warmup"`
	Aggregation       models.Aggregation `json:"aggregation"`
	WithOptimizations bool               `json:"with_optimizations"`
	PlansOnly         bool               `json:"plans_only"`
	ExplainClause     string             `json:"explain_clause"`
}

// Document is one collection run.
type Document struct {
	RunID           string                `json:"run_id"`
	Model           string                `json:"model"`
	DatabaseVersion string                `json:"database_version"`
	CollectedAt     time.Time             `json:"collected_at"`
	Settings        Settings              `json:"settings"`
	Queries         []*models.QueryResult `json:"queries"`
}

// NewDocument starts a document for a run of model against the given database version.
func NewDocument(model, databaseVersion string, settings Settings) *Document {
	return &Document{
		RunID:           uuid.NewString(),
		Model:           model,
		DatabaseVersion: databaseVersion,
		CollectedAt:     time.Now().UTC(),
		Settings:        settings,
		Queries:         make([]*models.QueryResult, 0),
	}
}

// Failed counts the queries recorded as failed.
func (d *Document) Failed() int {
	failed := 0
	for _, q := range d.Queries {
		if q.Failed {
			failed++
		}
	}
	return failed
}

// FileName appends the .json extension when path has none.
func FileName(path string) string {
	if strings.HasSuffix(path, extension) {
		return path
	}
	return path + extension
}

// Save writes the document to path, creating parent directories as needed, and returns the
// path actually written.
func Save(path string, document *Document) (string, error) {
	path = FileName(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}

	b, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}

	log.Info("Saved %d query results to %s", len(document.Queries), path)
	return path, nil
}

// Load reads and validates a document written by Save.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(FileName(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, err)
	}

	if err := Validate(b); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrConfiguration, path, err)
	}

	var document Document
	if err := json.Unmarshal(b, &document); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrConfiguration, path, err)
	}
	return &document, nil
}

// Validate checks a serialized document against the embedded schema.
func Validate(b []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(b)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("error validating document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	descriptions := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		descriptions = append(descriptions, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(descriptions, "; "))
}
