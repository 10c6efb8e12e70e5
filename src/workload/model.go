// Package workload reads a test model from disk: one SQL file per DDL step and a directory of
// query files.
package workload

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/models"
)

const (
	queriesDir = "queries"
	dataDir    = "data"

	// DataPathPlaceholder is replaced in IMPORT statements with the data directory.
	DataPathPlaceholder = "$DATA_PATH"

	paramsMarker = "-- params:"
	tagMarker    = "-- tag:"
)

// Model is a workload directory laid out as
//
//	<models-path>/<model>/<prefix>{database,create,import,analyze,drop}.sql
//	<models-path>/<model>/queries/*.sql
type Model struct {
	Name       string
	dir        string
	prefix     string
	dataPath   string
	numQueries int
}

// NewModel locates the model directory named by the configuration.
func NewModel(cfg config.Config) (*Model, error) {
	dir := filepath.Join(cfg.ModelsPath, cfg.Model)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: model %q not found in %s", models.ErrConfiguration, cfg.Model, cfg.ModelsPath)
	}

	dataPath := cfg.RemoteDataPath
	if dataPath == "" {
		if dataPath, err = filepath.Abs(filepath.Join(dir, dataDir)); err != nil {
			return nil, err
		}
	}

	return &Model{
		Name:       cfg.Model,
		dir:        dir,
		prefix:     cfg.DDLPrefix,
		dataPath:   dataPath,
		numQueries: cfg.NumQueries,
	}, nil
}

// DDL returns the statements of step. A model without a file for the step has nothing to run.
func (m *Model) DDL(step models.DDLStep) ([]string, error) {
	path := filepath.Join(m.dir, m.prefix+step.String()+".sql")
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Debug("Model %s has no %s file", m.Name, filepath.Base(path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	statements := make([]string, 0)
	for _, statement := range SplitStatements(string(b)) {
		text := statement.Text
		if step == models.DDLImport {
			text = strings.ReplaceAll(text, DataPathPlaceholder, m.dataPath)
		}
		statements = append(statements, text)
	}
	return statements, nil
}

// Queries reads every query file in name order and returns at most NumQueries queries when
// the limit is positive.
func (m *Model) Queries() ([]models.Query, error) {
	files, err := filepath.Glob(filepath.Join(m.dir, queriesDir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	queries := make([]models.Query, 0)
	for _, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(file), ".sql")
		for i, statement := range SplitStatements(string(b)) {
			query := models.Query{
				Tag:        fmt.Sprintf("%s.%d", name, i+1),
				Text:       statement.Text,
				Parameters: statement.Parameters,
			}
			if statement.Tag != "" {
				query.Tag = statement.Tag
			}
			queries = append(queries, query)
			if m.numQueries > 0 && len(queries) >= m.numQueries {
				return queries, nil
			}
		}
	}

	log.Info("Loaded %d queries from model %s", len(queries), m.Name)
	return queries, nil
}
