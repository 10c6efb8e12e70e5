package reports

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/comparator"
	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/results"
)

const (
	asciidocFile = "report.adoc"
	xlsxFile     = "report.xlsx"
)

// Documents holds the loaded results documents of a report by input.
type Documents map[Input]*results.Document

// Generator writes reports into timestamped directories under the report directory.
type Generator struct {
	reportDir       string
	asciidoctorPath string
	comparator      *comparator.Comparator
	now             func() time.Time
	lookPath        func(file string) (string, error)
}

func NewGenerator(cfg config.Config) *Generator {
	return &Generator{
		reportDir:       cfg.ReportDir,
		asciidoctorPath: cfg.AsciidoctorPath,
		comparator:      comparator.NewComparator(cfg),
		now:             time.Now,
		lookPath:        exec.LookPath,
	}
}

// Generate loads the inputs of kind and renders the report. It returns the path of the
// written report file.
func (g *Generator) Generate(ctx context.Context, kind Kind, inputs Inputs) (string, error) {
	if err := kind.Validate(inputs); err != nil {
		return "", err
	}

	documents := make(Documents)
	wanted := make([]Input, 0)
	wanted = append(wanted, kind.RequiredInputs()...)
	wanted = append(wanted, kind.OptionalInputs()...)
	for _, input := range wanted {
		path := inputs[input]
		if path == "" {
			continue
		}
		document, err := results.Load(path)
		if err != nil {
			return "", err
		}
		log.Debug("Loaded %s from %s: %d queries", input, path, len(document.Queries))
		documents[input] = document
	}

	return g.render(ctx, kind, documents)
}

// Report renders the regression report of a finished regression run.
func (g *Generator) Report(ctx context.Context, v1, v2 *results.Document, rows []models.ComparisonResult) error {
	path, err := g.writeAsciidoc(ctx, KindRegression, renderRegression(v1, v2, rows))
	if err != nil {
		return err
	}
	log.Info("Regression report written to %s", path)
	return nil
}

func (g *Generator) render(ctx context.Context, kind Kind, documents Documents) (string, error) {
	switch kind {
	case KindTaqo:
		return g.writeAsciidoc(ctx, kind, renderTaqo(documents[InputResults], documents[InputPgResults]))
	case KindScore:
		return g.writeAsciidoc(ctx, kind, renderScore(documents[InputResults], documents[InputPgResults]))
	case KindComparison:
		return g.writeAsciidoc(ctx, kind, renderComparison(documents[InputResults], documents[InputPgResults], g.comparator))
	case KindRegression:
		v1, v2 := documents[InputV1Results], documents[InputV2Results]
		return g.writeAsciidoc(ctx, kind, renderRegression(v1, v2, g.comparator.CompareAll(v1.Queries, v2.Queries)))
	case KindSelectivity:
		return g.writeAsciidoc(ctx, kind, renderSelectivity(documents))
	case KindScoreXLS:
		return g.writeXLSX(kind, func(path string) error {
			return writeScoreXLSX(path, documents[InputResults])
		})
	case KindRegressionXLS:
		v1, v2 := documents[InputV1Results], documents[InputV2Results]
		return g.writeXLSX(kind, func(path string) error {
			return writeRegressionXLSX(path, v1, v2, g.comparator.CompareAll(v1.Queries, v2.Queries))
		})
	default:
		return "", fmt.Errorf("%w: unknown report type %q", models.ErrConfiguration, kind)
	}
}

func (g *Generator) reportPath(kind Kind, file string) (string, error) {
	dir := filepath.Join(g.reportDir, fmt.Sprintf("%s-%s", g.now().Format("20060102-150405"), kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, file), nil
}

func (g *Generator) writeAsciidoc(ctx context.Context, kind Kind, content string) (string, error) {
	path, err := g.reportPath(kind, asciidocFile)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	g.convert(ctx, path)
	return path, nil
}

func (g *Generator) writeXLSX(kind Kind, write func(path string) error) (string, error) {
	path, err := g.reportPath(kind, xlsxFile)
	if err != nil {
		return "", err
	}
	if err := write(path); err != nil {
		return "", err
	}
	return path, nil
}

// convert renders the asciidoc file to HTML next to it when asciidoctor is available. A
// missing or failing converter leaves the asciidoc report in place.
func (g *Generator) convert(ctx context.Context, path string) {
	if g.asciidoctorPath == "" {
		return
	}
	binary, err := g.lookPath(g.asciidoctorPath)
	if err != nil {
		log.Warn("Skipping HTML conversion, %s not found", g.asciidoctorPath)
		return
	}

	output, err := exec.CommandContext(ctx, binary, path).CombinedOutput()
	if err != nil {
		log.Warn("asciidoctor failed: %s: %s", err, strings.TrimSpace(string(output)))
		return
	}
	log.Info("HTML report written to %s", strings.TrimSuffix(path, filepath.Ext(path))+".html")
}
