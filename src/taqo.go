package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	sdkArgs "github.com/newrelic/infra-integrations-sdk/v3/args"
	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/args"
	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/database"
	"github.com/taqo-project/taqo/src/models"
	"github.com/taqo-project/taqo/src/reports"
	"github.com/taqo-project/taqo/src/scenario"
	"github.com/taqo-project/taqo/src/workload"
)

const (
	toolName    = "taqo"
	toolVersion = "0.1.0"

	exitFailure       = 1
	exitConfiguration = 2
)

var (
	arguments args.ArgumentList

	errNoAction = errors.New("missing action")
	errAborted  = errors.New("aborted by user")
)

func main() {
	action, err := shiftAction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\nusage: %s collect|regression|report [flags]\n", toolName, toolVersion, os.Args[0])
		os.Exit(exitConfiguration)
	}

	if err := sdkArgs.SetupArgs(&arguments); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(exitConfiguration)
	}

	// Setup logging with verbose
	log.SetupLogging(arguments.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, action, arguments)
	stop()
	if err != nil {
		log.Error("%s failed: %s", action, err)
		os.Exit(exitCode(err))
	}
}

// shiftAction removes the action from os.Args so that the remaining flags can be parsed.
func shiftAction() (string, error) {
	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		return "", errNoAction
	}
	action := os.Args[1]
	os.Args = append(os.Args[:1], os.Args[2:]...)
	return action, nil
}

func exitCode(err error) int {
	if errors.Is(err, models.ErrConfiguration) {
		return exitConfiguration
	}
	return exitFailure
}

func run(ctx context.Context, action string, al args.ArgumentList) error {
	if err := al.ValidateAction(action); err != nil {
		return err
	}

	if action == args.ActionReport {
		// resolve the report type before anything else is loaded
		kind, err := reports.ParseKind(al.Type)
		if err != nil {
			return err
		}
		cfg, err := config.New(al)
		if err != nil {
			return err
		}
		path, err := reports.NewGenerator(cfg).Generate(ctx, kind, reportInputs(al))
		if err != nil {
			return err
		}
		log.Info("Report written to %s", path)
		return nil
	}

	cfg, err := config.New(al)
	if err != nil {
		return err
	}
	log.Info("Running %s with\n%s", action, cfg)

	lifecycle, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	model, err := workload.NewModel(cfg)
	if err != nil {
		return err
	}

	if cfg.Database.Kind == database.KindCommand && cfg.CleanDB && cfg.AllowDestroyDB && !al.Yes {
		if !confirm(os.Stdin, os.Stdout, "The database will be destroyed after the run. Continue?") {
			return errAborted
		}
	}

	connector := scenario.SQLConnector{Config: cfg.Connection}
	switch action {
	case args.ActionCollect:
		document, err := scenario.New(cfg, lifecycle, connector, model, nil).Collect(ctx)
		if err != nil {
			return err
		}
		log.Info("Collected %d queries, %d failed", len(document.Queries), document.Failed())
	case args.ActionRegression:
		generator := reports.NewGenerator(cfg)
		rows, err := scenario.New(cfg, lifecycle, connector, model, generator).Regression(ctx)
		if err != nil {
			return err
		}
		log.Info("Compared %d queries", len(rows))
	}
	return nil
}

func reportInputs(al args.ArgumentList) reports.Inputs {
	return reports.Inputs{
		reports.InputResults:               al.Results,
		reports.InputPgResults:             al.PgResults,
		reports.InputV1Results:             al.V1Results,
		reports.InputV2Results:             al.V2Results,
		reports.InputDefaultResults:        al.DefaultResults,
		reports.InputDefaultAnalyzeResults: al.DefaultAnalyzeResults,
		reports.InputTaResults:             al.TaResults,
		reports.InputTaAnalyzeResults:      al.TaAnalyzeResults,
		reports.InputStatsResults:          al.StatsResults,
		reports.InputStatsAnalyzeResults:   al.StatsAnalyzeResults,
	}
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
