// Package provision applies the schema of a workload model to a session.
package provision

import (
	"context"
	"fmt"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/connection"
	"github.com/taqo-project/taqo/src/models"
)

// DDLSource returns the statements of one DDL step, in execution order.
type DDLSource interface {
	DDL(step models.DDLStep) ([]string, error)
}

// Provisioner runs requested DDL steps in dependency order.
type Provisioner struct {
	ddlQueryTimeout int
}

func NewProvisioner(cfg config.Config) *Provisioner {
	return &Provisioner{ddlQueryTimeout: cfg.DDLQueryTimeout}
}

// Apply executes every requested step in the order DATABASE, CREATE, IMPORT, ANALYZE, DROP.
// A failing DROP is logged and never returned; any other failure aborts with ErrProvisioning.
func (p *Provisioner) Apply(ctx context.Context, session connection.Session, source DDLSource, steps models.DDLSteps) error {
	ordered := steps.Ordered()
	if len(ordered) == 0 {
		return nil
	}

	log.Info("Applying DDL steps: %s", steps)
	for _, step := range ordered {
		err := p.applyStep(ctx, session, source, step)
		if err == nil {
			continue
		}
		if step == models.DDLDrop {
			log.Warn("Ignoring failed %s step: %s", step, err)
			continue
		}
		if connection.IsConnectionLost(err) {
			err = fmt.Errorf("%w: %w", models.ErrConnectionLost, err)
		}
		return fmt.Errorf("%w: %s step: %w", models.ErrProvisioning, step, err)
	}
	return nil
}

func (p *Provisioner) applyStep(ctx context.Context, session connection.Session, source DDLSource, step models.DDLStep) error {
	statements, err := source.DDL(step)
	if err != nil {
		return err
	}
	if len(statements) == 0 {
		log.Debug("No statements for %s step", step)
		return nil
	}

	if err := session.SetStatementTimeout(ctx, p.ddlQueryTimeout); err != nil {
		return err
	}

	for i, statement := range statements {
		log.Debug("%s [%d/%d]", step, i+1, len(statements))
		if err := session.Exec(ctx, statement); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}
