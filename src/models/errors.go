package models

import "errors"

// Error taxonomy shared by the engine. Callers wrap the underlying cause with
// fmt.Errorf("%w: %w", ErrX, cause) and classify with errors.Is.
var (
	// ErrProvisioning is fatal: the scenario aborts after a best-effort DROP.
	ErrProvisioning = errors.New("provisioning failed")
	// ErrPlanParse is reported but the query keeps its timing with a null score.
	ErrPlanParse = errors.New("no cost estimate in plan")
	// ErrQueryExecution fails a single query; the batch continues.
	ErrQueryExecution = errors.New("query execution failed")
	// ErrConnectionLost aborts the current phase and triggers teardown.
	ErrConnectionLost = errors.New("connection lost")
	// ErrConfiguration is raised before any database interaction.
	ErrConfiguration = errors.New("invalid configuration")
)
