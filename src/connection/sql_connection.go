// Package connection contains the SQLConnection type and methods for manipulating and querying the connection
package connection

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	// pgx stdlib registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/config"
)

const (
	driverName = "pgx"

	// connectTimeout bounds connection establishment only; statements are bounded by the
	// session statement_timeout.
	connectTimeout = "30"

	sqlStateQueryCanceled   = "57014"
	sqlStateConnectionClass = "08"
	sqlStateAdminShutdown   = "57P01"
)

// Session is the SQL session the engine evaluates workloads on. A session is owned by a single
// phase and used strictly sequentially.
type Session interface {
	// Exec runs a statement that returns no rows of interest (DDL, SET, PREPARE).
	Exec(ctx context.Context, statement string) error
	// Execute runs a query and drains its result set, returning the row count.
	Execute(ctx context.Context, query string) (int, error)
	// FetchColumn runs a query and returns the first column of every row as text.
	FetchColumn(ctx context.Context, query string) ([]string, error)
	// SetStatementTimeout bounds every following statement of the session.
	SetStatementTimeout(ctx context.Context, seconds int) error
}

// SQLConnection represents a wrapper around a single Postgres-compatible session
type SQLConnection struct {
	Connection *sqlx.DB
	Host       string
}

var _ Session = (*SQLConnection)(nil)

// NewConnection creates a new SQLConnection from the connection configuration
func NewConnection(ctx context.Context, cfg config.ConnectionConfig) (*SQLConnection, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, CreateConnectionURL(cfg))
	if err != nil {
		return nil, err
	}

	// Session settings (statement_timeout, session props, prepared statements) only hold if
	// every statement runs on the same backend connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &SQLConnection{
		Connection: db,
		Host:       cfg.Host,
	}, nil
}

// Close closes the SQL connection. If an error occurs
// it is logged as a warning.
func (sc SQLConnection) Close() {
	if err := sc.Connection.Close(); err != nil {
		log.Warn("Unable to close SQL Connection: %s", err.Error())
	}
}

// Exec runs a statement and discards its result
func (sc SQLConnection) Exec(ctx context.Context, statement string) error {
	log.Debug("Executing statement: %s", statement)
	_, err := sc.Connection.ExecContext(ctx, statement)
	return err
}

// Execute runs a query and reads every row so that the measured time covers the full result
func (sc SQLConnection) Execute(ctx context.Context, query string) (int, error) {
	rows, err := sc.Connection.QueryxContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}

// FetchColumn runs a query and returns the first column of each row
func (sc SQLConnection) FetchColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := sc.Connection.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var value sql.NullString
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value.String)
	}
	return values, rows.Err()
}

// SetStatementTimeout sets the session statement_timeout in seconds
func (sc SQLConnection) SetStatementTimeout(ctx context.Context, seconds int) error {
	return sc.Exec(ctx, StatementTimeoutStatement(seconds))
}

// StatementTimeoutStatement returns the SET statement bounding every following statement.
func StatementTimeoutStatement(seconds int) string {
	return fmt.Sprintf("SET statement_timeout = '%ds'", seconds)
}

// CreateConnectionURL tags in the configuration and creates the connection string.
// The configuration should be validated before calling this.
func CreateConnectionURL(cfg config.ConnectionConfig) string {
	connectionURL := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   cfg.Host,
		Path:   "/" + cfg.Database,
	}

	if cfg.Port != "" {
		connectionURL.Host = fmt.Sprintf("%s:%s", connectionURL.Host, cfg.Port)
	}

	// Format query parameters
	query := url.Values{}
	query.Add("connect_timeout", connectTimeout)
	if cfg.SSLMode != "" {
		query.Add("sslmode", cfg.SSLMode)
	}

	connectionURL.RawQuery = query.Encode()

	return connectionURL.String()
}

// IsConnectionLost reports whether err means the session is gone and no further statement
// can succeed on it.
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, sqlStateConnectionClass) || pgErr.Code == sqlStateAdminShutdown
	}

	var netErr net.Error
	return errors.As(err, &netErr) && !netErr.Timeout()
}

// IsStatementTimeout reports whether err was raised by the session statement_timeout.
func IsStatementTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateQueryCanceled
}
