package connection

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"gopkg.in/DATA-DOG/go-sqlmock.v1"
)

// CreateMockSQL returns a SQLConnection backed by sqlmock for package tests
func CreateMockSQL(t *testing.T) (*SQLConnection, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Errorf("Unexpected error while mocking: %s", err.Error())
		t.FailNow()
	}

	return &SQLConnection{
		Connection: sqlx.NewDb(mockDB, "sqlmock"),
		Host:       "localhost",
	}, mock
}
