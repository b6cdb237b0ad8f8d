package migration

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"patientcluster/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCreatesSchema(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS cluster_runs")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("idx_cluster_runs_created_at")).WillReturnResult(sqlmock.NewResult(0, 0))
	// index failures are tolerated
	mock.ExpectExec(regexp.QuoteMeta("idx_cluster_runs_method")).WillReturnError(fmt.Errorf("permission denied"))

	runner := NewRunner()
	require.NoError(t, runner.Run(context.Background(), sqlx.NewDb(mockDB, "postgres")))
	assert.Equal(t, "1.0.0", runner.Version())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTableFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE")).WillReturnError(fmt.Errorf("read-only transaction"))

	err = NewRunner().Run(context.Background(), sqlx.NewDb(mockDB, "postgres"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}
