package container

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"patientcluster/internal/config"
	"patientcluster/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutDatabase(t *testing.T) {
	c, err := New(&config.Config{})
	require.NoError(t, err)

	require.NoError(t, c.Connect(context.Background()))
	assert.False(t, c.Recorder.Enabled())
	assert.Nil(t, c.DB)
	assert.NoError(t, c.Close())
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestInitWithDatabase(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS cluster_runs")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	c, err := New(&config.Config{})
	require.NoError(t, err)
	require.NoError(t, c.InitWithDatabase(context.Background(), sqlx.NewDb(mockDB, "postgres")))

	assert.True(t, c.Recorder.Enabled())
	assert.NotNil(t, c.RunRepo)
	require.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitWithDatabasePingFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()
	mock.ExpectPing().WillReturnError(fmt.Errorf("no route to host"))

	c, err := New(&config.Config{})
	require.NoError(t, err)
	err = c.InitWithDatabase(context.Background(), sqlx.NewDb(mockDB, "postgres"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.False(t, c.Recorder.Enabled())
}
