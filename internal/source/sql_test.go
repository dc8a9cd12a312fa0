package source

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSource(t *testing.T) (*SQLSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	src := &SQLSource{
		DB: db,
		Queries: map[RowType]string{
			RowTables:    "SELECT TABLE_SCHEM, TABLE_NAME FROM TABLES",
			RowCalcViews: "SELECT TABLE_SCHEM, PACKAGE_ID, VIEW_NAME, ROUTINE_DEFINITION FROM VIEWS",
		},
	}
	return src, mock
}

func TestSQLSourceFetch(t *testing.T) {
	src, mock := newMockSource(t)

	mock.ExpectQuery("SELECT TABLE_SCHEM, TABLE_NAME FROM TABLES").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_SCHEM", "TABLE_NAME"}).
			AddRow("SALES", "ORDERS").
			AddRow("SALES", []byte("CUSTOMERS")))

	records, err := src.Fetch(context.Background(), RowTables)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "SALES", records[0].Str(FieldSchema))
	assert.Equal(t, "ORDERS", records[0].Str(FieldTableName))
	assert.Equal(t, "CUSTOMERS", records[1].Str(FieldTableName), "byte slices decode to strings")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSourceFetchQueryError(t *testing.T) {
	src, mock := newMockSource(t)

	driverErr := errors.New("insufficient privilege")
	mock.ExpectQuery("SELECT TABLE_SCHEM, TABLE_NAME FROM TABLES").WillReturnError(driverErr)

	_, err := src.Fetch(context.Background(), RowTables)
	require.Error(t, err)
	assert.ErrorIs(t, err, driverErr)
}

func TestSQLSourceFetchUnknownRowType(t *testing.T) {
	src, _ := newMockSource(t)

	_, err := src.Fetch(context.Background(), RowType("bogus"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no query configured")
}

func TestSQLSourceCheckAccessZeroRows(t *testing.T) {
	// An empty result is readable; only a driver error denies access.
	src, mock := newMockSource(t)

	mock.ExpectQuery("SELECT TABLE_SCHEM, TABLE_NAME FROM TABLES").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_SCHEM", "TABLE_NAME"}))

	assert.NoError(t, src.CheckAccess(context.Background(), RowTables))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSourceCheckAccessDenied(t *testing.T) {
	src, mock := newMockSource(t)

	driverErr := errors.New("authorization failed")
	mock.ExpectQuery("SELECT TABLE_SCHEM, TABLE_NAME FROM TABLES").WillReturnError(driverErr)

	err := src.CheckAccess(context.Background(), RowTables)
	require.Error(t, err)
	assert.ErrorIs(t, err, driverErr)
}
