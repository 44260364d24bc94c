package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return gdb, mock
}

const selectSites = "SELECT \\* FROM `merchant_sites` WHERE host IN"

func TestStoreResolver_MostSpecificWins(t *testing.T) {
	gdb, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "merchant_id", "host", "template", "enabled"}).
		AddRow(1, 10, "*.marerex.com", "default", true).
		AddRow(2, 10, "shop.marerex.com", "enterprise", true)
	mock.ExpectQuery(selectSites).
		WithArgs("shop.marerex.com", "*.marerex.com", true).
		WillReturnRows(rows)

	got, err := NewStoreResolver(gdb).ResolveTemplateForHost(context.Background(), "Shop.Marerex.com:443")
	require.NoError(t, err)
	assert.Equal(t, "enterprise", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreResolver_Wildcard(t *testing.T) {
	gdb, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "merchant_id", "host", "template", "enabled"}).
		AddRow(1, 10, "*.marerex.com", "enterprise", true)
	mock.ExpectQuery(selectSites).WillReturnRows(rows)

	got, err := NewStoreResolver(gdb).ResolveTemplateForHost(context.Background(), "m.marerex.com")
	require.NoError(t, err)
	assert.Equal(t, "enterprise", got)
}

func TestStoreResolver_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectQuery(selectSites).
		WillReturnRows(sqlmock.NewRows([]string{"id", "merchant_id", "host", "template", "enabled"}))

	_, err := NewStoreResolver(gdb).ResolveTemplateForHost(context.Background(), "unknown.org")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreResolver_EmptyHost(t *testing.T) {
	gdb, mock := newMockDB(t)

	_, err := NewStoreResolver(gdb).ResolveTemplateForHost(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query for an empty host")
}

func TestStoreResolver_QueryError(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectQuery(selectSites).WillReturnError(errors.New("connection refused"))

	_, err := NewStoreResolver(gdb).ResolveTemplateForHost(context.Background(), "marerex.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
