package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smallbiznis/settlement/internal/config"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsDuplicateKeyErr(errors.New("Error 1062 (23000): Duplicate entry")))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: organization_settlements.organization_id")))
}

func TestDialect(t *testing.T) {
	cfg := testConfig("postgres")
	d, err := Dialect(cfg)
	assert.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialect(testConfig("MySQL"))
	assert.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = Dialect(testConfig("oracle"))
	assert.Error(t, err)
}

func testConfig(dbType string) config.Config {
	return config.Config{
		DBType:     dbType,
		DBHost:     "localhost",
		DBPort:     "5432",
		DBName:     "settlement",
		DBUser:     "postgres",
		DBPassword: "secret",
		DBSSLMode:  "disable",
	}
}
