package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_InvalidDSN(t *testing.T) {
	db, err := Connect("not-a-dsn")

	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestMigrationsPath(t *testing.T) {
	// package tests run from internal/database
	assert.Equal(t, "file://../../migrations", MigrationsPath())
}
