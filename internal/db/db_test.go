package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/regionspawn/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.DefaultSpawner().Database
	cfg.MaxConns = 7
	cfg.ConnectTimeout = 3 * time.Second

	poolCfg, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(7), poolCfg.MaxConns)
	assert.Equal(t, 3*time.Second, poolCfg.ConnConfig.ConnectTimeout)
	assert.Equal(t, "regionspawn", poolCfg.ConnConfig.Database)
}

func TestPoolConfig_ZeroKeepsDriverDefaults(t *testing.T) {
	cfg := config.DefaultSpawner().Database
	cfg.MaxConns = 0
	cfg.ConnectTimeout = 0

	poolCfg, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Positive(t, poolCfg.MaxConns)
}

func TestNew_ConnectsAndPings(t *testing.T) {
	setupTestDB(t)

	d, err := New(context.Background(), testDBConfig)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, testDBConfig.MaxConns, d.Pool().Config().MaxConns)
	require.NoError(t, d.Pool().Ping(context.Background()))
}

func TestNew_UnreachableHost(t *testing.T) {
	cfg := config.DefaultSpawner().Database
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.ConnectTimeout = 500 * time.Millisecond

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	sqlDB, err := sql.Open("pgx", stdlib.RegisterConnConfig(pool.Config().ConnConfig))
	require.NoError(t, err)
	defer sqlDB.Close()

	first, err := migrate(context.Background(), sqlDB)
	require.NoError(t, err)
	second, err := migrate(context.Background(), sqlDB)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, first, second)
}
