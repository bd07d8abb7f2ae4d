package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/pkg/config"
)

const testOwner = "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("LEDGER_OWNER", testOwner)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1", cfg.Ledger.Owner.String(), "el owner se normaliza a minúsculas")
	assert.Equal(t, config.StoreMemory, cfg.Ledger.Store)
	assert.Equal(t, 256, cfg.Ledger.QueueSize)
	assert.Equal(t, 5*time.Minute, cfg.Ledger.CheckpointInterval)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "ledger:events", cfg.Redis.Channel)
	assert.Equal(t, 64, cfg.Events.SubscriberBuffer)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("LEDGER_OWNER", testOwner)
	t.Setenv("LEDGER_STORE", "Postgres")
	t.Setenv("LEDGER_CHECKPOINT_INTERVAL", "30s")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("DB_PASSWORD", "p@ss:word")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorePostgres, cfg.Ledger.Store)
	assert.Equal(t, 30*time.Second, cfg.Ledger.CheckpointInterval)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Contains(t, cfg.DB.DSN(), "p%40ss%3Aword", "la contraseña debe ir codificada en la URL")
}

func TestLoad_OwnerObligatorio(t *testing.T) {
	t.Setenv("LEDGER_OWNER", "")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("LEDGER_OWNER", "0x1234")
	_, err = config.Load()
	assert.ErrorContains(t, err, "LEDGER_OWNER")
}

func TestLoad_StoreDesconocido(t *testing.T) {
	t.Setenv("LEDGER_OWNER", testOwner)
	t.Setenv("LEDGER_STORE", "mysql")
	_, err := config.Load()
	assert.ErrorContains(t, err, "LEDGER_STORE")
}

func TestDBConfig_ConnectionStringPrefiereURL(t *testing.T) {
	c := config.DBConfig{DatabaseURL: "postgres://u:p@db:5432/x", Host: "otro"}
	assert.Equal(t, "postgres://u:p@db:5432/x", c.ConnectionString())
}
