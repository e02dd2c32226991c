package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.True(t, cfg.DB.Migrate)
	assert.True(t, cfg.JWT.RefreshRoles)
	assert.Equal(t, "ledger.events", cfg.Events.Exchange)
}

func TestLoad_EntornoTienePrioridad(t *testing.T) {
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_MIGRATE", "false")
	t.Setenv("JWT_EXPIRATION_MINUTES", "no-es-numero")
	t.Setenv("AUTH_REFRESH_ROLES", "false")
	t.Setenv("RECEIPT_STORE_NAME", "Tienda Centro")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.False(t, cfg.DB.Migrate)
	assert.Equal(t, 60, cfg.JWT.Expiration)
	assert.False(t, cfg.JWT.RefreshRoles)
	assert.Equal(t, "Tienda Centro", cfg.App.StoreName)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDSN_EscapaContrasena(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss:w", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%3Aw@db:5432/ledger?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
