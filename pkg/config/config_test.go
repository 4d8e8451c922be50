package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/appgestion-api/pkg/config"
)

func TestLoad_LeeVariablesDeEntorno(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SUBSCRIPTION_SKIP_CHECK", "true")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "secreto", cfg.JWT.Secret)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Subscription.SkipCheck, "SUBSCRIPTION_SKIP_CHECK=true debe desactivar el filtro")
	assert.Equal(t, "whsec_test", cfg.Stripe.WebhookSecret)
	assert.Equal(t, "0 0 * * *", cfg.Subscription.SweepSpec, "el barrido por defecto es a medianoche")
}

func TestLoad_PoolDeBaseDeDatos(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")
	t.Setenv("DB_MAX_CONNS", "40")
	t.Setenv("DB_MAX_CONN_IDLE_TIME", "5m")
	t.Setenv("DB_MAX_CONN_LIFETIME", "no-es-duracion")
	t.Setenv("DB_FORCE_IPV4", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, int32(40), cfg.DB.MaxConns)
	assert.Equal(t, int32(1), cfg.DB.MinConns)
	assert.Equal(t, 5*time.Minute, cfg.DB.MaxConnIdleTime)
	assert.Equal(t, time.Hour, cfg.DB.MaxConnLifetime, "un valor inválido usa el de por defecto")
	assert.True(t, cfg.DB.ForceIPv4)
}

func TestLoad_SinJWTSecret_RetornaError(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err, "sin JWT_SECRET la configuración no es válida")
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "gestion", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/gestion?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro/db"
	assert.Equal(t, "postgres://otro/db", c.ConnectionString(), "DATABASE_URL tiene prioridad")
}
