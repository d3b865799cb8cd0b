package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cbioportal-query-assistant/internal/domain"
)

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(domain.DatabaseConfig{
		Host:            "db",
		Port:            5433,
		Database:        "cbio",
		Username:        "svc",
		Password:        "pw",
		SSLMode:         "require",
		MaxOpenConns:    8,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})

	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, int32(2), cfg.MinConns)
	assert.Equal(t, "host=db port=5433 dbname=cbio user=svc password=pw sslmode=require", cfg.DSN())
}

func TestConfigDSNPrefersURL(t *testing.T) {
	cfg := Config{URL: "postgres://u:p@h:5432/d", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@h:5432/d", cfg.DSN())
}
