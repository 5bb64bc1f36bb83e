package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_EngineConfig(t *testing.T) {
	os.Setenv("ENGINE_FUZZY_THRESHOLD", "0.25")
	os.Setenv("ENGINE_FUZZY_MAPPING_FLOOR", "0.6")
	os.Setenv("ENGINE_SYNONYM_CONFIG", "/etc/engine/synonyms.json")
	os.Setenv("ENGINE_SEARCH_CACHE_TTL", "120")
	defer func() {
		os.Unsetenv("ENGINE_FUZZY_THRESHOLD")
		os.Unsetenv("ENGINE_FUZZY_MAPPING_FLOOR")
		os.Unsetenv("ENGINE_SYNONYM_CONFIG")
		os.Unsetenv("ENGINE_SEARCH_CACHE_TTL")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Engine.FuzzyScoreThreshold)
	assert.Equal(t, 0.6, cfg.Engine.FuzzyMappingFloor)
	assert.Equal(t, "/etc/engine/synonyms.json", cfg.Engine.SynonymConfigPath)
	assert.Equal(t, 120, cfg.Engine.SearchCacheTTLSeconds)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("ENGINE_FUZZY_THRESHOLD")
	os.Unsetenv("DB_NAME")
	os.Unsetenv("OTEL_SERVICE_NAME")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "lab_price_compare", cfg.Database.Database)
	assert.Equal(t, 0.15, cfg.Engine.FuzzyScoreThreshold)
	assert.Equal(t, 0.5, cfg.Engine.FuzzyMappingFloor)
	assert.Equal(t, 300, cfg.Engine.SearchCacheTTLSeconds)
	assert.Equal(t, "lab-price-compare", cfg.OTEL.ServiceName)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	os.Setenv("ENGINE_FUZZY_THRESHOLD", "not-a-number")
	os.Setenv("DB_PORT", "not-a-port")
	defer func() {
		os.Unsetenv("ENGINE_FUZZY_THRESHOLD")
		os.Unsetenv("DB_PORT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 0.15, cfg.Engine.FuzzyScoreThreshold)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5433, User: "app", Password: "secret",
		Database: "lab_price_compare", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5433 user=app password=secret dbname=lab_price_compare sslmode=disable",
		cfg.DatabaseDSN())
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
}
