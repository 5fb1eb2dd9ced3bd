package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does-not-exist.toml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.ChatModel)
	assert.Zero(t, cfg.OpenAI.Temperature)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, 6, cfg.Retrieval.HistoryWindow)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does-not-exist.toml")
	t.Setenv("OPENAI_CHAT_MODEL", "gpt-4o")
	t.Setenv("RETRIEVAL_TOP_K", "8")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.OpenAI.ChatModel)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, 9090, cfg.App.Port)
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.User = "u"
	cfg.MySQL.Password = "p"
	cfg.MySQL.DB = "d"
	cfg.MySQL.Params = "parseTime=true"

	assert.Equal(t, "u:p@tcp(127.0.0.1:3306)/d?parseTime=true", cfg.MySQLDSN())
}

func TestPlanBySlug(t *testing.T) {
	free := PlanBySlug("free")
	assert.Equal(t, 10, free.Quota)
	assert.Equal(t, 5, free.PagesPerDoc)
	assert.Equal(t, 0, free.PriceUSD)

	pro := PlanBySlug("pro")
	assert.Equal(t, 50, pro.Quota)
	assert.Equal(t, 1000, pro.PagesPerDoc)
	assert.Equal(t, 40, pro.PriceUSD)

	assert.Equal(t, "free", PlanBySlug("unknown").Slug)
}
