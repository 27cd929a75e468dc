package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: pelviu-funnel
apis:
  genai:
    provider: disabled
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, "pelviu_leads_db", cfg.Store.SlotKey)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 8080, cfg.Server.MetricsPort)
	assert.Equal(t, "1234", cfg.Server.AdminPIN)
	assert.Equal(t, "gemini-3-flash-preview", cfg.APIs.GenAI.Model)
	assert.Equal(t, 8000, cfg.APIs.GenAI.Timeout)
	assert.InDelta(t, 0.7, cfg.APIs.GenAI.Temperature, 1e-9)
	assert.InDelta(t, 0.9, cfg.APIs.GenAI.TopP, 1e-9)
	assert.Equal(t, "34676399138", cfg.Booking.WhatsAppNumber)
	assert.Equal(t, "pelviu-leads", cfg.Search.Index)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_EnvOverridesAndExpansion(t *testing.T) {
	t.Setenv("PELVIU_REDIS_ADDR", "localhost:6390")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("ADMIN_PIN", "9876")

	path := writeConfig(t, `
store:
  backend: memory
database:
  redis:
    address: ${PELVIU_REDIS_ADDR}
apis:
  genai:
    provider: disabled
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, StoreBackendRedis, cfg.Store.Backend)
	assert.Equal(t, "localhost:6390", cfg.Database.Redis.Address)
	assert.Equal(t, "9876", cfg.Server.AdminPIN)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "redis store without address",
			body: `
store:
  backend: redis
apis:
  genai:
    provider: disabled
`,
			wantErr: "database.redis.address",
		},
		{
			name: "postgres store without host",
			body: `
store:
  backend: postgres
apis:
  genai:
    provider: disabled
`,
			wantErr: "database.postgres.host",
		},
		{
			name: "unknown backend",
			body: `
store:
  backend: mongo
apis:
  genai:
    provider: disabled
`,
			wantErr: "unknown store.backend",
		},
		{
			name: "unknown genai provider",
			body: `
apis:
  genai:
    provider: openai
`,
			wantErr: "apis.genai.provider",
		},
		{
			name: "search without elasticsearch",
			body: `
search:
  enabled: true
apis:
  genai:
    provider: disabled
`,
			wantErr: "database.elasticsearch",
		},
		{
			name: "ses without recipient",
			body: `
integrations:
  aws:
    ses:
      enabled: true
      from_email: noreply@pelviu.es
apis:
  genai:
    provider: disabled
`,
			wantErr: "integrations.aws.ses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GENAI_API_KEY", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_GeminiWithoutKeyLoads(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "")
	cfg, err := LoadFromFile(writeConfig(t, `
apis:
  genai:
    provider: gemini
    api_key: ""
`))
	require.NoError(t, err)
	assert.Equal(t, GenAIProviderGemini, cfg.APIs.GenAI.Provider)
	assert.Empty(t, cfg.APIs.GenAI.APIKey)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "pelviu", Password: "secret", Database: "funnel", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=pelviu password=secret dbname=funnel sslmode=disable", p.GetDSN())
}

func TestElasticsearchConfig_GetAddresses(t *testing.T) {
	assert.Nil(t, ElasticsearchConfig{}.GetAddresses())
	assert.Equal(t, []string{"http://es:9200"}, ElasticsearchConfig{URL: "http://es:9200"}.GetAddresses())
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"},
		ElasticsearchConfig{Addresses: []string{"http://a:9200", "http://b:9200"}, URL: "http://c:9200"}.GetAddresses())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
