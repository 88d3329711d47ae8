package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/gatehouse/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Load with no config files should use defaults
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(0), cfg.Server.MaxUploadSize)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "gatehouse.db", cfg.Database.DSN)
	assert.Equal(t, "gatehouse_users", cfg.Database.Tables.Users)
	assert.Equal(t, "", cfg.Auth.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "admin", cfg.Auth.Bootstrap.Username)
	assert.Equal(t, "", cfg.Auth.Bootstrap.Password)
	assert.False(t, cfg.CORS.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
env: production
server:
  port: 9000
  max_upload_size: 1048576
storage:
  path: /srv/share
database:
  type: postgres
  dsn: postgres://localhost/test
  tables:
    users: custom_users
auth:
  secret: s3cr3t
  token_ttl: 45s
  bcrypt_cost: 12
  bootstrap:
    username: root
    password: P@ssW0rd!
log:
  level: debug
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, int64(1048576), cfg.Server.MaxUploadSize)
	assert.Equal(t, "/srv/share", cfg.Storage.Path)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgres://localhost/test", cfg.Database.DSN)
	assert.Equal(t, "custom_users", cfg.Database.Tables.Users)
	assert.Equal(t, "s3cr3t", cfg.Auth.Secret)
	assert.Equal(t, 45*time.Second, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "root", cfg.Auth.Bootstrap.Username)
	assert.Equal(t, "P@ssW0rd!", cfg.Auth.Bootstrap.Password)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	basePath := writeConfig(t, "base.yaml", `
server:
  port: 8080
database:
  type: sqlite
  dsn: base.db
auth:
  token_ttl: 10m
log:
  level: info
`)
	overridePath := writeConfig(t, "override.yaml", `
server:
  port: 9001
auth:
  token_ttl: 1h
`)

	// Load with merge (later files override earlier)
	cfg, err := config.Load([]string{basePath, overridePath}, nil)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)

	// Preserved values from base
	assert.Equal(t, "base.db", cfg.Database.DSN)
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "port out of range",
			content: `
server:
  port: 99999
`,
		},
		{
			name: "unknown database type",
			content: `
database:
  type: mongodb
`,
		},
		{
			name: "zero token ttl",
			content: `
auth:
  token_ttl: 0s
`,
		},
		{
			name: "bcrypt cost too low",
			content: `
auth:
  bcrypt_cost: 2
`,
		},
		{
			name: "unknown log level",
			content: `
log:
  level: verbose
`,
		},
		{
			name: "empty bootstrap username",
			content: `
auth:
  bootstrap:
    username: ""
`,
		},
		{
			name: "negative upload size",
			content: `
server:
  max_upload_size: -1
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, "config.yaml", tt.content)

			_, err := config.Load([]string{configPath}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoad_MemoryBackendWithoutDSN(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
database:
  type: memory
  dsn: ""
auth:
  users:
    file: /etc/gatehouse/users.json
    inline:
      - username: alice
        password_hash: $2a$10$abcdefghijklmnopqrstuv
      - username: carol
        password_hash: $2a$10$zyxwvutsrqponmlkjihgfe
        disabled: true
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Type)
	assert.Equal(t, "/etc/gatehouse/users.json", cfg.Auth.Users.File)
	require.Len(t, cfg.Auth.Users.Inline, 2)
	assert.Equal(t, "alice", cfg.Auth.Users.Inline[0].Username)
	assert.False(t, cfg.Auth.Users.Inline[0].Disabled)
	assert.Equal(t, "carol", cfg.Auth.Users.Inline[1].Username)
	assert.True(t, cfg.Auth.Users.Inline[1].Disabled)
}

func TestLoad_WithCORS(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
cors:
  enabled: true
  allowed_origins:
    - https://example.com
    - https://app.example.com
  allowed_methods:
    - GET
    - POST
  allowed_headers:
    - Authorization
  max_age: 600
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://example.com", "https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "POST"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, []string{"Authorization"}, cfg.CORS.AllowedHeaders)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("GATEHOUSE_SERVER_PORT", "9090")
	t.Setenv("GATEHOUSE_DATABASE_TYPE", "postgres")
	t.Setenv("GATEHOUSE_AUTH_SECRET", "from-env")
	t.Setenv("GATEHOUSE_AUTH_TOKEN_TTL", "2h")
	t.Setenv("GATEHOUSE_AUTH_BOOTSTRAP_PASSWORD", "env-pass")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "env-pass", cfg.Auth.Bootstrap.Password)
}

func TestLoad_Flags(t *testing.T) {
	t.Setenv("GATEHOUSE_SERVER_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	flags.String("storage-path", "./data", "")
	flags.String("db-type", "sqlite", "")
	require.NoError(t, flags.Parse([]string{"--port", "7000", "--storage-path", "/mnt/share"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	// Set flags win over env; unset flags do not override anything.
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/mnt/share", cfg.Storage.Path)
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestFromContext_Missing(t *testing.T) {
	_, err := config.FromContext(context.Background())
	assert.Error(t, err)
}
