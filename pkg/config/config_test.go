package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTOML = `
service_name = "onboarding"
environment = "staging"

[http]
port = 9000

[database]
driver = "sqlite"
dsn = "file::memory:"

[onboarding]
tracking_prefix = "LLC"
public_base_url = "https://portal.example.com"

[[onboarding.staff]]
username = "alice"
password_hash = "$2a$10$abcdefghijklmnopqrstuv"
role = "admin"
`

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onboarding.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, 9000, cfg.HTTP.Port)
	require.Equal(t, 50051, cfg.GRPC.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "https://portal.example.com", cfg.Onboarding.PublicBaseURL)
	require.Len(t, cfg.Onboarding.Staff, 1)
	require.Equal(t, "admin", cfg.Onboarding.Staff[0].Role)
	require.False(t, cfg.Kafka.Enabled())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Database.Driver)
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, "LLC", cfg.Onboarding.TrackingPrefix)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("APP_HTTP_PORT", "7070")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.HTTP.Port)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		ServiceName: "onboarding",
		HTTP:        HTTPConfig{Port: 8080},
		Database:    DatabaseConfig{Driver: "mysql"},
		Onboarding:  OnboardingConfig{TrackingPrefix: "LLC"},
	}
	require.ErrorContains(t, cfg.Validate(), "DSN is required")

	cfg.Database.DSN = "user:pass@tcp(localhost:3306)/onboarding"
	require.NoError(t, cfg.Validate())
	require.Equal(t, "dev", cfg.Environment)

	cfg.Onboarding.Staff = []StaffAccount{{Username: "bob", PasswordHash: "x", Role: "owner"}}
	require.ErrorContains(t, cfg.Validate(), "invalid role")
}
