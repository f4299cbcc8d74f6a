package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Remote: RemoteConfig{BaseURL: "https://sync.shelfmark.app"},
		Auth:   AuthConfig{TokenPublicKey: defaultTokenPublicKey},
		Sync:   SyncConfig{Cooldown: 30 * time.Second},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_RemoteURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://sync.shelfmark.app", true},
		{"http://localhost:9000", true},
		{"", false},
		{"sync.shelfmark.app", false},
		{"ftp://sync.shelfmark.app", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := validConfig()
			cfg.Remote.BaseURL = tt.url

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.BasePath = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_MissingTokenKey(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.TokenPublicKey = ""
	assert.Error(t, cfg.Validate())
}

func TestDerivedPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Data.BasePath = "/data/shelfmark"

	assert.Equal(t, filepath.Join("/data/shelfmark", "db"), cfg.DBPath())
	assert.Equal(t, filepath.Join("/data/shelfmark", "search"), cfg.SearchPath())
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("SHELFMARK_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "SHELFMARK_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "SHELFMARK_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "SHELFMARK_TEST_MISSING", "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"TRUE", true},
		{"false", false},
		{"0", false},
		{"nonsense", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, getBoolConfigValue(tt.value, "SHELFMARK_TEST_MISSING", !tt.expected))
		})
	}

	// Empty everywhere falls back to the default.
	assert.True(t, getBoolConfigValue("", "SHELFMARK_TEST_MISSING", true))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# comment\nSHELFMARK_ENVFILE_A=hello\nSHELFMARK_ENVFILE_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	t.Cleanup(func() {
		_ = os.Unsetenv("SHELFMARK_ENVFILE_A")
		_ = os.Unsetenv("SHELFMARK_ENVFILE_B")
	})

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("SHELFMARK_ENVFILE_A"))
	assert.Equal(t, "quoted", os.Getenv("SHELFMARK_ENVFILE_B"))
}

func TestLoadEnvFile_DoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SHELFMARK_ENVFILE_C=file\n"), 0o600))

	t.Setenv("SHELFMARK_ENVFILE_C", "real")

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "real", os.Getenv("SHELFMARK_ENVFILE_C"))
}
