package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database_url": "postgres://localhost/dealbrief",
		"model": "gemini-2.5-flash",
		"temperature": 0.2,
		"max_attempts": 3
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "postgres://localhost/dealbrief", cfg.DatabaseURL)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{"port": `)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "zero value ok", cfg: Config{}},
		{name: "typical", cfg: Config{Port: 8080, Temperature: 0.1, MaxAttempts: 2}},
		{name: "port too large", cfg: Config{Port: 70000}, wantErr: true},
		{name: "negative port", cfg: Config{Port: -1}, wantErr: true},
		{name: "temperature above one", cfg: Config{Temperature: 1.5}, wantErr: true},
		{name: "negative temperature", cfg: Config{Temperature: -0.1}, wantErr: true},
		{name: "negative attempts", cfg: Config{MaxAttempts: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Port: 9000}
	merged := cfg.MergeWithDefaults(Config{
		Port:        8080,
		DatabaseURL: "postgres://localhost/dealbrief",
		Model:       "gemini-2.5-flash",
		Temperature: 0.3,
		MaxAttempts: 4,
	})

	assert.Equal(t, 9000, merged.Port, "explicit value wins")
	assert.Equal(t, "postgres://localhost/dealbrief", merged.DatabaseURL)
	assert.Equal(t, "gemini-2.5-flash", merged.Model)
	assert.Equal(t, 0.3, merged.Temperature)
	assert.Equal(t, 4, merged.MaxAttempts)
}

func TestMergeWithDefaults_BuiltinFallbacks(t *testing.T) {
	merged := (&Config{}).MergeWithDefaults(Config{})

	assert.Equal(t, 0.1, merged.Temperature)
	assert.Equal(t, 2, merged.MaxAttempts)
}
