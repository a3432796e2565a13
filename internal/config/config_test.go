package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 2, cfg.Settings.DebounceDelaySeconds)
	assert.Equal(t, 10, cfg.Settings.CooldownSeconds)
	assert.Equal(t, 100, cfg.Settings.MaxFileSizeMB)
	assert.True(t, cfg.Settings.EmailOnChange())
	assert.False(t, cfg.Settings.Archive())
	assert.True(t, cfg.Settings.Persist())

	assert.Equal(t, "smtp", cfg.Email.Provider)
	assert.Equal(t, 587, cfg.Email.SMTP.Port)
	assert.Equal(t, 3, cfg.Email.SMTP.RetryAttempts)
	assert.Equal(t, 50, cfg.Email.MaxRecipients)

	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, "mock", cfg.Search.Provider)
	assert.Equal(t, "mock", cfg.Signature.Provider)

	assert.Equal(t, 993, cfg.Mailbox.IMAP.Port)
	assert.Equal(t, "INBOX", cfg.Mailbox.IMAP.Mailbox)
	assert.Equal(t, 25, cfg.Mailbox.Fetch.MaxAttachmentSizeMB)
	assert.Equal(t, 10, cfg.Mailbox.AutoReply.PollSeconds)

	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestSettingsDurations(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 2*time.Second, cfg.Settings.DebounceDelay())
	assert.Equal(t, 10*time.Second, cfg.Settings.Cooldown())
}

func TestLoadProjectConfig(t *testing.T) {
	// Given a project directory with a .watchpost.yaml
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	content := `
settings:
  debounce_delay_seconds: 5
  cooldown_seconds: 60
  send_email_on_change: false
directories:
  - path: /srv/drop
    recursive: true
    notify_email: ops@example.com
email:
  provider: mock
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".watchpost.yaml"), []byte(content), 0o644))

	// When loading from that directory
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then file values override defaults, and untouched defaults survive
	assert.Equal(t, 5, cfg.Settings.DebounceDelaySeconds)
	assert.Equal(t, 60, cfg.Settings.CooldownSeconds)
	assert.False(t, cfg.Settings.EmailOnChange())
	assert.Equal(t, 100, cfg.Settings.MaxFileSizeMB)
	assert.Equal(t, "mock", cfg.Email.Provider)
	require.Len(t, cfg.Directories, 1)
	assert.Equal(t, "/srv/drop", cfg.Directories[0].Path)
	assert.True(t, cfg.Directories[0].Recursive)
	assert.True(t, cfg.Directories[0].IsEnabled())
}

func TestLoadYmlFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	content := "settings:\n  debounce_delay_seconds: 7\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".watchpost.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Settings.DebounceDelaySeconds)
}

func TestProjectOverridesUserConfig(t *testing.T) {
	// Given both a user config and a project config
	dir := t.TempDir()
	xdg := filepath.Join(dir, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	userDir := filepath.Join(xdg, "watchpost")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	userCfg := `
settings:
  debounce_delay_seconds: 4
  cooldown_seconds: 30
email:
  smtp:
    host: smtp.user.example
`
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte(userCfg), 0o644))

	projectCfg := "settings:\n  debounce_delay_seconds: 9\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".watchpost.yaml"), []byte(projectCfg), 0o644))

	// When loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then project wins where set, user fills the rest
	assert.Equal(t, 9, cfg.Settings.DebounceDelaySeconds)
	assert.Equal(t, 30, cfg.Settings.CooldownSeconds)
	assert.Equal(t, "smtp.user.example", cfg.Email.SMTP.Host)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("WATCHPOST_EMAIL_PROVIDER", "mock")
	t.Setenv("WATCHPOST_SMTP_PASSWORD", "sekrit")
	t.Setenv("WATCHPOST_DEBOUNCE_SECONDS", "11")
	t.Setenv("WATCHPOST_COOLDOWN_SECONDS", "0")
	t.Setenv("WATCHPOST_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Email.Provider)
	assert.Equal(t, "sekrit", cfg.Email.SMTP.Password)
	assert.Equal(t, 11, cfg.Settings.DebounceDelaySeconds)
	assert.Equal(t, 0, cfg.Settings.CooldownSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".watchpost.yaml"), []byte("settings: [not a map"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "zero debounce",
			mutate: func(c *Config) { c.Settings.DebounceDelaySeconds = 0 },
			want:   "debounce_delay_seconds",
		},
		{
			name:   "negative cooldown",
			mutate: func(c *Config) { c.Settings.CooldownSeconds = -1 },
			want:   "cooldown_seconds",
		},
		{
			name:   "unknown email provider",
			mutate: func(c *Config) { c.Email.Provider = "carrier-pigeon" },
			want:   "email.provider",
		},
		{
			name:   "unknown storage provider",
			mutate: func(c *Config) { c.Storage.Provider = "floppy" },
			want:   "storage.provider",
		},
		{
			name:   "unknown search provider",
			mutate: func(c *Config) { c.Search.Provider = "grep" },
			want:   "search.provider",
		},
		{
			name:   "unknown signature provider",
			mutate: func(c *Config) { c.Signature.Provider = "fax" },
			want:   "signature.provider",
		},
		{
			name: "enabled directory without notify_email",
			mutate: func(c *Config) {
				c.Directories = []DirectoryConfig{{Path: "/srv/drop"}}
			},
			want: "notify_email",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "loud" },
			want:   "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDisabledDirectorySkipsEmailRequirement(t *testing.T) {
	cfg := NewConfig()
	disabled := false
	cfg.Directories = []DirectoryConfig{{Path: "/srv/drop", Enabled: &disabled}}
	require.NoError(t, cfg.Validate())
}

func TestMaxFileSizeInheritance(t *testing.T) {
	cfg := NewConfig()
	cfg.Settings.MaxFileSizeMB = 100

	inherit := DirectoryConfig{Path: "/a"}
	override := DirectoryConfig{Path: "/b", MaxFileSizeMB: 5}

	assert.Equal(t, int64(100)*1024*1024, cfg.MaxFileSize(inherit))
	assert.Equal(t, int64(5)*1024*1024, cfg.MaxFileSize(override))
}

func TestEnabledDirectories(t *testing.T) {
	disabled := false
	cfg := NewConfig()
	cfg.Directories = []DirectoryConfig{
		{Path: "/srv/a", NotifyEmail: "a@example.com"},
		{Path: "/srv/b", NotifyEmail: "b@example.com", Enabled: &disabled},
	}

	dirs := cfg.EnabledDirectories()
	require.Len(t, dirs, 1)
	assert.Equal(t, "/srv/a", dirs[0].Path)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := NewConfig()
	cfg.Settings.DebounceDelaySeconds = 3
	cfg.Directories = []DirectoryConfig{{Path: "/srv/drop", NotifyEmail: "ops@example.com"}}
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, 3, loaded.Settings.DebounceDelaySeconds)
	require.Len(t, loaded.Directories, 1)
	assert.Equal(t, "ops@example.com", loaded.Directories[0].NotifyEmail)
}
