package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Watchpost configuration.
type Config struct {
	Settings    SettingsConfig    `yaml:"settings" json:"settings"`
	Directories []DirectoryConfig `yaml:"directories" json:"directories"`
	Email       EmailConfig       `yaml:"email" json:"email"`
	Storage     StorageConfig     `yaml:"storage" json:"storage"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Signature   SignatureConfig   `yaml:"signature" json:"signature"`
	Mailbox     MailboxConfig     `yaml:"mailbox" json:"mailbox"`
	History     HistoryConfig     `yaml:"history" json:"history"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// SettingsConfig holds the global watch/notify tuning knobs.
// The boolean fields are pointers so a file can explicitly set them to
// false without the merge step mistaking that for "not set".
type SettingsConfig struct {
	// DebounceDelaySeconds is the quiet period after the last event
	// before a directory's pending changes are flushed.
	DebounceDelaySeconds int `yaml:"debounce_delay_seconds" json:"debounce_delay_seconds"`

	// CooldownSeconds is the minimum time after a successful notification
	// before the same file may trigger another one.
	CooldownSeconds int `yaml:"cooldown_seconds" json:"cooldown_seconds"`

	// MaxFileSizeMB is the global size ceiling for watched files.
	// Directories may override it per entry.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`

	SendEmailOnChange *bool `yaml:"send_email_on_change" json:"send_email_on_change"`
	ArchiveOnNotify   *bool `yaml:"archive_on_notify" json:"archive_on_notify"`
	PersistCooldowns  *bool `yaml:"persist_cooldowns" json:"persist_cooldowns"`
}

// DebounceDelay returns the debounce window as a duration.
func (s SettingsConfig) DebounceDelay() time.Duration {
	return time.Duration(s.DebounceDelaySeconds) * time.Second
}

// Cooldown returns the cooldown window as a duration.
func (s SettingsConfig) Cooldown() time.Duration {
	return time.Duration(s.CooldownSeconds) * time.Second
}

// EmailOnChange reports whether flushes send mail (default true).
func (s SettingsConfig) EmailOnChange() bool {
	return s.SendEmailOnChange == nil || *s.SendEmailOnChange
}

// Archive reports whether notified files are archived to storage first.
func (s SettingsConfig) Archive() bool {
	return s.ArchiveOnNotify != nil && *s.ArchiveOnNotify
}

// Persist reports whether the cooldown registry is snapshotted on stop.
func (s SettingsConfig) Persist() bool {
	return s.PersistCooldowns == nil || *s.PersistCooldowns
}

// DirectoryConfig describes one watched directory.
// Immutable after load; there is no hot reload.
type DirectoryConfig struct {
	Path        string `yaml:"path" json:"path"`
	Recursive   bool   `yaml:"recursive" json:"recursive"`
	Enabled     *bool  `yaml:"enabled" json:"enabled"`
	NotifyEmail string `yaml:"notify_email" json:"notify_email"`
	FromEmail   string `yaml:"from_email" json:"from_email"`

	// MaxFileSizeMB overrides settings.max_file_size_mb; 0 inherits.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`

	// Ignore holds doublestar glob patterns matched against paths
	// relative to the watched directory.
	Ignore []string `yaml:"ignore" json:"ignore"`
}

// IsEnabled reports whether this directory should be watched (default true).
func (d DirectoryConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// EmailConfig selects and configures the mail provider.
type EmailConfig struct {
	// Provider is "smtp" or "mock".
	Provider      string     `yaml:"provider" json:"provider"`
	SMTP          SMTPConfig `yaml:"smtp" json:"smtp"`
	MaxRecipients int        `yaml:"max_recipients" json:"max_recipients"`
}

// SMTPConfig holds the SMTP transport settings.
type SMTPConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	// UseSSL selects implicit TLS (port 465 style); otherwise STARTTLS.
	UseSSL         bool `yaml:"use_ssl" json:"use_ssl"`
	TimeoutSeconds int  `yaml:"timeout_seconds" json:"timeout_seconds"`
	RetryAttempts  int  `yaml:"retry_attempts" json:"retry_attempts"`
}

// Timeout returns the dial/send timeout as a duration.
func (s SMTPConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// StorageConfig selects and configures the object storage provider.
type StorageConfig struct {
	// Provider is "local", "s3" or "mock".
	Provider string             `yaml:"provider" json:"provider"`
	Local    LocalStorageConfig `yaml:"local" json:"local"`
	S3       S3Config           `yaml:"s3" json:"s3"`
}

// LocalStorageConfig roots local storage at a base directory.
type LocalStorageConfig struct {
	Root string `yaml:"root" json:"root"`
}

// S3Config holds S3-compatible endpoint settings (MinIO, AWS).
type S3Config struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"-"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
	Region    string `yaml:"region" json:"region"`
}

// SearchConfig selects and configures the search provider.
type SearchConfig struct {
	// Provider is "serper", "index" or "mock".
	Provider string            `yaml:"provider" json:"provider"`
	Serper   SerperConfig      `yaml:"serper" json:"serper"`
	Index    SearchIndexConfig `yaml:"index" json:"index"`
}

// SerperConfig holds the serper.dev web search API settings.
type SerperConfig struct {
	APIKey   string `yaml:"api_key" json:"-"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// SearchIndexConfig holds the local inventory index settings.
type SearchIndexConfig struct {
	Path string `yaml:"path" json:"path"`
}

// SignatureConfig selects and configures the e-signature provider.
type SignatureConfig struct {
	// Provider is "api" or "mock".
	Provider string             `yaml:"provider" json:"provider"`
	API      SignatureAPIConfig `yaml:"api" json:"api"`
}

// SignatureAPIConfig holds the REST e-signature backend settings.
type SignatureAPIConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key" json:"-"`
}

// MailboxConfig configures inbound mail: the IMAP account, fetch
// filters, and the auto-replier.
type MailboxConfig struct {
	IMAP      IMAPConfig      `yaml:"imap" json:"imap"`
	Fetch     FetchConfig     `yaml:"fetch" json:"fetch"`
	AutoReply AutoReplyConfig `yaml:"autoreply" json:"autoreply"`
}

// IMAPConfig holds the IMAP account settings.
type IMAPConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	Mailbox  string `yaml:"mailbox" json:"mailbox"`
	UseSSL   bool   `yaml:"use_ssl" json:"use_ssl"`
}

// FetchConfig filters which messages and attachments are fetched.
type FetchConfig struct {
	Senders             []string `yaml:"senders" json:"senders"`
	SubjectContains     string   `yaml:"subject_contains" json:"subject_contains"`
	DaysBack            int      `yaml:"days_back" json:"days_back"`
	AttachmentTypes     []string `yaml:"attachment_types" json:"attachment_types"`
	MaxAttachmentSizeMB int      `yaml:"max_attachment_size_mb" json:"max_attachment_size_mb"`
	OutputDir           string   `yaml:"output_dir" json:"output_dir"`
}

// AutoReplyConfig configures the inbox auto-replier.
type AutoReplyConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	PollSeconds int    `yaml:"poll_seconds" json:"poll_seconds"`
	Signature   string `yaml:"signature" json:"signature"`
}

// PollInterval returns the mailbox poll interval as a duration.
func (a AutoReplyConfig) PollInterval() time.Duration {
	return time.Duration(a.PollSeconds) * time.Second
}

// HistoryConfig configures the delivery history database.
type HistoryConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig configures the operational log.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	FilePath      string `yaml:"file_path" json:"file_path"`
	MaxSizeMB     int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	WriteToStderr *bool  `yaml:"write_to_stderr" json:"write_to_stderr"`
}

// Stderr reports whether logs are mirrored to stderr (default true).
func (l LoggingConfig) Stderr() bool {
	return l.WriteToStderr == nil || *l.WriteToStderr
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			DebounceDelaySeconds: 2,
			CooldownSeconds:      10,
			MaxFileSizeMB:        100,
		},
		Email: EmailConfig{
			Provider: "smtp",
			SMTP: SMTPConfig{
				Host:           "smtp.gmail.com",
				Port:           587,
				TimeoutSeconds: 30,
				RetryAttempts:  3,
			},
			MaxRecipients: 50,
		},
		Storage: StorageConfig{
			Provider: "local",
			Local: LocalStorageConfig{
				Root: filepath.Join(DataDir(), "archive"),
			},
		},
		Search: SearchConfig{
			Provider: "mock",
			Serper: SerperConfig{
				Endpoint: "https://google.serper.dev/search",
			},
			Index: SearchIndexConfig{
				Path: filepath.Join(DataDir(), "inventory.bleve"),
			},
		},
		Signature: SignatureConfig{
			Provider: "mock",
		},
		Mailbox: MailboxConfig{
			IMAP: IMAPConfig{
				Port:    993,
				Mailbox: "INBOX",
				UseSSL:  true,
			},
			Fetch: FetchConfig{
				DaysBack:            7,
				MaxAttachmentSizeMB: 25,
				OutputDir:           filepath.Join(DataDir(), "mail"),
			},
			AutoReply: AutoReplyConfig{
				PollSeconds: 10,
			},
		},
		History: HistoryConfig{
			Path: filepath.Join(DataDir(), "history.db"),
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// DataDir returns the watchpost data directory (~/.watchpost).
// Falls back to the temp directory if home is unavailable.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".watchpost")
	}
	return filepath.Join(home, ".watchpost")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/watchpost/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/watchpost/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "watchpost", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "watchpost", "config.yaml")
	}
	return filepath.Join(home, ".config", "watchpost", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/watchpost/config.yaml)
//  3. Project config (.watchpost.yaml in dir)
//  4. Environment variables (WATCHPOST_*)
//
// The result is validated; validation failures are fatal at startup.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .watchpost.yaml or .watchpost.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".watchpost.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".watchpost.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Use a temporary struct for parsing to detect type errors
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges set values from other into c. Scalars merge when
// non-zero, pointer booleans when non-nil, slices wholesale.
func (c *Config) mergeWith(other *Config) {
	// Settings
	if other.Settings.DebounceDelaySeconds != 0 {
		c.Settings.DebounceDelaySeconds = other.Settings.DebounceDelaySeconds
	}
	if other.Settings.CooldownSeconds != 0 {
		c.Settings.CooldownSeconds = other.Settings.CooldownSeconds
	}
	if other.Settings.MaxFileSizeMB != 0 {
		c.Settings.MaxFileSizeMB = other.Settings.MaxFileSizeMB
	}
	if other.Settings.SendEmailOnChange != nil {
		c.Settings.SendEmailOnChange = other.Settings.SendEmailOnChange
	}
	if other.Settings.ArchiveOnNotify != nil {
		c.Settings.ArchiveOnNotify = other.Settings.ArchiveOnNotify
	}
	if other.Settings.PersistCooldowns != nil {
		c.Settings.PersistCooldowns = other.Settings.PersistCooldowns
	}

	// Directories replace wholesale: merging two directory lists
	// entry-by-entry has no sensible semantics.
	if len(other.Directories) > 0 {
		c.Directories = other.Directories
	}

	// Email
	if other.Email.Provider != "" {
		c.Email.Provider = other.Email.Provider
	}
	if other.Email.SMTP.Host != "" {
		c.Email.SMTP.Host = other.Email.SMTP.Host
	}
	if other.Email.SMTP.Port != 0 {
		c.Email.SMTP.Port = other.Email.SMTP.Port
	}
	if other.Email.SMTP.Username != "" {
		c.Email.SMTP.Username = other.Email.SMTP.Username
	}
	if other.Email.SMTP.Password != "" {
		c.Email.SMTP.Password = other.Email.SMTP.Password
	}
	if other.Email.SMTP.UseSSL {
		c.Email.SMTP.UseSSL = true
	}
	if other.Email.SMTP.TimeoutSeconds != 0 {
		c.Email.SMTP.TimeoutSeconds = other.Email.SMTP.TimeoutSeconds
	}
	if other.Email.SMTP.RetryAttempts != 0 {
		c.Email.SMTP.RetryAttempts = other.Email.SMTP.RetryAttempts
	}
	if other.Email.MaxRecipients != 0 {
		c.Email.MaxRecipients = other.Email.MaxRecipients
	}

	// Storage
	if other.Storage.Provider != "" {
		c.Storage.Provider = other.Storage.Provider
	}
	if other.Storage.Local.Root != "" {
		c.Storage.Local.Root = other.Storage.Local.Root
	}
	if other.Storage.S3.Endpoint != "" {
		c.Storage.S3.Endpoint = other.Storage.S3.Endpoint
	}
	if other.Storage.S3.Bucket != "" {
		c.Storage.S3.Bucket = other.Storage.S3.Bucket
	}
	if other.Storage.S3.AccessKey != "" {
		c.Storage.S3.AccessKey = other.Storage.S3.AccessKey
	}
	if other.Storage.S3.SecretKey != "" {
		c.Storage.S3.SecretKey = other.Storage.S3.SecretKey
	}
	if other.Storage.S3.UseSSL {
		c.Storage.S3.UseSSL = true
	}
	if other.Storage.S3.Region != "" {
		c.Storage.S3.Region = other.Storage.S3.Region
	}

	// Search
	if other.Search.Provider != "" {
		c.Search.Provider = other.Search.Provider
	}
	if other.Search.Serper.APIKey != "" {
		c.Search.Serper.APIKey = other.Search.Serper.APIKey
	}
	if other.Search.Serper.Endpoint != "" {
		c.Search.Serper.Endpoint = other.Search.Serper.Endpoint
	}
	if other.Search.Index.Path != "" {
		c.Search.Index.Path = other.Search.Index.Path
	}

	// Signature
	if other.Signature.Provider != "" {
		c.Signature.Provider = other.Signature.Provider
	}
	if other.Signature.API.BaseURL != "" {
		c.Signature.API.BaseURL = other.Signature.API.BaseURL
	}
	if other.Signature.API.APIKey != "" {
		c.Signature.API.APIKey = other.Signature.API.APIKey
	}

	// Mailbox
	if other.Mailbox.IMAP.Host != "" {
		c.Mailbox.IMAP.Host = other.Mailbox.IMAP.Host
	}
	if other.Mailbox.IMAP.Port != 0 {
		c.Mailbox.IMAP.Port = other.Mailbox.IMAP.Port
	}
	if other.Mailbox.IMAP.Username != "" {
		c.Mailbox.IMAP.Username = other.Mailbox.IMAP.Username
	}
	if other.Mailbox.IMAP.Password != "" {
		c.Mailbox.IMAP.Password = other.Mailbox.IMAP.Password
	}
	if other.Mailbox.IMAP.Mailbox != "" {
		c.Mailbox.IMAP.Mailbox = other.Mailbox.IMAP.Mailbox
	}
	if other.Mailbox.IMAP.UseSSL {
		c.Mailbox.IMAP.UseSSL = true
	}
	if len(other.Mailbox.Fetch.Senders) > 0 {
		c.Mailbox.Fetch.Senders = other.Mailbox.Fetch.Senders
	}
	if other.Mailbox.Fetch.SubjectContains != "" {
		c.Mailbox.Fetch.SubjectContains = other.Mailbox.Fetch.SubjectContains
	}
	if other.Mailbox.Fetch.DaysBack != 0 {
		c.Mailbox.Fetch.DaysBack = other.Mailbox.Fetch.DaysBack
	}
	if len(other.Mailbox.Fetch.AttachmentTypes) > 0 {
		c.Mailbox.Fetch.AttachmentTypes = other.Mailbox.Fetch.AttachmentTypes
	}
	if other.Mailbox.Fetch.MaxAttachmentSizeMB != 0 {
		c.Mailbox.Fetch.MaxAttachmentSizeMB = other.Mailbox.Fetch.MaxAttachmentSizeMB
	}
	if other.Mailbox.Fetch.OutputDir != "" {
		c.Mailbox.Fetch.OutputDir = other.Mailbox.Fetch.OutputDir
	}
	if other.Mailbox.AutoReply.Enabled {
		c.Mailbox.AutoReply.Enabled = true
	}
	if other.Mailbox.AutoReply.PollSeconds != 0 {
		c.Mailbox.AutoReply.PollSeconds = other.Mailbox.AutoReply.PollSeconds
	}
	if other.Mailbox.AutoReply.Signature != "" {
		c.Mailbox.AutoReply.Signature = other.Mailbox.AutoReply.Signature
	}

	// History
	if other.History.Path != "" {
		c.History.Path = other.History.Path
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
	if other.Logging.WriteToStderr != nil {
		c.Logging.WriteToStderr = other.Logging.WriteToStderr
	}
}

// applyEnvOverrides applies WATCHPOST_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WATCHPOST_EMAIL_PROVIDER"); v != "" {
		c.Email.Provider = v
	}
	if v := os.Getenv("WATCHPOST_STORAGE_PROVIDER"); v != "" {
		c.Storage.Provider = v
	}
	if v := os.Getenv("WATCHPOST_SEARCH_PROVIDER"); v != "" {
		c.Search.Provider = v
	}
	if v := os.Getenv("WATCHPOST_SIGNATURE_PROVIDER"); v != "" {
		c.Signature.Provider = v
	}
	if v := os.Getenv("WATCHPOST_SMTP_USERNAME"); v != "" {
		c.Email.SMTP.Username = v
	}
	if v := os.Getenv("WATCHPOST_SMTP_PASSWORD"); v != "" {
		c.Email.SMTP.Password = v
	}
	if v := os.Getenv("WATCHPOST_IMAP_USERNAME"); v != "" {
		c.Mailbox.IMAP.Username = v
	}
	if v := os.Getenv("WATCHPOST_IMAP_PASSWORD"); v != "" {
		c.Mailbox.IMAP.Password = v
	}
	if v := os.Getenv("WATCHPOST_SERPER_API_KEY"); v != "" {
		c.Search.Serper.APIKey = v
	}
	if v := os.Getenv("WATCHPOST_SIGNATURE_API_KEY"); v != "" {
		c.Signature.API.APIKey = v
	}
	if v := os.Getenv("WATCHPOST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("WATCHPOST_DEBOUNCE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Settings.DebounceDelaySeconds = n
		}
	}
	if v := os.Getenv("WATCHPOST_COOLDOWN_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Settings.CooldownSeconds = n
		}
	}
}

// Validate validates the configuration and returns an error if invalid.
// A validation failure here is fatal at startup.
func (c *Config) Validate() error {
	if c.Settings.DebounceDelaySeconds <= 0 {
		return fmt.Errorf("settings.debounce_delay_seconds must be positive, got %d", c.Settings.DebounceDelaySeconds)
	}
	if c.Settings.CooldownSeconds < 0 {
		return fmt.Errorf("settings.cooldown_seconds must be non-negative, got %d", c.Settings.CooldownSeconds)
	}
	if c.Settings.MaxFileSizeMB <= 0 {
		return fmt.Errorf("settings.max_file_size_mb must be positive, got %d", c.Settings.MaxFileSizeMB)
	}

	for i, dir := range c.Directories {
		if dir.Path == "" {
			return fmt.Errorf("directories[%d].path must not be empty", i)
		}
		if dir.MaxFileSizeMB < 0 {
			return fmt.Errorf("directories[%d].max_file_size_mb must be non-negative, got %d", i, dir.MaxFileSizeMB)
		}
		if dir.IsEnabled() && c.Settings.EmailOnChange() && dir.NotifyEmail == "" {
			return fmt.Errorf("directories[%d] (%s) is enabled but has no notify_email", i, dir.Path)
		}
	}

	validEmail := map[string]bool{"smtp": true, "mock": true}
	if !validEmail[strings.ToLower(c.Email.Provider)] {
		return fmt.Errorf("email.provider must be 'smtp' or 'mock', got %s", c.Email.Provider)
	}
	if c.Email.MaxRecipients <= 0 {
		return fmt.Errorf("email.max_recipients must be positive, got %d", c.Email.MaxRecipients)
	}

	validStorage := map[string]bool{"local": true, "s3": true, "mock": true}
	if !validStorage[strings.ToLower(c.Storage.Provider)] {
		return fmt.Errorf("storage.provider must be 'local', 's3', or 'mock', got %s", c.Storage.Provider)
	}

	validSearch := map[string]bool{"serper": true, "index": true, "mock": true}
	if !validSearch[strings.ToLower(c.Search.Provider)] {
		return fmt.Errorf("search.provider must be 'serper', 'index', or 'mock', got %s", c.Search.Provider)
	}

	validSignature := map[string]bool{"api": true, "mock": true}
	if !validSignature[strings.ToLower(c.Signature.Provider)] {
		return fmt.Errorf("signature.provider must be 'api' or 'mock', got %s", c.Signature.Provider)
	}

	if c.Mailbox.AutoReply.Enabled && c.Mailbox.AutoReply.PollSeconds <= 0 {
		return fmt.Errorf("mailbox.autoreply.poll_seconds must be positive, got %d", c.Mailbox.AutoReply.PollSeconds)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// MaxFileSize returns the effective size ceiling in bytes for a directory,
// falling back to the global setting when the entry doesn't override it.
func (c *Config) MaxFileSize(dir DirectoryConfig) int64 {
	mb := dir.MaxFileSizeMB
	if mb == 0 {
		mb = c.Settings.MaxFileSizeMB
	}
	return int64(mb) * 1024 * 1024
}

// EnabledDirectories returns the configured directories that should be
// watched, with absolute paths.
func (c *Config) EnabledDirectories() []DirectoryConfig {
	var out []DirectoryConfig
	for _, dir := range c.Directories {
		if !dir.IsEnabled() {
			continue
		}
		if abs, err := filepath.Abs(dir.Path); err == nil {
			dir.Path = abs
		}
		out = append(out, dir)
	}
	return out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
