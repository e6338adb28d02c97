// Package config loads the application configuration from a YAML file
// using Viper. Every external collaborator (database, IMAP mailbox,
// SMTP relay) is an explicit configuration value handed to the
// component that needs it; nothing reads process-wide state at call
// time.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MailConfig holds local mail identity settings.
type MailConfig struct {
	// Domain is the local domain used to derive a registered user's
	// primary address, e.g. "skzry.ru" yields alice@skzry.ru.
	Domain string `mapstructure:"domain" yaml:"domain"`
}

// IMAPConfig holds the credentials of the single shared external
// mailbox that inbound mail is imported from.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// Configured reports whether the mailbox credentials are present.
func (c IMAPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// SMTPConfig holds the credentials of the outbound mail relay.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// Configured reports whether the relay credentials are present.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// PollerConfig controls the optional background import loop.
type PollerConfig struct {
	Enabled     bool `mapstructure:"enabled" yaml:"enabled"`
	IntervalSec int  `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Mail     MailConfig     `mapstructure:"mail" yaml:"mail"`
	IMAP     IMAPConfig     `mapstructure:"imap" yaml:"imap"`
	SMTP     SMTPConfig     `mapstructure:"smtp" yaml:"smtp"`
	Poller   PollerConfig   `mapstructure:"poller" yaml:"poller"`
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/webmail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "webmail", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "webmail.db"},
		Mail:     MailConfig{Domain: "skzry.ru"},
		IMAP:     IMAPConfig{Port: "993", TLS: true},
		SMTP:     SMTPConfig{Port: "465"},
		Poller:   PollerConfig{Enabled: false, IntervalSec: 120},
	}
}

// Load reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "webmail.db")
	v.SetDefault("mail.domain", "skzry.ru")
	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.tls", true)
	v.SetDefault("smtp.port", "465")
	v.SetDefault("poller.enabled", false)
	v.SetDefault("poller.interval_sec", 120)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Poller.IntervalSec <= 0 {
		cfg.Poller.IntervalSec = 120
	}

	return cfg, nil
}
