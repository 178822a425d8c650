// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CrawX/go-mail-receptionist/domain"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
)

const (
	TLSModeImplicit = "tls"
	TLSModeStartTLS = "starttls"

	CacheMemory = "memory"
	CacheSqlite = "sqlite3"
	CacheMysql  = "mysql"
	CacheNone   = "none"
)

// Duration decodes TOML strings like "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

type EmbeddingConfig struct {
	Provider      string `toml:"provider"`
	Model         string `toml:"model"`
	ApiKey        string `toml:"api_key"`
	BaseUrl       string `toml:"base_url"`
	Region        string `toml:"region"`
	MaxInputChars int    `toml:"max_input_chars"`
	Aggregation   string `toml:"aggregation"`
}

type CacheConfig struct {
	Driver string `toml:"driver"`
	Dsn    string `toml:"dsn"`
	Size   int    `toml:"size"`
}

// SpamCheckConfig configures the guard that vetoes auto replies to spam.
type SpamCheckConfig struct {
	SpamassassinHost string `toml:"spamassassin_host"`
	RspamdController string `toml:"rspamd_controller"`
	RspamdPassword   string `toml:"rspamd_password"`
}

type SlackConfig struct {
	BotToken   string `toml:"bot_token"`
	Channel    string `toml:"channel"`
	WebhookUrl string `toml:"webhook_url"`
}

type Config struct {
	LoginAddress string `toml:"login_address"`
	Password     string `toml:"password"`

	ImapServer   string `toml:"imap_server"`
	ImapPort     int    `toml:"imap_port"`
	ImapTLSMode  string `toml:"imap_tls_mode"`
	ImapCompress bool   `toml:"imap_compress"`

	SmtpServer   string `toml:"smtp_server"`
	SmtpPort     int    `toml:"smtp_port"`
	SmtpTLSMode  string `toml:"smtp_tls_mode"`
	SmtpUser     string `toml:"smtp_user"`
	SmtpPassword string `toml:"smtp_password"`
	ReplyFrom    string `toml:"reply_from"`

	Threshold float64  `toml:"threshold"`
	Interval  Duration `toml:"interval"`
	Schedule  string   `toml:"schedule"`

	SourceFolder           string `toml:"source_folder"`
	PositiveExamplesFolder string `toml:"positive_examples_folder"`
	NegativeExamplesFolder string `toml:"negative_examples_folder"`
	UseBuiltinExamples     bool   `toml:"use_builtin_examples"`
	FilteredFolder         string `toml:"filtered_folder"`
	FilterTag              string `toml:"filter_tag"`
	ProcessedKeyword       string `toml:"processed_keyword"`

	AutoResponseTemplatePath string `toml:"auto_response_template_path"`
	// AutoResponseTemplate is read from AutoResponseTemplatePath
	AutoResponseTemplate string `toml:"-"`

	DryRun   bool    `toml:"dry_run"`
	Loglevel *string `toml:"loglevel"`

	Embedding EmbeddingConfig `toml:"embedding"`
	Cache     CacheConfig     `toml:"cache"`
	SpamCheck SpamCheckConfig `toml:"spamcheck"`
	Slack     SlackConfig     `toml:"slack"`
}

func defaults() *Config {
	return &Config{
		ImapPort:               993,
		ImapTLSMode:            TLSModeImplicit,
		SmtpPort:               465,
		SmtpTLSMode:            TLSModeImplicit,
		Threshold:              55,
		Interval:               Duration{5 * time.Minute},
		SourceFolder:           "INBOX",
		PositiveExamplesFolder: "Impfanfragen-Beispiele",
		NegativeExamplesFolder: "Andere-Beispiele",
		UseBuiltinExamples:     true,
		Embedding: EmbeddingConfig{
			Provider:      "builtin",
			MaxInputChars: 8000,
			Aggregation:   "nearest",
		},
		Cache: CacheConfig{
			Driver: CacheMemory,
		},
	}
}

// ReadConfig reads filename, resolves secrets from the environment (and a .env file next to
// filename), the config file and the OS keyring and validates the result.
func ReadConfig(filename string) (*Config, error) {
	return readConfig(filename, NewKeyring(KeyringService))
}

func readConfig(filename string, secrets SecretSource) (*Config, error) {
	config := defaults()

	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	err = LoadDotEnv(filepath.Join(filepath.Dir(filename), ".env"))
	if err != nil {
		return nil, err
	}

	config.resolveSecrets(secrets)
	config.applyDefaults()

	if len(config.AutoResponseTemplatePath) > 0 {
		template, err := os.ReadFile(config.AutoResponseTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("could not read auto response template: %w", err)
		}
		config.AutoResponseTemplate = string(template)
	}

	err = config.validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidConfig, err)
	}

	return config, nil
}

// applyDefaults fills values derived from other settings.
func (c *Config) applyDefaults() {
	if len(c.SmtpUser) == 0 {
		c.SmtpUser = c.LoginAddress
	}
	if len(c.SmtpPassword) == 0 {
		c.SmtpPassword = c.Password
	}
	if len(c.ReplyFrom) == 0 {
		c.ReplyFrom = c.LoginAddress
	}

	if len(c.Embedding.Model) == 0 {
		switch c.Embedding.Provider {
		case "openai":
			c.Embedding.Model = "text-embedding-3-small"
		case "gemini":
			c.Embedding.Model = "text-embedding-004"
		case "bedrock":
			c.Embedding.Model = "cohere.embed-multilingual-v3"
		}
	}
}

func (c *Config) validate() error {
	if err := validateNonEmptyStringField(c.LoginAddress, "login_address must not be empty, set to the login of the mailbox"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.Password, fmt.Sprintf("no password for %s, set %s, password in the config file or store it in the keyring service %s", c.LoginAddress, EnvPassword, KeyringService)); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.ImapServer, "imap_server must not be empty"); err != nil {
		return err
	}
	if err := validatePort(c.ImapPort, "imap_port"); err != nil {
		return err
	}
	if err := validateTLSMode(c.ImapTLSMode, "imap_tls_mode"); err != nil {
		return err
	}

	if c.Threshold < 0 || c.Threshold > 100 || math.IsNaN(c.Threshold) {
		return fmt.Errorf("threshold must be between 0 and 100, got %v", c.Threshold)
	}

	if len(c.Schedule) > 0 {
		_, err := cron.ParseStandard(c.Schedule)
		if err != nil {
			return fmt.Errorf("schedule %q is not a valid cron expression: %v", c.Schedule, err)
		}
	} else if c.Interval.Duration < time.Second {
		return fmt.Errorf("interval must be at least one second, got %s", c.Interval)
	}

	if err := validateNonEmptyStringField(c.SourceFolder, "source_folder must not be empty"); err != nil {
		return err
	}

	if !c.UseBuiltinExamples {
		if err := validateNonEmptyStringField(c.PositiveExamplesFolder, "positive_examples_folder must be set unless use_builtin_examples is set"); err != nil {
			return err
		}
		if err := validateNonEmptyStringField(c.NegativeExamplesFolder, "negative_examples_folder must be set unless use_builtin_examples is set"); err != nil {
			return err
		}
	}

	if len(strings.TrimSpace(c.FilteredFolder)) == 0 && len(strings.TrimSpace(c.FilterTag)) == 0 {
		return errors.New("set filtered_folder, filter_tag or both, otherwise triage has nothing to do")
	}

	if len(c.AutoResponseTemplatePath) > 0 {
		if err := validateNonEmptyStringField(c.AutoResponseTemplate, "auto response template is empty"); err != nil {
			return err
		}
		if err := validateNonEmptyStringField(c.SmtpServer, "smtp_server must be set to send auto responses"); err != nil {
			return err
		}
		if err := validatePort(c.SmtpPort, "smtp_port"); err != nil {
			return err
		}
		if err := validateTLSMode(c.SmtpTLSMode, "smtp_tls_mode"); err != nil {
			return err
		}
	}

	if err := c.validateEmbedding(); err != nil {
		return err
	}

	switch c.Cache.Driver {
	case CacheMemory, CacheNone:
	case CacheSqlite, CacheMysql:
		if err := validateNonEmptyStringField(c.Cache.Dsn, "cache dsn must be set for driver "+c.Cache.Driver); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown cache driver %s, use memory, sqlite3, mysql or none", c.Cache.Driver)
	}

	spamassassinSet := len(strings.TrimSpace(c.SpamCheck.SpamassassinHost)) > 0
	rspamdSet := len(strings.TrimSpace(c.SpamCheck.RspamdController)) > 0
	if rspamdSet && spamassassinSet {
		return fmt.Errorf("spamassassin_host and rspamd_controller cannot be set at the same time")
	}
	if rspamdSet {
		if err := validateNonEmptyStringField(c.SpamCheck.RspamdPassword, "rspamd_password must be set if rspamd_controller is set"); err != nil {
			return err
		}
	}

	if len(c.Slack.BotToken) > 0 && len(c.Slack.Channel) == 0 {
		return errors.New("slack channel must be set if a bot token is set")
	}

	return nil
}

func (c *Config) validateEmbedding() error {
	switch c.Embedding.Provider {
	case "builtin":
	case "openai":
		// local OpenAI compatible servers need no key
		if len(c.Embedding.BaseUrl) == 0 {
			if err := validateNonEmptyStringField(c.Embedding.ApiKey, "embedding api_key must be set for provider openai"); err != nil {
				return err
			}
		}
	case "gemini":
		if err := validateNonEmptyStringField(c.Embedding.ApiKey, "embedding api_key must be set for provider gemini"); err != nil {
			return err
		}
	case "bedrock":
		if err := validateNonEmptyStringField(c.Embedding.Region, "embedding region must be set for provider bedrock"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown embedding provider %s, use builtin, openai, gemini or bedrock", c.Embedding.Provider)
	}

	switch c.Embedding.Aggregation {
	case "nearest", "centroid":
	default:
		return fmt.Errorf("unknown aggregation %s, use nearest or centroid", c.Embedding.Aggregation)
	}

	return nil
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}

func validatePort(port int, name string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// validateTLSMode only knows encrypted modes, there is no way to configure plaintext.
func validateTLSMode(mode string, name string) error {
	switch mode {
	case TLSModeImplicit, TLSModeStartTLS:
		return nil
	}
	return fmt.Errorf("%s must be %s or %s, got %q", name, TLSModeImplicit, TLSModeStartTLS, mode)
}
