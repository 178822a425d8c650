// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/99designs/keyring"
	"github.com/joho/godotenv"
)

const (
	EnvPassword     = "MAIL_RECEPTIONIST_MAIL_PW"
	EnvSmtpPassword = "MAIL_RECEPTIONIST_SMTP_PW"
	EnvApiKey       = "MAIL_RECEPTIONIST_API_KEY"
	EnvSlackToken   = "MAIL_RECEPTIONIST_SLACK_TOKEN"
	EnvRspamdPw     = "MAIL_RECEPTIONIST_RSPAMD_PW"

	KeyringService = "mail-receptionist"
)

// SecretSource looks up stored secrets by key.
type SecretSource interface {
	Get(key string) (string, error)
}

// LoadDotEnv adds the variables of a .env file to the environment, variables already set win.
// A missing file is not an error.
func LoadDotEnv(filename string) error {
	err := godotenv.Load(filename)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not load %s: %w", filename, err)
	}
	return nil
}

// resolveSecrets prefers the environment over the config file and the config file over the
// keyring.
func (c *Config) resolveSecrets(secrets SecretSource) {
	fromEnv(&c.Password, EnvPassword)
	fromEnv(&c.SmtpPassword, EnvSmtpPassword)
	fromEnv(&c.Embedding.ApiKey, EnvApiKey)
	fromEnv(&c.Slack.BotToken, EnvSlackToken)
	fromEnv(&c.SpamCheck.RspamdPassword, EnvRspamdPw)

	if len(c.Password) == 0 && len(c.LoginAddress) > 0 && secrets != nil {
		password, err := secrets.Get(c.LoginAddress)
		if err == nil {
			c.Password = password
		}
	}
}

func fromEnv(field *string, name string) {
	value, ok := os.LookupEnv(name)
	if ok && len(value) > 0 {
		*field = value
	}
}

// Keyring reads secrets from the keyring of the operating system.
type Keyring struct {
	service string
}

func NewKeyring(service string) *Keyring {
	return &Keyring{service: service}
}

func (k *Keyring) open() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: k.service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open keyring: %w", err)
	}
	return ring, nil
}

func (k *Keyring) Get(key string) (string, error) {
	ring, err := k.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("could not get %q from keyring %s: %w", key, k.service, err)
	}
	return string(item.Data), nil
}

// Set stores a secret, used by the --store-password flag.
func (k *Keyring) Set(key, value string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: k.service + " " + key,
	})
	if err != nil {
		return fmt.Errorf("could not store %q in keyring %s: %w", key, k.service, err)
	}
	return nil
}
