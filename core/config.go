package core

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const ProductionLoginURL = "https://login.salesforce.com"

type SalesforceConfig struct {
	Version        string `koanf:"version" mapstructure:"version"`
	Host           string `koanf:"host" mapstructure:"host"`
	ConsumerKey    string `koanf:"consumer_key" mapstructure:"consumer_key"`
	ConsumerSecret string `koanf:"consumer_secret" mapstructure:"consumer_secret"`
	Username       string `koanf:"username" mapstructure:"username"`
	Password       string `koanf:"password" mapstructure:"password"`
	SecurityToken  string `koanf:"security_token" mapstructure:"security_token"`
	Production     *bool  `koanf:"production" mapstructure:"production"`
}

type ActivityConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

func (c ActivityConfig) Enabled() bool {
	return strings.TrimSpace(c.Driver) != "" && strings.TrimSpace(c.DSN) != ""
}

type Config struct {
	ServiceName    string           `koanf:"service_name" mapstructure:"service_name"`
	LogLevel       string           `koanf:"log_level" mapstructure:"log_level"`
	ConfigLocation string           `koanf:"config_location" mapstructure:"config_location"`
	Salesforce     SalesforceConfig `koanf:"salesforce" mapstructure:"salesforce"`
	Activity       ActivityConfig   `koanf:"activity" mapstructure:"activity"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "crm-connect",
		LogLevel:    "info",
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServiceName, validation.Required),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.Salesforce),
		validation.Field(&c.Activity),
	)
}

func (c SalesforceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Version, validation.Required),
		validation.Field(&c.Host, validation.Required, is.URL),
		validation.Field(&c.ConsumerKey, validation.Required),
		validation.Field(&c.ConsumerSecret, validation.Required),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
		validation.Field(&c.SecurityToken, validation.Required),
		validation.Field(&c.Production, validation.NotNil),
	)
}

func (c ActivityConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.In("postgres", "sqlite3")),
		validation.Field(&c.DSN, validation.When(strings.TrimSpace(c.Driver) != "", validation.Required)),
	)
}

func (c SalesforceConfig) IsProduction() bool {
	return c.Production != nil && *c.Production
}

// LoginURL is the OAuth host. Production orgs always authenticate against
// login.salesforce.com; sandboxes use the configured host.
func (c SalesforceConfig) LoginURL() string {
	if c.IsProduction() {
		return ProductionLoginURL
	}
	return strings.TrimRight(strings.TrimSpace(c.Host), "/")
}

func (c SalesforceConfig) Credentials() Credentials {
	return Credentials{
		ClientID:      strings.TrimSpace(c.ConsumerKey),
		ClientSecret:  strings.TrimSpace(c.ConsumerSecret),
		Username:      strings.TrimSpace(c.Username),
		Password:      c.Password,
		SecurityToken: c.SecurityToken,
		LoginURL:      c.LoginURL(),
	}
}
