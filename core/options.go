package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	"github.com/goliatone/go-config/koanf/providers/env"
	opts "github.com/goliatone/go-options"
)

// DocumentLoader fetches an optional configuration document addressed by a
// "bucket/key" location.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, location string) (map[string]any, error)
}

type envBinding struct {
	path    string
	boolean bool
	lower   bool
}

var envBindings = map[string]envBinding{
	"SERVICE_NAME":       {path: "service_name"},
	"LOG_LEVEL":          {path: "log_level", lower: true},
	"CONFIG_LOCATION":    {path: "config_location"},
	"SF_VERSION":         {path: "salesforce.version"},
	"SF_HOST":            {path: "salesforce.host"},
	"SF_CONSUMER_KEY":    {path: "salesforce.consumer_key"},
	"SF_CONSUMER_SECRET": {path: "salesforce.consumer_secret"},
	"SF_USERNAME":        {path: "salesforce.username"},
	"SF_PASSWORD":        {path: "salesforce.password"},
	"SF_ACCESS_TOKEN":    {path: "salesforce.security_token"},
	"SF_PRODUCTION":      {path: "salesforce.production", boolean: true},
	"ACTIVITY_DB_DRIVER": {path: "activity.driver"},
	"ACTIVITY_DB_DSN":    {path: "activity.dsn"},
}

// bindEnv renames a bound variable onto its config key path. Unbound
// variables get an empty key and are skipped by the provider.
func bindEnv(name string, value string) (string, any) {
	binding, ok := envBindings[name]
	if !ok {
		return "", nil
	}
	switch {
	case binding.boolean:
		return binding.path, strings.EqualFold(strings.TrimSpace(value), "true")
	case binding.lower:
		return binding.path, strings.ToLower(strings.TrimSpace(value))
	}
	return binding.path, value
}

// EnvLoader maps the process environment onto the config key layout. Unset
// variables are left out so lower layers keep their values.
type EnvLoader struct{}

func NewEnvLoader() EnvLoader {
	return EnvLoader{}
}

func (EnvLoader) LoadRaw(context.Context) (map[string]any, error) {
	provider := env.ProviderWithValue("", ".", bindEnv)
	// The provider debug-logs every variable it sees, credentials included.
	provider.SetLogger(silentProviderLogger{})
	payload, err := provider.ReadBytes()
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type silentProviderLogger struct{}

func (silentProviderLogger) Debug(string, ...any) {}
func (silentProviderLogger) Info(string, ...any)  {}
func (silentProviderLogger) Error(string, ...any) {}

type ConfigLoader struct {
	Env       RawConfigLoader
	Documents DocumentLoader
	Runtime   map[string]any
}

func NewConfigLoader(documents DocumentLoader) *ConfigLoader {
	return &ConfigLoader{
		Env:       NewEnvLoader(),
		Documents: documents,
	}
}

// Load resolves defaults < document < environment < runtime and validates the
// result. Every failure is a configuration error.
func (l *ConfigLoader) Load(ctx context.Context) (Config, error) {
	if l == nil {
		return Config{}, NewError(ErrorConfiguration, "core: config loader is nil", nil)
	}
	defaults := DefaultConfig()

	envLoader := l.Env
	if envLoader == nil {
		envLoader = NewEnvLoader()
	}
	envLayer, err := envLoader.LoadRaw(ctx)
	if err != nil {
		return Config{}, WrapError(err, ErrorConfiguration, "core: load environment", nil)
	}
	runtimeLayer := cloneFields(l.Runtime)

	documentLayer := map[string]any{}
	location := firstNonEmpty(rawString(runtimeLayer, "config_location"), rawString(envLayer, "config_location"))
	if location != "" {
		if l.Documents == nil {
			return Config{}, NewError(ErrorConfiguration, "core: config_location set without a document loader", map[string]any{
				"config_location": location,
			})
		}
		documentLayer, err = l.Documents.LoadDocument(ctx, location)
		if err != nil {
			return Config{}, WrapError(err, ErrorConfiguration, "core: load config document", map[string]any{
				"config_location": location,
			})
		}
	}

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("document", 10),
			documentLayer,
			opts.WithSnapshotID[map[string]any]("document"),
		),
		opts.NewLayer(
			opts.NewScope("environment", 20),
			envLayer,
			opts.WithSnapshotID[map[string]any]("environment"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 30),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, WrapError(err, ErrorConfiguration, "core: options stack build failed", nil)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, WrapError(err, ErrorConfiguration, "core: options merge failed", nil)
	}
	cfg, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, WrapError(err, ErrorConfiguration, "core: configuration invalid", nil)
	}
	return cfg, nil
}

func configToLayerMap(cfg Config) map[string]any {
	layer := map[string]any{
		"service_name": cfg.ServiceName,
		"log_level":    cfg.LogLevel,
	}
	if strings.TrimSpace(cfg.Salesforce.Version) != "" {
		layer["salesforce"] = map[string]any{"version": cfg.Salesforce.Version}
	}
	return layer
}

func rawString(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
