// Package crmconnect wires the Amazon Connect handler: configuration, the
// Salesforce client factory, the operation dispatcher and the optional
// activity store.
package crmconnect

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-crm-connect/adapters/gologger"
	"github.com/goliatone/go-crm-connect/core"
	"github.com/goliatone/go-crm-connect/inbound"
	"github.com/goliatone/go-crm-connect/operations"
	"github.com/goliatone/go-crm-connect/providers/salesforce"
)

type Config = core.Config

type Option func(*options)

type options struct {
	logger         core.Logger
	loggerProvider core.LoggerProvider
	metrics        core.MetricsRecorder
	activity       core.ActivitySink
	httpClient     *http.Client
	transport      core.TransportAdapter
	parser         operations.ValueParser
	now            func() time.Time
}

func WithLogger(logger core.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *options) { o.loggerProvider = provider }
}

func WithMetricsRecorder(metrics core.MetricsRecorder) Option {
	return func(o *options) { o.metrics = metrics }
}

func WithActivitySink(sink core.ActivitySink) Option {
	return func(o *options) { o.activity = sink }
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

func WithTransport(adapter core.TransportAdapter) Option {
	return func(o *options) { o.transport = adapter }
}

func WithValueParser(parser operations.ValueParser) Option {
	return func(o *options) { o.parser = parser }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func resolveOptions(opts []Option) options {
	resolved := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return resolved
}

// LoadConfig resolves defaults, the optional document at CONFIG_LOCATION,
// the environment and runtime overrides.
func LoadConfig(ctx context.Context, documents core.DocumentLoader, runtime map[string]any) (Config, error) {
	loader := core.NewConfigLoader(documents)
	loader.Runtime = runtime
	return loader.Load(ctx)
}

// NewClientFactory returns a factory that builds a fresh, unauthenticated
// Salesforce client on every call.
func NewClientFactory(cfg Config, opts ...Option) operations.ClientFactory {
	resolved := resolveOptions(opts)
	credentials := cfg.Salesforce.Credentials()
	return func(context.Context) (operations.SessionClient, error) {
		return salesforce.New(salesforce.Config{
			Credentials:    credentials,
			APIVersion:     cfg.Salesforce.Version,
			HTTPClient:     resolved.httpClient,
			Transport:      resolved.transport,
			Logger:         resolved.logger,
			LoggerProvider: resolved.loggerProvider,
		}), nil
	}
}

func NewDispatcher(cfg Config, opts ...Option) (*operations.Dispatcher, error) {
	resolved := resolveOptions(opts)
	return operations.NewDispatcher(operations.DispatcherConfig{
		NewClient:      NewClientFactory(cfg, opts...),
		Parser:         resolved.parser,
		Activity:       resolved.activity,
		Metrics:        resolved.metrics,
		Logger:         resolved.logger,
		LoggerProvider: resolved.loggerProvider,
		Now:            resolved.now,
	})
}

func NewHandler(cfg Config, opts ...Option) (*inbound.ConnectHandler, error) {
	dispatcher, err := NewDispatcher(cfg, opts...)
	if err != nil {
		return nil, err
	}
	resolved := resolveOptions(opts)
	_, logger := gologger.Resolve("inbound", resolved.loggerProvider, resolved.logger)
	return inbound.NewConnectHandler(dispatcher, logger), nil
}
