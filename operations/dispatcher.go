package operations

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-crm-connect/core"
	"github.com/goliatone/go-crm-connect/dsl"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// SessionClient is a CRM client that must sign in before use.
type SessionClient interface {
	CRM
	SignIn(ctx context.Context) error
}

// ClientFactory builds a fresh, unauthenticated client for one dispatch.
type ClientFactory func(ctx context.Context) (SessionClient, error)

type DispatcherConfig struct {
	NewClient      ClientFactory
	Parser         ValueParser
	Activity       core.ActivitySink
	Metrics        core.MetricsRecorder
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
	Now            func() time.Time
	NewID          func() string
}

// Dispatcher handles one invocation at a time: sign in, route by operation
// name, shape the result. Nothing is shared between dispatches except the
// factory and the observability sinks.
type Dispatcher struct {
	newClient ClientFactory
	parser    ValueParser
	activity  core.ActivitySink
	observer  core.Observer
	now       func() time.Time
	newID     func() string
}

func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.NewClient == nil {
		return nil, operationsError(core.ErrorInternal, "operations: client factory is required", nil)
	}
	parser := cfg.Parser
	if parser == nil {
		parser = dsl.Parser{}
	}
	activity := cfg.Activity
	if activity == nil {
		activity = core.NopActivitySink{}
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	_, logger := glog.Resolve("operations", cfg.LoggerProvider, cfg.Logger)
	return &Dispatcher{
		newClient: cfg.NewClient,
		parser:    parser,
		activity:  activity,
		observer:  core.NewObserver(logger, cfg.Metrics),
		now:       now,
		newID:     newID,
	}, nil
}

// Dispatch extracts the operation selector from raw event parameters and
// runs the operation.
func (d *Dispatcher) Dispatch(ctx context.Context, params map[string]string) (core.Envelope, error) {
	return d.Execute(ctx, RequestFromParameters(params))
}

func (d *Dispatcher) Execute(ctx context.Context, req core.OperationRequest) (core.Envelope, error) {
	if d == nil {
		return nil, operationsError(core.ErrorInternal, "operations: dispatcher is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	invocation := InvocationFromContext(ctx)
	if invocation.ID == "" {
		invocation.ID = d.newID()
	}
	startedAt := d.now()
	fields := map[string]any{
		"invocation_id": invocation.ID,
		"sf_operation":  req.Operation,
	}
	if invocation.ContactID != "" {
		fields["contact_id"] = invocation.ContactID
	}
	if object := strings.TrimSpace(req.Parameters[ParamObject]); object != "" {
		fields["object"] = object
	}
	if req.Operation == core.OperationPhoneLookup {
		fields["object"] = PhoneLookupObject
	}

	envelope, err := d.run(ctx, req)
	d.observer.ObserveOperation(ctx, startedAt, "dispatch", err, fields)
	d.recordActivity(ctx, invocation, req, fields, startedAt, err)
	if err != nil {
		return nil, err
	}
	return envelope, nil
}

func (d *Dispatcher) run(ctx context.Context, req core.OperationRequest) (core.Envelope, error) {
	client, err := d.newClient(ctx)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, operationsError(core.ErrorInternal, "operations: client factory returned nil", nil)
	}
	if err := client.SignIn(ctx); err != nil {
		if core.IsKind(err, core.ErrorAuthentication) {
			return nil, err
		}
		return nil, operationsWrapError(err, core.ErrorAuthentication, "operations: sign in failed", nil)
	}

	switch req.Operation {
	case core.OperationLookup:
		var msg LookupMessage
		if err := decodeParameters(req.Parameters, &msg, false); err != nil {
			return nil, err
		}
		return NewLookupQuery(client).Query(ctx, msg)
	case core.OperationCreate:
		var msg CreateMessage
		if err := decodeParameters(req.Parameters, &msg, false); err != nil {
			return nil, err
		}
		return NewCreateQuery(client, d.parser).Query(ctx, msg)
	case core.OperationUpdate:
		var msg UpdateMessage
		if err := decodeParameters(req.Parameters, &msg, false); err != nil {
			return nil, err
		}
		return NewUpdateQuery(client, d.parser).Query(ctx, msg)
	case core.OperationPhoneLookup:
		var msg PhoneLookupMessage
		if err := decodeParameters(req.Parameters, &msg, true); err != nil {
			return nil, err
		}
		return NewPhoneLookupQuery(client).Query(ctx, msg)
	default:
		return nil, operationsError(core.ErrorUnknownOperation, "operations: sf_operation unknown", map[string]any{
			"operation": req.Operation,
		})
	}
}

func (d *Dispatcher) recordActivity(
	ctx context.Context,
	invocation Invocation,
	req core.OperationRequest,
	fields map[string]any,
	startedAt time.Time,
	err error,
) {
	entry := core.ActivityEntry{
		ID:           d.newID(),
		InvocationID: invocation.ID,
		ContactID:    invocation.ContactID,
		Operation:    req.Operation,
		Status:       core.ActivityStatusOK,
		DurationMS:   d.now().Sub(startedAt).Milliseconds(),
		Metadata:     map[string]any{"parameter_keys": parameterKeys(req.Parameters)},
		CreatedAt:    startedAt,
	}
	if object, ok := fields["object"].(string); ok {
		entry.Object = object
	}
	if err != nil {
		entry.Status = core.ActivityStatusError
		entry.ErrorCode = core.KindOf(err)
		entry.Metadata["error"] = err.Error()
	}
	if recordErr := d.activity.Record(ctx, entry); recordErr != nil {
		d.observer.Log(ctx, "warn", "operations: activity record failed", map[string]any{
			"invocation_id": invocation.ID,
			"error":         recordErr.Error(),
		})
	}
}

// parameterKeys lists parameter names only; values may carry customer data.
func parameterKeys(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
