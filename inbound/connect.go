package inbound

import (
	"context"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/goliatone/go-crm-connect/core"
	"github.com/goliatone/go-crm-connect/operations"
	glog "github.com/goliatone/go-logger/glog"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, params map[string]string) (core.Envelope, error)
}

type ConnectHandler struct {
	dispatcher Dispatcher
	logger     core.Logger
}

func NewConnectHandler(dispatcher Dispatcher, logger core.Logger) *ConnectHandler {
	return &ConnectHandler{dispatcher: dispatcher, logger: glog.Ensure(logger)}
}

// Handle runs one contact-flow invocation. The returned map is what the
// contact flow sees as external attributes.
func (h *ConnectHandler) Handle(ctx context.Context, event events.ConnectEvent) (map[string]any, error) {
	if h == nil || h.dispatcher == nil {
		return nil, inboundInternal("inbound: connect handler requires a dispatcher", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	invocation := operations.Invocation{
		ContactID: event.Details.ContactData.ContactID,
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		invocation.ID = lc.AwsRequestID
	}
	ctx = operations.WithInvocation(ctx, invocation)

	core.LogWithLevel(ctx, h.logger, "info", "inbound: connect event", map[string]any{
		"invocation_id":  invocation.ID,
		"contact_id":     invocation.ContactID,
		"event_name":     event.Name,
		"channel":        event.Details.ContactData.Channel,
		"sf_operation":   strings.TrimSpace(event.Details.Parameters[core.OperationSelectorKey]),
		"parameter_keys": sortedKeys(event.Details.Parameters),
	})

	envelope, err := h.dispatcher.Dispatch(ctx, event.Details.Parameters)
	if err != nil {
		return nil, err
	}
	result := map[string]any(envelope)
	core.LogWithLevel(ctx, h.logger, "info", "inbound: connect result", map[string]any{
		"invocation_id": invocation.ID,
		"contact_id":    invocation.ContactID,
		"result_keys":   sortedKeys(result),
	})
	return result, nil
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
