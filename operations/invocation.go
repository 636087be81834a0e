package operations

import (
	"context"
	"strings"
)

type Invocation struct {
	ID        string
	ContactID string
}

type invocationKey struct{}

func WithInvocation(ctx context.Context, invocation Invocation) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	invocation.ID = strings.TrimSpace(invocation.ID)
	invocation.ContactID = strings.TrimSpace(invocation.ContactID)
	return context.WithValue(ctx, invocationKey{}, invocation)
}

func InvocationFromContext(ctx context.Context) Invocation {
	if ctx == nil {
		return Invocation{}
	}
	invocation, _ := ctx.Value(invocationKey{}).(Invocation)
	return invocation
}
