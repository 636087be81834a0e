package inbound

import "github.com/goliatone/go-crm-connect/core"

func inboundInternal(message string, metadata map[string]any) error {
	return core.NewError(core.ErrorInternal, message, metadata)
}
