package transport

import "github.com/goliatone/go-crm-connect/core"

func transportError(kind string, message string, metadata map[string]any) error {
	return core.NewError(kind, message, withAdapter(metadata))
}

func transportWrapError(source error, kind string, message string, metadata map[string]any) error {
	return core.WrapError(source, kind, message, withAdapter(metadata))
}

func withAdapter(metadata map[string]any) map[string]any {
	fields := make(map[string]any, len(metadata)+1)
	for key, value := range metadata {
		fields[key] = value
	}
	fields["adapter"] = KindREST
	return fields
}
