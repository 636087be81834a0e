package sqlstore

import "github.com/goliatone/go-crm-connect/core"

func storeError(kind string, message string, metadata map[string]any) error {
	return core.NewError(kind, message, withStore(metadata))
}

func storeWrapError(source error, kind string, message string, metadata map[string]any) error {
	return core.WrapError(source, kind, message, withStore(metadata))
}

func withStore(metadata map[string]any) map[string]any {
	fields := make(map[string]any, len(metadata)+1)
	for key, value := range metadata {
		fields[key] = value
	}
	fields["store"] = "sql"
	return fields
}
