package operations

import (
	"net/http"

	"github.com/goliatone/go-crm-connect/core"
	goerrors "github.com/goliatone/go-errors"
)

func operationsError(kind string, message string, metadata map[string]any) error {
	return core.NewError(kind, message, metadata)
}

func operationsWrapError(source error, kind string, message string, metadata map[string]any) error {
	return core.WrapError(source, kind, message, metadata)
}

// operationsValidationError keeps ozzo field errors on the envelope.
func operationsValidationError(err error, operation string) error {
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, "operations: "+operation+" parameters are invalid").
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorBadInput).
		WithMetadata(map[string]any{"operation": operation})
}
