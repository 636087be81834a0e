package salesforce

import (
	"bytes"
	"encoding/json"

	"github.com/goliatone/go-crm-connect/core"
)

// NormalizeResponse classifies a CRM response. 2xx passes through as nil.
// Otherwise the body decides the error: an OAuth error object, then the first
// REST error carrying a message, then the bare status code.
func NormalizeResponse(statusCode int, body []byte, metadata map[string]any) error {
	if statusCode/100 == 2 {
		return nil
	}

	trimmed := bytes.TrimSpace(body)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		var payload oauthError
		if err := json.Unmarshal(trimmed, &payload); err == nil && payload.Error != nil {
			return core.NewCRMError(core.ErrorCRMAPI, statusCode, *payload.Error, payload.ErrorDescription, metadata)
		}
	case len(trimmed) > 0 && trimmed[0] == '[':
		var payload []apiError
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			for _, item := range payload {
				if item.Message == nil {
					continue
				}
				return core.NewCRMError(core.ErrorCRMAPI, statusCode, item.ErrorCode, *item.Message, metadata)
			}
		}
	}
	return core.NewCRMError(core.ErrorCRMAPI, statusCode, "", "", metadata)
}
