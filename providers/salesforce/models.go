package salesforce

import "github.com/goliatone/go-crm-connect/core"

// queryResponse is one page of a SOQL query. NextRecordsURL is ignored: only
// the first page is read.
type queryResponse struct {
	TotalSize      int           `json:"totalSize"`
	Done           bool          `json:"done"`
	NextRecordsURL string        `json:"nextRecordsUrl,omitempty"`
	Records        []core.Record `json:"records"`
}

type searchResponse struct {
	SearchRecords []core.Record `json:"searchRecords"`
}

type createResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// oauthError is the token endpoint error shape.
type oauthError struct {
	Error            *string `json:"error"`
	ErrorDescription string  `json:"error_description"`
}

// apiError is one element of the REST API error list.
type apiError struct {
	Message   *string  `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields,omitempty"`
}

func cleanRecords(records []core.Record) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, record := range records {
		out = append(out, record.Clean())
	}
	return out
}
