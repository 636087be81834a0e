package core

import (
	"context"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	OperationLookup      = "lookup"
	OperationCreate      = "create"
	OperationUpdate      = "update"
	OperationPhoneLookup = "phoneLookup"
)

// OperationSelectorKey is the reserved event parameter naming the operation.
const OperationSelectorKey = "sf_operation"

const (
	EnvelopeCountKey  = "count"
	EnvelopeIDKey     = "id"
	EnvelopeStatusKey = "status"
)

// RecordAttributesKey holds CRM object metadata that callers never see.
const RecordAttributesKey = "attributes"

type Credentials struct {
	ClientID      string
	ClientSecret  string
	Username      string
	Password      string
	SecurityToken string
	LoginURL      string
}

// GrantPassword is the password sent on the password grant: the account
// password immediately followed by the security token.
func (c Credentials) GrantPassword() string {
	return c.Password + c.SecurityToken
}

type Session struct {
	AccessToken string
	TokenType   string
	InstanceURL string
	APIVersion  string
	IssuedAt    time.Time
}

func (s Session) Valid() bool {
	return strings.TrimSpace(s.AccessToken) != "" && strings.TrimSpace(s.InstanceURL) != ""
}

func (s Session) AuthorizationHeader() string {
	tokenType := strings.TrimSpace(s.TokenType)
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	return tokenType + " " + s.AccessToken
}

type OperationRequest struct {
	Operation  string
	Parameters map[string]string
}

type Record map[string]any

// Clean returns a copy of the record without CRM metadata.
func (r Record) Clean() Record {
	out := make(Record, len(r))
	for key, value := range r {
		if key == RecordAttributesKey {
			continue
		}
		out[key] = value
	}
	return out
}

type Envelope map[string]any

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type ActivityStatus string

const (
	ActivityStatusOK    ActivityStatus = "ok"
	ActivityStatusError ActivityStatus = "error"
)

type ActivityEntry struct {
	ID           string
	InvocationID string
	ContactID    string
	Operation    string
	Object       string
	Status       ActivityStatus
	ErrorCode    string
	DurationMS   int64
	Metadata     map[string]any
	CreatedAt    time.Time
}

type ActivitySink interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
