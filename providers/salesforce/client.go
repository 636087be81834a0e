package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/goliatone/go-crm-connect/auth"
	"github.com/goliatone/go-crm-connect/core"
	"github.com/goliatone/go-crm-connect/transport"
	glog "github.com/goliatone/go-logger/glog"
)

const ProviderID = "salesforce"

const DefaultAPIVersion = "v56.0"

type Authenticator interface {
	SignIn(ctx context.Context) (core.Session, error)
}

type Config struct {
	Credentials core.Credentials
	APIVersion  string
	HTTPClient  *http.Client
	// Transport overrides the REST adapter built from HTTPClient.
	Transport core.TransportAdapter
	// Authenticator overrides the password grant built from Credentials.
	Authenticator  Authenticator
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
}

// Client is a CRM REST client bound to a single session. It moves from
// unauthenticated to authenticated once and never refreshes.
type Client struct {
	version       string
	transport     core.TransportAdapter
	authenticator Authenticator
	logger        core.Logger

	mu      sync.RWMutex
	session core.Session
}

func New(cfg Config) *Client {
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = DefaultAPIVersion
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = transport.DefaultHTTPClient()
	}
	adapter := cfg.Transport
	if adapter == nil {
		adapter = transport.NewRESTAdapter(httpClient)
	}
	authenticator := cfg.Authenticator
	if authenticator == nil {
		authenticator = auth.NewPasswordGrant(auth.PasswordGrantConfig{
			Credentials: cfg.Credentials,
			APIVersion:  version,
			HTTPClient:  httpClient,
			Classify:    NormalizeResponse,
		})
	}
	_, logger := glog.Resolve(ProviderID, cfg.LoggerProvider, cfg.Logger)
	return &Client{
		version:       version,
		transport:     adapter,
		authenticator: authenticator,
		logger:        glog.Ensure(logger),
	}
}

func (c *Client) SignIn(ctx context.Context) error {
	if c.IsAuthenticated() {
		return nil
	}
	c.logger.Debug("salesforce: sign in")
	session, err := c.authenticator.SignIn(ctx)
	if err != nil {
		core.LogWithLevel(ctx, c.logger, "error", "salesforce: sign in failed", map[string]any{
			"error":      err.Error(),
			"error_kind": core.KindOf(err),
		})
		return err
	}
	if !session.Valid() {
		return core.NewError(core.ErrorAuthentication, "salesforce: sign in returned an incomplete session", nil)
	}
	if strings.TrimSpace(session.APIVersion) == "" {
		session.APIVersion = c.version
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
	return nil
}

func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.Valid()
}

func (c *Client) Session() core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Search runs a SOSL search and returns searchRecords.
func (c *Client) Search(ctx context.Context, sosl string) ([]core.Record, error) {
	res, err := c.do(ctx, "search", http.MethodGet, c.dataPath("search"), map[string]string{"q": sosl}, nil)
	if err != nil {
		return nil, err
	}
	var payload searchResponse
	if err := c.decode(res, &payload); err != nil {
		return nil, err
	}
	return cleanRecords(payload.SearchRecords), nil
}

// Query runs a SOQL query. Only the first page of results is returned.
func (c *Client) Query(ctx context.Context, soql string) ([]core.Record, error) {
	res, err := c.do(ctx, "query", http.MethodGet, c.dataPath("query"), map[string]string{"q": soql}, nil)
	if err != nil {
		return nil, err
	}
	var payload queryResponse
	if err := c.decode(res, &payload); err != nil {
		return nil, err
	}
	if !payload.Done {
		c.logger.Warn("salesforce: query returned a partial result set",
			"total_size", payload.TotalSize,
			"returned", len(payload.Records),
		)
	}
	return cleanRecords(payload.Records), nil
}

func (c *Client) ParameterizedSearch(ctx context.Context, params map[string]string) ([]core.Record, error) {
	res, err := c.do(ctx, "parameterized_search", http.MethodGet, c.dataPath("parameterizedSearch"), params, nil)
	if err != nil {
		return nil, err
	}
	var payload searchResponse
	if err := c.decode(res, &payload); err != nil {
		return nil, err
	}
	return cleanRecords(payload.SearchRecords), nil
}

// Create inserts a record and returns its id.
func (c *Client) Create(ctx context.Context, object string, data map[string]any) (string, error) {
	res, err := c.do(ctx, "create", http.MethodPost, c.dataPath("sobjects", object), nil, data)
	if err != nil {
		return "", err
	}
	var payload createResponse
	if err := c.decode(res, &payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.ID) == "" {
		return "", core.NewError(core.ErrorCreate, "salesforce: create response has no id", map[string]any{
			"object":      object,
			"status_code": res.StatusCode,
		})
	}
	return payload.ID, nil
}

// Update patches a record and returns the response status code.
func (c *Client) Update(ctx context.Context, object string, id string, data map[string]any) (int, error) {
	res, err := c.do(ctx, "update", http.MethodPatch, c.dataPath("sobjects", object, id), nil, data)
	if err != nil {
		return 0, err
	}
	return res.StatusCode, nil
}

func (c *Client) UpdateByExternalID(ctx context.Context, object string, field string, externalID string, data map[string]any) error {
	_, err := c.do(ctx, "update_by_external_id", http.MethodPatch, c.dataPath("sobjects", object, field, externalID), nil, data)
	return err
}

func (c *Client) Delete(ctx context.Context, object string, id string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, c.dataPath("sobjects", object, id), nil, nil)
	return err
}

func (c *Client) dataPath(segments ...string) string {
	escaped := make([]string, 0, len(segments)+2)
	escaped = append(escaped, "services", "data", url.PathEscape(c.version))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return "/" + strings.Join(escaped, "/")
}

func (c *Client) do(
	ctx context.Context,
	operation string,
	method string,
	path string,
	query map[string]string,
	body map[string]any,
) (core.TransportResponse, error) {
	session := c.Session()
	if !session.Valid() {
		return core.TransportResponse{}, core.NewError(core.ErrorNotAuthenticated, "salesforce: client is not authenticated", map[string]any{
			"operation": operation,
		})
	}

	target := session.InstanceURL + path
	fields := map[string]any{
		"operation": operation,
		"method":    method,
		"url":       target,
	}
	if len(query) > 0 {
		fields["params"] = query
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return core.TransportResponse{}, core.WrapError(err, core.ErrorBadInput, "salesforce: encode request body", fields)
		}
		payload = encoded
	}

	core.LogWithLevel(ctx, c.logger, "debug", "salesforce: request", fields)
	res, err := c.transport.Do(ctx, core.TransportRequest{
		Method: method,
		URL:    target,
		Query:  query,
		Body:   payload,
		Headers: map[string]string{
			transport.HeaderAuthorization: session.AuthorizationHeader(),
		},
	})
	if err != nil {
		c.logFailure(ctx, err, fields)
		return core.TransportResponse{}, err
	}
	if err := NormalizeResponse(res.StatusCode, res.Body, fields); err != nil {
		c.logFailure(ctx, err, fields)
		return core.TransportResponse{}, err
	}
	return res, nil
}

func (c *Client) decode(res core.TransportResponse, target any) error {
	if err := json.Unmarshal(res.Body, target); err != nil {
		return core.WrapError(err, core.ErrorExternalFailure, "salesforce: decode response body", map[string]any{
			"status_code": res.StatusCode,
		})
	}
	return nil
}

func (c *Client) logFailure(ctx context.Context, err error, fields map[string]any) {
	logged := make(map[string]any, len(fields)+2)
	for key, value := range fields {
		logged[key] = value
	}
	logged["error"] = err.Error()
	logged["error_kind"] = core.KindOf(err)
	core.LogWithLevel(ctx, c.logger, "error", "salesforce: request failed", logged)
}
