package crmconnect_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	crmconnect "github.com/goliatone/go-crm-connect"
	"github.com/goliatone/go-crm-connect/core"
	sqlstore "github.com/goliatone/go-crm-connect/store/sql"
)

func newFakeSalesforce(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/services/oauth2/token" {
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "session-token",
				"token_type":   "Bearer",
				"instance_url": server.URL,
			})
			return
		}
		handler, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func testConfig(host string) crmconnect.Config {
	production := false
	cfg := core.DefaultConfig()
	cfg.Salesforce = core.SalesforceConfig{
		Version:        "v56.0",
		Host:           host,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		Username:       "user@example.com",
		Password:       "pass",
		SecurityToken:  "token",
		Production:     &production,
	}
	return cfg
}

func TestLoadConfig_RuntimeOverrides(t *testing.T) {
	env := map[string]string{
		"SF_VERSION":         "v56.0",
		"SF_HOST":            "https://test.salesforce.com",
		"SF_CONSUMER_KEY":    "key",
		"SF_CONSUMER_SECRET": "secret",
		"SF_USERNAME":        "user@example.com",
		"SF_PASSWORD":        "pass",
		"SF_ACCESS_TOKEN":    "token",
		"SF_PRODUCTION":      "false",
	}
	for key, value := range env {
		t.Setenv(key, value)
	}

	cfg, err := crmconnect.LoadConfig(context.Background(), nil, map[string]any{"service_name": "connect-dev"})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "connect-dev" {
		t.Fatalf("expected runtime service name, got %q", cfg.ServiceName)
	}
	if cfg.Salesforce.LoginURL() != "https://test.salesforce.com" {
		t.Fatalf("unexpected login url %q", cfg.Salesforce.LoginURL())
	}
}

func TestNewHandler_LookupEndToEnd(t *testing.T) {
	var soql string
	server := newFakeSalesforce(t, map[string]http.HandlerFunc{
		"GET /services/data/v56.0/query": func(w http.ResponseWriter, r *http.Request) {
			soql = r.URL.Query().Get("q")
			if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
				t.Errorf("unexpected authorization header %q", got)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"totalSize": 2,
				"done":      true,
				"records": []map[string]any{
					{"attributes": map[string]any{"type": "Account"}, "Id": "001A", "Name": "Acme"},
					{"attributes": map[string]any{"type": "Account"}, "Id": "001B", "Name": "Acme Labs"},
				},
			})
		},
	})

	dsn := fmt.Sprintf("file:crmconnect-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	client, err := sqlstore.OpenClient(context.Background(), core.ActivityConfig{Driver: "sqlite3", DSN: dsn})
	if err != nil {
		t.Fatalf("open activity db: %v", err)
	}
	defer func() { _ = client.Close() }()
	store, err := sqlstore.NewActivityStoreFromPersistence(client)
	if err != nil {
		t.Fatalf("new activity store: %v", err)
	}

	handler, err := crmconnect.NewHandler(testConfig(server.URL),
		crmconnect.WithHTTPClient(server.Client()),
		crmconnect.WithActivitySink(store),
	)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})
	result, err := handler.Handle(ctx, events.ConnectEvent{
		Name: "ContactFlowEvent",
		Details: events.ConnectDetails{
			ContactData: events.ConnectContactData{ContactID: "contact-9"},
			Parameters: map[string]string{
				"sf_operation": "lookup",
				"sf_object":    "Account",
				"sf_fields":    "Id, Name",
				"Name":         "Acme%",
			},
		},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if soql != "SELECT Id, Name FROM Account WHERE Name LIKE 'Acme%'" {
		t.Fatalf("unexpected soql %q", soql)
	}
	if result["Id"] != "001A" || result["count"] != 2 {
		t.Fatalf("unexpected result %#v", result)
	}
	if _, ok := result["attributes"]; ok {
		t.Fatalf("expected attributes stripped, got %#v", result)
	}

	page, err := store.List(context.Background(), sqlstore.ActivityFilter{InvocationID: "req-1"})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected one activity entry, got %d", page.Total)
	}
	entry := page.Items[0]
	if entry.Operation != "lookup" || entry.Object != "Account" || entry.ContactID != "contact-9" || entry.Status != core.ActivityStatusOK {
		t.Fatalf("unexpected activity entry %#v", entry)
	}
}

func TestNewHandler_UnknownOperationSignsInOnly(t *testing.T) {
	server := newFakeSalesforce(t, nil)
	handler, err := crmconnect.NewHandler(testConfig(server.URL), crmconnect.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	_, err = handler.Handle(context.Background(), events.ConnectEvent{
		Details: events.ConnectDetails{Parameters: map[string]string{"sf_operation": "merge"}},
	})
	if !core.IsKind(err, core.ErrorUnknownOperation) {
		t.Fatalf("expected unknown operation, got %v", err)
	}
}
