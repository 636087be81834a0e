package salesforce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-crm-connect/core"
	goerrors "github.com/goliatone/go-errors"
)

type recordedRequest struct {
	method string
	path   string
	query  map[string]string
	auth   string
	body   map[string]any
}

type fakeCRM struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]http.HandlerFunc
}

func newFakeCRM(t *testing.T) *fakeCRM {
	t.Helper()
	crm := &fakeCRM{t: t, routes: map[string]http.HandlerFunc{}}
	crm.server = httptest.NewServer(http.HandlerFunc(crm.serve))
	crm.routes["POST /services/oauth2/token"] = func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "session-token",
			"token_type":   "Bearer",
			"instance_url": crm.server.URL,
		})
	}
	t.Cleanup(crm.server.Close)
	return crm
}

func (f *fakeCRM) serve(w http.ResponseWriter, r *http.Request) {
	recorded := recordedRequest{
		method: r.Method,
		path:   r.URL.EscapedPath(),
		query:  map[string]string{},
		auth:   r.Header.Get("Authorization"),
	}
	for key := range r.URL.Query() {
		recorded.query[key] = r.URL.Query().Get(key)
	}
	if r.URL.Path != "/services/oauth2/token" {
		payload, _ := io.ReadAll(r.Body)
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &recorded.body)
		}
	}
	f.mu.Lock()
	f.requests = append(f.requests, recorded)
	f.mu.Unlock()

	handler, ok := f.routes[r.Method+" "+r.URL.EscapedPath()]
	if !ok {
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.EscapedPath())
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	handler(w, r)
}

func (f *fakeCRM) handle(method string, path string, handler http.HandlerFunc) {
	f.routes[method+" "+path] = handler
}

func (f *fakeCRM) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeCRM) client() *Client {
	return New(Config{
		Credentials: core.Credentials{
			ClientID:      "key",
			ClientSecret:  "secret",
			Username:      "agent@example.com",
			Password:      "pass",
			SecurityToken: "tok",
			LoginURL:      f.server.URL,
		},
		APIVersion: "v56.0",
		HTTPClient: f.server.Client(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func signedInClient(t *testing.T, crm *fakeCRM) *Client {
	t.Helper()
	client := crm.client()
	if err := client.SignIn(context.Background()); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	return client
}

func TestClient_SignInBindsSession(t *testing.T) {
	crm := newFakeCRM(t)
	client := crm.client()
	if client.IsAuthenticated() {
		t.Fatalf("expected new client to be unauthenticated")
	}
	if err := client.SignIn(context.Background()); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !client.IsAuthenticated() {
		t.Fatalf("expected authenticated client")
	}
	session := client.Session()
	if session.InstanceURL != crm.server.URL || session.AccessToken != "session-token" {
		t.Fatalf("unexpected session %#v", session)
	}
	if session.APIVersion != "v56.0" {
		t.Fatalf("expected api version on session, got %q", session.APIVersion)
	}

	if err := client.SignIn(context.Background()); err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	if len(crm.recorded()) != 1 {
		t.Fatalf("expected a single token request, got %d", len(crm.recorded()))
	}
}

func TestClient_OperationsRequireSession(t *testing.T) {
	crm := newFakeCRM(t)
	client := crm.client()

	_, err := client.Query(context.Background(), "SELECT Id FROM Contact")
	if core.KindOf(err) != core.ErrorNotAuthenticated {
		t.Fatalf("expected not authenticated, got %v", err)
	}
	if err := client.Delete(context.Background(), "Case", "500"); core.KindOf(err) != core.ErrorNotAuthenticated {
		t.Fatalf("expected not authenticated for delete, got %v", err)
	}
	if len(crm.recorded()) != 0 {
		t.Fatalf("expected no http calls, got %d", len(crm.recorded()))
	}
}

func TestClient_QueryStripsAttributes(t *testing.T) {
	crm := newFakeCRM(t)
	crm.handle(http.MethodGet, "/services/data/v56.0/query", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"totalSize": 2,
			"done":      true,
			"records": []map[string]any{
				{"attributes": map[string]any{"type": "Contact", "url": "/x/1"}, "Id": "003A", "Name": "Ada"},
				{"attributes": map[string]any{"type": "Contact", "url": "/x/2"}, "Id": "003B", "Name": "Bob"},
			},
		})
	})
	client := signedInClient(t, crm)

	records, err := client.Query(context.Background(), "SELECT Id, Name FROM Contact WHERE Name LIKE 'A%'")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected two records, got %d", len(records))
	}
	for _, record := range records {
		if _, ok := record[core.RecordAttributesKey]; ok {
			t.Fatalf("expected attributes to be stripped, got %#v", record)
		}
	}
	if records[0]["Id"] != "003A" {
		t.Fatalf("unexpected first record %#v", records[0])
	}

	requests := crm.recorded()
	last := requests[len(requests)-1]
	if last.query["q"] != "SELECT Id, Name FROM Contact WHERE Name LIKE 'A%'" {
		t.Fatalf("unexpected q param %q", last.query["q"])
	}
	if last.auth != "Bearer session-token" {
		t.Fatalf("expected bearer header, got %q", last.auth)
	}
}

func TestClient_SearchAndParameterizedSearch(t *testing.T) {
	crm := newFakeCRM(t)
	searchBody := map[string]any{
		"searchRecords": []map[string]any{
			{"attributes": map[string]any{"type": "Contact"}, "Id": "003A"},
		},
	}
	crm.handle(http.MethodGet, "/services/data/v56.0/search", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, searchBody)
	})
	crm.handle(http.MethodGet, "/services/data/v56.0/parameterizedSearch", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, searchBody)
	})
	client := signedInClient(t, crm)

	found, err := client.Search(context.Background(), "FIND {Ada}")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0]["Id"] != "003A" {
		t.Fatalf("unexpected search records %#v", found)
	}
	if _, ok := found[0][core.RecordAttributesKey]; ok {
		t.Fatalf("expected search records to be stripped")
	}

	found, err = client.ParameterizedSearch(context.Background(), map[string]string{
		"q":              "4155552671",
		"sobject":        "Contact",
		"Contact.fields": "Id,Name",
	})
	if err != nil {
		t.Fatalf("parameterized search: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected one record, got %d", len(found))
	}
	requests := crm.recorded()
	last := requests[len(requests)-1]
	if last.query["Contact.fields"] != "Id,Name" || last.query["sobject"] != "Contact" || last.query["q"] != "4155552671" {
		t.Fatalf("unexpected parameterized search params %#v", last.query)
	}
}

func TestClient_WriteOperations(t *testing.T) {
	crm := newFakeCRM(t)
	crm.handle(http.MethodPost, "/services/data/v56.0/sobjects/Case", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": "500XYZ", "success": true, "errors": []any{}})
	})
	crm.handle(http.MethodPatch, "/services/data/v56.0/sobjects/Case/500XYZ", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	crm.handle(http.MethodPatch, "/services/data/v56.0/sobjects/Account/Ext_Id__c/A%2F1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	crm.handle(http.MethodDelete, "/services/data/v56.0/sobjects/Case/500XYZ", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	client := signedInClient(t, crm)
	ctx := context.Background()

	id, err := client.Create(ctx, "Case", map[string]any{"Subject": "Callback"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "500XYZ" {
		t.Fatalf("unexpected id %q", id)
	}
	status, err := client.Update(ctx, "Case", "500XYZ", map[string]any{"Status": "Closed"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
	if err := client.UpdateByExternalID(ctx, "Account", "Ext_Id__c", "A/1", map[string]any{"Name": "Acme"}); err != nil {
		t.Fatalf("update by external id: %v", err)
	}
	if err := client.Delete(ctx, "Case", "500XYZ"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	requests := crm.recorded()
	if requests[1].body["Subject"] != "Callback" {
		t.Fatalf("expected create body to be json, got %#v", requests[1].body)
	}
	if requests[2].body["Status"] != "Closed" {
		t.Fatalf("expected update body to be json, got %#v", requests[2].body)
	}
}

func TestClient_CreateWithoutIDIsCreateError(t *testing.T) {
	crm := newFakeCRM(t)
	crm.handle(http.MethodPost, "/services/data/v56.0/sobjects/Case", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"success": false})
	})
	client := signedInClient(t, crm)

	_, err := client.Create(context.Background(), "Case", map[string]any{"Subject": "x"})
	if core.KindOf(err) != core.ErrorCreate {
		t.Fatalf("expected create error, got %v", err)
	}
}

func TestClient_NormalizesErrorsForEveryVerb(t *testing.T) {
	crm := newFakeCRM(t)
	failure := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, []map[string]any{
			{"errorCode": "INVALID_FIELD", "message": "No such column 'Foo'"},
		})
	}
	crm.handle(http.MethodGet, "/services/data/v56.0/query", failure)
	crm.handle(http.MethodPost, "/services/data/v56.0/sobjects/Case", failure)
	crm.handle(http.MethodPatch, "/services/data/v56.0/sobjects/Case/1", failure)
	crm.handle(http.MethodDelete, "/services/data/v56.0/sobjects/Case/1", failure)
	client := signedInClient(t, crm)
	ctx := context.Background()

	errs := map[string]error{}
	_, errs["get"] = client.Query(ctx, "SELECT Foo FROM Case")
	_, errs["post"] = client.Create(ctx, "Case", map[string]any{})
	_, errs["patch"] = client.Update(ctx, "Case", "1", map[string]any{})
	errs["delete"] = client.Delete(ctx, "Case", "1")

	for verb, err := range errs {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			t.Fatalf("%s: expected go-errors envelope, got %T", verb, err)
		}
		if rich.TextCode != core.ErrorCRMAPI {
			t.Fatalf("%s: expected %q, got %q", verb, core.ErrorCRMAPI, rich.TextCode)
		}
		if rich.Message != "INVALID_FIELD: No such column 'Foo'" {
			t.Fatalf("%s: unexpected message %q", verb, rich.Message)
		}
		if rich.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", verb, rich.Code)
		}
	}
}

func TestClient_SignInFailureIsAuthenticationError(t *testing.T) {
	crm := newFakeCRM(t)
	crm.handle(http.MethodPost, "/services/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_client_id",
			"error_description": "client identifier invalid",
		})
	})
	client := crm.client()

	err := client.SignIn(context.Background())
	if core.KindOf(err) != core.ErrorAuthentication {
		t.Fatalf("expected authentication error, got %v", err)
	}
	details, ok := core.CRMDetails(err)
	if !ok || details.ErrorCode != "invalid_client_id" || details.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected details %#v", details)
	}
	if !strings.Contains(err.Error(), "invalid_client_id: client identifier invalid") {
		t.Fatalf("expected normalized cause in message, got %q", err.Error())
	}
	if client.IsAuthenticated() {
		t.Fatalf("expected client to stay unauthenticated")
	}
}
