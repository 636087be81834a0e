package core

import (
	stderrors "errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestNewError_AssignsCategoryCodeAndTextCode(t *testing.T) {
	err := NewError(ErrorUnknownOperation, "operations: unknown operation", map[string]any{"operation": "bogus"})

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %q", rich.Category)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, rich.Code)
	}
	if rich.TextCode != ErrorUnknownOperation {
		t.Fatalf("expected %q, got %q", ErrorUnknownOperation, rich.TextCode)
	}
	if rich.Metadata["operation"] != "bogus" {
		t.Fatalf("expected operation metadata, got %#v", rich.Metadata)
	}
}

func TestNewError_UnknownKindFallsBackToInternal(t *testing.T) {
	err := NewError("NOT_A_KIND", "boom", nil)
	if err.TextCode != ErrorInternal {
		t.Fatalf("expected internal text code, got %q", err.TextCode)
	}
	if err.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", err.Category)
	}
}

func TestNewCRMError_FormatsCodeAndDescription(t *testing.T) {
	err := NewCRMError(ErrorCRMAPI, http.StatusNotFound, "invalid_grant", "bad creds", nil)
	if err.Message != "invalid_grant: bad creds" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if err.Code != http.StatusNotFound {
		t.Fatalf("expected upstream status, got %d", err.Code)
	}

	details, ok := CRMDetails(err)
	if !ok {
		t.Fatalf("expected crm details")
	}
	if details.StatusCode != http.StatusNotFound || details.ErrorCode != "invalid_grant" || details.Description != "bad creds" {
		t.Fatalf("unexpected details %#v", details)
	}
}

func TestNewCRMError_StatusOnly(t *testing.T) {
	err := NewCRMError(ErrorCRMAPI, http.StatusInternalServerError, "", "", nil)
	if err.Message != "request returned status code: 500" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	details, ok := CRMDetails(err)
	if !ok || details.ErrorCode != "" || details.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected details %#v", details)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != "" {
		t.Fatalf("expected empty kind for nil, got %q", got)
	}
	if got := KindOf(stderrors.New("plain")); got != ErrorInternal {
		t.Fatalf("expected internal for plain errors, got %q", got)
	}
	wrapped := WrapError(NewError(ErrorCRMAPI, "inner", nil), ErrorAuthentication, "outer", nil)
	if got := KindOf(wrapped); got != ErrorAuthentication {
		t.Fatalf("expected outer kind, got %q", got)
	}
	if !IsKind(wrapped, ErrorAuthentication) {
		t.Fatalf("expected IsKind to match outer kind")
	}
	if IsKind(stderrors.New("plain"), ErrorAuthentication) {
		t.Fatalf("expected plain error to match no kind")
	}
}

func TestWrapError_KeepsCRMDetailsUnderOuterCategory(t *testing.T) {
	cause := NewCRMError(ErrorCRMAPI, http.StatusBadRequest, "invalid_grant", "authentication failure", nil)
	err := WrapError(cause, ErrorAuthentication, "sign in failed", nil)

	if err.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth category, got %q", err.Category)
	}
	details, ok := CRMDetails(err)
	if !ok || details.ErrorCode != "invalid_grant" {
		t.Fatalf("expected crm details to survive wrapping, got %#v", details)
	}
}
