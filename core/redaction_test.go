package core

import "testing"

func TestRedactSensitiveMap(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"invocation_id":  "req-1",
		"security_token": "abc",
		"sf_phone":       "+14155552671",
		"object":         "Contact",
		"nested": map[string]any{
			"Authorization": "Bearer x",
			"status":        200,
		},
		"items": []any{map[string]any{"password": "p"}},
	})

	if redacted["invocation_id"] != "req-1" || redacted["object"] != "Contact" {
		t.Fatalf("expected traceability fields kept, got %#v", redacted)
	}
	if redacted["security_token"] != RedactedValue || redacted["sf_phone"] != RedactedValue {
		t.Fatalf("expected secrets and phone redacted, got %#v", redacted)
	}
	nested := redacted["nested"].(map[string]any)
	if nested["Authorization"] != RedactedValue || nested["status"] != 200 {
		t.Fatalf("unexpected nested redaction %#v", nested)
	}
	item := redacted["items"].([]any)[0].(map[string]any)
	if item["password"] != RedactedValue {
		t.Fatalf("expected slice items redacted, got %#v", item)
	}
}

func TestRedactSensitiveMap_DoesNotMutateSource(t *testing.T) {
	source := map[string]any{"password": "p"}
	_ = RedactSensitiveMap(source)
	if source["password"] != "p" {
		t.Fatalf("source mutated: %#v", source)
	}
}

func TestRedactSensitiveMap_StringMaps(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"params": map[string]string{
			"q":        "SELECT Id FROM Contact",
			"sf_phone": "+14155552671",
		},
	})
	params, ok := redacted["params"].(map[string]any)
	if !ok {
		t.Fatalf("expected params to become a redacted map, got %#v", redacted["params"])
	}
	if params["sf_phone"] != RedactedValue {
		t.Fatalf("expected phone parameter redacted, got %#v", params["sf_phone"])
	}
	if params["q"] != "SELECT Id FROM Contact" {
		t.Fatalf("expected query kept, got %#v", params["q"])
	}
}
