package util

import (
	"strings"
	"testing"
)

func TestQueryKeyStableAcrossInsertionOrder(t *testing.T) {
	a := map[string]any{}
	a["status"] = "ACTIVE"
	a["page"] = 2
	a["limit"] = 25
	a["filter"] = map[string]any{"z": 1, "a": []any{"x", "y"}}

	b := map[string]any{
		"filter": map[string]any{"a": []any{"x", "y"}, "z": 1},
		"limit":  25,
		"page":   2,
		"status": "ACTIVE",
	}

	ka, err := QueryKey("contacts", a)
	if err != nil {
		t.Fatal(err)
	}
	kb, err := QueryKey("contacts", b)
	if err != nil {
		t.Fatal(err)
	}
	if ka != kb {
		t.Fatalf("keys differ:\n%s\n%s", ka, kb)
	}
	want := `contacts-{"filter":{"a":["x","y"],"z":1},"limit":25,"page":2,"status":"ACTIVE"}`
	if ka != want {
		t.Fatalf("got %s want %s", ka, want)
	}
}

func TestQueryKeyPrefixedByResource(t *testing.T) {
	k, err := QueryKey("budgets", map[string]any{"page": 1, "limit": 10})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(k, "budgets-") {
		t.Fatalf("key %q not prefixed by resource", k)
	}
}

func TestQueryKeyNoHTMLEscape(t *testing.T) {
	k, err := QueryKey("r", map[string]any{"q": "a<b&c"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(k, "a<b&c") {
		t.Fatalf("unexpected escaping in %q", k)
	}
}

func TestQueryKeyRejectsUnencodable(t *testing.T) {
	if _, err := QueryKey("r", map[string]any{"fn": func() {}}); err == nil {
		t.Fatal("expected error for unencodable param")
	}
}
