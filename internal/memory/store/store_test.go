package store

import "testing"

func TestNamespacesAreDisjointPerUser(t *testing.T) {
	if MessagesNamespace("alice") == FactsNamespace("alice") {
		t.Error("Expected message and fact namespaces to differ")
	}
	if MessagesNamespace("alice") == MessagesNamespace("bob") {
		t.Error("Expected namespaces of different users to differ")
	}
}

func TestNamespaceSanitizesUserID(t *testing.T) {
	got := MessagesNamespace("user@example.com")
	want := "messages_user_example_com"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFactKey(t *testing.T) {
	if got := FactKey("alice"); got != "facts:alice" {
		t.Errorf("Expected facts:alice, got %q", got)
	}
}
