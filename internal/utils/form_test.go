package utils

import (
	"net/url"
	"testing"
)

func TestFlattenForm(t *testing.T) {
	query := url.Values{
		"lang":               {"fr"},
		"id_customer_thread": {"12"},
		"from":               {"query@example.com"},
	}
	post := url.Values{
		"from":          {"post@example.com", "second@example.com"},
		"submitMessage": {""},
		"empty":         {},
	}

	got := FlattenForm(query, post)
	want := map[string]string{
		"lang":               "fr",
		"id_customer_thread": "12",
		"from":               "post@example.com",
		"submitMessage":      "",
		"empty":              "",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
	for k, v := range want {
		if g, ok := got[k]; !ok || g != v {
			t.Fatalf("%s = %q (present=%v); want %q", k, g, ok, v)
		}
	}

	if n := len(FlattenForm()); n != 0 {
		t.Fatalf("no sources gave %d keys", n)
	}
}
