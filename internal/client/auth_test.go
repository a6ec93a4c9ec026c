package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgefleet/agent/internal/security"
)

func TestAuthenticateHappyPath(t *testing.T) {
	dir := t.TempDir()
	ks, err := security.LoadOrGenerate(dir + "/key.pem")
	if err != nil {
		t.Fatalf("LoadOrGenerate: %v", err)
	}

	var gotSignature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-MEN-Signature")
		var body authRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode auth body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("opaque-token"))
	}))
	defer srv.Close()

	c, err := New(Config{ServerURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	identity := map[string][]string{"mac": {"aa:bb:cc:dd:ee:ff"}}
	token := Authenticate(c, identity, ks, "")
	if token != "opaque-token" {
		t.Fatalf("Authenticate returned %q, want opaque-token", token)
	}
	if gotSignature == "" {
		t.Fatal("expected a non-empty X-MEN-Signature header")
	}
}

func TestAuthenticateRejectedReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	ks, err := security.LoadOrGenerate(dir + "/key.pem")
	if err != nil {
		t.Fatalf("LoadOrGenerate: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := New(Config{ServerURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	token := Authenticate(c, map[string][]string{"mac": {"x"}}, ks, "")
	if token != "" {
		t.Fatalf("Authenticate returned %q, want empty string", token)
	}
}

func TestAuthenticateRequiresIdentity(t *testing.T) {
	dir := t.TempDir()
	ks, err := security.LoadOrGenerate(dir + "/key.pem")
	if err != nil {
		t.Fatalf("LoadOrGenerate: %v", err)
	}
	c := &ApiClient{HTTP: http.DefaultClient, ServerURL: "http://example.invalid"}

	if token := Authenticate(c, nil, ks, ""); token != "" {
		t.Fatalf("Authenticate with empty identity returned %q, want empty string", token)
	}
}
