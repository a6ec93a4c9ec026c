package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSyncInventoryPutSucceeds(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		var attrs []inventoryAttribute
		if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := New(Config{ServerURL: srv.URL})
	err := SyncInventory(c, "tok", map[string][]string{"os": {"linux"}})
	if err != nil {
		t.Fatalf("SyncInventory: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("got method %s, want PUT", gotMethod)
	}
}

func TestSyncInventoryFallsBackToPatch(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := New(Config{ServerURL: srv.URL})
	if err := SyncInventory(c, "tok", map[string][]string{"os": {"linux"}}); err != nil {
		t.Fatalf("SyncInventory: %v", err)
	}
	if len(methods) != 2 || methods[0] != http.MethodPut || methods[1] != http.MethodPatch {
		t.Fatalf("got methods %v, want [PUT PATCH]", methods)
	}
}

func TestSyncInventoryUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := New(Config{ServerURL: srv.URL})
	err := SyncInventory(c, "tok", map[string][]string{"os": {"linux"}})
	if err != ErrUnauthorized {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestEncodeAttributesCollapsesSingleValues(t *testing.T) {
	body, err := encodeAttributes(map[string][]string{"device_type": {"raspberrypi4"}})
	if err != nil {
		t.Fatalf("encodeAttributes: %v", err)
	}
	var attrs []inventoryAttribute
	if err := json.Unmarshal(body, &attrs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(attrs) != 1 || attrs[0].Value != "raspberrypi4" {
		t.Fatalf("got %+v, want a single string-valued attribute", attrs)
	}
}
