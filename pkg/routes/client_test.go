package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient tests client construction defaults.
func TestNewClient(t *testing.T) {
	client := NewClient(Config{})

	if client.baseURL != DefaultBaseURL {
		t.Errorf("Expected base URL %s, got %s", DefaultBaseURL, client.baseURL)
	}
	if client.httpClient.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", client.httpClient.Timeout)
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("Expected user agent %s, got %s", DefaultUserAgent, client.userAgent)
	}
}

// TestLookup tests route lookups against a fake adsbdb.
func TestLookup(t *testing.T) {
	t.Run("Prefers ICAO code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/callsign/DAL2968" {
				t.Errorf("Expected path /callsign/DAL2968, got %s", r.URL.Path)
			}
			if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
				t.Errorf("Expected user agent %s, got %s", DefaultUserAgent, ua)
			}
			w.Write([]byte(`{"response":{"flightroute":{
				"callsign":"DAL2968",
				"origin":{"icao_code":"KDTW","iata_code":"DTW","name":"Detroit Metropolitan Wayne County Airport"},
				"destination":{"icao_code":"KATL","iata_code":"ATL","name":"Hartsfield-Jackson Atlanta International Airport"}
			}}}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL})
		route, err := client.Lookup(context.Background(), " dal2968 ")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if route.Origin != "KDTW" || route.Destination != "KATL" {
			t.Errorf("Expected KDTW-KATL, got %+v", route)
		}
	})

	t.Run("Falls back to IATA code and name", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":{"flightroute":{
				"origin":{"icao_code":"  ","iata_code":"YYZ"},
				"destination":{"icao_code":null,"name":" Somewhere Field "}
			}}}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL})
		route, err := client.Lookup(context.Background(), "ACA100")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if route.Origin != "YYZ" || route.Destination != "Somewhere Field" {
			t.Errorf("Unexpected route %+v", route)
		}
	})

	t.Run("Incomplete payload yields partial route", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":{"flightroute":{"origin":{"icao_code":"KDTW"},"destination":"unknown"}}}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL})
		route, err := client.Lookup(context.Background(), "DAL1")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if route.Origin != "KDTW" || route.Destination != "" {
			t.Errorf("Unexpected route %+v", route)
		}
	})

	t.Run("Missing flightroute yields empty route", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":{}}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL})
		route, err := client.Lookup(context.Background(), "DAL1")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if route.Resolved() {
			t.Errorf("Expected empty route, got %+v", route)
		}
	})

	t.Run("404 is ErrNotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"response":"unknown callsign"}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL})
		_, err := client.Lookup(context.Background(), "XYZ123")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Non-object response is malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":"unknown callsign"}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL})
		_, err := client.Lookup(context.Background(), "XYZ123")
		if err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Expected parse error, got %v", err)
		}
	})

	t.Run("Server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL})
		_, err := client.Lookup(context.Background(), "DAL1")
		if err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Expected API error, got %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		client := NewClient(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
		if _, err := client.Lookup(context.Background(), "DAL1"); err == nil {
			t.Error("Expected timeout error")
		}
	})

	t.Run("Blank callsign", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL})
		if _, err := client.Lookup(context.Background(), "  "); err == nil {
			t.Error("Expected error for blank callsign")
		}
		if calls.Load() != 0 {
			t.Errorf("Expected no request, got %d", calls.Load())
		}
	})
}

// TestNormalizeCallsign tests cache key normalization.
func TestNormalizeCallsign(t *testing.T) {
	tests := map[string]string{
		"dal2968":     "DAL2968",
		" UAL1525 ":   "UAL1525",
		"":            "",
		"\tn447mm\n": "N447MM",
	}
	for in, want := range tests {
		if got := NormalizeCallsign(in); got != want {
			t.Errorf("NormalizeCallsign(%q) = %q, want %q", in, got, want)
		}
	}
}
