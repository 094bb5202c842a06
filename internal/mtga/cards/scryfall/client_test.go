package scryfall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(serverURL string) *Client {
	return NewClientWithOptions(Options{
		BaseURL:        serverURL,
		RateInterval:   time.Millisecond,
		InitialBackoff: 10 * time.Millisecond,
	})
}

func TestNewClient(t *testing.T) {
	client := NewClient()

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}

	if client.httpClient == nil {
		t.Error("httpClient is nil")
	}

	if client.rateLimiter == nil {
		t.Error("rateLimiter is nil")
	}

	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}

	if client.maxRetries != defaultMaxRetries {
		t.Errorf("maxRetries = %d, want %d", client.maxRetries, defaultMaxRetries)
	}
}

func TestNewClientWithOptions_NegativeRetries(t *testing.T) {
	client := NewClientWithOptions(Options{MaxRetries: -1})

	if client.maxRetries != 0 {
		t.Errorf("maxRetries = %d, want 0", client.maxRetries)
	}
}

func TestClient_RateLimiting(t *testing.T) {
	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"test","name":"Test Card"}`))
	}))
	defer server.Close()

	client := NewClientWithOptions(Options{BaseURL: server.URL})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		var card Card
		if err := client.get(ctx, server.URL, &card); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}
	elapsed := time.Since(start)

	if requestCount.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount.Load())
	}

	// Should take at least 200ms (2 delays of 100ms each between 3 requests)
	minDuration := 200 * time.Millisecond
	if elapsed < minDuration {
		t.Errorf("Rate limiting not working: completed 3 requests in %v (expected >= %v)", elapsed, minDuration)
	}
}

func TestClient_GetCardNamed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/named" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("exact"); got != "Lightning Bolt" {
			t.Errorf("exact = %q, want %q", got, "Lightning Bolt")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"id": "test-id",
			"name": "Lightning Bolt",
			"mana_cost": "{R}",
			"cmc": 1.0,
			"type_line": "Instant",
			"color_identity": ["R"],
			"legalities": {"modern": "legal", "standard": "not_legal"},
			"prices": {"usd": "1.25"}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	card, err := client.GetCardNamed(context.Background(), "Lightning Bolt")
	if err != nil {
		t.Fatalf("GetCardNamed failed: %v", err)
	}

	if card.Name != "Lightning Bolt" {
		t.Errorf("Expected card name 'Lightning Bolt', got '%s'", card.Name)
	}
	if card.Legalities["modern"] != "legal" {
		t.Errorf("modern legality = %q, want legal", card.Legalities["modern"])
	}
	if card.Prices.USD == nil || *card.Prices.USD != "1.25" {
		t.Errorf("USD price = %v, want 1.25", card.Prices.USD)
	}
}

func TestClient_GetCardFuzzy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fuzzy"); got != "lightnin bolt" {
			t.Errorf("fuzzy = %q, want %q", got, "lightnin bolt")
		}
		_, _ = w.Write([]byte(`{"name":"Lightning Bolt","type_line":"Instant"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	card, err := client.GetCardFuzzy(context.Background(), "lightnin bolt")
	if err != nil {
		t.Fatalf("GetCardFuzzy failed: %v", err)
	}
	if card.Name != "Lightning Bolt" {
		t.Errorf("Expected card name 'Lightning Bolt', got '%s'", card.Name)
	}
}

func TestClient_Autocomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/autocomplete" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"object":"catalog","total_values":2,"data":["Negate","Negated Thought"]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	names, err := client.Autocomplete(context.Background(), "Nega")
	if err != nil {
		t.Fatalf("Autocomplete failed: %v", err)
	}
	if len(names) != 2 || names[0] != "Negate" {
		t.Errorf("Autocomplete() = %v", names)
	}
}

func TestClient_NotFoundError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","code":"not_found","status":404,"details":"No card found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetCardNamed(context.Background(), "Nonexistent Card")
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}

	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got: %T", err)
	}
}

func TestClient_RateLimitRetry(t *testing.T) {
	var attemptCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attemptCount.Add(1) < 2 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"object":"error","code":"rate_limit","status":429}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"test","name":"Test Card"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var card Card
	if err := client.get(context.Background(), server.URL, &card); err != nil {
		t.Fatalf("Expected success after retry, got error: %v", err)
	}

	if attemptCount.Load() < 2 {
		t.Errorf("Expected at least 2 attempts, got %d", attemptCount.Load())
	}

	if card.Name != "Test Card" {
		t.Errorf("Expected card name 'Test Card', got '%s'", card.Name)
	}
}

func TestClient_MaxRetriesExceeded(t *testing.T) {
	var attemptCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"object":"error","code":"rate_limit","status":429}`))
	}))
	defer server.Close()

	client := NewClientWithOptions(Options{
		BaseURL:        server.URL,
		RateInterval:   time.Millisecond,
		InitialBackoff: time.Millisecond,
		MaxRetries:     2,
	})

	var card Card
	err := client.get(context.Background(), server.URL, &card)

	if err == nil {
		t.Fatal("Expected error after max retries, got nil")
	}

	if got := attemptCount.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestClient_NoTransportRetry(t *testing.T) {
	var dropped, limited atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/drop" {
			dropped.Add(1)
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		if limited.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"test","name":"Test Card"}`))
	}))
	defer server.Close()

	tests := []struct {
		name        string
		noRetry     bool
		wantDropped int32
	}{
		{name: "retries transport errors", wantDropped: 3},
		{name: "single attempt", noRetry: true, wantDropped: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dropped.Store(0)
			client := NewClientWithOptions(Options{
				BaseURL:          server.URL,
				RateInterval:     time.Millisecond,
				InitialBackoff:   time.Millisecond,
				MaxRetries:       2,
				NoTransportRetry: tt.noRetry,
			})

			var card Card
			if err := client.get(context.Background(), server.URL+"/drop", &card); err == nil {
				t.Fatal("expected an error from a dropped connection")
			}
			if got := dropped.Load(); got != tt.wantDropped {
				t.Errorf("attempts = %d, want %d", got, tt.wantDropped)
			}
		})
	}

	// Rate limiting is still retried without transport retries.
	limited.Store(0)
	client := NewClientWithOptions(Options{
		BaseURL:          server.URL,
		RateInterval:     time.Millisecond,
		InitialBackoff:   time.Millisecond,
		NoTransportRetry: true,
	})
	var card Card
	if err := client.get(context.Background(), server.URL+"/card", &card); err != nil {
		t.Fatalf("get after 429: %v", err)
	}
	if card.Name != "Test Card" || limited.Load() != 2 {
		t.Errorf("card = %q after %d requests", card.Name, limited.Load())
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{invalid json}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var card Card
	if err := client.get(context.Background(), server.URL, &card); err == nil {
		t.Fatal("Expected error for invalid JSON, got nil")
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Slow response
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var card Card
	if err := client.get(ctx, server.URL, &card); err == nil {
		t.Fatal("Expected error from context cancellation, got nil")
	}
}

func TestClient_Headers(t *testing.T) {
	var receivedUserAgent, receivedAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUserAgent = r.Header.Get("User-Agent")
		receivedAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var card Card
	_ = client.get(context.Background(), server.URL, &card)

	if receivedUserAgent != defaultUserAgent {
		t.Errorf("Expected User-Agent '%s', got '%s'", defaultUserAgent, receivedUserAgent)
	}

	if receivedAccept != "application/json" {
		t.Errorf("Expected Accept header 'application/json', got '%s'", receivedAccept)
	}
}

func TestCard_FullTypeLine(t *testing.T) {
	card := Card{CardFaces: []CardFace{{TypeLine: "Creature — Human"}, {TypeLine: "Land"}}}

	if got := card.FullTypeLine(); got != "Creature — Human // Land" {
		t.Errorf("FullTypeLine() = %q", got)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "NotFoundError",
			err:      &NotFoundError{URL: "test"},
			expected: true,
		},
		{
			name:     "Other error",
			err:      &APIError{Status: 500},
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsNotFound(tt.err)
			if result != tt.expected {
				t.Errorf("IsNotFound() = %v, want %v", result, tt.expected)
			}
		})
	}
}
