package scryfall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestClient_GetCardsByNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/cards/collection" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}

		var req CollectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
			return
		}

		// Verify identifiers are name-based
		for _, id := range req.Identifiers {
			if id.Name == "" {
				t.Error("Expected name-based identifiers")
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := CollectionResponse{
			Object: "list",
			Data: []Card{
				{ID: "id1", Name: "Lightning Bolt", CMC: 1},
				{ID: "id2", Name: "Counterspell", CMC: 2},
			},
			NotFound: []CardIdentifier{
				{Name: "Nonexistent Card"},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	cards, notFound, err := client.GetCardsByNames(context.Background(),
		[]string{"Lightning Bolt", "Counterspell", "Nonexistent Card"})
	if err != nil {
		t.Fatalf("GetCardsByNames failed: %v", err)
	}

	if len(cards) != 2 {
		t.Errorf("Expected 2 cards, got %d", len(cards))
	}

	if len(notFound) != 1 || notFound[0] != "Nonexistent Card" {
		t.Errorf("notFound = %v, want [Nonexistent Card]", notFound)
	}
}

func TestClient_GetCardsByNames_Batches(t *testing.T) {
	batches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batches++
		var req CollectionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Identifiers) > MaxBatchSize {
			t.Errorf("batch of %d exceeds %d", len(req.Identifiers), MaxBatchSize)
		}
		_, _ = w.Write([]byte(`{"object":"list","data":[],"not_found":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	names := make([]string, MaxBatchSize+5)
	for i := range names {
		names[i] = "Card"
	}
	if _, _, err := client.GetCardsByNames(context.Background(), names); err != nil {
		t.Fatalf("GetCardsByNames failed: %v", err)
	}

	if batches != 2 {
		t.Errorf("batches = %d, want 2", batches)
	}
}

func TestClient_GetCardsByNames_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, _, err := client.GetCardsByNames(context.Background(), []string{"Opt"})
	if err == nil {
		t.Fatal("Expected error for HTTP 500, got nil")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want status code in message", err)
	}
}

func TestClient_GetCardsByNames_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"id1","name":"Opt"}],"not_found":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	cards, _, err := client.GetCardsByNames(context.Background(), []string{"Opt"})
	if err != nil {
		t.Fatalf("GetCardsByNames failed: %v", err)
	}
	if len(cards) != 1 || cards[0].Name != "Opt" {
		t.Errorf("cards = %+v, want [Opt]", cards)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestClient_GetCardsByNames_EmptyInput(t *testing.T) {
	client := NewClient()

	cards, notFound, err := client.GetCardsByNames(context.Background(), []string{})
	if err != nil {
		t.Fatalf("Expected no error for empty input, got: %v", err)
	}

	if len(cards) != 0 {
		t.Errorf("Expected 0 cards, got %d", len(cards))
	}

	if len(notFound) != 0 {
		t.Errorf("Expected empty notFound, got %d", len(notFound))
	}
}

func TestCardIdentifier_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(CardIdentifier{Name: "Lightning Bolt"})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	if got := string(data); got != `{"name":"Lightning Bolt"}` {
		t.Errorf("json = %s", got)
	}
}
