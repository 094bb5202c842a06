package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxBatchSize is the most identifiers /cards/collection accepts per request.
const MaxBatchSize = 75

// CardIdentifier selects one card in a collection request. Set and
// CollectorNumber are only valid together.
type CardIdentifier struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name,omitempty"`
	Set             string `json:"set,omitempty"`
	CollectorNumber string `json:"collector_number,omitempty"`
}

type CollectionRequest struct {
	Identifiers []CardIdentifier `json:"identifiers"`
}

type CollectionResponse struct {
	Object   string           `json:"object"`
	NotFound []CardIdentifier `json:"not_found"`
	Data     []Card           `json:"data"`
}

// GetCardsByNames looks up cards by exact name, MaxBatchSize names per
// request. It returns the cards found and the names Scryfall did not know.
// A failed batch fails the whole call.
func (c *Client) GetCardsByNames(ctx context.Context, names []string) ([]Card, []string, error) {
	cards := make([]Card, 0, len(names))
	var missing []string

	for start := 0; start < len(names); start += MaxBatchSize {
		batch := names[start:min(start+MaxBatchSize, len(names))]

		ids := make([]CardIdentifier, len(batch))
		for i, name := range batch {
			ids[i] = CardIdentifier{Name: name}
		}

		resp, err := c.collection(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch cards %d-%d of %d: %w", start+1, start+len(batch), len(names), err)
		}
		cards = append(cards, resp.Data...)
		for _, id := range resp.NotFound {
			missing = append(missing, id.Name)
		}
	}
	return cards, missing, nil
}

func (c *Client) collection(ctx context.Context, ids []CardIdentifier) (*CollectionResponse, error) {
	body, err := json.Marshal(CollectionRequest{Identifiers: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection request: %w", err)
	}

	var resp CollectionResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/cards/collection", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
