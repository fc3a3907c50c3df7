// Package keyword calls the product-bank autosuggest API and normalizes
// its responses into ranked keyword suggestions.
package keyword

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrUnavailable covers connectivity problems: timeout, refused
	// connection, non-200 status. A retry may help.
	ErrUnavailable = errors.New("keyword: suggestion service unavailable")
	// ErrMalformed means the service answered but the body was not the
	// expected shape.
	ErrMalformed = errors.New("keyword: malformed suggestion response")
	// ErrNoSuggestions means a well-formed response carried zero usable
	// suggestions.
	ErrNoSuggestions = errors.New("keyword: no suggestions for query")
)

// Suggestion is one ranked candidate. CategoryID keys the spec-template
// lookup; CategoryName is its display name.
type Suggestion struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CategoryID   string `json:"psv_node_id"`
	CategoryName string `json:"psv_node_name"`
}

// Client queries the autosuggest endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type suggestResponse struct {
	Data []struct {
		ID          json.Number `json:"id"`
		Name        string      `json:"name"`
		PSVNodeID   json.Number `json:"psv_node_id"`
		PSVNodeName string      `json:"psv_node_name"`
	} `json:"data"`
}

// Search fetches ranked suggestions for the query. The four failure
// shapes (timeout, bad status, malformed body, empty result) are logged
// distinctly for the operator; callers only need the error identity.
func (c *Client) Search(ctx context.Context, query string) ([]Suggestion, error) {
	u := fmt.Sprintf("%s?limit=20&page=1&type=2&sort=pop&service=0&omni=1&srchterm=%s",
		c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("keyword: request failed (query=%q): %v", query, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("keyword: unexpected status %d (query=%q)", resp.StatusCode, query)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Printf("keyword: undecodable body (query=%q): %v", query, err)
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make([]Suggestion, 0, len(body.Data))
	for _, item := range body.Data {
		if item.Name == "" {
			continue
		}
		out = append(out, Suggestion{
			ID:           item.ID.String(),
			Name:         item.Name,
			CategoryID:   item.PSVNodeID.String(),
			CategoryName: item.PSVNodeName,
		})
	}
	if len(out) == 0 {
		log.Printf("keyword: empty suggestion set (query=%q)", query)
		return nil, ErrNoSuggestions
	}
	return out, nil
}
