// Package ingest implements the politician sync job: page through the
// upstream politician API, derive the lean core payload and embedding
// texts per record, embed three vectors (summary text, name, full detail),
// and upsert both vector collections plus the party graph in fixed-size
// batches. The query path depends only on this job's eventual completion.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/skorea6/llm-politician-ai/pkg/fn"
	"golang.org/x/time/rate"
)

// Client fetches politician pages from the upstream API. Requests are
// paced with a token bucket so a full resync does not hammer the upstream,
// and each page fetch is retried with backoff.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	retry   fn.RetryOpts
}

// NewClient creates a Client. rps bounds sustained request rate.
func NewClient(url string, rps float64) *Client {
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		url:     url,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retry:   fn.DefaultRetry,
	}
}

type pageRequest struct {
	Page int `json:"page"`
}

type pageResponse struct {
	Data []map[string]any `json:"data"`
}

// FetchPage returns one page of politician records, or an empty slice once
// the upstream is exhausted. Records stay as decoded JSON: the detail
// collection must preserve fields this module does not model.
func (c *Client) FetchPage(ctx context.Context, page int) ([]map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	result := fn.Retry(ctx, c.retry, func(ctx context.Context) fn.Result[[]map[string]any] {
		return fn.FromPair(c.fetchOnce(ctx, page))
	})
	data, err := result.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch page %d: %w", page, err)
	}
	return data, nil
}

func (c *Client) fetchOnce(ctx context.Context, page int) ([]map[string]any, error) {
	body, _ := json.Marshal(pageRequest{Page: page})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Data, nil
}
