package affiliate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrMalformedFeed marks a response body that could not be decoded at all.
var ErrMalformedFeed = errors.New("malformed affiliate feed")

// RemoteError is a non-2xx answer from the affiliate API. Message carries the
// body's message/error field when one was present, for user-visible display.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("affiliate request failed with status %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FetchRange pulls the cumulative wager feed for the given date window,
// scoped with start_at/end_at date params.
func (c *Client) FetchRange(ctx context.Context, start, end time.Time) (*FeedPayload, error) {
	q := url.Values{}
	q.Set("start_at", start.Format("2006-01-02"))
	q.Set("end_at", end.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build affiliate request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("affiliate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Error bodies sometimes carry a message/error field worth surfacing
		var body struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)

		msg := body.Message
		if msg == "" {
			msg = body.Error
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: msg}
	}

	var payload FeedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	return &payload, nil
}
