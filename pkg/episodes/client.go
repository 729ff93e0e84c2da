package episodes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const RequestTimeout = 10 * time.Second

var ErrNotFound = errors.New("episode not found")

// Client talks to the external episodes REST API.
type Client struct {
	baseUrl func() string
	http    *http.Client
}

// NewClient returns a client for the API at the URL returned by baseUrl,
// which is read on every request so config reloads apply immediately.
func NewClient(baseUrl func() string) *Client {
	return &Client{
		baseUrl: baseUrl,
		http:    &http.Client{Timeout: RequestTimeout},
	}
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	log.Debug().Str("url", u).Msg("requesting episodes api")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		err := resp.Body.Close()
		if err != nil {
			log.Warn().Err(err).Msg("error closing response body")
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	} else if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status from episodes api: %s", resp.Status)
	}

	err = json.NewDecoder(resp.Body).Decode(v)
	if err != nil {
		return fmt.Errorf("error decoding episodes api response: %w", err)
	}

	return nil
}

// Get fetches a single episode by id.
func (c *Client) Get(ctx context.Context, id string) (Record, error) {
	var r Record

	if id == "" {
		return r, ErrNotFound
	}

	u, err := url.JoinPath(c.baseUrl(), "episodes", id)
	if err != nil {
		return r, err
	}

	err = c.getJSON(ctx, u, &r)
	if err != nil {
		return r, err
	}

	if r.ID == "" {
		r.ID = id
	}

	return r, nil
}

// Latest fetches the most recently published episodes, newest first.
func (c *Client) Latest(ctx context.Context, limit int) ([]Record, error) {
	u, err := url.Parse(c.baseUrl())
	if err != nil {
		return nil, err
	}
	u = u.JoinPath("episodes")

	q := u.Query()
	if limit > 0 {
		q.Set("_limit", strconv.Itoa(limit))
	}
	q.Set("_sort", "published_at")
	q.Set("_order", "desc")
	u.RawQuery = q.Encode()

	rs := make([]Record, 0)
	err = c.getJSON(ctx, u.String(), &rs)
	if err != nil {
		return nil, err
	}

	return rs, nil
}
