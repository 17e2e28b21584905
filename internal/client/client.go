package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"samplesort/internal/api"
)

// ErrUnavailable reports that no daemon answered at the configured address.
var ErrUnavailable = errors.New("daemon API unavailable")

// Client issues requests against the daemon API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// New returns nil when bind is empty.
func New(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// Status fetches the daemon's runtime status.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var payload api.StatusResponse
	if err := c.get(ctx, "/api/status", &payload); err != nil {
		return api.StatusResponse{}, err
	}
	return payload, nil
}

// Groups fetches group summaries from the daemon.
func (c *Client) Groups(ctx context.Context) ([]api.Group, error) {
	var payload api.GroupListResponse
	if err := c.get(ctx, "/api/groups", &payload); err != nil {
		return nil, err
	}
	return payload.Groups, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c == nil {
		return ErrUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsUnavailable reports whether err means no daemon is listening.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrUnavailable) || errors.As(err, &opErr)
}
