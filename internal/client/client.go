// Package client talks to the load server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AntoineGS/loadtracker/internal/loads"
)

// maxBody bounds how much of a response is read.
const maxBody = 8 << 20

// Endpoints are the absolute URLs the client calls.
type Endpoints struct {
	Update string
	Row    string
	Table  string
}

// Client implements the save, row fetch and table fetch calls. It never
// retries; the poll cycle is the retry.
type Client struct {
	http      *http.Client
	endpoints Endpoints
	customer  string
	period    loads.Period
	now       func() time.Time
}

// New creates a client for one customer and period.
func New(endpoints Endpoints, customer string, period loads.Period, timeout time.Duration) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		endpoints: endpoints,
		customer:  customer,
		period:    period,
		now:       time.Now,
	}
}

// WithHTTPClient sets the underlying HTTP client
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c2 := *c
	c2.http = h

	return &c2
}

// updateBody is the save request as the server expects it.
type updateBody struct {
	DetailLineID        int64   `json:"detailLineId"`
	Exception           bool    `json:"exception"`
	UserNonCarrierDelay *string `json:"userNonCarrierDelay"`
	Comments            *string `json:"comments"`
	Year                int     `json:"year"`
	Month               int     `json:"month"`
}

func encodeUpdate(u loads.Update) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(updateBody{
		DetailLineID:        u.ID,
		Exception:           u.Exception,
		UserNonCarrierDelay: u.Delay,
		Comments:            u.Comments,
		Year:                u.Period.Year,
		Month:               u.Period.Month,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding update: %w", err)
	}
	return buf.Bytes(), nil
}

// Update submits a saved edit.
func (c *Client) Update(ctx context.Context, u loads.Update) error {
	body, err := encodeUpdate(u)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Update, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting update: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck,gosec // defer close is best-effort

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody)) //nolint:errcheck // body is only used for the message
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewUpdateError(resp.StatusCode, resp.Status, string(data))
	}
	return nil
}

// FetchRow returns the fragment of a single row.
func (c *Client) FetchRow(ctx context.Context, id int64, p loads.Period) ([]byte, error) {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	q.Set("year", strconv.Itoa(p.Year))
	q.Set("month", strconv.Itoa(p.Month))

	return c.get(ctx, c.endpoints.Row, q, nil)
}

// FetchTable returns the current table page. The URL is cache-busted.
func (c *Client) FetchTable(ctx context.Context) ([]byte, error) {
	q := url.Values{}
	q.Set("customer", c.customer)
	q.Set("year", strconv.Itoa(c.period.Year))
	q.Set("month", strconv.Itoa(c.period.Month))
	q.Set("ts", strconv.FormatInt(c.now().UnixMilli(), 10))

	return c.get(ctx, c.endpoints.Table, q, http.Header{"X-Requested-With": []string{"fetch"}})
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, header http.Header) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", endpoint, err)
	}
	merged := u.Query()
	for k, vs := range q {
		merged[k] = vs
	}
	u.RawQuery = merged.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u.Path, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck,gosec // defer close is best-effort

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewStatusError(u.Path, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", u.Path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, NewStatusError(u.Path, resp.StatusCode, "empty body")
	}
	return data, nil
}

// trimMessage keeps the first line block of a server message tidy.
func trimMessage(s string) string {
	return strings.TrimSpace(s)
}
