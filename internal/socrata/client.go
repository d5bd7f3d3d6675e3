// Package socrata pulls NYC Open Data result sets over the Socrata resource
// API and lands them as flat files for the merge stage.
package socrata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/table"
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected HTTP status")

// Query is the SoQL subset used by the pipeline.
type Query struct {
	Limit int
	Where string
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("$limit", strconv.Itoa(q.Limit))
	}
	if q.Where != "" {
		v.Set("$where", q.Where)
	}
	return v
}

// Client fetches result sets from a Socrata host.
type Client struct {
	BaseURL    string
	AppToken   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient returns a client with a bounded request timeout.
func NewClient(baseURL, appToken string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AppToken:   appToken,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Logger:     logging.ForComponent(logger, logging.ComponentOpenData),
	}
}

// Fetch requests one dataset and flattens the JSON rows into a table whose
// header follows the order keys first appear in the response.
func (c *Client) Fetch(ctx context.Context, datasetID string, q Query) (*table.Table, error) {
	endpoint := fmt.Sprintf("%s/resource/%s.json", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(datasetID))
	if params := q.values().Encode(); params != "" {
		endpoint += "?" + params
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for %s: %w", datasetID, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.AppToken != "" {
		req.Header.Set("X-App-Token", c.AppToken)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching dataset %s: %w", datasetID, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.Logger, "close_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: dataset %s returned %d: %s",
			ErrStatus, datasetID, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	t, err := decodeRows(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error decoding dataset %s: %w", datasetID, err)
	}

	logging.LogOperation(c.Logger, "dataset_fetched",
		slog.String("dataset", datasetID),
		slog.Int("rows", t.Len()),
		slog.Duration("duration", time.Since(start)))
	return t, nil
}

// decodeRows streams a JSON array of flat objects into a table. The decoder is
// driven token by token so the column order of the payload is preserved.
func decodeRows(r io.Reader) (*table.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	t := table.New()
	for dec.More() {
		keys, row, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		t.AddOrdered(keys, row)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeObject(dec *json.Decoder) ([]string, table.Row, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}

	var keys []string
	row := table.Row{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		cell, err := flatten(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}

		if _, seen := row[key]; !seen {
			keys = append(keys, key)
		}
		row[key] = cell
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	return keys, row, nil
}

// flatten renders a JSON value as a CSV cell: strings unquoted, null empty,
// everything else in compact JSON form.
func flatten(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return "", nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case trimmed[0] == '{' || trimmed[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(trimmed), nil
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
