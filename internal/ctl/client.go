// Package ctl implements the tallyctl subcommands: a thin HTTP client for
// the ledger service, meant for quick entry and inspection from a shell.
package ctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tally/internal/core"
	"tally/internal/ledger"
)

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(addr string) *apiClient {
	return &apiClient{
		baseURL: addr,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	return nil
}

func (c *apiClient) insert(base string, rec map[string]any) (ledger.Status, error) {
	var st ledger.Status
	err := c.do(http.MethodPost, base, rec, &st)
	return st, err
}

func (c *apiClient) remove(base string, rec map[string]any) (ledger.Status, error) {
	var st ledger.Status
	err := c.do(http.MethodDelete, base, rec, &st)
	return st, err
}

func (c *apiClient) edit(base string, id int64, fields map[string]any) (ledger.Status, error) {
	var st ledger.Status
	err := c.do(http.MethodPatch, fmt.Sprintf("%s/%d", base, id), fields, &st)
	return st, err
}

func (c *apiClient) list(base, start, end string) ([]core.Record, error) {
	var records []core.Record
	err := c.do(http.MethodGet, base+"?"+rangeQuery(start, end, ""), nil, &records)
	return records, err
}

func (c *apiClient) summary(base, start, end, category string) ([]core.CategoryTotal, error) {
	var totals []core.CategoryTotal
	err := c.do(http.MethodGet, base+"/summary?"+rangeQuery(start, end, category), nil, &totals)
	return totals, err
}

func (c *apiClient) categories() ([]byte, error) {
	resp, err := c.http.Get(c.baseURL + "/categories")
	if err != nil {
		return nil, fmt.Errorf("call /categories: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server error (%d): %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

func rangeQuery(start, end, category string) string {
	q := url.Values{}
	q.Set("start_date", start)
	q.Set("end_date", end)
	if category != "" {
		q.Set("category", category)
	}
	return q.Encode()
}
