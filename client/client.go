// Package client talks to a ttfs server over its JSON API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ttfs/internal/errors"
	"ttfs/internal/filestore"
	"ttfs/internal/version"
	"ttfs/shared/types"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

func (c *Client) CreateFile(name string) error {
	return c.do(http.MethodPost, "/api/files", shared.CreateFileRequest{Name: name}, http.StatusCreated, nil)
}

func (c *Client) ReadFile(name string) (string, error) {
	var result shared.FileContent
	if err := c.do(http.MethodGet, filePath(name, ""), nil, http.StatusOK, &result); err != nil {
		return "", err
	}
	return result.Content, nil
}

func (c *Client) Insert(name, text string) error {
	return c.do(http.MethodPost, filePath(name, "insert"), shared.WriteRequest{Text: text}, http.StatusNoContent, nil)
}

func (c *Client) Update(name, text string) error {
	return c.do(http.MethodPost, filePath(name, "update"), shared.WriteRequest{Text: text}, http.StatusNoContent, nil)
}

func (c *Client) Snapshot(name, message string) error {
	return c.do(http.MethodPost, filePath(name, "snapshot"), shared.SnapshotRequest{Message: message}, http.StatusNoContent, nil)
}

func (c *Client) Rollback(name string, target version.Target) error {
	var req shared.RollbackRequest
	if id, ok := target.ID(); ok {
		req.Version = &id
	}
	return c.do(http.MethodPost, filePath(name, "rollback"), req, http.StatusNoContent, nil)
}

func (c *Client) History(name string) ([]version.Entry, error) {
	var result shared.History
	if err := c.do(http.MethodGet, filePath(name, "history"), nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result.Entries, nil
}

func (c *Client) TopRecent(count int) ([]filestore.RecentFile, error) {
	var result shared.RecentFiles
	path := "/api/analytics/recent?count=" + strconv.Itoa(count)
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result.Files, nil
}

func (c *Client) TopBySize(count int) ([]filestore.SizedFile, error) {
	var result shared.SizedFiles
	path := "/api/analytics/biggest?count=" + strconv.Itoa(count)
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result.Files, nil
}

func (c *Client) Stats() (*shared.Stats, error) {
	var result shared.Stats
	if err := c.do(http.MethodGet, "/api/stats", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func filePath(name, action string) string {
	p := "/api/files/" + url.PathEscape(name)
	if action != "" {
		p += "/" + action
	}
	return p
}

// do sends body as JSON and decodes the response into out. Error responses
// come back as *errors.Error so callers can branch on their type.
func (c *Client) do(method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr errors.Error
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Type == "" {
			return fmt.Errorf("unexpected status: %s", resp.Status)
		}
		return &apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
