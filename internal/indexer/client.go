// Package indexer provides the HTTP client for the semantic-search
// backend. Each file upload is a delete-then-post pair so stale
// embeddings never survive a content change, and every request carries
// a short-lived shared-secret JWT identifying the worker's user.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/raphaelgruber/vaultsync/internal/config"
)

// Client talks to the RAG API for one user.
type Client struct {
	baseURL        string
	secret         string
	userID         string
	http           *http.Client
	cleanupTimeout time.Duration
}

// NewClient creates a backend client from process configuration. The
// embedded http.Client timeout bounds every dispatch call.
func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL: cfg.RAGAPIURL,
		secret:  cfg.RAGJWTSecret,
		userID:  cfg.UserID,
		http: &http.Client{
			Timeout: cfg.NetworkTimeout,
		},
		cleanupTimeout: cfg.CleanupTimeout,
	}
}

// FileID returns the per-user identifier scoping a vault file inside
// the shared vector database.
func (c *Client) FileID(path string) string {
	return fmt.Sprintf("user_%s_%s", c.userID, path)
}

// Index uploads a file's content for embedding. The content is a
// snapshot taken at enqueue time; the file on disk may have changed
// since and is deliberately not re-read here.
func (c *Client) Index(ctx context.Context, path string, content []byte) error {
	fileID := c.FileID(path)

	// Clear stale embeddings first, best effort: a 404 just means the
	// file was never indexed.
	c.deleteEmbedding(ctx, fileID)

	return c.uploadEmbedding(ctx, fileID, path, content)
}

// Delete removes a file's embeddings from the backend. Missing
// embeddings are not an error.
func (c *Client) Delete(ctx context.Context, path string) error {
	fileID := c.FileID(path)

	req, err := c.newRequest(ctx, http.MethodDelete, c.embedURL(fileID), nil, "")
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("delete %s: backend returned HTTP %d", path, resp.StatusCode)
	}
}

// deleteEmbedding fires a stale-clear delete and ignores the outcome.
func (c *Client) deleteEmbedding(ctx context.Context, fileID string) {
	req, err := c.newRequest(ctx, http.MethodDelete, c.embedURL(fileID), nil, "")
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// uploadEmbedding posts the multipart embed request.
func (c *Client) uploadEmbedding(ctx context.Context, fileID, path string, content []byte) error {
	metadata, err := json.Marshal(map[string]string{
		"user_id":    c.userID,
		"filename":   path,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
		"source":     "vaultsync",
	})
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", path)
	if err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if err := w.WriteField("file_id", fileID); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if err := w.WriteField("storage_metadata", string(metadata)); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/embed", &body, w.FormDataContentType())
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("index %s: backend returned HTTP %d: %s", path, resp.StatusCode, msg)
	}
	return nil
}

// newRequest builds an authenticated request.
func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	token, err := c.signToken()
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) embedURL(fileID string) string {
	return c.baseURL + "/embed/" + url.PathEscape(fileID)
}
