package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"naratmalsami/internal/models"
)

// HTTPLoader fetches documents from the remote files API:
//
//	GET {BaseURL}/files/{id}  →  {"title", "content", "hashed_id", "updated_at"}
type HTTPLoader struct {
	BaseURL string
	Token   string
	client  *http.Client
}

func NewHTTPLoader(baseURL, token string) *HTTPLoader {
	return &HTTPLoader{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type fileResponse struct {
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	HashedID  string    `json:"hashed_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fetch retrieves one document. Non-2xx responses and malformed bodies are errors.
func (l *HTTPLoader) Fetch(ctx context.Context, id string) (*models.Document, error) {
	endpoint := l.BaseURL + "/files/" + url.PathEscape(id)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if l.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+l.Token)
	}

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("files API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var file fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if file.Content == nil {
		return nil, fmt.Errorf("malformed document %s: missing content", id)
	}
	if file.HashedID == "" {
		file.HashedID = id
	}
	if file.HashedID != id {
		return nil, fmt.Errorf("malformed document %s: response is for %s", id, file.HashedID)
	}

	return &models.Document{
		ID:        file.HashedID,
		Title:     file.Title,
		Content:   *file.Content,
		UpdatedAt: file.UpdatedAt,
	}, nil
}
