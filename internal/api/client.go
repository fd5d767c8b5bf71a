// Package api talks to the recipe backend and to the object storage target
// its upload descriptors point at.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"time"

	"reci/internal/model"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// UploadFileField is the multipart field carrying the object bytes. Storage
// targets require it after every descriptor field.
const UploadFileField = "file"

// InvalidRequestMessage is shown when a create response has neither shape.
const InvalidRequestMessage = "Invalid request."

// ErrMalformedResponse marks a create response that is neither a created
// recipe nor an error message.
var ErrMalformedResponse = errors.New(InvalidRequestMessage)

// BackendError is an error message reported by the create endpoint.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// UnreachableMessage is shown when the backend could not be reached at all.
const UnreachableMessage = "Could not reach the recipe service."

// UserMessage returns the text to show for a failed request.
func UserMessage(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Message
	}
	if errors.Is(err, ErrMalformedResponse) {
		return InvalidRequestMessage
	}
	return UnreachableMessage
}

// Client wraps the list and create endpoints.
type Client struct {
	listURL    string
	createURL  string
	httpClient *http.Client
}

// NewClient creates a client for the given endpoints.
func NewClient(listURL, createURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		listURL:    listURL,
		createURL:  createURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateResult is a successful create response.
type CreateResult struct {
	Recipe model.Recipe
	// Targets is nil when no images were declared.
	Targets *model.UploadTargets
}

type createResponse struct {
	Recipe       *model.Recipe        `json:"recipe"`
	URLs         *model.UploadTargets `json:"urls"`
	ErrorMessage *string              `json:"errorMessage"`
}

// ListRecipes fetches one page. An empty cursor requests the first page.
func (c *Client) ListRecipes(ctx context.Context, cursor string) (model.Page, error) {
	reqURL := c.listURL
	if cursor != "" {
		u, err := url.Parse(c.listURL)
		if err != nil {
			return model.Page{}, fmt.Errorf("invalid list url: %w", err)
		}
		q := u.Query()
		q.Set("lastKey", cursor)
		u.RawQuery = q.Encode()
		reqURL = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.Page{}, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Page{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Page{}, fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	var page model.Page
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&page); err != nil {
		return model.Page{}, fmt.Errorf("JSON decode error: %w", err)
	}
	if page.Recipes == nil {
		page.Recipes = []model.Recipe{}
	}
	return page, nil
}

// CreateRecipe posts a draft. The response body decides the outcome: a
// recipe is success, an errorMessage is a *BackendError, anything else is
// ErrMalformedResponse.
func (c *Client) CreateRecipe(ctx context.Context, payload model.CreatePayload) (CreateResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return CreateResult{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.createURL, bytes.NewReader(body))
	if err != nil {
		return CreateResult{}, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CreateResult{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	var decoded createResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return CreateResult{}, fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, resp.StatusCode, err)
	}

	switch {
	case decoded.Recipe != nil && !decoded.Recipe.IsDraft():
		return CreateResult{Recipe: *decoded.Recipe, Targets: decoded.URLs}, nil
	case decoded.ErrorMessage != nil:
		return CreateResult{}, &BackendError{Status: resp.StatusCode, Message: *decoded.ErrorMessage}
	default:
		return CreateResult{}, fmt.Errorf("%w: status %d", ErrMalformedResponse, resp.StatusCode)
	}
}

// Upload posts blob to a storage target as a multipart form: every
// descriptor field in key order, then the blob under UploadFileField.
func (c *Client) Upload(ctx context.Context, desc model.UploadDescriptor, blob []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(desc.Fields))
	for k := range desc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, desc.Fields[k]); err != nil {
			return fmt.Errorf("failed to write form field %q: %w", k, err)
		}
	}

	fw, err := w.CreateFormFile(UploadFileField, "blob")
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(blob); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, desc.URL, &buf)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload rejected: status %d", resp.StatusCode)
	}
	return nil
}

// FetchObject downloads a stored object, such as a recipe thumbnail.
func (c *Client) FetchObject(ctx context.Context, objectURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, objectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}
