package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/dmitrijs2005/gophdisk/internal/netx"
)

// maxJSONBody bounds decoded JSON responses.
const maxJSONBody = 8 << 20

// HTTPClient talks to the storage service over its REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient returns a client for the service at baseURL. timeout bounds
// each request including reading the body; zero disables it.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken replaces the bearer token sent with every request.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if t := c.currentToken(); t != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+t)
	}
	return req, nil
}

// do sends req and returns the response for 2xx statuses. Any other status
// is consumed and converted to *APIError.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, mapTransportError(req.Context(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: netx.ErrorMessage(resp)}
	}
	return resp, nil
}

// mapTransportError keeps caller cancellation distinguishable from an
// unreachable server.
func mapTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := netx.ReadAllWithLimit(resp.Body, maxJSONBody)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// pingPath is an API route every deployment serves. The request carries no
// token, so the service answers 401 without doing any work.
const pingPath = "/api/downloads"

// Ping checks that the service answers. Any HTTP response, error statuses
// included, means it is reachable; only transport failures and caller
// cancellation are returned.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, pingPath, nil)
	if err != nil {
		return err
	}
	req.Header.Del(common.AuthorizationHeaderName)

	resp, err := c.http.Do(req)
	if err != nil {
		return mapTransportError(ctx, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxJSONBody))
	return resp.Body.Close()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. The token is also
// installed on the client.
func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) (string, error) {
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", loginRequest{Username: username, Password: string(password)}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &APIError{StatusCode: http.StatusBadGateway, Message: "login response carries no token"}
	}
	c.SetToken(resp.Token)
	return resp.Token, nil
}

// Upload posts the normalized form as multipart/form-data.
func (c *HTTPClient) Upload(ctx context.Context, form *models.UploadForm) (*models.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if form.Type != "" {
		if err := mw.WriteField("type", form.Type); err != nil {
			return nil, err
		}
	}
	if form.Link != "" {
		if err := mw.WriteField("ed2k_link", form.Link); err != nil {
			return nil, err
		}
	}
	if form.FileField != "" {
		fw, err := mw.CreateFormFile(form.FileField, form.FileName)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(form.Content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := netx.ReadAllWithLimit(resp.Body, maxJSONBody)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var out models.UploadResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

type downloadsResponse struct {
	Downloads []models.Snapshot `json:"downloads"`
}

// ListDownloads returns the server's view of the user's jobs.
func (c *HTTPClient) ListDownloads(ctx context.Context) ([]models.Snapshot, error) {
	var resp downloadsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/downloads", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Downloads, nil
}

// GetDownload returns a single job snapshot.
func (c *HTTPClient) GetDownload(ctx context.Context, id string) (*models.Snapshot, error) {
	var s models.Snapshot
	if err := c.doJSON(ctx, http.MethodGet, "/api/downloads/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ShareInfo fetches the public metadata of a share code.
func (c *HTTPClient) ShareInfo(ctx context.Context, code string) (*models.ShareSession, error) {
	var s models.ShareSession
	if err := c.doJSON(ctx, http.MethodGet, "/api/share/"+url.PathEscape(code), nil, &s); err != nil {
		return nil, err
	}
	s.Code = code
	return &s, nil
}

type passwordRequest struct {
	Password string `json:"password"`
}

// ShareContent retrieves the shared file. The caller owns the payload body.
func (c *HTTPClient) ShareContent(ctx context.Context, code string, password []byte, mode models.RetrievalMode) (*models.Payload, error) {
	b, err := json.Marshal(passwordRequest{Password: string(password)})
	if err != nil {
		return nil, err
	}
	path := "/api/share/" + url.PathEscape(code) + "/" + string(mode)
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.payload(req)
}

type filesResponse struct {
	Files []models.StoredFile `json:"files"`
}

// ListFiles lists the files owned by the logged-in user.
func (c *HTTPClient) ListFiles(ctx context.Context) ([]models.StoredFile, error) {
	var resp filesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/files", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// FileContent downloads or previews an owned file.
func (c *HTTPClient) FileContent(ctx context.Context, id int64, mode models.RetrievalMode) (*models.Payload, error) {
	path := "/api/files/" + strconv.FormatInt(id, 10) + "/" + string(mode)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.payload(req)
}

// CreateShare shares an owned file, optionally behind a password.
func (c *HTTPClient) CreateShare(ctx context.Context, id int64, password []byte) (*models.ShareGrant, error) {
	var g models.ShareGrant
	path := "/api/files/" + strconv.FormatInt(id, 10) + "/share"
	if err := c.doJSON(ctx, http.MethodPost, path, passwordRequest{Password: string(password)}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteFile removes an owned file.
func (c *HTTPClient) DeleteFile(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/files/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *HTTPClient) payload(req *http.Request) (*models.Payload, error) {
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return &models.Payload{
		Filename:    netx.FilenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}
