package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/netx"
)

// HTTPClient implements Client over the JSON HTTP API.
type HTTPClient struct {
	baseURL string
	hc      *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.currentToken(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return mapTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || method == http.MethodHead {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func mapTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return err
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, uerr.Err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func mapStatus(resp *http.Response) error {
	var body api.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("server error %d: %s", resp.StatusCode, msg)
	}
}

// Ping probes the server with HEAD /api/health. Any failure is reported as
// ErrUnavailable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodHead, "/api/health", nil, nil)
	if err != nil && !errors.Is(err, ErrUnavailable) && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (c *HTTPClient) BatchSync(ctx context.Context, req *api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
	var resp api.BatchSyncResponse
	if err := c.do(ctx, http.MethodPost, "/api/sync", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListReceipts(ctx context.Context) ([]api.Receipt, error) {
	var list []api.Receipt
	if err := c.do(ctx, http.MethodGet, "/api/receipts", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) CreateReceipt(ctx context.Context, p api.ReceiptPayload) (*api.Receipt, error) {
	var out api.Receipt
	if err := c.do(ctx, http.MethodPost, "/api/receipts", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateReceipt(ctx context.Context, id string, p api.ReceiptPayload) (*api.Receipt, error) {
	var out api.Receipt
	if err := c.do(ctx, http.MethodPut, "/api/receipts/"+url.PathEscape(id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteReceipt(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/receipts/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) ListTimeEntries(ctx context.Context) ([]api.TimeEntry, error) {
	var list []api.TimeEntry
	if err := c.do(ctx, http.MethodGet, "/api/time-entries", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) CreateTimeEntry(ctx context.Context, p api.TimeEntryPayload) (*api.TimeEntry, error) {
	var out api.TimeEntry
	if err := c.do(ctx, http.MethodPost, "/api/time-entries", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateTimeEntry(ctx context.Context, id string, p api.TimeEntryPayload) (*api.TimeEntry, error) {
	var out api.TimeEntry
	if err := c.do(ctx, http.MethodPut, "/api/time-entries/"+url.PathEscape(id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteTimeEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/time-entries/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) GetUploadURL(ctx context.Context, fileName string) (*api.UploadURL, error) {
	var out api.UploadURL
	err := c.do(ctx, http.MethodPost, "/api/receipts/upload-url", api.UploadURLRequest{FileName: fileName}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadBlob PUTs data straight to the blob store; the API token is not sent.
func (c *HTTPClient) UploadBlob(ctx context.Context, uploadURL string, data []byte, contentType string) error {
	err := netx.UploadToPresignedURL(ctx, c.hc, uploadURL, data, contentType)
	var uerr *netx.UploadError
	if err != nil && !errors.As(err, &uerr) {
		return mapTransportError(ctx, err)
	}
	return err
}
