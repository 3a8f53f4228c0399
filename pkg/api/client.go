package api

// BACKEND API CLIENT

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
	"time"

	"go.uber.org/zap"
)

// Error is returned for every failed backend call. StatusCode is zero
// for network-level failures.
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	return "api: " + e.Message
}

// IsClientError reports whether err is a backend rejection of the
// request data (4xx) that the user can correct.
func IsClientError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

// IsServerError reports whether err is a transient backend problem
// (5xx or network failure) worth retrying later.
func IsServerError(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 0 || apiErr.StatusCode >= 500
}

type Service struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Features    []string `json:"features"`
}

// OrderRequest is the submission payload contract. Field names and the
// string-typed delivery_needed are load-bearing for the backend.
type OrderRequest struct {
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	CustomerPhone   *string        `json:"customer_phone"`
	ServiceID       int64          `json:"service_id"`
	Source          string         `json:"source"`
	Specifications  map[string]any `json:"specifications"`
	DeliveryNeeded  string         `json:"delivery_needed,omitempty"`
	DeliveryDetails string         `json:"delivery_details,omitempty"`
	CustomerContact string         `json:"customer_contact"`
}

type Order struct {
	ID             int64          `json:"id"`
	CustomerName   string         `json:"customer_name"`
	CustomerEmail  string         `json:"customer_email"`
	CustomerPhone  string         `json:"customer_phone"`
	ServiceID      int64          `json:"service_id"`
	ServiceName    string         `json:"service_name"`
	Status         string         `json:"status"`
	TotalPrice     string         `json:"total_price"`
	CreatedAt      string         `json:"created_at"`
	Specifications map[string]any `json:"specifications"`
}

type UploadResult struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ListServices fetches the service catalog.
func (c *Client) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	endpoint := c.baseURL + "/api/v1/services"
	if activeOnly {
		endpoint += "?active_only=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var services []Service
	if err := unmarshalListOrEnvelope(body, &services); err != nil {
		return nil, &Error{Message: fmt.Sprintf("decode services: %v", err)}
	}
	return services, nil
}

// CreateOrder submits a completed order and returns the echoed record.
func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (Order, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return Order{}, fmt.Errorf("marshal order: %w", err)
	}

	c.logger.Info("Creating order",
		zap.Int64("service_id", order.ServiceID),
		zap.String("customer_email", order.CustomerEmail))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return Order{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return Order{}, err
	}

	var created Order
	if err := unmarshalObjectOrEnvelope(body, &created); err != nil {
		return Order{}, &Error{Message: fmt.Sprintf("decode order: %v", err)}
	}
	return created, nil
}

// UploadFile stores a model file on the backend and returns its
// storage reference.
func (c *Client) UploadFile(ctx context.Context, data []byte, filename, contentType string) (UploadResult, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)},
		"Content-Type":        {contentType},
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return UploadResult{}, fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close form: %w", err)
	}

	c.logger.Info("Uploading file",
		zap.String("filename", filename),
		zap.Int("size", len(data)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/files/upload", &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return UploadResult{}, err
	}

	var result UploadResult
	if err := unmarshalObjectOrEnvelope(body, &result); err != nil {
		return UploadResult{}, &Error{Message: fmt.Sprintf("decode upload result: %v", err)}
	}
	return result, nil
}

// FindOrders searches submitted orders by customer email.
func (c *Client) FindOrders(ctx context.Context, email string) ([]Order, error) {
	endpoint := c.baseURL + "/api/v1/orders/search?email=" + url.QueryEscape(email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := unmarshalListOrEnvelope(body, &orders); err != nil {
		return nil, &Error{Message: fmt.Sprintf("decode orders: %v", err)}
	}
	return orders, nil
}

// Ping checks backend reachability for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request failed",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return nil, &Error{Message: fmt.Sprintf("network error: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode >= 400 {
		c.logger.Error("Request rejected",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, &Error{
			Message:    fmt.Sprintf("request failed: %s", resp.Status),
			StatusCode: resp.StatusCode,
		}
	}

	return body, nil
}

// The backend answers either with a bare value or with a {"data": …}
// envelope depending on the endpoint version.
func unmarshalListOrEnvelope[T any](body []byte, out *[]T) error {
	if err := json.Unmarshal(body, out); err == nil {
		return nil
	}
	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}
	*out = envelope.Data
	return nil
}

func unmarshalObjectOrEnvelope[T any](body []byte, out *T) error {
	var envelope struct {
		Success bool             `json:"success"`
		Data    *json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return json.Unmarshal(*envelope.Data, out)
	}
	return json.Unmarshal(body, out)
}
