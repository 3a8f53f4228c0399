package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", 5*time.Second, zap.NewNop()), srv
}

func TestListServices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/services", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("active_only"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"3D печать","category":"printing"}]`))
	})

	services, err := client.ListServices(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, int64(1), services[0].ID)
	assert.Equal(t, "3D печать", services[0].Name)
}

func TestListServices_Envelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":2,"name":"Постобработка"}]}`))
	})

	services, err := client.ListServices(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, int64(2), services[0].ID)
}

func TestCreateOrder(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Write([]byte(`{"success":true,"data":{"id":42,"status":"new"}}`))
	})

	phone := "+79001234567"
	order, err := client.CreateOrder(context.Background(), OrderRequest{
		CustomerName:   "Иван Петров",
		CustomerEmail:  "ivan@example.com",
		CustomerPhone:  &phone,
		ServiceID:      1,
		Source:         "TELEGRAM",
		Specifications: map[string]any{"material": "pla"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, "new", order.Status)
}

func TestCreateOrder_ValidationRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"invalid email"}`))
	})

	_, err := client.CreateOrder(context.Background(), OrderRequest{})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.True(t, IsClientError(err))
	assert.False(t, IsServerError(err))
}

func TestCreateOrder_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.CreateOrder(context.Background(), OrderRequest{})
	require.Error(t, err)
	assert.True(t, IsServerError(err))
	assert.False(t, IsClientError(err))
}

func TestNetworkErrorIsServerError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", 500*time.Millisecond, zap.NewNop())

	_, err := client.ListServices(context.Background(), true)
	require.Error(t, err)
	assert.True(t, IsServerError(err))
}

func TestUploadFile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/files/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "model.stl", header.Filename)

		w.Write([]byte(`{"id":"f-123","url":"/files/f-123","filename":"model.stl"}`))
	})

	result, err := client.UploadFile(context.Background(), []byte("solid model"), "model.stl", "")
	require.NoError(t, err)
	assert.Equal(t, "f-123", result.ID)
	assert.Equal(t, "model.stl", result.Filename)
}

func TestFindOrders(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/search", r.URL.Path)
		assert.Equal(t, "ivan@example.com", r.URL.Query().Get("email"))

		w.Write([]byte(`{"data":[{"id":7,"status":"processing","total_price":"1500.00"}]}`))
	})

	orders, err := client.FindOrders(context.Background(), "ivan@example.com")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(7), orders[0].ID)
	assert.Equal(t, "processing", orders[0].Status)
}

func TestPing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok"}`))
	})

	assert.NoError(t, client.Ping(context.Background()))
}
