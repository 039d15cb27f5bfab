package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetService(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/services/7", r.URL.Path)
			assert.Equal(t, "svc-key", r.Header.Get("X-Service-Auth"))

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":     7,
				"code":   "SRV-007",
				"name":   "Deep Clean",
				"price":  15000,
				"active": true,
				"stock":  10,
			})
		}))
		defer server.Close()

		c := NewClient(server.URL, "svc-key")
		svc, err := c.GetService(context.Background(), 7)
		require.NoError(t, err)

		assert.Equal(t, "SRV-007", svc.Code)
		assert.True(t, svc.Price.Equal(decimal.NewFromInt(15000)))
		assert.Equal(t, 10, svc.Stock)
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		_, err := c.GetService(context.Background(), 99)
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})

	t.Run("Upstream5xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		_, err := c.GetService(context.Background(), 7)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("Unreachable", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", "")
		_, err := c.GetService(context.Background(), 7)
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestClient_CheckStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": 7, "active": true, "stock": 3})
	}))
	defer server.Close()

	c := NewClient(server.URL, "")

	ok, err := c.CheckStock(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CheckStock(context.Background(), 7, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ReduceStock(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/services/stock/reduce", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		err := c.ReduceStock(context.Background(), "ORD-20260828-00001", []StockItem{{ServiceID: 7, Quantity: 2}})
		require.NoError(t, err)

		assert.Equal(t, "ORD-20260828-00001", got["order_number"])
	})

	t.Run("Rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		err := c.ReduceStock(context.Background(), "ORD-1", []StockItem{{ServiceID: 7, Quantity: 2}})
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
