package payment

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

func TestWebpayGateway_Create(t *testing.T) {
	var gotBody map[string]interface{}
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, transactionsPath, r.URL.Path)
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"token": "tok-123",
			"url":   "https://webpay.example/init",
		})
	}))
	defer server.Close()

	g := NewWebpayGateway(server.URL, "597012345678", "secret-key")

	res, err := g.Create(context.Background(), "BUY-ORD-20260828-00001", "SES-abc", decimal.NewFromInt(45030), "https://shop.example/return")
	require.NoError(t, err)

	assert.Equal(t, "tok-123", res.Token)
	assert.Equal(t, "https://webpay.example/init", res.URL)

	assert.Equal(t, "597012345678", gotHeaders.Get("Tbk-Api-Key-Id"))
	assert.Equal(t, "secret-key", gotHeaders.Get("Tbk-Api-Key-Secret"))
	assert.Equal(t, "BUY-ORD-20260828-00001", gotBody["buy_order"])
	// Amounts are sent as whole CLP.
	assert.Equal(t, float64(45030), gotBody["amount"])
}

func TestWebpayGateway_DefaultsToIntegrationCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testCommerceCode, r.Header.Get("Tbk-Api-Key-Id"))
		assert.Equal(t, testAPIKey, r.Header.Get("Tbk-Api-Key-Secret"))
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t", "url": "u"})
	}))
	defer server.Close()

	g := NewWebpayGateway(server.URL, "", "")
	_, err := g.Create(context.Background(), "BUY-1", "SES-1", decimal.NewFromInt(100), "https://shop.example/return")
	assert.NoError(t, err)
}

func TestWebpayGateway_Commit(t *testing.T) {
	t.Run("Approved", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)
			require.Equal(t, transactionsPath+"/tok-123", r.URL.Path)

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"buy_order":          "BUY-ORD-20260828-00001",
				"session_id":         "SES-abc",
				"amount":             45030,
				"authorization_code": "1213",
				"payment_type_code":  "VN",
				"response_code":      0,
				"transaction_date":   "2026-08-28T15:30:00",
				"card_detail":        map[string]string{"card_number": "6623"},
			})
		}))
		defer server.Close()

		g := NewWebpayGateway(server.URL, "cc", "key")
		res, err := g.Commit(context.Background(), "tok-123")
		require.NoError(t, err)

		assert.True(t, res.Approved())
		assert.Equal(t, "1213", res.AuthorizationCode)
		assert.Equal(t, "6623", res.CardNumber)
		require.NotNil(t, res.TransactionDate)
		assert.Equal(t, 2026, res.TransactionDate.Year())
	})

	t.Run("Rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"buy_order":     "BUY-1",
				"response_code": -1,
			})
		}))
		defer server.Close()

		g := NewWebpayGateway(server.URL, "cc", "key")
		res, err := g.Commit(context.Background(), "tok-123")
		require.NoError(t, err)
		assert.False(t, res.Approved())
	})

	t.Run("ProviderError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error_message":"Invalid token"}`, http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		g := NewWebpayGateway(server.URL, "cc", "key")
		_, err := g.Commit(context.Background(), "tok-expired")

		fe, ok := AsFailed(err)
		require.True(t, ok)
		assert.Equal(t, -1, fe.ResponseCode)
	})
}
