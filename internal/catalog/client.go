package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"lunari-cart/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrServiceNotFound = errors.New("service not found in catalog")
	ErrUnavailable     = errors.New("inventory service unavailable")
)

// Service is the catalog's view of a purchasable service.
type Service struct {
	ID     int             `json:"id"`
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Active bool            `json:"active"`
	Stock  int             `json:"stock"`
}

type StockItem struct {
	ServiceID int `json:"service_id"`
	Quantity  int `json:"quantity"`
}

// Client talks to the inventory service.
type Client interface {
	GetService(ctx context.Context, id int) (*Service, error)
	CheckStock(ctx context.Context, id, quantity int) (bool, error)
	ReduceStock(ctx context.Context, orderNumber string, items []StockItem) error
}

type httpClient struct {
	baseURL string
	client  *http.Client
	apiKey  string
}

func NewClient(baseURL, apiKey string) Client {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
	}
}

func (c *httpClient) GetService(ctx context.Context, id int) (*Service, error) {
	log := logger.FromCtx(ctx).With(zap.Int("service_id", id))

	url := fmt.Sprintf("%s/api/services/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("inventory request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Warn("service not found in catalog")
		return nil, ErrServiceNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error("inventory returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var svc Service
	if err := json.NewDecoder(resp.Body).Decode(&svc); err != nil {
		return nil, fmt.Errorf("decode inventory response: %w", err)
	}
	return &svc, nil
}

func (c *httpClient) CheckStock(ctx context.Context, id, quantity int) (bool, error) {
	svc, err := c.GetService(ctx, id)
	if err != nil {
		return false, err
	}
	return svc.Active && svc.Stock >= quantity, nil
}

// ReduceStock asks the inventory service to decrement stock for a paid order.
// The order number doubles as an idempotency key on the inventory side, so
// retrying a delivered request is safe.
func (c *httpClient) ReduceStock(ctx context.Context, orderNumber string, items []StockItem) error {
	log := logger.FromCtx(ctx).With(
		zap.String("order_number", orderNumber),
		zap.Int("item_count", len(items)),
	)

	body, err := json.Marshal(map[string]interface{}{
		"order_number": orderNumber,
		"items":        items,
	})
	if err != nil {
		return err
	}

	url := c.baseURL + "/api/services/stock/reduce"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("stock reduction request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		log.Error("stock reduction rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	log.Info("stock reduced")
	return nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Service-Auth", c.apiKey)
	}
}
