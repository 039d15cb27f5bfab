package loyalty

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUnavailable  = errors.New("user service unavailable")
)

// Client talks to the user service's loyalty endpoints.
type Client interface {
	// AwardPoints credits points for a paid order. The order number is the
	// idempotency reference: awarding twice for the same order is a no-op
	// on the user service side.
	AwardPoints(ctx context.Context, userID uuid.UUID, points int, orderNumber string) error
	PointsBalance(ctx context.Context, userID uuid.UUID) (int, error)
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

func (c *httpClient) AwardPoints(ctx context.Context, userID uuid.UUID, points int, orderNumber string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("user_id", userID.String()),
		zap.Int("points", points),
		zap.String("order_number", orderNumber),
	)

	body, err := json.Marshal(map[string]interface{}{
		"points":       points,
		"order_number": orderNumber,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/users/%s/points", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("award points request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		log.Error("award points rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	log.Info("points awarded")
	return nil
}

func (c *httpClient) PointsBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	url := fmt.Sprintf("%s/api/users/%s/points", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out struct {
		Balance int `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode balance response: %w", err)
	}
	return out.Balance, nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Service-Auth", c.apiKey)
	}
}
