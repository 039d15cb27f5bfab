package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lunari-cart/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const transactionsPath = "/rswebpaytransaction/api/webpay/v1.2/transactions"

// Transbank integration (sandbox) credentials, used when none are
// configured.
const (
	testCommerceCode = "597055555532"
	testAPIKey       = "579B532A7440BB0C9079DED94D31EA1615BACEB56610332264630D42D0A36B1C"
)

type webpayGateway struct {
	baseURL      string
	commerceCode string
	apiKey       string
	client       *http.Client
}

// NewWebpayGateway builds a Gateway against the Transbank WebPay Plus
// REST API.
func NewWebpayGateway(baseURL, commerceCode, apiKey string) Gateway {
	if commerceCode == "" || apiKey == "" {
		logger.L().Warn("Transbank credentials not configured, using integration credentials")
		commerceCode = testCommerceCode
		apiKey = testAPIKey
	}
	return &webpayGateway{
		baseURL:      baseURL,
		commerceCode: commerceCode,
		apiKey:       apiKey,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *webpayGateway) Create(ctx context.Context, buyOrder, sessionID string, amount decimal.Decimal, returnURL string) (*InitResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("buy_order", buyOrder),
		zap.String("amount", amount.String()),
	)

	body, err := json.Marshal(map[string]interface{}{
		"buy_order":  buyOrder,
		"session_id": sessionID,
		// WebPay Plus amounts are whole CLP.
		"amount":     amount.Round(0).IntPart(),
		"return_url": returnURL,
	})
	if err != nil {
		return nil, err
	}

	respBody, err := g.do(ctx, http.MethodPost, g.baseURL+transactionsPath, bytes.NewBuffer(body))
	if err != nil {
		log.Error("transbank create failed", zap.Error(err))
		return nil, err
	}

	var res struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, &FailedError{ResponseCode: -1, Message: "decode transbank response", Err: err}
	}

	log.Info("transbank transaction created", zap.String("token", res.Token))
	return &InitResponse{Token: res.Token, URL: res.URL}, nil
}

func (g *webpayGateway) Commit(ctx context.Context, token string) (*CommitResponse, error) {
	log := logger.FromCtx(ctx).With(zap.String("token", token))

	respBody, err := g.do(ctx, http.MethodPut, g.baseURL+transactionsPath+"/"+token, nil)
	if err != nil {
		log.Error("transbank commit failed", zap.Error(err))
		return nil, err
	}

	res, err := decodeCommit(respBody)
	if err != nil {
		return nil, err
	}

	log.Info("transbank transaction committed",
		zap.String("buy_order", res.BuyOrder),
		zap.Int("response_code", res.ResponseCode),
		zap.String("authorization_code", res.AuthorizationCode),
	)
	return res, nil
}

func (g *webpayGateway) Status(ctx context.Context, token string) (*CommitResponse, error) {
	respBody, err := g.do(ctx, http.MethodGet, g.baseURL+transactionsPath+"/"+token, nil)
	if err != nil {
		return nil, err
	}
	return decodeCommit(respBody)
}

func (g *webpayGateway) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Tbk-Api-Key-Id", g.commerceCode)
	req.Header.Set("Tbk-Api-Key-Secret", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &FailedError{ResponseCode: -1, Message: "transbank request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FailedError{ResponseCode: -1, Message: "read transbank response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FailedError{
			ResponseCode: -1,
			Message:      fmt.Sprintf("transbank error: status %d: %s", resp.StatusCode, string(respBody)),
		}
	}
	return respBody, nil
}

func decodeCommit(body []byte) (*CommitResponse, error) {
	var raw struct {
		BuyOrder          string  `json:"buy_order"`
		SessionID         string  `json:"session_id"`
		Amount            float64 `json:"amount"`
		AuthorizationCode string  `json:"authorization_code"`
		PaymentTypeCode   string  `json:"payment_type_code"`
		ResponseCode      int     `json:"response_code"`
		TransactionDate   string  `json:"transaction_date"`
		CardDetail        *struct {
			CardNumber string `json:"card_number"`
		} `json:"card_detail"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &FailedError{ResponseCode: -1, Message: "decode transbank response", Err: err}
	}

	res := &CommitResponse{
		BuyOrder:          raw.BuyOrder,
		SessionID:         raw.SessionID,
		Amount:            decimal.NewFromFloat(raw.Amount),
		AuthorizationCode: raw.AuthorizationCode,
		PaymentTypeCode:   raw.PaymentTypeCode,
		ResponseCode:      raw.ResponseCode,
	}
	if raw.CardDetail != nil {
		res.CardNumber = raw.CardDetail.CardNumber
	}
	if raw.TransactionDate != "" {
		// Transbank returns local timestamps like "2023-12-01T15:30:00".
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", raw.TransactionDate, time.Local); err == nil {
			res.TransactionDate = &t
		} else {
			logger.L().Warn("unparseable transbank transaction date", zap.String("value", raw.TransactionDate))
		}
	}
	return res, nil
}
