package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"lunari-cart/internal/cart"
	"lunari-cart/internal/catalog"
	"lunari-cart/internal/logger"
	"lunari-cart/internal/loyalty"
	"lunari-cart/internal/order"
	"lunari-cart/internal/payment"

	"go.uber.org/zap"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed", zap.Error(err))
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &apiError{Code: code, Message: msg},
	})
}

func badRequest(w http.ResponseWriter, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &apiError{Code: code, Message: msg},
	})
}

// classify maps domain errors onto HTTP status codes and stable error
// codes for clients.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, cart.ErrCartNotFound):
		return http.StatusNotFound, "CART_NOT_FOUND"
	case errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound, "ITEM_NOT_FOUND"
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound, "ORDER_NOT_FOUND"
	case errors.Is(err, payment.ErrPaymentNotFound):
		return http.StatusNotFound, "PAYMENT_NOT_FOUND"
	case errors.Is(err, catalog.ErrServiceNotFound):
		return http.StatusNotFound, "SERVICE_NOT_FOUND"
	case errors.Is(err, loyalty.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND"

	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_QUANTITY"

	case errors.Is(err, cart.ErrCartNotActive):
		return http.StatusConflict, "CART_NOT_ACTIVE"
	case errors.Is(err, cart.ErrCartEmpty):
		return http.StatusConflict, "CART_EMPTY"
	case errors.Is(err, cart.ErrInsufficientStock):
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, cart.ErrServiceInactive):
		return http.StatusConflict, "SERVICE_INACTIVE"
	case errors.Is(err, cart.ErrItemAlreadyExists):
		return http.StatusConflict, "ITEM_ALREADY_EXISTS"
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrInvalidOrderState),
		errors.Is(err, order.ErrCheckoutConflict),
		errors.Is(err, payment.ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, payment.ErrAlreadyProcessed):
		return http.StatusConflict, "ALREADY_PROCESSED"

	case errors.Is(err, catalog.ErrUnavailable), errors.Is(err, loyalty.ErrUnavailable):
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	}

	if _, ok := payment.AsFailed(err); ok {
		return http.StatusPaymentRequired, "PAYMENT_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}
