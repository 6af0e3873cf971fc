package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/t2s-commerce/shop-api/internal/logging"
	authmw "github.com/t2s-commerce/shop-api/internal/middleware/auth"
	"github.com/t2s-commerce/shop-api/internal/models"
	"github.com/t2s-commerce/shop-api/internal/mykafka"
	"github.com/t2s-commerce/shop-api/internal/service"
)

type OrderHandler struct {
	Svc      *service.OrderService
	Producer *mykafka.Producer
}

type orderResponse struct {
	ID         uint  `json:"id"`
	ProductID  uint  `json:"product_id"`
	Quantity   int64 `json:"quantity"`
	TotalPrice int64 `json:"total_price"`
}

func toOrderResponse(o models.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
	}
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_order")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		ProductID uint  `json:"product_id"`
		Quantity  int64 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.PlaceOrder(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			l.Warn("place_order_error", "status", 400, "reason", "invalid quantity", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid quantity")
		case errors.Is(err, service.ErrNotEnoughStock):
			l.Warn("place_order_error", "status", 400, "reason", "not enough stock", "product_id", req.ProductID)
			return echo.NewHTTPError(http.StatusBadRequest, "Not enough stock")
		case errors.Is(err, service.ErrProductNotFound):
			l.Warn("place_order_error", "status", 404, "reason", "product not found", "product_id", req.ProductID)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("place_order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":        "order_placed",
		"userID":      userID,
		"orderID":     order.ID,
		"productID":   order.ProductID,
		"quantity":    order.Quantity,
		"total_price": order.TotalPrice,
	})

	l.Info("place_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, toOrderResponse(*order))
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Svc.ListOrders(ctx, userID)
	if err != nil {
		l.Error("list_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}

	return c.JSON(http.StatusOK, resp)
}
