package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/gigvoice/plugin/ai/router"
	aierrors "github.com/hrygo/gigvoice/server/internal/errors"
	gvmiddleware "github.com/hrygo/gigvoice/server/middleware"
	"github.com/hrygo/gigvoice/server/service/assistant"
	"github.com/hrygo/gigvoice/store"
)

const (
	defaultOrderLimit = 10
	maxOrderLimit     = 100
)

// ListOrdersResponse holds recent orders, newest first.
type ListOrdersResponse struct {
	Orders []*assistant.OrderInfo `json:"orders"`
}

// DeleteOrderResponse reports whether a row was removed.
type DeleteOrderResponse struct {
	Success bool `json:"success"`
}

// ListOrders returns recently created orders.
// GET /api/v1/orders?limit=10
func (s *APIV1Service) ListOrders(c echo.Context) error {
	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return gvmiddleware.ErrorJSON(c, aierrors.InvalidArgument(err.Error()))
	}

	list, err := s.Store.ListRecentOrders(c.Request().Context(), limit)
	if err != nil {
		slog.Error("failed to list orders", "error", err)
		return gvmiddleware.ErrorJSON(c, aierrors.StoreFailed("failed to list orders", err))
	}

	orders := make([]*assistant.OrderInfo, 0, len(list))
	for _, order := range list {
		orders = append(orders, assistant.NewOrderInfo(order))
	}
	return c.JSON(http.StatusOK, ListOrdersResponse{Orders: orders})
}

// GetOrder returns one order by tracking code.
// GET /api/v1/orders/:code
func (s *APIV1Service) GetOrder(c echo.Context) error {
	code := router.NormalizeTrackingCode(c.Param("code"))
	order, err := s.Store.GetOrderByTrackingCode(c.Request().Context(), code)
	if err != nil {
		slog.Error("failed to get order", "tracking_code", code, "error", err)
		return gvmiddleware.ErrorJSON(c, aierrors.StoreFailed("failed to get order", err))
	}
	if order == nil {
		return gvmiddleware.ErrorJSON(c, aierrors.NotFound(fmt.Sprintf("order %s not found", code)))
	}
	return c.JSON(http.StatusOK, assistant.NewOrderInfo(order))
}

// DeleteOrder removes an order entirely. Deleting differs from cancelling.
// DELETE /api/v1/orders/:id
func (s *APIV1Service) DeleteOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return gvmiddleware.ErrorJSON(c, aierrors.InvalidArgument("order id must be a number"))
	}

	deleted, err := s.Store.DeleteOrder(c.Request().Context(), &store.DeleteOrder{ID: int32(id)})
	if err != nil {
		slog.Error("failed to delete order", "id", id, "error", err)
		return gvmiddleware.ErrorJSON(c, aierrors.StoreFailed("failed to delete order", err))
	}
	return c.JSON(http.StatusOK, DeleteOrderResponse{Success: deleted})
}

// GetOrderFeed renders recent orders as an Atom feed.
// GET /api/v1/orders/feed.atom
func (s *APIV1Service) GetOrderFeed(c echo.Context) error {
	list, err := s.Store.ListRecentOrders(c.Request().Context(), defaultOrderLimit)
	if err != nil {
		slog.Error("failed to list orders for feed", "error", err)
		return gvmiddleware.ErrorJSON(c, aierrors.StoreFailed("failed to list orders", err))
	}

	baseURL := c.Scheme() + "://" + c.Request().Host
	feed := &feeds.Feed{
		Title:       "gigvoice orders",
		Link:        &feeds.Link{Href: baseURL + "/api/v1/orders"},
		Description: "Recently created delivery orders",
		Created:     time.Now(),
	}
	for _, order := range list {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          order.TrackingCode,
			Title:       fmt.Sprintf("%s: %s", order.TrackingCode, order.Item),
			Link:        &feeds.Link{Href: baseURL + "/api/v1/orders/" + order.TrackingCode},
			Description: fmt.Sprintf("Status %s, quantity %d", order.Status, order.Quantity),
			Created:     time.Unix(order.CreatedTs, 0),
			Updated:     time.Unix(order.UpdatedTs, 0),
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return gvmiddleware.ErrorJSON(c, aierrors.Internal("failed to render feed", err))
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultOrderLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("limit must be a positive number")
	}
	if limit > maxOrderLimit {
		limit = maxOrderLimit
	}
	return limit, nil
}
