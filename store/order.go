package store

import (
	"context"
	"encoding/json"
	"time"
)

// Order statuses. The column is an open string; these are the values the
// assistant itself writes or reads.
const (
	OrderStatusCreated    = "created"
	OrderStatusAssigned   = "assigned"
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusLate       = "late"
)

// PendingStatuses are the statuses considered for the next pickup.
var PendingStatuses = []string{OrderStatusCreated, OrderStatusAssigned, OrderStatusPending}

// Order is the object representing a delivery order.
type Order struct {
	ID           int32
	TrackingCode string
	CustomerName *string
	Address      *string
	Item         string
	Quantity     int32
	Status       string
	PickupTs     *int64
	Assignee     *string
	Payload      OrderPayload
	Amount       float64
	Expense      float64
	CreatedTs    int64
	UpdatedTs    int64
}

// OrderPayload is the free-form metadata stored alongside an order.
type OrderPayload struct {
	CreatorID string `json:"creator_id,omitempty"`
	Channel   string `json:"channel,omitempty"`
}

// MarshalPayload encodes the payload for the payload column.
func (o *Order) MarshalPayload() (string, error) {
	data, err := json.Marshal(o.Payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalPayload decodes the payload column. Empty or invalid data yields an empty payload.
func (o *Order) UnmarshalPayload(data string) {
	o.Payload = OrderPayload{}
	if data == "" {
		return
	}
	_ = json.Unmarshal([]byte(data), &o.Payload)
}

// PickupTime returns the pickup time, or nil when unscheduled.
func (o *Order) PickupTime() *time.Time {
	if o.PickupTs == nil {
		return nil
	}
	t := time.Unix(*o.PickupTs, 0)
	return &t
}

// OrderSort selects the ordering of ListOrders.
type OrderSort int

const (
	// OrderSortCreatedDesc lists newest orders first.
	OrderSortCreatedDesc OrderSort = iota
	// OrderSortPickupAsc lists by pickup time with unscheduled orders last, then by creation time.
	OrderSortPickupAsc
)

// FindOrder is the find condition for orders.
type FindOrder struct {
	ID           *int32
	TrackingCode *string
	StatusList   []string

	// CreatedTsAfter is inclusive, CreatedTsBefore exclusive.
	CreatedTsAfter  *int64
	CreatedTsBefore *int64

	Sort  OrderSort
	Limit *int
}

// UpdateOrder is the update request for an order, addressed by tracking code.
type UpdateOrder struct {
	TrackingCode string
	UpdatedTs    *int64
	CustomerName *string
	Address      *string
	Item         *string
	Quantity     *int32
	Status       *string
	PickupTs     *int64
	Assignee     *string
}

// DeleteOrder is the delete request for an order.
type DeleteOrder struct {
	ID int32
}

// CreateOrder creates a new order.
func (s *Store) CreateOrder(ctx context.Context, create *Order) (*Order, error) {
	return s.driver.CreateOrder(ctx, create)
}

// ListOrders lists orders with filter.
func (s *Store) ListOrders(ctx context.Context, find *FindOrder) ([]*Order, error) {
	return s.driver.ListOrders(ctx, find)
}

// CountOrders counts orders matching the filter. Sort and Limit are ignored.
func (s *Store) CountOrders(ctx context.Context, find *FindOrder) (int, error) {
	return s.driver.CountOrders(ctx, find)
}

// GetOrder gets the first order matching the filter, or nil.
func (s *Store) GetOrder(ctx context.Context, find *FindOrder) (*Order, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListOrders(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// GetOrderByTrackingCode returns the order with the code, or nil.
func (s *Store) GetOrderByTrackingCode(ctx context.Context, code string) (*Order, error) {
	return s.GetOrder(ctx, &FindOrder{TrackingCode: &code})
}

// FindEarliestPendingOrder returns the next order to pick up, or nil.
func (s *Store) FindEarliestPendingOrder(ctx context.Context) (*Order, error) {
	return s.GetOrder(ctx, &FindOrder{
		StatusList: PendingStatuses,
		Sort:       OrderSortPickupAsc,
	})
}

// ListRecentOrders returns the most recently created orders, newest first.
func (s *Store) ListRecentOrders(ctx context.Context, limit int) ([]*Order, error) {
	return s.driver.ListOrders(ctx, &FindOrder{
		Sort:  OrderSortCreatedDesc,
		Limit: &limit,
	})
}

// UpdateOrder applies the patch and returns the updated order, or nil if
// no order has the tracking code.
func (s *Store) UpdateOrder(ctx context.Context, update *UpdateOrder) (*Order, error) {
	if update.UpdatedTs == nil {
		now := time.Now().Unix()
		update.UpdatedTs = &now
	}
	return s.driver.UpdateOrder(ctx, update)
}

// DeleteOrder removes the order entirely. It reports whether a row was deleted.
func (s *Store) DeleteOrder(ctx context.Context, delete *DeleteOrder) (bool, error) {
	return s.driver.DeleteOrder(ctx, delete)
}
