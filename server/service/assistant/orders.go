package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/gigvoice/plugin/ai/extract"
	"github.com/hrygo/gigvoice/plugin/ai/router"
	"github.com/hrygo/gigvoice/store"
)

// Actions name the branch taken for an utterance. Clients test against them.
const (
	ActionCreatedOrder     = "created_order"
	ActionTrackOrder       = "track_order"
	ActionOrderNotFound    = "order_not_found"
	ActionAskForTrackingID = "ask_for_tracking_id"
	ActionNextPickup       = "next_pickup"
	ActionNoPickups        = "no_pickups"
	ActionListOrders       = "list_orders"
	ActionCancelledOrder   = "cancelled_order"
	ActionAddressUpdated   = "address_updated"
	ActionAskForAddress    = "ask_for_address"
	ActionItemsUpdated     = "items_updated"
	ActionAskForItems      = "ask_for_items"
	ActionEarnings         = "earnings"
	ActionPenalty          = "penalty"
	ActionBusinessGrowth   = "business_growth"
	ActionLLMReply         = "llm_reply"
	ActionFallback         = "fallback"
)

// OrderInfo is the client view of an order.
type OrderInfo struct {
	ID           int32      `json:"id"`
	TrackingCode string     `json:"trackingId"`
	CustomerName *string    `json:"customerName,omitempty"`
	Address      *string    `json:"address,omitempty"`
	Item         string     `json:"item"`
	Quantity     int32      `json:"quantity"`
	Status       string     `json:"status"`
	PickupTime   *time.Time `json:"pickupTime,omitempty"`
	Assignee     *string    `json:"assignee,omitempty"`
	CreatorID    string     `json:"creatorId,omitempty"`
	Channel      string     `json:"channel,omitempty"`
	Amount       float64    `json:"amount"`
	Expense      float64    `json:"expense"`
	CreatedTime  time.Time  `json:"createdTime"`
	UpdatedTime  time.Time  `json:"updatedTime"`
}

// NewOrderInfo converts a stored order for the client.
func NewOrderInfo(o *store.Order) *OrderInfo {
	if o == nil {
		return nil
	}
	return &OrderInfo{
		ID:           o.ID,
		TrackingCode: o.TrackingCode,
		CustomerName: o.CustomerName,
		Address:      o.Address,
		Item:         o.Item,
		Quantity:     o.Quantity,
		Status:       o.Status,
		PickupTime:   o.PickupTime(),
		Assignee:     o.Assignee,
		CreatorID:    o.Payload.CreatorID,
		Channel:      o.Payload.Channel,
		Amount:       o.Amount,
		Expense:      o.Expense,
		CreatedTime:  time.Unix(o.CreatedTs, 0),
		UpdatedTime:  time.Unix(o.UpdatedTs, 0),
	}
}

func (s *Service) handleCreateOrder(ctx context.Context, turn *turnContext) (*Response, error) {
	fields := s.extractor.ExtractOrder(ctx, turn.req.Text)
	now := s.now()

	code, err := s.mintTrackingCode(ctx, now)
	if err != nil {
		return nil, err
	}

	create := &store.Order{
		TrackingCode: code,
		CustomerName: fields.CustomerName,
		Address:      fields.Address,
		Item:         fields.Item,
		Quantity:     fields.Quantity,
		Status:       store.OrderStatusCreated,
		Payload: store.OrderPayload{
			CreatorID: turn.req.UserID,
			Channel:   s.cfg.Channel,
		},
		Amount:    s.cfg.OrderAmount,
		Expense:   s.cfg.OrderExpense,
		CreatedTs: now.Unix(),
		UpdatedTs: now.Unix(),
	}
	if fields.PickupTime != nil {
		ts := fields.PickupTime.Unix()
		create.PickupTs = &ts
	}

	order, err := s.store.CreateOrder(ctx, create)
	if err != nil {
		return nil, storeError("create order", err)
	}

	reply := fmt.Sprintf("Order created! Your tracking ID is %s. Item: %s, quantity %d.",
		order.TrackingCode, order.Item, order.Quantity)
	return &Response{Reply: reply, Action: ActionCreatedOrder, Order: NewOrderInfo(order)}, nil
}

func (s *Service) handleTrackOrder(ctx context.Context, turn *turnContext) (*Response, error) {
	code := router.NormalizeTrackingCode(turn.classification.TrackingCode)
	if code == "" {
		return askForTrackingID("track"), nil
	}

	order, err := s.store.GetOrderByTrackingCode(ctx, code)
	if err != nil {
		return nil, storeError("get order", err)
	}
	if order == nil {
		return orderNotFound(code), nil
	}
	return &Response{Reply: describeOrder(order), Action: ActionTrackOrder, Order: NewOrderInfo(order)}, nil
}

func (s *Service) handleNextPickup(ctx context.Context, _ *turnContext) (*Response, error) {
	order, err := s.store.FindEarliestPendingOrder(ctx)
	if err != nil {
		return nil, storeError("find next pickup", err)
	}
	if order == nil {
		return &Response{Reply: "You have no upcoming pickups right now.", Action: ActionNoPickups}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your next pickup is %s: %s", order.TrackingCode, order.Item)
	if order.Address != nil {
		fmt.Fprintf(&b, " at %s", *order.Address)
	}
	if pickup := order.PickupTime(); pickup != nil {
		fmt.Fprintf(&b, ", scheduled for %s", pickup.In(s.cfg.Location).Format("Jan 2 15:04"))
	}
	b.WriteString(".")
	return &Response{Reply: b.String(), Action: ActionNextPickup, Order: NewOrderInfo(order)}, nil
}

func (s *Service) handleListOrders(ctx context.Context, _ *turnContext) (*Response, error) {
	orders, err := s.store.ListRecentOrders(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, storeError("list orders", err)
	}

	infos := make([]*OrderInfo, 0, len(orders))
	for _, order := range orders {
		infos = append(infos, NewOrderInfo(order))
	}

	var reply string
	switch len(orders) {
	case 0:
		reply = "You don't have any orders yet."
	case 1:
		reply = fmt.Sprintf("You have 1 recent order: %s.", orders[0].TrackingCode)
	default:
		codes := make([]string, 0, len(orders))
		for _, order := range orders {
			codes = append(codes, order.TrackingCode)
		}
		reply = fmt.Sprintf("Here are your %d most recent orders: %s.", len(orders), strings.Join(codes, ", "))
	}
	return &Response{Reply: reply, Action: ActionListOrders, Orders: infos}, nil
}

func (s *Service) handleCancelOrder(ctx context.Context, turn *turnContext) (*Response, error) {
	code := router.NormalizeTrackingCode(turn.classification.TrackingCode)
	if code == "" {
		return askForTrackingID("cancel"), nil
	}

	status := store.OrderStatusCancelled
	order, err := s.store.UpdateOrder(ctx, &store.UpdateOrder{
		TrackingCode: code,
		UpdatedTs:    s.nowUnix(),
		Status:       &status,
	})
	if err != nil {
		return nil, storeError("cancel order", err)
	}
	if order == nil {
		return orderNotFound(code), nil
	}
	return &Response{
		Reply:  fmt.Sprintf("Order %s has been cancelled.", order.TrackingCode),
		Action: ActionCancelledOrder,
		Order:  NewOrderInfo(order),
	}, nil
}

func (s *Service) handleUpdateAddress(ctx context.Context, turn *turnContext) (*Response, error) {
	code, address, err := extract.ParseAddressUpdate(turn.req.Text)
	code = router.NormalizeTrackingCode(code)
	switch {
	case err == nil:
	case errors.Is(err, extract.ErrTrackingCodeMissing):
		return askForTrackingID("update"), nil
	case errors.Is(err, extract.ErrAddressMissing):
		return &Response{
			Reply:  fmt.Sprintf("What is the new address for order %s?", code),
			Action: ActionAskForAddress,
		}, nil
	default:
		return nil, err
	}

	order, err := s.store.UpdateOrder(ctx, &store.UpdateOrder{
		TrackingCode: code,
		UpdatedTs:    s.nowUnix(),
		Address:      &address,
	})
	if err != nil {
		return nil, storeError("update address", err)
	}
	if order == nil {
		return orderNotFound(code), nil
	}
	return &Response{
		Reply:  fmt.Sprintf("The address for order %s is now %s.", order.TrackingCode, address),
		Action: ActionAddressUpdated,
		Order:  NewOrderInfo(order),
	}, nil
}

// handleItemEdit adds or removes items on an existing order. It is tried for
// general utterances that carry a tracking code.
func (s *Service) handleItemEdit(ctx context.Context, edit extract.ItemEdit) (*Response, error) {
	edit.TrackingCode = router.NormalizeTrackingCode(edit.TrackingCode)
	if len(edit.Items) == 0 {
		verb := "add to"
		if edit.Op == extract.ItemOpRemove {
			verb = "remove from"
		}
		return &Response{
			Reply:  fmt.Sprintf("Which items should I %s order %s?", verb, edit.TrackingCode),
			Action: ActionAskForItems,
		}, nil
	}

	existing, err := s.store.GetOrderByTrackingCode(ctx, edit.TrackingCode)
	if err != nil {
		return nil, storeError("get order", err)
	}
	if existing == nil {
		return orderNotFound(edit.TrackingCode), nil
	}

	item := extract.ApplyItemEdit(existing.Item, edit)
	order, err := s.store.UpdateOrder(ctx, &store.UpdateOrder{
		TrackingCode: edit.TrackingCode,
		UpdatedTs:    s.nowUnix(),
		Item:         &item,
	})
	if err != nil {
		return nil, storeError("update items", err)
	}
	if order == nil {
		return orderNotFound(edit.TrackingCode), nil
	}

	items := order.Item
	if items == "" {
		items = "no items"
	}
	return &Response{
		Reply:  fmt.Sprintf("Updated order %s. Items: %s.", order.TrackingCode, items),
		Action: ActionItemsUpdated,
		Order:  NewOrderInfo(order),
	}, nil
}

func (s *Service) nowUnix() *int64 {
	ts := s.now().Unix()
	return &ts
}

func askForTrackingID(verb string) *Response {
	return &Response{
		Reply:  fmt.Sprintf("Please tell me the tracking ID of the order you want to %s, for example ORD-ABC123.", verb),
		Action: ActionAskForTrackingID,
	}
}

func orderNotFound(code string) *Response {
	return &Response{
		Reply:  fmt.Sprintf("Sorry, I couldn't find any order with tracking ID %s.", code),
		Action: ActionOrderNotFound,
	}
}

func describeOrder(order *store.Order) string {
	customer := "no customer name"
	if order.CustomerName != nil {
		customer = *order.CustomerName
	}
	address := "no address"
	if order.Address != nil {
		address = *order.Address
	}
	return fmt.Sprintf("Order %s for %s: %s (quantity %d) to %s. Status: %s.",
		order.TrackingCode, customer, order.Item, order.Quantity, address, order.Status)
}
