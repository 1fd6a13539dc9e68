package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Order model related methods.
	CreateOrder(ctx context.Context, create *Order) (*Order, error)
	ListOrders(ctx context.Context, find *FindOrder) ([]*Order, error)
	CountOrders(ctx context.Context, find *FindOrder) (int, error)
	// UpdateOrder returns nil, nil when no order matches the tracking code.
	UpdateOrder(ctx context.Context, update *UpdateOrder) (*Order, error)
	DeleteOrder(ctx context.Context, delete *DeleteOrder) (bool, error)
}
