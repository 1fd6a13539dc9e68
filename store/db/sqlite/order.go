package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/gigvoice/store"
)

const orderColumns = `id, tracking_code, customer_name, address, item, quantity, status,
	pickup_ts, assignee, payload, amount, expense, created_ts, updated_ts`

func (d *DB) CreateOrder(ctx context.Context, create *store.Order) (*store.Order, error) {
	payload, err := create.MarshalPayload()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}
	if create.Status == "" {
		create.Status = store.OrderStatusCreated
	}
	if create.Quantity <= 0 {
		create.Quantity = 1
	}

	fields := []string{
		"tracking_code", "customer_name", "address", "item", "quantity", "status",
		"pickup_ts", "assignee", "payload", "amount", "expense",
	}
	placeholderValues := []any{
		create.TrackingCode, create.CustomerName, create.Address, create.Item, create.Quantity, create.Status,
		create.PickupTs, create.Assignee, payload, create.Amount, create.Expense,
	}

	// Add optional timestamps
	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		placeholderValues = append(placeholderValues, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields = append(fields, "updated_ts")
		placeholderValues = append(placeholderValues, create.UpdatedTs)
	}

	stmt := `INSERT INTO delivery_order (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return create, nil
}

func buildOrderWhere(find *store.FindOrder) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.TrackingCode; v != nil {
		where, args = append(where, "tracking_code = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(find.StatusList) > 0 {
		list := make([]string, 0, len(find.StatusList))
		for _, status := range find.StatusList {
			list = append(list, placeholder(len(args)+1))
			args = append(args, status)
		}
		where = append(where, "status IN ("+strings.Join(list, ", ")+")")
	}
	if v := find.CreatedTsAfter; v != nil {
		where, args = append(where, "created_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatedTsBefore; v != nil {
		where, args = append(where, "created_ts < "+placeholder(len(args)+1)), append(args, *v)
	}
	return where, args
}

func (d *DB) ListOrders(ctx context.Context, find *store.FindOrder) ([]*store.Order, error) {
	where, args := buildOrderWhere(find)

	orderBy := "ORDER BY created_ts DESC, id DESC"
	if find.Sort == store.OrderSortPickupAsc {
		orderBy = "ORDER BY pickup_ts IS NULL, pickup_ts ASC, created_ts ASC, id ASC"
	}

	query := `SELECT ` + orderColumns + ` FROM delivery_order WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return list, nil
}

func (d *DB) CountOrders(ctx context.Context, find *store.FindOrder) (int, error) {
	where, args := buildOrderWhere(find)
	query := `SELECT COUNT(*) FROM delivery_order WHERE ` + strings.Join(where, " AND ")

	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (d *DB) UpdateOrder(ctx context.Context, update *store.UpdateOrder) (*store.Order, error) {
	set, args := []string{}, []any{}

	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.CustomerName; v != nil {
		set, args = append(set, "customer_name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Address; v != nil {
		set, args = append(set, "address = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Item; v != nil {
		set, args = append(set, "item = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Quantity; v != nil {
		set, args = append(set, "quantity = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.PickupTs; v != nil {
		set, args = append(set, "pickup_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Assignee; v != nil {
		set, args = append(set, "assignee = "+placeholder(len(args)+1)), append(args, *v)
	}

	// Nothing to change still resolves the order so callers can tell found from missing.
	if len(set) == 0 {
		set = append(set, "tracking_code = tracking_code")
	}

	args = append(args, update.TrackingCode)
	stmt := `UPDATE delivery_order SET ` + strings.Join(set, ", ") +
		` WHERE tracking_code = ` + placeholder(len(args)) + ` RETURNING ` + orderColumns

	order, err := scanOrder(d.db.QueryRowContext(ctx, stmt, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return order, nil
}

func (d *DB) DeleteOrder(ctx context.Context, delete *store.DeleteOrder) (bool, error) {
	stmt := `DELETE FROM delivery_order WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*store.Order, error) {
	var (
		order                           store.Order
		customerName, address, assignee sql.NullString
		pickupTs                        sql.NullInt64
		payload                         string
	)
	if err := row.Scan(
		&order.ID,
		&order.TrackingCode,
		&customerName,
		&address,
		&order.Item,
		&order.Quantity,
		&order.Status,
		&pickupTs,
		&assignee,
		&payload,
		&order.Amount,
		&order.Expense,
		&order.CreatedTs,
		&order.UpdatedTs,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	if customerName.Valid {
		order.CustomerName = &customerName.String
	}
	if address.Valid {
		order.Address = &address.String
	}
	if assignee.Valid {
		order.Assignee = &assignee.String
	}
	if pickupTs.Valid {
		order.PickupTs = &pickupTs.Int64
	}
	order.UnmarshalPayload(payload)

	return &order, nil
}
