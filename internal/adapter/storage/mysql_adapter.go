package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/shop-ledger/internal/core/domain"
	"github.com/rl1809/shop-ledger/internal/port"
)

var _ port.Store = (*MySQLAdapter)(nil)

// MySQLAdapter is the durable Store backend. Stock reservation is a single
// transaction around a conditional update (available >= quantity), so the
// check and the decrement can never be interleaved by a concurrent order.
// When a StockCache is attached, oversized orders are rejected against the
// cached counter before a transaction is even opened.
type MySQLAdapter struct {
	db    *sql.DB
	cache port.StockCache // optional fast-reject front, may be nil
}

func NewMySQLAdapter(db *sql.DB, cache port.StockCache) *MySQLAdapter {
	return &MySQLAdapter{db: db, cache: cache}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.UpdatedAt = time.Now()

	res, err := m.db.ExecContext(ctx, `
		INSERT INTO products (name, description, category, price, available, user_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		product.Name, product.Description, product.Category, product.Price,
		product.Available, product.UserID, product.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, storageErr("insert product", err)
	}

	product.ID, err = res.LastInsertId()
	if err != nil {
		return domain.Product{}, storageErr("insert product", err)
	}

	// Seed the fast-reject counter so products created after boot are
	// orderable through the cache path immediately.
	if m.cache != nil {
		if err := m.cache.SetStock(ctx, product.ID, product.Available); err != nil {
			zap.S().Warnw("stock cache seed failed",
				"product_id", product.ID, "error", err)
		}
	}
	return product, nil
}

// invalidateCache drops the product's fast-reject counter after a catalog
// mutation changed the authoritative stock out from under it. Until the
// counter is seeded again the cache reports unknown and orders fall through
// to the database.
func (m *MySQLAdapter) invalidateCache(ctx context.Context, productID int64) {
	if m.cache == nil {
		return
	}
	if err := m.cache.InvalidateStock(ctx, productID); err != nil {
		zap.S().Warnw("stock cache invalidate failed",
			"product_id", productID, "error", err)
	}
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, description, category, price, available, user_id, updated_at
		FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Available, &p.UserID, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, storageErr("query product", err)
	}
	return p, nil
}

func (m *MySQLAdapter) scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price,
			&p.Available, &p.UserID, &p.UpdatedAt); err != nil {
			return nil, storageErr("scan product", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate products", err)
	}
	return out, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, description, category, price, available, user_id, updated_at
		FROM products ORDER BY id`)
	if err != nil {
		return nil, storageErr("query products", err)
	}
	return m.scanProducts(rows)
}

func (m *MySQLAdapter) ListProductsByOwner(ctx context.Context, userID int64) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, description, category, price, available, user_id, updated_at
		FROM products WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, storageErr("query products", err)
	}
	return m.scanProducts(rows)
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, id int64, product domain.Product) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, category = ?, price = ?, available = ?, user_id = ?, updated_at = ?
		WHERE id = ?`,
		product.Name, product.Description, product.Category, product.Price,
		product.Available, product.UserID, time.Now(), id,
	)
	if err != nil {
		return storageErr("update product", err)
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}

	m.invalidateCache(ctx, id)
	return nil
}

func (m *MySQLAdapter) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin tx", err)
	}
	defer tx.Rollback()

	var open int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE product_id = ?`, id).Scan(&open); err != nil {
		return storageErr("count open orders", err)
	}
	if open > 0 {
		return fmt.Errorf("product %d has open orders: %w", id, domain.ErrConflict)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete product", err)
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit delete product", err)
	}

	m.invalidateCache(ctx, id)
	return nil
}

func (m *MySQLAdapter) AdjustAvailable(ctx context.Context, id int64, delta int64) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET available = available + ?, updated_at = ?
		WHERE id = ? AND available + ? >= 0`,
		delta, time.Now(), id, delta,
	)
	if err != nil {
		return storageErr("adjust available", err)
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected > 0 {
		m.invalidateCache(ctx, id)
		return nil
	}

	// Nothing matched: either the product is gone or the delta would drive
	// the counter negative.
	var exists int
	err = m.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return storageErr("query product", err)
	}
	return fmt.Errorf("product %d: adjust by %d: %w", id, delta, domain.ErrInsufficientStock)
}

func (m *MySQLAdapter) AddCartLine(ctx context.Context, line domain.CartLine) (domain.CartLine, error) {
	res, err := m.db.ExecContext(ctx, `
		INSERT INTO cart_lines (product_id, product_name, quantity, unit_price, user_id)
		VALUES (?, ?, ?, ?, ?)`,
		line.ProductID, line.ProductName, line.Quantity, line.UnitPrice, line.UserID,
	)
	if err != nil {
		return domain.CartLine{}, storageErr("insert cart line", err)
	}

	line.ID, err = res.LastInsertId()
	if err != nil {
		return domain.CartLine{}, storageErr("insert cart line", err)
	}
	return line, nil
}

func (m *MySQLAdapter) GetCartLine(ctx context.Context, id int64) (domain.CartLine, error) {
	var line domain.CartLine
	err := m.db.QueryRowContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price, user_id
		FROM cart_lines WHERE id = ?`, id,
	).Scan(&line.ID, &line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice, &line.UserID)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.CartLine{}, fmt.Errorf("cart line %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.CartLine{}, storageErr("query cart line", err)
	}
	return line, nil
}

func (m *MySQLAdapter) ListCartByUser(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price, user_id
		FROM cart_lines WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, storageErr("query cart lines", err)
	}
	defer rows.Close()

	out := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.ProductName,
			&line.Quantity, &line.UnitPrice, &line.UserID); err != nil {
			return nil, storageErr("scan cart line", err)
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate cart lines", err)
	}
	return out, nil
}

func (m *MySQLAdapter) RemoveCartLine(ctx context.Context, id int64) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete cart line", err)
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("cart line %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (m *MySQLAdapter) CartProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT product_id FROM cart_lines WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, storageErr("query cart product ids", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan cart product id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate cart product ids", err)
	}
	return ids, nil
}

func (m *MySQLAdapter) AdjustCartQuantity(ctx context.Context, userID, productID, delta int64) error {
	// Oldest matching line for this user; quantity must stay >= 1.
	res, err := m.db.ExecContext(ctx, `
		UPDATE cart_lines
		SET quantity = quantity + ?
		WHERE user_id = ? AND product_id = ? AND quantity + ? >= 1
		ORDER BY id LIMIT 1`,
		delta, userID, productID, delta,
	)
	if err != nil {
		return storageErr("adjust cart quantity", err)
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected > 0 {
		return nil
	}

	var exists int
	err = m.db.QueryRowContext(ctx,
		`SELECT 1 FROM cart_lines WHERE user_id = ? AND product_id = ? LIMIT 1`,
		userID, productID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("cart line for user %d product %d: %w", userID, productID, domain.ErrNotFound)
	}
	if err != nil {
		return storageErr("query cart line", err)
	}
	return fmt.Errorf("cart quantity adjust by %d: %w", delta, domain.ErrInvalidArgument)
}

func (m *MySQLAdapter) PlaceOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	cacheDrawn := false
	if m.cache != nil {
		decision, err := m.cache.DecrementStock(ctx, order.ProductID, order.Quantity)
		switch {
		case err != nil:
			// Cache trouble must not block orders; the conditional update
			// below remains the authority.
			zap.S().Warnw("stock cache unavailable, skipping fast path",
				"product_id", order.ProductID, "error", err)
		case decision == port.StockDenied:
			return domain.Order{}, fmt.Errorf("product %d: want %d: %w",
				order.ProductID, order.Quantity, domain.ErrInsufficientStock)
		case decision == port.StockGranted:
			cacheDrawn = true
		}
		// StockUnknown: no counter for this product, the conditional update
		// below decides.
	}

	placed, err := m.placeOrderTx(ctx, order)
	if err != nil && cacheDrawn {
		// The counter was drawn down optimistically; put it back.
		if rollbackErr := m.cache.IncrementStock(ctx, order.ProductID, order.Quantity); rollbackErr != nil {
			zap.S().Errorw("stock cache rollback failed",
				"product_id", order.ProductID, "error", rollbackErr)
		}
	}
	return placed, err
}

func (m *MySQLAdapter) placeOrderTx(ctx context.Context, order domain.Order) (domain.Order, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, storageErr("begin tx", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET available = available - ?, updated_at = ?
		WHERE id = ? AND available >= ?`,
		order.Quantity, time.Now(), order.ProductID, order.Quantity,
	)
	if err != nil {
		return domain.Order{}, storageErr("reserve stock", err)
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		var exists int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, order.ProductID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, fmt.Errorf("product %d: %w", order.ProductID, domain.ErrNotFound)
		}
		if err != nil {
			return domain.Order{}, storageErr("query product", err)
		}
		return domain.Order{}, fmt.Errorf("product %d: want %d: %w",
			order.ProductID, order.Quantity, domain.ErrInsufficientStock)
	}

	ins, err := tx.ExecContext(ctx, `
		INSERT INTO orders (product_id, product_name, quantity, unit_price, user_id, payment_type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ProductID, order.ProductName, order.Quantity, order.UnitPrice,
		order.UserID, order.PaymentType,
	)
	if err != nil {
		return domain.Order{}, storageErr("insert order", err)
	}

	id, err := ins.LastInsertId()
	if err != nil {
		return domain.Order{}, storageErr("insert order", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, storageErr("commit order", err)
	}

	order.ID = id
	return order, nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price, user_id, payment_type
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.ProductID, &o.ProductName, &o.Quantity, &o.UnitPrice, &o.UserID, &o.PaymentType)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Order{}, storageErr("query order", err)
	}
	return o, nil
}

func (m *MySQLAdapter) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price, user_id, payment_type
		FROM orders WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, storageErr("query orders", err)
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.ProductID, &o.ProductName, &o.Quantity,
			&o.UnitPrice, &o.UserID, &o.PaymentType); err != nil {
			return nil, storageErr("scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate orders", err)
	}
	return out, nil
}

func (m *MySQLAdapter) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, storageErr("begin tx", err)
	}
	defer tx.Rollback()

	var o domain.Order
	err = tx.QueryRowContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price, user_id, payment_type
		FROM orders WHERE id = ? FOR UPDATE`, id,
	).Scan(&o.ID, &o.ProductID, &o.ProductName, &o.Quantity, &o.UnitPrice, &o.UserID, &o.PaymentType)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Order{}, storageErr("query order", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return domain.Order{}, storageErr("delete order", err)
	}

	// Restore stock. Zero rows means the product was deleted after the order
	// was placed; the restore is a no-op and the cancel still succeeds.
	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET available = available + ?, updated_at = ? WHERE id = ?`,
		o.Quantity, time.Now(), o.ProductID,
	); err != nil {
		return domain.Order{}, storageErr("restore stock", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, storageErr("commit cancel", err)
	}

	if m.cache != nil {
		if err := m.cache.IncrementStock(ctx, o.ProductID, o.Quantity); err != nil {
			zap.S().Errorw("stock cache restore failed",
				"order_id", o.ID, "product_id", o.ProductID, "error", err)
		}
	}
	return o, nil
}
