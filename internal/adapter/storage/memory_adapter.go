package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/shop-ledger/internal/core/domain"
	"github.com/rl1809/shop-ledger/internal/core/sequence"
	"github.com/rl1809/shop-ledger/internal/port"
)

var _ port.Store = (*MemoryAdapter)(nil)

// MemoryAdapter is the default Store backend. One RWMutex spans the catalog,
// cart, and order state so every check-then-write runs as a single critical
// section; reads take the shared lock and never observe a half-applied
// reservation. The lock is never held across anything that can block.
type MemoryAdapter struct {
	mu       sync.RWMutex
	seq      *sequence.Sequence
	products map[int64]domain.Product
	carts    map[int64]domain.CartLine
	orders   map[int64]domain.Order
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		seq:      sequence.New(),
		products: make(map[int64]domain.Product),
		carts:    make(map[int64]domain.CartLine),
		orders:   make(map[int64]domain.Order),
	}
}

func (m *MemoryAdapter) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	product.ID = m.seq.Next(sequence.KindProduct)
	product.UpdatedAt = time.Now()
	m.products[product.ID] = product

	return product, nil
}

func (m *MemoryAdapter) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return product, nil
}

func (m *MemoryAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (m *MemoryAdapter) ListProductsByOwner(ctx context.Context, userID int64) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Product{}
	for _, p := range m.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (m *MemoryAdapter) UpdateProduct(ctx context.Context, id int64, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}

	product.ID = id
	product.UpdatedAt = time.Now()
	m.products[id] = product

	return nil
}

// DeleteProduct refuses to remove a product that open orders still reference;
// cancelling those orders must be able to restore its stock.
func (m *MemoryAdapter) DeleteProduct(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	for _, o := range m.orders {
		if o.ProductID == id {
			return fmt.Errorf("product %d has open orders: %w", id, domain.ErrConflict)
		}
	}

	delete(m.products, id)
	return nil
}

func (m *MemoryAdapter) AdjustAvailable(ctx context.Context, id int64, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	if product.Available+delta < 0 {
		return fmt.Errorf("product %d: adjust by %d: %w", id, delta, domain.ErrInsufficientStock)
	}

	product.Available += delta
	product.UpdatedAt = time.Now()
	m.products[id] = product

	return nil
}

func (m *MemoryAdapter) AddCartLine(ctx context.Context, line domain.CartLine) (domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Duplicate lines for the same (user, product) pair are allowed: adding
	// the same product twice yields two lines.
	line.ID = m.seq.Next(sequence.KindCart)
	m.carts[line.ID] = line

	return line, nil
}

func (m *MemoryAdapter) GetCartLine(ctx context.Context, id int64) (domain.CartLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	line, ok := m.carts[id]
	if !ok {
		return domain.CartLine{}, fmt.Errorf("cart line %d: %w", id, domain.ErrNotFound)
	}
	return line, nil
}

func (m *MemoryAdapter) ListCartByUser(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.CartLine{}
	for _, line := range m.carts {
		if line.UserID == userID {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (m *MemoryAdapter) RemoveCartLine(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[id]; !ok {
		return fmt.Errorf("cart line %d: %w", id, domain.ErrNotFound)
	}

	delete(m.carts, id)
	return nil
}

func (m *MemoryAdapter) CartProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	lines, err := m.ListCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids, nil
}

// AdjustCartQuantity applies delta to the oldest line of (userID, productID).
// The match is scoped to the owning user so one user's adjustment can never
// touch another user's cart.
func (m *MemoryAdapter) AdjustCartQuantity(ctx context.Context, userID, productID, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var match *domain.CartLine
	for _, line := range m.carts {
		if line.UserID != userID || line.ProductID != productID {
			continue
		}
		if match == nil || line.ID < match.ID {
			l := line
			match = &l
		}
	}
	if match == nil {
		return fmt.Errorf("cart line for user %d product %d: %w", userID, productID, domain.ErrNotFound)
	}
	if match.Quantity+delta < 1 {
		return fmt.Errorf("cart line %d: adjust by %d: %w", match.ID, delta, domain.ErrInvalidArgument)
	}

	match.Quantity += delta
	m.carts[match.ID] = *match

	return nil
}

func (m *MemoryAdapter) PlaceOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[order.ProductID]
	if !ok {
		return domain.Order{}, fmt.Errorf("product %d: %w", order.ProductID, domain.ErrNotFound)
	}
	if order.Quantity > product.Available {
		return domain.Order{}, fmt.Errorf("product %d: want %d, have %d: %w",
			order.ProductID, order.Quantity, product.Available, domain.ErrInsufficientStock)
	}

	product.Available -= order.Quantity
	product.UpdatedAt = time.Now()
	m.products[product.ID] = product

	order.ID = m.seq.Next(sequence.KindOrder)
	m.orders[order.ID] = order

	return order, nil
}

func (m *MemoryAdapter) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return order, nil
}

func (m *MemoryAdapter) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// CancelOrder removes the order and restores the product's stock in the same
// critical section. If the product has been deleted in the meantime the
// restore is a no-op; cancellation still succeeds.
func (m *MemoryAdapter) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	delete(m.orders, id)

	if product, ok := m.products[order.ProductID]; ok {
		product.Available += order.Quantity
		product.UpdatedAt = time.Now()
		m.products[product.ID] = product
	}

	return order, nil
}
