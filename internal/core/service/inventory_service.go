package service

import (
	"context"
	"fmt"

	"github.com/rl1809/shop-ledger/internal/core/domain"
	"github.com/rl1809/shop-ledger/internal/port"
)

// InventoryService is the engine behind the transport layer. It owns the
// single mutation path into the storage backend: it validates input, stamps
// product snapshots onto cart lines and orders, and leaves the atomic
// check-then-write to the Store implementation.
type InventoryService struct {
	store port.Store
}

func NewInventoryService(store port.Store) *InventoryService {
	return &InventoryService{store: store}
}

func (s *InventoryService) CreateProduct(ctx context.Context, product *domain.Product) (domain.Product, error) {
	if product == nil {
		return domain.Product{}, fmt.Errorf("create product: nil product: %w", domain.ErrInvalidArgument)
	}
	if product.Name == "" {
		return domain.Product{}, fmt.Errorf("create product: empty name: %w", domain.ErrInvalidArgument)
	}
	if !product.Category.Valid() {
		return domain.Product{}, fmt.Errorf("create product: category %q: %w", product.Category, domain.ErrInvalidArgument)
	}
	if product.Price < 0 {
		return domain.Product{}, fmt.Errorf("create product: negative price: %w", domain.ErrInvalidArgument)
	}
	if product.Available < 0 {
		return domain.Product{}, fmt.Errorf("create product: negative stock: %w", domain.ErrInvalidArgument)
	}

	return s.store.CreateProduct(ctx, *product)
}

func (s *InventoryService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *InventoryService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *InventoryService) ListProductsByOwner(ctx context.Context, userID int64) ([]domain.Product, error) {
	return s.store.ListProductsByOwner(ctx, userID)
}

func (s *InventoryService) UpdateProduct(ctx context.Context, id int64, product *domain.Product) error {
	if product == nil {
		return fmt.Errorf("update product: nil product: %w", domain.ErrInvalidArgument)
	}
	if product.Name == "" {
		return fmt.Errorf("update product: empty name: %w", domain.ErrInvalidArgument)
	}
	if !product.Category.Valid() {
		return fmt.Errorf("update product: category %q: %w", product.Category, domain.ErrInvalidArgument)
	}
	if product.Price < 0 || product.Available < 0 {
		return fmt.Errorf("update product: negative price or stock: %w", domain.ErrInvalidArgument)
	}

	return s.store.UpdateProduct(ctx, id, *product)
}

func (s *InventoryService) DeleteProduct(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, id)
}

func (s *InventoryService) AdjustAvailable(ctx context.Context, id int64, delta int64) error {
	if delta == 0 {
		return fmt.Errorf("adjust available: zero delta: %w", domain.ErrInvalidArgument)
	}
	return s.store.AdjustAvailable(ctx, id, delta)
}

// AddToCart snapshots the product's name and price onto the new line. The
// snapshot is intentionally left stale when the product is later edited.
func (s *InventoryService) AddToCart(ctx context.Context, userID, productID, quantity int64) (domain.CartLine, error) {
	if quantity <= 0 {
		return domain.CartLine{}, fmt.Errorf("add to cart: quantity %d: %w", quantity, domain.ErrInvalidArgument)
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return domain.CartLine{}, err
	}

	line := domain.CartLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		UserID:      userID,
	}
	return s.store.AddCartLine(ctx, line)
}

func (s *InventoryService) GetCartLine(ctx context.Context, id int64) (domain.CartLine, error) {
	return s.store.GetCartLine(ctx, id)
}

func (s *InventoryService) CartForUser(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	return s.store.ListCartByUser(ctx, userID)
}

func (s *InventoryService) RemoveFromCart(ctx context.Context, id int64) error {
	return s.store.RemoveCartLine(ctx, id)
}

func (s *InventoryService) CartProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.store.CartProductIDs(ctx, userID)
}

func (s *InventoryService) AdjustCartQuantity(ctx context.Context, userID, productID, delta int64) error {
	if delta == 0 {
		return fmt.Errorf("adjust cart quantity: zero delta: %w", domain.ErrInvalidArgument)
	}
	return s.store.AdjustCartQuantity(ctx, userID, productID, delta)
}

// PlaceOrder reserves stock for the order. The product fetch here only feeds
// the name and price snapshot; the authoritative stock check happens inside
// the store's critical section, so two concurrent orders can never both draw
// from the same units.
func (s *InventoryService) PlaceOrder(ctx context.Context, userID, productID, quantity int64, payment domain.PaymentType) (domain.Order, error) {
	if quantity <= 0 {
		return domain.Order{}, fmt.Errorf("place order: quantity %d: %w", quantity, domain.ErrInvalidArgument)
	}
	if !payment.Valid() {
		return domain.Order{}, fmt.Errorf("place order: payment type %q: %w", payment, domain.ErrInvalidArgument)
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		UserID:      userID,
		PaymentType: payment,
	}
	return s.store.PlaceOrder(ctx, order)
}

func (s *InventoryService) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *InventoryService) OrdersForUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

// CancelOrder reverses a placement exactly once; a second cancel of the same
// id reports ErrNotFound.
func (s *InventoryService) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	return s.store.CancelOrder(ctx, id)
}
