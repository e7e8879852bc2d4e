package port

import (
	"context"

	"github.com/rl1809/shop-ledger/internal/core/domain"
)

// Store is the storage contract behind the inventory engine. Implementations
// must make PlaceOrder and CancelOrder atomic with respect to the referenced
// product's available quantity: the stock check and the decrement (or the
// order removal and the restore) form one critical section, never two calls
// a concurrent writer can interleave.
type Store interface {
	// Catalog.
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListProductsByOwner(ctx context.Context, userID int64) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, product domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	AdjustAvailable(ctx context.Context, id int64, delta int64) error

	// Cart ledger.
	AddCartLine(ctx context.Context, line domain.CartLine) (domain.CartLine, error)
	GetCartLine(ctx context.Context, id int64) (domain.CartLine, error)
	ListCartByUser(ctx context.Context, userID int64) ([]domain.CartLine, error)
	RemoveCartLine(ctx context.Context, id int64) error
	CartProductIDs(ctx context.Context, userID int64) ([]int64, error)
	AdjustCartQuantity(ctx context.Context, userID, productID, delta int64) error

	// Order ledger and stock reservation.
	PlaceOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	CancelOrder(ctx context.Context, id int64) (domain.Order, error)
}
