package port

import "context"

// StockDecision is a StockCache verdict on a reservation attempt. The cache
// is a fast-reject front, not the stock authority; only the storage backend
// may turn StockUnknown into an admission or a rejection.
type StockDecision int

const (
	// StockUnknown means no counter exists for the product; the caller must
	// fall through to the authoritative check.
	StockUnknown StockDecision = iota
	// StockDenied means the counter exists and cannot cover the request.
	StockDenied
	// StockGranted means the counter existed and was drawn down.
	StockGranted
)

// StockCache mirrors product stock counters in a fast store so a durable
// backend can reject oversized orders before opening a transaction.
type StockCache interface {
	// DecrementStock atomically draws down cached stock. A missing counter
	// yields StockUnknown, never StockDenied.
	DecrementStock(ctx context.Context, productID int64, quantity int64) (StockDecision, error)

	// IncrementStock restores cached stock (cancellation, or rollback on a
	// failed write). A missing counter is left absent rather than created,
	// so a never-seeded product cannot gain a counter that undercounts the
	// authoritative stock.
	IncrementStock(ctx context.Context, productID int64, quantity int64) error

	// SetStock seeds or overwrites the counter for a product.
	SetStock(ctx context.Context, productID int64, quantity int64) error

	// InvalidateStock drops the counter so subsequent decrements report
	// StockUnknown until the counter is seeded again.
	InvalidateStock(ctx context.Context, productID int64) error
}
