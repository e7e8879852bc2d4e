// Package sequence issues per-kind monotonically increasing identifiers.
package sequence

import "sync/atomic"

type Kind string

const (
	KindProduct Kind = "product"
	KindCart    Kind = "cart"
	KindOrder   Kind = "order"
)

// Sequence hands out positive int64 identifiers, one independent counter per
// entity kind, each starting at 1. Next is safe for concurrent callers and
// never reissues a value, even after the record it named is deleted.
type Sequence struct {
	product atomic.Int64
	cart    atomic.Int64
	order   atomic.Int64
}

func New() *Sequence {
	return &Sequence{}
}

func (s *Sequence) Next(kind Kind) int64 {
	switch kind {
	case KindProduct:
		return s.product.Add(1)
	case KindCart:
		return s.cart.Add(1)
	case KindOrder:
		return s.order.Add(1)
	}
	return 0
}
