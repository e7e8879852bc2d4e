package domain

type PaymentType string

const (
	PaymentCard PaymentType = "CARD"
	PaymentCash PaymentType = "CASH"
	PaymentUPI  PaymentType = "UPI"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentCard, PaymentCash, PaymentUPI:
		return true
	}
	return false
}

// Order records a placed order. ProductName and UnitPrice are snapshots of
// the product at placement time. An order either stays placed or is removed
// by cancellation; there is no fulfilled state.
type Order struct {
	ID          int64
	ProductID   int64
	ProductName string
	Quantity    int64
	UnitPrice   float64
	UserID      int64
	PaymentType PaymentType
}
