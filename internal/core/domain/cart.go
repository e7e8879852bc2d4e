package domain

// CartLine is one entry in a user's cart. ProductName and UnitPrice are
// snapshots taken when the line is added and are not kept in sync with
// later product edits.
type CartLine struct {
	ID          int64
	ProductID   int64
	ProductName string
	Quantity    int64
	UnitPrice   float64
	UserID      int64
}
