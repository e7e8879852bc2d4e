package domain

import "time"

type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryClothes     Category = "CLOTHES"
	CategoryGrocery     Category = "GROCERY"
	CategoryBooks       Category = "BOOKS"
	CategoryFurniture   Category = "FURNITURE"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothes, CategoryGrocery, CategoryBooks, CategoryFurniture:
		return true
	}
	return false
}

type Product struct {
	ID          int64
	Name        string
	Description string
	Category    Category
	Price       float64
	Available   int64
	UserID      int64
	UpdatedAt   time.Time
}
