package domain

import "github.com/shopspring/decimal"

type Category string

const (
	CategoryTVs            Category = "TVs and Home Theatres"
	CategoryHomeAppliances Category = "Home Appliances"
	CategoryMobiles        Category = "Mobiles"
	CategoryAccessories    Category = "Accessories"
	CategoryLaptops        Category = "Laptops"
	CategoryCameras        Category = "Cameras"
)

var Categories = []Category{
	CategoryTVs,
	CategoryHomeAppliances,
	CategoryMobiles,
	CategoryAccessories,
	CategoryLaptops,
	CategoryCameras,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
}

// ProductDraft is a seller submission that has not been assigned an id yet.
type ProductDraft struct {
	Name        string
	Image       string
	Price       decimal.Decimal
	Description string
	Category    Category
}

func NewProduct(id string, draft ProductDraft) Product {
	return Product{
		ID:          id,
		Name:        draft.Name,
		Image:       draft.Image,
		Price:       draft.Price,
		Description: draft.Description,
		Category:    draft.Category,
	}
}
