package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProductNameMaxLength = 200
	ProductSlugMaxLength = 250

	ProductPriceMaxDigits     = 10
	ProductPriceDecimalPlaces = 2

	ProductImageUploadDir = "products/"
)

// Category is the fixed product category enumeration.
type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryClothing    Category = "CLOTHING"
	CategoryBooks       Category = "BOOKS"
	CategoryFood        Category = "FOOD"

	DefaultCategory = CategoryElectronics
)

// Categories lists every category in display order.
var Categories = []Category{CategoryElectronics, CategoryClothing, CategoryBooks, CategoryFood}

var categoryLabels = map[Category]string{
	CategoryElectronics: "Electronics",
	CategoryClothing:    "Clothing",
	CategoryBooks:       "Books",
	CategoryFood:        "Food",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label is the human readable name, empty for unknown categories.
func (c Category) Label() string { return categoryLabels[c] }

// Product is a catalog item. A product may point at a parent product, in
// which case it is one of the parent's variations (color, size...).
type Product struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Description     *string         `json:"description,omitempty"`
	Category        Category        `json:"category"`
	IsAvailable     bool            `json:"is_available"`
	Stock           int32           `json:"stock"`
	Price           decimal.Decimal `json:"price"`
	ReleaseDate     *time.Time      `json:"release_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Image           *string         `json:"image,omitempty"` // path under ProductImageUploadDir
	ParentProductID *uuid.UUID      `json:"parent_product_id,omitempty"`
}

func (p Product) String() string { return p.Name }

// ApplyDefaults fills the slug from the name and the default category.
func (p *Product) ApplyDefaults() {
	if p.Slug == "" {
		p.Slug = SlugifyMax(p.Name, ProductSlugMaxLength)
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
}

// PrepareForCreate assigns a fresh identifier and applies defaults.
func (p *Product) PrepareForCreate() {
	p.ID = uuid.New()
	p.ApplyDefaults()
}
