package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/validate"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryLaptop    Category = "Laptop"
	CategoryAccessory Category = "Accessory"
)

func (c Category) Valid() bool { return c == CategoryLaptop || c == CategoryAccessory }

type Condition string

const (
	ConditionUsed Condition = "Used"
	ConditionNew  Condition = "New"
)

func (c Condition) Valid() bool { return c == ConditionUsed || c == ConditionNew }

var hundred = decimal.NewFromInt(100)

// Product is a sellable item in the catalog. Sold never exceeds Stock.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Condition   Condition       `json:"condition"`
	Stock       int             `json:"stock"`
	Sold        int             `json:"sold"`
	Discount    decimal.Decimal `json:"discount"`
	Brand       string          `json:"brand"`
	CreatorID   *uuid.UUID      `json:"creator,omitempty"`
	LaunchDate  time.Time       `json:"launchDate"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Images      []Image         `json:"images,omitempty"`
}

// Available is the number of units that can still be ordered.
func (p *Product) Available() int { return p.Stock - p.Sold }

// UnitPrice is the price after discount.
func (p *Product) UnitPrice() decimal.Decimal {
	return UnitPrice(p.Price, p.Discount)
}

// UnitPrice applies a percentage discount to price.
func UnitPrice(price, discount decimal.Decimal) decimal.Decimal {
	return price.Sub(price.Mul(discount).Div(hundred))
}

// LineTotal is the discounted unit price, rounded to cents, times count.
// Order items store that rounded unit price so merged lines stay exact.
func LineTotal(price, discount decimal.Decimal, count int) decimal.Decimal {
	return UnitPrice(price, discount).Round(2).Mul(decimal.NewFromInt(int64(count)))
}

// Image is a stored product picture. Data is only loaded by GetImage.
type Image struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product"`
	ContentType string    `json:"contentType"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	Data        []byte    `json:"-"`
}

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Condition   Condition       `json:"condition"`
	Stock       *int            `json:"stock"`
	Discount    decimal.Decimal `json:"discount"`
	Brand       string          `json:"brand"`
	LaunchDate  string          `json:"launchDate"`
}

func (r CreateRequest) Validate() error {
	var errs web.Errors
	errs.Check(validate.MinLen(r.Name, 1), "name", "Invalid value")
	errs.Check(validate.MinLen(r.Description, 1), "description", "Invalid value")
	errs.Check(r.Price.IsPositive(), "price", "Invalid value")
	errs.Check(r.Category.Valid(), "category", "Invalid value")
	errs.Check(r.Condition == "" || r.Condition.Valid(), "status", "Invalid value")
	errs.Check(r.Stock != nil && *r.Stock >= 0, "stock", "Invalid value")
	errs.Check(validDiscount(r.Discount), "discount", "Invalid value")
	errs.Check(validate.MinLen(r.Brand, 1), "brand", "Invalid value")
	if r.LaunchDate != "" {
		_, ok := validate.Date(r.LaunchDate)
		errs.Check(ok, "launchDate", "Invalid value")
	}
	return errs.Err()
}

// UpdateRequest changes the fields that are present.
type UpdateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *Category        `json:"category"`
	Condition   *Condition       `json:"condition"`
	Stock       *int             `json:"stock"`
	Discount    *decimal.Decimal `json:"discount"`
	Brand       *string          `json:"brand"`
	LaunchDate  *string          `json:"launchDate"`
}

func (r UpdateRequest) Validate() error {
	var errs web.Errors
	if r.Name != nil {
		errs.Check(validate.MinLen(*r.Name, 1), "name", "Invalid value")
	}
	if r.Description != nil {
		errs.Check(validate.MinLen(*r.Description, 1), "description", "Invalid value")
	}
	if r.Price != nil {
		errs.Check(r.Price.IsPositive(), "price", "Invalid value")
	}
	if r.Category != nil {
		errs.Check(r.Category.Valid(), "category", "Invalid value")
	}
	if r.Condition != nil {
		errs.Check(r.Condition.Valid(), "status", "Invalid value")
	}
	if r.Stock != nil {
		errs.Check(*r.Stock >= 0, "stock", "Invalid value")
	}
	if r.Discount != nil {
		errs.Check(validDiscount(*r.Discount), "discount", "Invalid value")
	}
	if r.Brand != nil {
		errs.Check(validate.MinLen(*r.Brand, 1), "brand", "Invalid value")
	}
	if r.LaunchDate != nil {
		_, ok := validate.Date(*r.LaunchDate)
		errs.Check(ok, "launchDate", "Invalid value")
	}
	return errs.Err()
}

func (r UpdateRequest) apply(p *Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Condition != nil {
		p.Condition = *r.Condition
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.Discount != nil {
		p.Discount = *r.Discount
	}
	if r.Brand != nil {
		p.Brand = *r.Brand
	}
	if r.LaunchDate != nil {
		p.LaunchDate, _ = validate.Date(*r.LaunchDate)
	}
}

func validDiscount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}
