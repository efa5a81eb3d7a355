package models

import (
	"errors"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	dErrors "catalog/pkg/domain-errors"
)

// Product is a catalog entry.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input is the create/update payload. Price and Stock are pointers so a
// missing field is distinguishable from zero.
type Input struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

// Validate checks every rule and reports all violations together.
func (in Input) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.By(notBlank("name is required"))),
		validation.Field(&in.Category, validation.By(notBlank("category is required"))),
		validation.Field(&in.Price,
			validation.NotNil.Error("price must be a positive number"),
			validation.By(positivePrice),
		),
		validation.Field(&in.Stock,
			validation.NotNil.Error("stock must be a non-negative integer"),
			validation.By(nonNegativeStock),
		),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "validation failed")
	}
	violations := make([]dErrors.Violation, 0, len(fieldErrs))
	for field, ferr := range fieldErrs {
		violations = append(violations, dErrors.Violation{Field: field, Message: ferr.Error()})
	}
	sort.Slice(violations, func(i, j int) bool {
		return fieldOrder[violations[i].Field] < fieldOrder[violations[j].Field]
	})
	return dErrors.Validation(violations)
}

// Apply copies a validated input onto p.
func (in Input) Apply(p *Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Category = strings.TrimSpace(in.Category)
	p.Description = in.Description
	p.Price = *in.Price
	p.Stock = *in.Stock
}

var fieldOrder = map[string]int{"name": 0, "category": 1, "price": 2, "stock": 3}

func notBlank(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		if s, _ := value.(string); strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

func positivePrice(value interface{}) error {
	if p, ok := value.(*float64); ok && p != nil && *p <= 0 {
		return errors.New("price must be a positive number")
	}
	return nil
}

func nonNegativeStock(value interface{}) error {
	if s, ok := value.(*int); ok && s != nil && *s < 0 {
		return errors.New("stock must be a non-negative integer")
	}
	return nil
}

// SortColumn is an allow-listed sort key.
type SortColumn string

const (
	SortName      SortColumn = "name"
	SortCategory  SortColumn = "category"
	SortPrice     SortColumn = "price"
	SortStock     SortColumn = "stock"
	SortCreatedAt SortColumn = "createdAt"
	SortUpdatedAt SortColumn = "updatedAt"
)

// sortColumns maps the API sort key to its database column.
var sortColumns = map[SortColumn]string{
	SortName:      "name",
	SortCategory:  "category",
	SortPrice:     "price",
	SortStock:     "stock",
	SortCreatedAt: "created_at",
	SortUpdatedAt: "updated_at",
}

// Column returns the database column for c.
func (c SortColumn) Column() string {
	return sortColumns[c]
}

// ListQuery is a normalized product listing request.
type ListQuery struct {
	// Search matches name or category, case-insensitively, as a substring.
	Search string
	// Category matches exactly.
	Category string
	SortBy   SortColumn
	Desc     bool
	Limit    int
	Offset   int
}

// ParseSort resolves sortBy/order. An unknown or empty column falls back to
// createdAt DESC; order is DESC only when it says so, case-insensitively.
func ParseSort(sortBy, order string) (SortColumn, bool) {
	col := SortColumn(strings.TrimSpace(sortBy))
	if _, ok := sortColumns[col]; !ok {
		return SortCreatedAt, true
	}
	return col, strings.EqualFold(strings.TrimSpace(order), "DESC")
}

// ListResult is one page of products plus the total match count.
type ListResult struct {
	Total    int
	Products []*Product
}
