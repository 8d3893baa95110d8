package models

import (
	"fmt"
	"time"
)

// Product is a catalog item as stored by the server.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p Product) String() string {
	return fmt.Sprintf("#%d %s  $%.2f  stock: %d", p.ID, p.Name, p.Price, p.Stock)
}

// CreateProductRequest is the write projection for POST /products.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest is the partial write projection for PUT /products/{id}.
// Nil fields are omitted from the request body and keep their server value.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitnil,min=1"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitnil,gte=0"`
	Stock       *int     `json:"stock,omitempty" validate:"omitnil,gte=0"`
}

// IsEmpty reports whether no field is set.
func (r UpdateProductRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil && r.Stock == nil
}

// Ptr returns a pointer to v. Handy for building UpdateProductRequest.
func Ptr[T any](v T) *T {
	return &v
}
